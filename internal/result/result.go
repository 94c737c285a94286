// Package result turns raw query rows into the answer contract consumed
// by the explanation step and the API response: typed payload, scaled
// values and ready-to-render display strings.
package result

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tradechat-bot/server/internal/intent"
)

// Contract is the normalized result payload. Shape depends on "type":
// "single" carries value fields, "series" a list of period points, "yoy"
// a current/previous pair, "empty" only a warning.
type Contract map[string]any

const WarningNoData = "no_data"

// Unit returns the display unit for a metric.
func Unit(metric string) string {
	switch metric {
	case intent.MetricQuantity:
		return "тонн"
	case intent.MetricWeightedPrice:
		return "ам.доллар/тонн"
	default:
		return "ам.доллар"
	}
}

// Scale returns the display divisor and its label. Dollar amounts read
// best in millions, tonnage in thousands; a weighted price is already a
// per-ton ratio and is never scaled.
func Scale(metric string) (float64, string) {
	switch metric {
	case intent.MetricQuantity:
		return 1e3, "мянга"
	case intent.MetricWeightedPrice:
		return 1, ""
	default:
		return 1e6, "сая"
	}
}

// FormatValue renders a value with its scale label and unit, or a dash
// placeholder when the value is missing.
func FormatValue(v any, metric string) string {
	f, ok := AsFloat(v)
	if !ok {
		return "—"
	}
	if metric == intent.MetricWeightedPrice {
		return fmt.Sprintf("%.2f %s", f, Unit(metric))
	}
	div, label := Scale(metric)
	return fmt.Sprintf("%.2f %s %s", f/div, label, Unit(metric))
}

// Normalize converts rows into the contract for the executed calc. The
// calc must be the one recorded in query metadata, not the requested one,
// since the builder may rewrite a calc while building.
func Normalize(calc intent.Calc, metric string, rows []map[string]any) Contract {
	div, label := Scale(metric)

	base := Contract{
		"unit":        Unit(metric),
		"scale_label": label,
		"period_kind": periodKind(calc),
	}

	if len(rows) == 0 {
		base["type"] = "empty"
		base["warning"] = WarningNoData
		return base
	}

	switch {
	case calc.IsTimeseries():
		points := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			p := map[string]any{
				"year":    row["year"],
				"label":   periodLabel(row),
				"value":   row["value"],
				"display": FormatValue(row["value"], metric),
			}
			if calc == intent.CalcTimeseriesMonth {
				p["month"] = row["month"]
			}
			if f, ok := AsFloat(row["value"]); ok {
				p["value_scaled"] = f / div
			}
			points = append(points, p)
		}
		base["type"] = "series"
		base["granularity"] = seriesGranularity(calc)
		base["series"] = points
		return base

	case calc == intent.CalcYoY:
		row := rows[0]
		base["type"] = "yoy"
		base["year"] = row["year"]
		base["month"] = row["month"]
		base["current"] = row["current"]
		base["previous"] = row["previous"]
		base["pct"] = row["pct"]
		base["display_current"] = FormatValue(row["current"], metric)
		base["display_previous"] = FormatValue(row["previous"], metric)
		if pct, ok := AsFloat(row["pct"]); ok {
			base["display_pct"] = fmt.Sprintf("%.2f%%", pct)
		} else {
			base["display_pct"] = "—"
		}
		return base

	default:
		row := rows[0]
		base["type"] = "single"
		base["year"] = row["year"]
		base["month"] = row["month"]
		base["period"] = periodLabel(row)
		base["value"] = row["value"]
		base["display"] = FormatValue(row["value"], metric)
		if f, ok := AsFloat(row["value"]); ok {
			base["value_scaled"] = f / div
		}
		return base
	}
}

// periodKind classifies what one value (or one series point) spans.
func periodKind(calc intent.Calc) string {
	switch calc {
	case intent.CalcTimeseriesMonth:
		return "series_month"
	case intent.CalcTimeseriesYear:
		return "series_year"
	case intent.CalcYTD, intent.CalcYearTotal, intent.CalcAvgYears:
		return "year"
	default:
		return "month"
	}
}

func seriesGranularity(calc intent.Calc) string {
	if calc == intent.CalcTimeseriesYear {
		return "year"
	}
	return "month"
}

// periodLabel renders "2025-03" when a month is present, "2025" otherwise.
func periodLabel(row map[string]any) string {
	y, okY := AsFloat(row["year"])
	if !okY {
		return ""
	}
	if m, okM := AsFloat(row["month"]); okM {
		return fmt.Sprintf("%d-%02d", int(y), int(m))
	}
	return strconv.Itoa(int(y))
}

// AsFloat accepts the numeric shapes the driver hands back for aggregate
// columns, including NUMERIC values that were not mapped to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case pgtype.Numeric:
		f8, err := n.Float64Value()
		if err != nil || !f8.Valid {
			return 0, false
		}
		return f8.Float64, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
