package result

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradechat-bot/server/internal/intent"
)

func TestNormalizeEmptyRows(t *testing.T) {
	got := Normalize(intent.CalcMonthValue, intent.MetricAmountUSD, nil)

	require.Equal(t, "empty", got["type"])
	require.Equal(t, WarningNoData, got["warning"])
	require.Equal(t, "ам.доллар", got["unit"])
}

func TestNormalizeSingleValue(t *testing.T) {
	rows := []map[string]any{{"year": 2025, "month": 3, "value": 12345678.0}}

	got := Normalize(intent.CalcMonthValue, intent.MetricAmountUSD, rows)

	require.Equal(t, "single", got["type"])
	require.Equal(t, "month", got["period_kind"])
	require.Equal(t, "2025-03", got["period"])
	require.Equal(t, 12345678.0, got["value"])
	require.InDelta(t, 12.345678, got["value_scaled"], 1e-9)
	require.Equal(t, "12.35 сая ам.доллар", got["display"])
}

func TestNormalizeNilValue(t *testing.T) {
	rows := []map[string]any{{"year": 2025, "month": nil, "value": nil}}

	got := Normalize(intent.CalcYearTotal, intent.MetricAmountUSD, rows)

	require.Equal(t, "year", got["period_kind"])
	require.Equal(t, "2025", got["period"])
	require.Equal(t, "—", got["display"])
	require.NotContains(t, got, "value_scaled")
}

func TestNormalizeMonthlySeries(t *testing.T) {
	rows := []map[string]any{
		{"year": 2025, "month": 1, "value": 1000.0},
		{"year": 2025, "month": 2, "value": nil},
	}

	got := Normalize(intent.CalcTimeseriesMonth, intent.MetricQuantity, rows)

	require.Equal(t, "series", got["type"])
	require.Equal(t, "month", got["granularity"])
	require.Equal(t, "тонн", got["unit"])
	require.Equal(t, "мянга", got["scale_label"])

	points := got["series"].([]map[string]any)
	require.Len(t, points, 2)
	require.Equal(t, "2025-01", points[0]["label"])
	require.InDelta(t, 1.0, points[0]["value_scaled"], 1e-9)
	require.Equal(t, "—", points[1]["display"])
	require.NotContains(t, points[1], "value_scaled")
}

func TestNormalizeYearlySeries(t *testing.T) {
	rows := []map[string]any{
		{"year": 2024, "value": 5e6},
		{"year": 2025, "value": 6e6},
	}

	got := Normalize(intent.CalcTimeseriesYear, intent.MetricAmountUSD, rows)

	require.Equal(t, "year", got["granularity"])
	require.Equal(t, "series_year", got["period_kind"])
	points := got["series"].([]map[string]any)
	require.Equal(t, "2024", points[0]["label"])
	require.Equal(t, "2025", points[1]["label"])
	require.NotContains(t, points[0], "month")
}

func TestNormalizeYoY(t *testing.T) {
	rows := []map[string]any{{
		"year": 2025, "month": 3,
		"current": 120.0, "previous": 100.0, "pct": 20.0,
	}}

	got := Normalize(intent.CalcYoY, intent.MetricAmountUSD, rows)

	require.Equal(t, "yoy", got["type"])
	require.Equal(t, 120.0, got["current"])
	require.Equal(t, "20.00%", got["display_pct"])
}

func TestNormalizeYoYNilPct(t *testing.T) {
	rows := []map[string]any{{
		"year": 2025, "month": 3,
		"current": 120.0, "previous": nil, "pct": nil,
	}}

	got := Normalize(intent.CalcYoY, intent.MetricAmountUSD, rows)

	require.Equal(t, "—", got["display_pct"])
	require.Equal(t, "—", got["display_previous"])
}

func TestFormatValueWeightedPriceUnscaled(t *testing.T) {
	require.Equal(t, "1234.50 ам.доллар/тонн", FormatValue(1234.5, intent.MetricWeightedPrice))
}

func TestScale(t *testing.T) {
	div, label := Scale(intent.MetricAmountUSD)
	require.Equal(t, 1e6, div)
	require.Equal(t, "сая", label)

	div, label = Scale(intent.MetricWeightedPrice)
	require.Equal(t, 1.0, div)
	require.Empty(t, label)
}

func TestAsFloat(t *testing.T) {
	f, ok := AsFloat(int64(42))
	require.True(t, ok)
	require.Equal(t, 42.0, f)

	f, ok = AsFloat("12.5")
	require.True(t, ok)
	require.Equal(t, 12.5, f)

	_, ok = AsFloat(nil)
	require.False(t, ok)

	_, ok = AsFloat(struct{}{})
	require.False(t, ok)
}
