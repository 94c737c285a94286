package sqlbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tradechat-bot/server/internal/intent"
)

// Metadata records what was actually executed. The builder may silently
// rewrite calc (a bare year under month_value becomes a monthly series),
// so downstream formatting must trust this over the original intent.
type Metadata struct {
	View         string      `json:"view"`
	ViewType     string      `json:"view_type"`
	Domain       string      `json:"domain"`
	NeedCompany  bool        `json:"need_company"`
	Calc         intent.Calc `json:"calc"`
	Metric       string      `json:"metric"`
	Window       int         `json:"window"`
	IsTimeseries bool        `json:"is_timeseries"`
	Granularity  string      `json:"granularity"`
}

// Query is a parameterized statement ready for execution: all user values
// are bound through Params (pgx named-argument syntax), never interpolated
// into SQL text.
type Query struct {
	SQL    string
	Params map[string]any
	Meta   Metadata
}

const weightedPriceExpr = "SUM(COALESCE(amountUSD,0)) / NULLIF(SUM(COALESCE(quantity,0)) / 1000, 0)"

type builder struct {
	view       string
	where      string // "WHERE ..." or ""
	params     map[string]any
	metricExpr string

	year, month       int
	hasYear, hasMonth bool
	isLatest          bool
	years             []int
	window            int
}

// Build converts a canonical intent plus the raw question text into a
// parameterized statement. It never fails for a well-formed intent and
// produces a best-effort query for a partially specified one.
func Build(in *intent.Intent, question string) Query {
	domain := in.Domain
	if domain == "" {
		domain = intent.DomainExport
	}
	calc := in.Calc
	if calc == "" {
		calc = intent.CalcMonthValue
	}
	metric := in.Metric
	if metric == "" {
		metric = intent.MetricAmountUSD
	}

	filters := map[string]any{}
	for k, v := range in.Filters {
		filters[k] = v
	}

	topn := in.TopN
	if topn <= 0 {
		topn = intent.DefaultTopN
	}
	window := in.Window
	if window <= 0 {
		window = intent.DefaultWindow
	}

	qn := strings.ToLower(strings.TrimSpace(question))

	// 1) category keywords in the raw text always win; category and HS
	// filters are mutually exclusive by construction
	if cat := intent.CategoryFilters(question); cat != nil {
		for k, v := range cat {
			filters[k] = v
		}
		delete(filters, "hscode")
	}
	hasCategory := hasCategoryFilter(filters)

	// 2) HS fallback is skipped for explicit totals-without-breakdown
	if !hasCategory && hscodeList(filters) == nil && !strings.Contains(qn, "нийт") {
		if hs := intent.InferHSCodes(question); hs != nil {
			filters["hscode"] = hs
		}
	}

	// 3) time parse; a years list forces a yearly series unconditionally
	b := &builder{params: map[string]any{"topn": topn, "window": window}, window: window}
	b.parseTime(in.Time)
	if len(b.years) > 0 {
		calc = intent.CalcTimeseriesYear
	}

	// 4) "нийт ... хэд вэ" with a bare year asks for the year total even
	// when the extractor defaulted to month_value
	wantsTotal := containsAny(qn, "нийт", "нийлбэр", "total")
	askingAmount := containsAny(qn, "хэд", "хэчнээн", "дүн", "утга", "value")
	if len(b.years) == 0 && !b.isLatest && b.hasYear && !b.hasMonth && wantsTotal && askingAmount {
		calc = intent.CalcYearTotal
	}

	// 5) resolve the view only after filters are stable
	needCompany := filterString(filters, "company") != "" && domain == intent.DomainExport
	view, viewType := ResolveView(domain, needCompany, filters)
	b.view = view

	// 6) filter clauses
	b.where = whereFilters(filters, b.params, needCompany)

	// 7) metric expression
	switch metric {
	case intent.MetricAmountUSD:
		b.metricExpr = "SUM(COALESCE(amountUSD,0))"
	case intent.MetricQuantity:
		b.metricExpr = "SUM(COALESCE(quantity,0))"
	default:
		b.metricExpr = weightedPriceExpr
	}

	meta := Metadata{
		View:         view,
		ViewType:     viewType,
		Domain:       domain,
		NeedCompany:  needCompany,
		Calc:         calc,
		Metric:       metric,
		Window:       window,
		IsTimeseries: calc.IsTimeseries(),
		Granularity:  granularityOf(calc),
	}

	// 8) calc-specific template
	var sql string
	switch calc {
	case intent.CalcMonthValue:
		sql = b.monthValue(&meta)
	case intent.CalcYearTotal:
		sql = b.yearTotal()
	case intent.CalcYTD:
		sql = b.ytd()
	case intent.CalcTimeseriesMonth:
		sql = b.timeseriesMonth()
	case intent.CalcTimeseriesYear:
		sql = b.timeseriesYear()
	case intent.CalcYoY:
		sql = b.yoy(&meta)
	case intent.CalcWeightedPrice:
		sql = b.weightedPrice()
	case intent.CalcAvgMonths:
		sql = b.avgMonths()
	case intent.CalcAvgYears:
		sql = b.avgYears()
	default:
		sql = b.singlePeriod()
	}

	return Query{SQL: sql, Params: b.params, Meta: meta}
}

func granularityOf(calc intent.Calc) string {
	switch calc {
	case intent.CalcTimeseriesYear:
		return "year"
	case intent.CalcTimeseriesMonth:
		return "month"
	default:
		return "single"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// parseTime normalizes the intent time into either an explicit year/month,
// a years list, or the latest flag. Anything unrecognized falls back to
// latest.
func (b *builder) parseTime(t *intent.TimeSpec) {
	if t == nil || t.Latest {
		b.isLatest = true
		return
	}
	if len(t.Years) > 0 {
		seen := map[int]bool{}
		for _, y := range t.Years {
			if !seen[y] {
				seen[y] = true
				b.years = append(b.years, y)
			}
		}
		sort.Ints(b.years)
		return
	}
	if t.Year != nil {
		b.year = *t.Year
		b.hasYear = true
		if t.Month != nil {
			b.month = *t.Month
			b.hasMonth = true
		}
		return
	}
	b.isLatest = true
}

// latestCTE finds the max date across the resolved view and exposes its
// year/month. No leading WITH so callers can splice it with other CTEs.
func (b *builder) latestCTE() string {
	return fmt.Sprintf(`latest AS (
  SELECT MAX(make_date(year::int, month::int, 1)) AS dt
  FROM %s
),
latest_parts AS (
  SELECT EXTRACT(YEAR FROM dt)::int AS y, EXTRACT(MONTH FROM dt)::int AS m, dt
  FROM latest
)`, b.view)
}

func (b *builder) withPrefix(body string) string {
	if b.isLatest {
		return "WITH " + b.latestCTE() + "\n" + strings.TrimLeft(body, "\n")
	}
	return body
}

// whereBare strips the WHERE keyword so the filter set can be appended to
// a template that already opens its own WHERE.
func (b *builder) whereBare() string {
	return strings.TrimPrefix(b.where, "WHERE ")
}

func (b *builder) andFilters() string {
	if base := b.whereBare(); base != "" {
		return " AND " + base
	}
	return ""
}

func (b *builder) andClause(clause string) string {
	if b.where != "" {
		return b.where + " AND " + clause
	}
	return "WHERE " + clause
}

// refMonthStart resolves the reference month for trailing-window averages.
func (b *builder) refMonthStart() string {
	if b.isLatest {
		return "(SELECT dt FROM latest_parts)"
	}
	if b.hasYear && b.hasMonth {
		b.params["year"] = b.year
		b.params["month"] = b.month
		return "make_date(CAST(@year AS int), CAST(@month AS int), 1)"
	}
	if b.hasYear {
		b.params["year"] = b.year
		return "make_date(CAST(@year AS int), 1, 1)"
	}
	return "(SELECT dt FROM latest_parts)"
}

// appendTimeMonth appends the (year, month) filter for month-level queries.
func (b *builder) appendTimeMonth() string {
	if b.isLatest {
		return b.andClause("year = (SELECT y FROM latest_parts) AND month = (SELECT m FROM latest_parts)")
	}
	if b.hasYear && b.hasMonth {
		b.params["year"] = b.year
		b.params["month"] = b.month
		return b.andClause("year = @year AND month = @month")
	}
	if !b.hasYear {
		return b.andClause("year = (SELECT y FROM latest_parts)")
	}
	b.params["year"] = b.year
	return b.andClause("year = @year")
}

// monthValue covers the single-month case. A bare year makes a single
// month value ambiguous, so it is rewritten into a monthly series and the
// metadata updated to reflect the rewrite.
func (b *builder) monthValue(meta *Metadata) string {
	if !b.isLatest && b.hasYear && !b.hasMonth {
		b.params["year"] = b.year
		base := b.andClause("year = @year")

		meta.Calc = intent.CalcTimeseriesMonth
		meta.IsTimeseries = true
		meta.Granularity = "month"

		return fmt.Sprintf(`SELECT year, month, %s AS value
FROM %s
%s
GROUP BY year, month
ORDER BY year, month`, b.metricExpr, b.view, base)
	}

	return b.singlePeriod()
}

// singlePeriod is the shared single-month template, also serving as the
// best-effort fallback for an unknown calc.
func (b *builder) singlePeriod() string {
	where := b.appendTimeMonth()

	if b.isLatest {
		return b.withPrefix(fmt.Sprintf(`SELECT
  (SELECT y FROM latest_parts) AS year,
  (SELECT m FROM latest_parts) AS month,
  %s AS value
FROM %s
%s`, b.metricExpr, b.view, where))
	}

	return fmt.Sprintf(`SELECT
  CAST(@year AS int) AS year,
  CAST(@month AS int) AS month,
  %s AS value
FROM %s
%s`, b.metricExpr, b.view, where)
}

func (b *builder) yearTotal() string {
	if b.isLatest {
		return b.withPrefix(fmt.Sprintf(`SELECT
  (SELECT y FROM latest_parts) AS year,
  NULL::int AS month,
  %s AS value
FROM %s
WHERE year = (SELECT y FROM latest_parts)%s`, b.metricExpr, b.view, b.andFilters()))
	}

	b.params["year"] = b.year
	return fmt.Sprintf(`SELECT
  CAST(@year AS int) AS year,
  NULL::int AS month,
  %s AS value
FROM %s
%s`, b.metricExpr, b.view, b.andClause("year = @year"))
}

// ytd sums months up to the reference month within the reference year.
func (b *builder) ytd() string {
	if b.isLatest {
		return b.withPrefix(fmt.Sprintf(`SELECT
  (SELECT y FROM latest_parts) AS year,
  (SELECT m FROM latest_parts) AS month,
  %s AS value
FROM %s
WHERE year = (SELECT y FROM latest_parts)
  AND month <= (SELECT m FROM latest_parts)%s`, b.metricExpr, b.view, b.andFilters()))
	}

	b.params["year"] = b.year
	mmax := b.month
	if !b.hasMonth {
		mmax = 12
	}
	b.params["mmax"] = mmax
	return fmt.Sprintf(`SELECT
  CAST(@year AS int) AS year,
  CAST(@mmax AS int) AS month,
  %s AS value
FROM %s
%s`, b.metricExpr, b.view, b.andClause("year = @year AND month <= @mmax"))
}

func (b *builder) timeseriesMonth() string {
	if b.isLatest {
		return b.withPrefix(fmt.Sprintf(`SELECT year, month, %s AS value
FROM %s
WHERE year = (SELECT y FROM latest_parts)%s
GROUP BY year, month
ORDER BY year, month`, b.metricExpr, b.view, b.andFilters()))
	}

	b.params["year"] = b.year
	return fmt.Sprintf(`SELECT year, month, %s AS value
FROM %s
%s
GROUP BY year, month
ORDER BY year, month`, b.metricExpr, b.view, b.andClause("year = @year"))
}

// timeseriesYear groups by year over an explicit years list; without one
// it degrades to a single aggregated row for the reference year.
func (b *builder) timeseriesYear() string {
	if len(b.years) == 0 {
		if b.isLatest {
			return b.withPrefix(fmt.Sprintf(`SELECT
  (SELECT y FROM latest_parts) AS year,
  %s AS value
FROM %s
WHERE year = (SELECT y FROM latest_parts)%s
GROUP BY 1
ORDER BY 1`, b.metricExpr, b.view, b.andFilters()))
		}

		b.params["year"] = b.year
		return fmt.Sprintf(`SELECT
  CAST(@year AS int) AS year,
  %s AS value
FROM %s
%s
GROUP BY 1
ORDER BY 1`, b.metricExpr, b.view, b.andClause("year = @year"))
	}

	b.params["years"] = b.years
	return fmt.Sprintf(`SELECT
  year::int AS year,
  %s AS value
FROM %s
%s
GROUP BY 1
ORDER BY 1`, b.metricExpr, b.view, b.andClause("year = ANY(CAST(@years AS int[]))"))
}

// yoy compares the current period against the same period one year back.
// Percent change is NULL when the previous value is null or zero.
func (b *builder) yoy(meta *Metadata) string {
	if b.isLatest {
		body := fmt.Sprintf(`cur AS (
  SELECT %[1]s AS v
  FROM %[2]s
  WHERE year = (SELECT y FROM latest_parts)
    AND month = (SELECT m FROM latest_parts)%[3]s
),
prev AS (
  SELECT %[1]s AS v
  FROM %[2]s
  WHERE year = (SELECT y FROM latest_parts) - 1
    AND month = (SELECT m FROM latest_parts)%[3]s
)
SELECT
  (SELECT y FROM latest_parts) AS year,
  (SELECT m FROM latest_parts) AS month,
  (SELECT v FROM cur) AS current,
  (SELECT v FROM prev) AS previous,
  CASE
    WHEN (SELECT v FROM prev) IS NULL OR (SELECT v FROM prev) = 0 THEN NULL
    ELSE ((SELECT v FROM cur) - (SELECT v FROM prev)) / (SELECT v FROM prev) * 100.0
  END AS pct`, b.metricExpr, b.view, b.andFilters())
		return "WITH " + b.latestCTE() + ",\n" + body
	}

	if !b.hasYear || !b.hasMonth {
		// not enough to compare periods; degrade to a year aggregate
		b.params["year"] = b.year
		meta.Granularity = "single"
		return fmt.Sprintf(`SELECT
  CAST(@year AS int) AS year,
  NULL::int AS month,
  %s AS value
FROM %s
%s`, b.metricExpr, b.view, b.andClause("year = @year"))
	}

	b.params["year"] = b.year
	b.params["month"] = b.month
	b.params["prev_year"] = b.year - 1

	return fmt.Sprintf(`WITH cur AS (
  SELECT %[1]s AS v
  FROM %[2]s
  WHERE year = @year AND month = @month%[3]s
),
prev AS (
  SELECT %[1]s AS v
  FROM %[2]s
  WHERE year = @prev_year AND month = @month%[3]s
)
SELECT
  CAST(@year AS int) AS year,
  CAST(@month AS int) AS month,
  (SELECT v FROM cur) AS current,
  (SELECT v FROM prev) AS previous,
  CASE
    WHEN (SELECT v FROM prev) IS NULL OR (SELECT v FROM prev) = 0 THEN NULL
    ELSE ((SELECT v FROM cur) - (SELECT v FROM prev)) / (SELECT v FROM prev) * 100.0
  END AS pct`, b.metricExpr, b.view, b.andFilters())
}

// weightedPrice is a derived weighted average for one period: total amount
// over total tonnage, not an average of per-row prices.
func (b *builder) weightedPrice() string {
	where := b.appendTimeMonth()

	if b.isLatest {
		return b.withPrefix(fmt.Sprintf(`SELECT
  (SELECT y FROM latest_parts) AS year,
  (SELECT m FROM latest_parts) AS month,
  %s AS value
FROM %s
%s`, weightedPriceExpr, b.view, where))
	}

	monthExpr := "CAST(@month AS int)"
	if !b.hasMonth {
		monthExpr = "NULL::int"
	}
	return fmt.Sprintf(`SELECT
  CAST(@year AS int) AS year,
  %s AS month,
  %s AS value
FROM %s
%s`, monthExpr, weightedPriceExpr, b.view, where)
}

// avgMonths averages the trailing N monthly values ending at the
// reference month.
func (b *builder) avgMonths() string {
	refDt := b.refMonthStart()

	extra := ""
	if base := b.whereBare(); base != "" {
		extra = "WHERE " + base
	}

	body := fmt.Sprintf(`monthly AS (
  SELECT
    make_date(year::int, month::int, 1) AS dt,
    year::int AS y,
    month::int AS m,
    %[1]s AS v
  FROM %[2]s
  %[3]s
  GROUP BY 1,2,3
),
win AS (
  SELECT *
  FROM monthly
  WHERE dt <= %[4]s
    AND dt >= (%[4]s - ((CAST(@window AS int) - 1) * INTERVAL '1 month'))
)
SELECT
  EXTRACT(YEAR FROM %[4]s)::int AS year,
  EXTRACT(MONTH FROM %[4]s)::int AS month,
  AVG(v) AS value
FROM win`, b.metricExpr, b.view, extra, refDt)

	if b.isLatest {
		return "WITH " + b.latestCTE() + ",\n" + body
	}
	return "WITH " + body
}

// avgYears averages the trailing N year totals ending at the reference year.
func (b *builder) avgYears() string {
	refYear := "(SELECT y FROM latest_parts)"
	if !b.isLatest {
		b.params["year"] = b.year
		refYear = "CAST(@year AS int)"
	}

	extra := ""
	if base := b.whereBare(); base != "" {
		extra = "WHERE " + base
	}

	body := fmt.Sprintf(`yearly AS (
  SELECT
    year::int AS y,
    %[1]s AS v
  FROM %[2]s
  %[3]s
  GROUP BY 1
),
win AS (
  SELECT *
  FROM yearly
  WHERE y <= %[4]s
    AND y >= (%[4]s - (CAST(@window AS int) - 1))
)
SELECT
  %[4]s AS year,
  NULL::int AS month,
  AVG(v) AS value
FROM win`, b.metricExpr, b.view, extra, refYear)

	if b.isLatest {
		return "WITH " + b.latestCTE() + ",\n" + body
	}
	return "WITH " + body
}
