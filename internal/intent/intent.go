package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Domain is the trade direction being queried.
const (
	DomainExport = "export"
	DomainImport = "import"
)

// Metric is the quantity being measured.
const (
	MetricAmountUSD     = "amountUSD"
	MetricQuantity      = "quantity"
	MetricWeightedPrice = "weighted_price"
)

// Calc identifies the aggregation/comparison template to run.
type Calc string

const (
	CalcMonthValue      Calc = "month_value"
	CalcYearTotal       Calc = "year_total"
	CalcYTD             Calc = "ytd"
	CalcTimeseriesMonth Calc = "timeseries_month"
	CalcTimeseriesYear  Calc = "timeseries_year"
	CalcYoY             Calc = "yoy"
	CalcAvgMonths       Calc = "avg_months"
	CalcAvgYears        Calc = "avg_years"
	CalcWeightedPrice   Calc = "weighted_price"
)

// Defaults applied when the extractor leaves a field unset.
const (
	DefaultTopN   = 50
	DefaultWindow = 3
)

// IsTimeseries reports whether the calc produces a multi-row series.
func (c Calc) IsTimeseries() bool {
	return strings.HasPrefix(string(c), "timeseries")
}

// TimeSpec is the time window of an intent. Exactly one variant is set:
// latest, {year}, {year, month} or {years}. On the wire it is either the
// string "latest" or a JSON object.
type TimeSpec struct {
	Latest bool  `json:"-"`
	Year   *int  `json:"year,omitempty" validate:"omitempty,min=1900,max=2100"`
	Month  *int  `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Years  []int `json:"years,omitempty" validate:"omitempty,min=1,dive,min=1900,max=2100"`
}

func (t *TimeSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "latest" {
			return fmt.Errorf("time: unknown literal %q", s)
		}
		*t = TimeSpec{Latest: true}
		return nil
	}

	type plain TimeSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = TimeSpec(p)
	return nil
}

func (t TimeSpec) MarshalJSON() ([]byte, error) {
	if t.Latest {
		return json.Marshal("latest")
	}
	type plain TimeSpec
	return json.Marshal(plain(t))
}

// Latest constructs the "latest available month" time spec.
func LatestTime() *TimeSpec { return &TimeSpec{Latest: true} }

// YearTime constructs a single-year time spec.
func YearTime(y int) *TimeSpec { return &TimeSpec{Year: &y} }

// YearMonthTime constructs an explicit year+month time spec.
func YearMonthTime(y, m int) *TimeSpec { return &TimeSpec{Year: &y, Month: &m} }

// YearsTime constructs a multi-year time spec.
func YearsTime(years []int) *TimeSpec { return &TimeSpec{Years: years} }

// Intent is the transient, turn-scoped structured request. All fields are
// optional so partially extracted intents can still be merged into
// conversation state; Validate enforces the full contract for an intent
// that is about to drive a query.
type Intent struct {
	Domain  string         `json:"domain,omitempty" validate:"omitempty,oneof=export import"`
	Calc    Calc           `json:"calc,omitempty" validate:"omitempty,oneof=month_value year_total ytd timeseries_month timeseries_year yoy avg_months avg_years weighted_price"`
	Metric  string         `json:"metric,omitempty" validate:"omitempty,oneof=amountUSD quantity weighted_price"`
	Time    *TimeSpec      `json:"time,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
	Window  int            `json:"window,omitempty" validate:"omitempty,min=1,max=60"`
	TopN    int            `json:"topn,omitempty" validate:"omitempty,min=1,max=500"`
}

// Filter returns the named filter as a trimmed string, or "" when absent
// or not string-typed.
func (in *Intent) Filter(key string) string {
	if in.Filters == nil {
		return ""
	}
	if s, ok := in.Filters[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// HSCodes returns the hscode filter normalised to a string slice. A single
// string value yields a one-element slice.
func (in *Intent) HSCodes() []string {
	if in.Filters == nil {
		return nil
	}
	switch v := in.Filters["hscode"].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			s := strings.TrimSpace(fmt.Sprint(x))
			if s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
