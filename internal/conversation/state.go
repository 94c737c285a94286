package conversation

import (
	"sort"

	"github.com/tradechat-bot/server/internal/intent"
)

// TimeState is the persistent time window of a session. At most one of
// Year/Years is set; Latest clears both.
type TimeState struct {
	Year        *int   `json:"year,omitempty"`
	Years       []int  `json:"years,omitempty"`
	Granularity string `json:"granularity,omitempty"` // "month" | "year"
	Latest      bool   `json:"latest,omitempty"`
}

func (t *TimeState) normalize() {
	if len(t.Years) > 0 {
		seen := map[int]bool{}
		years := t.Years[:0]
		for _, y := range t.Years {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
		sort.Ints(years)
		t.Years = years
		t.Year = nil
	}
	if t.Latest {
		t.Year = nil
		t.Years = nil
	}
}

// Commodity is the product context of a session, derived from the last
// hscode filter seen.
type Commodity struct {
	Label   string   `json:"label,omitempty"`
	HSCodes []string `json:"hscode,omitempty"`
}

// Choice is a clickable option offered alongside a question or suggestion.
type Choice struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Clarification is a system-issued follow-up question asked when state is
// insufficient to build a query.
type Clarification struct {
	Question string   `json:"question"`
	Choices  []Choice `json:"choices"`
}

// State is the durable per-session conversation record. It is the single
// source of truth for what gets queried: ToIntent derives the canonical
// intent from these fields alone.
type State struct {
	Domain     string `json:"domain,omitempty"`
	Metric     string `json:"metric,omitempty"`
	Unit       string `json:"unit,omitempty"`
	ScaleLabel string `json:"scale_label,omitempty"` // "сая" | "мянга"

	Time      TimeState      `json:"time"`
	Commodity *Commodity     `json:"commodity,omitempty"`
	Filters   map[string]any `json:"filters,omitempty"`

	AwaitingClarification bool           `json:"awaiting_clarification,omitempty"`
	PendingQuestion       string         `json:"pending_question,omitempty"`
	PendingClarify        *Clarification `json:"pending_clarify,omitempty"`
}

// NewState returns a fresh empty state for a new or expired session.
func NewState() *State {
	return &State{Filters: map[string]any{}}
}

// Clone returns a deep copy; Merge never mutates its input.
func (s *State) Clone() *State {
	out := *s
	if s.Time.Year != nil {
		y := *s.Time.Year
		out.Time.Year = &y
	}
	if s.Time.Years != nil {
		out.Time.Years = append([]int(nil), s.Time.Years...)
	}
	if s.Commodity != nil {
		c := *s.Commodity
		c.HSCodes = append([]string(nil), s.Commodity.HSCodes...)
		out.Commodity = &c
	}
	out.Filters = map[string]any{}
	for k, v := range s.Filters {
		out.Filters[k] = v
	}
	if s.PendingClarify != nil {
		c := *s.PendingClarify
		c.Choices = append([]Choice(nil), s.PendingClarify.Choices...)
		out.PendingClarify = &c
	}
	return &out
}

// ToIntent derives the canonical query intent from state. Multi-year state
// always maps to a yearly series; granularity maps to the matching series
// calc otherwise. An empty time resolves to the latest period inside the
// SQL builder.
func (s *State) ToIntent() *intent.Intent {
	out := &intent.Intent{
		Domain: s.Domain,
		Metric: s.Metric,
		TopN:   intent.DefaultTopN,
	}

	filters := map[string]any{}
	for k, v := range s.Filters {
		filters[k] = v
	}
	if s.Commodity != nil && len(s.Commodity.HSCodes) > 0 {
		filters["hscode"] = append([]string(nil), s.Commodity.HSCodes...)
	}
	if len(filters) > 0 {
		out.Filters = filters
	}

	switch {
	case len(s.Time.Years) > 0:
		out.Time = intent.YearsTime(append([]int(nil), s.Time.Years...))
		out.Calc = intent.CalcTimeseriesYear
	case s.Time.Latest:
		out.Time = intent.LatestTime()
	case s.Time.Year != nil:
		out.Time = intent.YearTime(*s.Time.Year)
	default:
		out.Time = &intent.TimeSpec{}
	}

	if out.Calc == "" {
		switch s.Time.Granularity {
		case "month":
			out.Calc = intent.CalcTimeseriesMonth
		case "year":
			out.Calc = intent.CalcTimeseriesYear
		}
	}

	return out
}
