package conversation

import (
	"strings"

	"github.com/tradechat-bot/server/internal/intent"
)

// Merge combines the previous state, the freshly extracted intent and the
// follow-up overrides into a new state. Pure and total: absence of a field
// means "keep the previous value"; an override always wins over whatever
// the extractor produced, because it is the user's most recent explicit
// correction.
func Merge(prev *State, in *intent.Intent, ov intent.Overrides) *State {
	s := prev.Clone()

	if in != nil {
		if in.Domain != "" {
			s.Domain = in.Domain
		}
		if in.Metric != "" {
			s.Metric = in.Metric
		}

		if in.Time != nil {
			if len(in.Time.Years) > 0 {
				s.Time.Years = append([]int(nil), in.Time.Years...)
				s.Time.Year = nil
				s.Time.Latest = false
			} else if in.Time.Year != nil {
				y := *in.Time.Year
				s.Time.Year = &y
				s.Time.Years = nil
				s.Time.Latest = false
			}
		}

		for k, v := range in.Filters {
			s.Filters[k] = v
		}

		// hscode filter replaces the commodity record entirely
		if hs := in.HSCodes(); hs != nil {
			s.Commodity = &Commodity{Label: hsLabel(hs), HSCodes: hs}
		}
	}

	if ov.Granularity != "" {
		s.Time.Granularity = ov.Granularity
	}
	if ov.ScaleLabel != "" {
		s.ScaleLabel = ov.ScaleLabel
	}
	if ov.Metric != "" {
		s.Metric = ov.Metric
	}

	s.Time.normalize()
	return s
}

// ApplyComparePrevYear expands a single year into [year-1, year]. An
// explicit multi-year request is never clobbered.
func ApplyComparePrevYear(s *State) *State {
	out := s.Clone()
	if out.Time.Year != nil && len(out.Time.Years) == 0 {
		y := *out.Time.Year
		out.Time.Years = []int{y - 1, y}
		out.Time.normalize()
	}
	return out
}

func hsLabel(hs []string) string {
	if label, ok := intent.HSLabelMap[hs[0]]; ok {
		return label
	}
	return "HS " + strings.Join(hs, ", ")
}
