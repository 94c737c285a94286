package intent

import "regexp"

// Overrides are lightweight field-level corrections detected in a short
// follow-up reply ("monthly", "in millions"). They are applied strictly
// after the full intent merge, so they can overwrite whatever the
// extractor produced.
type Overrides struct {
	Granularity     string // "month" | "year"
	ScaleLabel      string // "сая" | "мянга"
	Metric          string
	ComparePrevYear bool
}

// Empty reports whether no override was detected.
func (o Overrides) Empty() bool {
	return o == Overrides{}
}

// Go's \b is ASCII-only, so Cyrillic tokens get explicit letter-class
// boundaries instead.
var (
	reGranMonth   = regexp.MustCompile(`сар\s*бүр|сараар|month`)
	reGranYear    = regexp.MustCompile(`жилээр|он\s*бүр|year`)
	reScaleMln    = regexp.MustCompile(`(?:^|[^\pL])сая(?:[^\pL]|$)`)
	reScaleThs    = regexp.MustCompile(`(?:^|[^\pL])мянга[н]?(?:[^\pL]|$)`)
	reMetricQty   = regexp.MustCompile(`тоо\s*хэмжээ|хэмжээ|тонн|kg|кг`)
	reMetricUSD   = regexp.MustCompile(`дүн|үнэ|ам\.?доллар|usd|\$`)
	reComparePrev = regexp.MustCompile(`харьцуул|compare|өмнөх\s+он|өнгөрсөн\s+он`)
)

// DetectFollowup classifies the message for follow-up override signals.
// Stateless and independent of full intent extraction.
func DetectFollowup(text string) Overrides {
	t := norm(text)
	var out Overrides

	if reGranMonth.MatchString(t) {
		out.Granularity = "month"
	} else if reGranYear.MatchString(t) {
		out.Granularity = "year"
	}

	if reScaleMln.MatchString(t) {
		out.ScaleLabel = "сая"
	} else if reScaleThs.MatchString(t) {
		out.ScaleLabel = "мянга"
	}

	if reMetricQty.MatchString(t) {
		out.Metric = MetricQuantity
	} else if reMetricUSD.MatchString(t) {
		out.Metric = MetricAmountUSD
	}

	if reComparePrev.MatchString(t) {
		out.ComparePrevYear = true
	}

	return out
}
