package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Numeric disambiguation bounds between HS4 codes and calendar years.
// Multi-year detection accepts any 20xx token (a four-digit 20xx in a year
// position is overwhelmingly a year), while HS inference only excludes
// 2000-2030 so far-future-looking chapter codes such as 2050 stay usable
// as HS4 input.
const (
	hsYearExcludeMin = 2000
	hsYearExcludeMax = 2030
)

var (
	reYearMonthSar = regexp.MustCompile(`(20\d{2})\D+(\d{1,2})\D*сар`)
	reYearMonth    = regexp.MustCompile(`\b(20\d{2})\D+(\d{1,2})\b`)
	reYearRange    = regexp.MustCompile(`\b(20\d{2})\s*[-–—]\s*(20\d{2})\b`)
	reYearToken    = regexp.MustCompile(`\b(20\d{2})\b`)
	reFourDigits   = regexp.MustCompile(`\b(\d{4})\b`)
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CategoryFilters scans the question for fixed category keywords and
// returns the matched filter fields (field -> keyword).
func CategoryFilters(question string) map[string]any {
	qn := norm(question)
	out := map[string]any{}
	for kw, field := range CategoryKeywords {
		if strings.Contains(qn, kw) {
			out[field] = kw
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// InferHSCodes derives HS4 filter codes from the question: explicit 4-digit
// tokens first (excluding year-like values), then the commodity keyword map.
func InferHSCodes(question string) []string {
	qn := norm(question)

	if m := reFourDigits.FindAllStringSubmatch(qn, -1); m != nil {
		var hs []string
		for _, g := range m {
			n, _ := strconv.Atoi(g[1])
			if n >= hsYearExcludeMin && n <= hsYearExcludeMax {
				continue
			}
			hs = append(hs, g[1])
		}
		if len(hs) > 0 {
			return hs
		}
	}

	for kw, codes := range HSCodeMap {
		if strings.Contains(qn, kw) {
			return codes
		}
	}
	return nil
}

func findYearMonth(qn string) (int, int) {
	if m := reYearMonthSar.FindStringSubmatch(qn); m != nil {
		y, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return y, mm
	}
	if m := reYearMonth.FindStringSubmatch(qn); m != nil {
		y, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm >= 1 && mm <= 12 {
			return y, mm
		}
	}
	if m := reYearToken.FindStringSubmatch(qn); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, 0
	}
	return 0, 0
}

func findYearsList(qn string) []int {
	if m := reYearRange.FindStringSubmatch(qn); m != nil {
		y1, _ := strconv.Atoi(m[1])
		y2, _ := strconv.Atoi(m[2])
		if y1 > y2 {
			y1, y2 = y2, y1
		}
		years := make([]int, 0, y2-y1+1)
		for y := y1; y <= y2; y++ {
			years = append(years, y)
		}
		return years
	}

	seen := map[int]bool{}
	var years []int
	for _, g := range reYearToken.FindAllStringSubmatch(qn, -1) {
		y, _ := strconv.Atoi(g[1])
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	if len(years) >= 2 {
		sort.Ints(years)
		return years
	}
	return nil
}

// Fallback derives a usable intent purely from the question text plus the
// previous turn's domain, with no network dependency. It is the safety net
// when the learned extractor is unavailable, errors or returns an invalid
// object.
func Fallback(question, prevDomain string) *Intent {
	qn := norm(question)

	catFilters := CategoryFilters(question)

	var domain string
	switch {
	case strings.Contains(qn, "импорт"):
		domain = DomainImport
	case strings.Contains(qn, "экспорт"):
		domain = DomainExport
	case len(catFilters) > 0:
		// category vocabulary describes the import breakdown views
		domain = DomainImport
	case prevDomain != "":
		domain = prevDomain
	default:
		domain = DomainExport
	}

	metric := MetricAmountUSD
	calc := CalcMonthValue
	switch {
	case strings.Contains(qn, "нэгж") || strings.Contains(qn, "дундаж үнэ") || strings.Contains(qn, "unit price"):
		metric = MetricWeightedPrice
		calc = CalcWeightedPrice
	case strings.Contains(qn, "тонн") || strings.Contains(qn, "хэмжээ"):
		metric = MetricQuantity
	}

	var ts *TimeSpec
	if years := findYearsList(qn); years != nil {
		calc = CalcTimeseriesYear
		ts = YearsTime(years)
	} else if y, m := findYearMonth(qn); y != 0 && m != 0 {
		ts = YearMonthTime(y, m)
	} else if y != 0 {
		ts = YearTime(y)
		// a lone year is inherently a request for a breakdown,
		// not one ambiguous month value
		if calc == CalcMonthValue {
			calc = CalcTimeseriesMonth
		}
	} else {
		ts = LatestTime()
	}

	filters := map[string]any{}
	if len(catFilters) > 0 {
		for k, v := range catFilters {
			filters[k] = v
		}
	} else if hs := InferHSCodes(question); hs != nil {
		filters["hscode"] = hs
	}

	return &Intent{
		Domain:  domain,
		Calc:    calc,
		Metric:  metric,
		Time:    ts,
		Filters: filters,
		TopN:    DefaultTopN,
	}
}
