package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/tradechat-bot/server/internal/intent"
)

func filterString(filters map[string]any, key string) string {
	if v, ok := filters[key]; ok {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func hscodeList(filters map[string]any) []string {
	probe := intent.Intent{Filters: filters}
	return probe.HSCodes()
}

// whereFilters assembles the WHERE clause from recognized filter keys.
// Every value is bound as a named parameter; free-text fields use
// case-insensitive substring match, senderReceiver is exact, hscode is
// exact or ANY over a text array, and company match (export view only)
// ORs against name and registration number.
func whereFilters(filters map[string]any, params map[string]any, needCompany bool) string {
	var clauses []string

	if hs := hscodeList(filters); hs != nil {
		if len(hs) > 1 {
			params["hscodes"] = hs
			clauses = append(clauses, "hscode = ANY(CAST(@hscodes AS text[]))")
		} else if s, ok := filters["hscode"].(string); ok && strings.TrimSpace(s) != "" {
			params["hscode"] = strings.TrimSpace(s)
			clauses = append(clauses, "hscode = @hscode")
		} else {
			params["hscodes"] = hs
			clauses = append(clauses, "hscode = ANY(CAST(@hscodes AS text[]))")
		}
	}

	if v := filterString(filters, "country"); v != "" {
		params["country"] = "%" + v + "%"
		clauses = append(clauses, "country ILIKE @country")
	}

	if v := filterString(filters, "senderReceiver"); v != "" {
		params["senderReceiver"] = v
		clauses = append(clauses, "senderReceiver = @senderReceiver")
	}

	if v := filterString(filters, "customs"); v != "" {
		params["customs"] = "%" + v + "%"
		clauses = append(clauses, "customs ILIKE @customs")
	}

	for _, k := range intent.CategoryFields {
		if v := filterString(filters, k); v != "" {
			params[k] = "%" + v + "%"
			clauses = append(clauses, fmt.Sprintf("%s ILIKE @%s", k, k))
		}
	}

	if needCompany {
		if v := filterString(filters, "company"); v != "" {
			params["company"] = "%" + v + "%"
			clauses = append(clauses, "(companyName ILIKE @company OR companyRegnum ILIKE @company)")
		}
	}

	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}
