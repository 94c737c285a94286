package sqlbuilder

import (
	"fmt"

	"github.com/tradechat-bot/server/internal/intent"
)

// View type tags carried in query metadata.
const (
	ViewTypeMonthly  = "monthly"
	ViewTypeCompany  = "company"
	ViewTypeCategory = "category"
)

// hasCategoryFilter reports whether any category-view column is filtered.
func hasCategoryFilter(filters map[string]any) bool {
	for _, k := range intent.CategoryFields {
		if s, ok := filters[k].(string); ok && s != "" {
			return true
		}
	}
	return false
}

// ResolveView picks the pre-aggregated view for a query. The views are a
// fixed external schema: a plain monthly view per domain, a with-company
// variant (export only) and a category variant per domain.
func ResolveView(domain string, needCompany bool, filters map[string]any) (string, string) {
	switch {
	case hasCategoryFilter(filters):
		return fmt.Sprintf("v_%s_monthly_category", domain), ViewTypeCategory
	case needCompany:
		return "v_export_monthly_company", ViewTypeCompany
	default:
		return fmt.Sprintf("v_%s_monthly", domain), ViewTypeMonthly
	}
}
