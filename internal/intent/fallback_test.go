package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFallbackCoalExportMonth(t *testing.T) {
	in := Fallback("2025 оны 3 сард нүүрсний экспорт хэд вэ?", "")

	require.Equal(t, DomainExport, in.Domain)
	require.Equal(t, CalcMonthValue, in.Calc)
	require.Equal(t, MetricAmountUSD, in.Metric)
	require.NotNil(t, in.Time)
	require.NotNil(t, in.Time.Year)
	require.Equal(t, 2025, *in.Time.Year)
	require.NotNil(t, in.Time.Month)
	require.Equal(t, 3, *in.Time.Month)
	require.Equal(t, []string{"2701", "2702"}, in.HSCodes())
	require.Equal(t, DefaultTopN, in.TopN)
}

func TestFallbackMultiYearTable(t *testing.T) {
	in := Fallback("2024, 2025 оныг жилээр хүснэгтээр", "")

	require.Equal(t, CalcTimeseriesYear, in.Calc)
	require.Equal(t, []int{2024, 2025}, in.Time.Years)
	require.Nil(t, in.Time.Year)
}

func TestFallbackYearRange(t *testing.T) {
	in := Fallback("2022-2025 оны экспорт", "")

	require.Equal(t, CalcTimeseriesYear, in.Calc)
	require.Equal(t, []int{2022, 2023, 2024, 2025}, in.Time.Years)
}

func TestFallbackLoneYearBecomesMonthlySeries(t *testing.T) {
	in := Fallback("2025 онд экспорт хэд вэ", "")

	require.Equal(t, CalcTimeseriesMonth, in.Calc)
	require.NotNil(t, in.Time.Year)
	require.Equal(t, 2025, *in.Time.Year)
	require.Nil(t, in.Time.Month)
	// 2025 is a year, never an HS code
	require.Nil(t, in.HSCodes())
}

func TestFallbackNoTimeMeansLatest(t *testing.T) {
	in := Fallback("нүүрсний экспортын дүн", "")

	require.True(t, in.Time.Latest)
	require.Equal(t, CalcMonthValue, in.Calc)
}

func TestFallbackCategorySuppressesHSCode(t *testing.T) {
	in := Fallback("тамхины импортын дүн", "")

	require.Equal(t, DomainImport, in.Domain)
	require.Equal(t, "тамхи", in.Filters["sub3"])
	require.Nil(t, in.HSCodes())
}

func TestFallbackCategoryWithoutDomainWordImpliesImport(t *testing.T) {
	in := Fallback("хүнсний дүн 2025 онд", "export")

	require.Equal(t, DomainImport, in.Domain)
	require.Equal(t, "хүнс", in.Filters["sub2"])
}

func TestFallbackInheritsPreviousDomain(t *testing.T) {
	in := Fallback("нүүрс ямар байна", "import")
	require.Equal(t, DomainImport, in.Domain)

	in = Fallback("нүүрс ямар байна", "")
	require.Equal(t, DomainExport, in.Domain)
}

func TestFallbackUnitPrice(t *testing.T) {
	in := Fallback("нүүрсний нэгж үнэ 2025 оны 3 сард", "")

	require.Equal(t, MetricWeightedPrice, in.Metric)
	require.Equal(t, CalcWeightedPrice, in.Calc)
}

func TestFallbackQuantityMetric(t *testing.T) {
	in := Fallback("2025 оны 3 сард нүүрсний экспорт хэдэн тонн бэ", "")

	require.Equal(t, MetricQuantity, in.Metric)
}

func TestInferHSCodesExplicit(t *testing.T) {
	require.Equal(t, []string{"2701"}, InferHSCodes("2701 кодын экспорт"))

	// tokens in the year band are never HS codes
	require.Nil(t, InferHSCodes("2025 оны экспорт"))

	// outside the band a four-digit token is taken literally
	require.Equal(t, []string{"7108"}, InferHSCodes("7108 кодын экспорт"))
}

func TestCategoryFilters(t *testing.T) {
	require.Nil(t, CategoryFilters("нүүрсний экспорт"))

	got := CategoryFilters("суудлын автомашин импорт")
	require.Equal(t, map[string]any{"sub3": "суудлын автомашин"}, got)
}
