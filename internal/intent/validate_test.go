package intent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validIntent() *Intent {
	return &Intent{
		Domain:  DomainExport,
		Calc:    CalcMonthValue,
		Metric:  MetricAmountUSD,
		Time:    YearMonthTime(2025, 3),
		Filters: map[string]any{"hscode": []string{"2701"}},
	}
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, Validate(validIntent()))

	in := validIntent()
	in.Time = LatestTime()
	require.NoError(t, Validate(in))

	in = validIntent()
	in.Time = YearsTime([]int{2024, 2025})
	require.NoError(t, Validate(in))
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Intent)
		field  string
	}{
		{"missing domain", func(in *Intent) { in.Domain = "" }, "domain"},
		{"missing calc", func(in *Intent) { in.Calc = "" }, "calc"},
		{"missing metric", func(in *Intent) { in.Metric = "" }, "metric"},
		{"missing time", func(in *Intent) { in.Time = nil }, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validIntent()
			tt.mutate(in)

			err := Validate(in)
			require.Error(t, err)
			verr, ok := err.(*ValidationError)
			require.True(t, ok)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateEnumRange(t *testing.T) {
	in := validIntent()
	in.Domain = "transit"
	require.Error(t, Validate(in))

	in = validIntent()
	in.Time = YearMonthTime(2025, 13)
	require.Error(t, Validate(in))
}

func TestValidateTimeShape(t *testing.T) {
	in := validIntent()
	in.Time = &TimeSpec{Latest: true, Year: intPtr(2025)}
	require.Error(t, Validate(in))

	in = validIntent()
	in.Time = &TimeSpec{Month: intPtr(3)}
	require.Error(t, Validate(in))

	in = validIntent()
	in.Time = &TimeSpec{Years: []int{2024}, Year: intPtr(2025)}
	require.Error(t, Validate(in))
}

func TestValidateHSCode(t *testing.T) {
	in := validIntent()
	in.Filters = map[string]any{"hscode": ""}
	require.Error(t, Validate(in))

	in = validIntent()
	in.Filters = map[string]any{"hscode": []any{"2701", 42}}
	require.Error(t, Validate(in))

	in = validIntent()
	in.Filters = map[string]any{"hscode": []any{"2701", "2702"}}
	require.NoError(t, Validate(in))
}

func TestTimeSpecJSON(t *testing.T) {
	var ts TimeSpec
	require.NoError(t, ts.UnmarshalJSON([]byte(`"latest"`)))
	require.True(t, ts.Latest)

	require.NoError(t, ts.UnmarshalJSON([]byte(`{"year":2025,"month":3}`)))
	require.False(t, ts.Latest)
	require.Equal(t, 2025, *ts.Year)
	require.Equal(t, 3, *ts.Month)

	require.Error(t, ts.UnmarshalJSON([]byte(`"yesterday"`)))
}

func intPtr(v int) *int { return &v }
