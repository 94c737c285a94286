package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradechat-bot/server/internal/intent"
)

func TestNeedsClarificationOrder(t *testing.T) {
	y := 2025

	s := NewState()
	clar := NeedsClarification(s)
	require.NotNil(t, clar)
	require.Equal(t, "Ямар үзүүлэлтээр авах вэ?", clar.Question)
	require.Len(t, clar.Choices, 2)

	s.Metric = intent.MetricAmountUSD
	clar = NeedsClarification(s)
	require.NotNil(t, clar)
	require.Equal(t, "Аль оны мэдээлэл авах вэ?", clar.Question)

	s.Time.Year = &y
	clar = NeedsClarification(s)
	require.NotNil(t, clar)
	require.Equal(t, "Экспорт уу, импорт уу?", clar.Question)

	s.Domain = intent.DomainExport
	require.Nil(t, NeedsClarification(s))
}

func TestNeedsClarificationYearsSatisfyTime(t *testing.T) {
	s := NewState()
	s.Metric = intent.MetricQuantity
	s.Domain = intent.DomainImport
	s.Time.Years = []int{2024, 2025}

	require.Nil(t, NeedsClarification(s))
}

func TestNeedsClarificationOneQuestionPerTurn(t *testing.T) {
	// everything missing still yields exactly one question
	clar := NeedsClarification(NewState())
	require.NotNil(t, clar)
	require.Equal(t, "Ямар үзүүлэлтээр авах вэ?", clar.Question)
}
