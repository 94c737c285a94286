package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradechat-bot/server/internal/intent"
	"github.com/tradechat-bot/server/internal/session"
)

type mockExtractor struct {
	intents []*intent.Intent
	err     error
	calls   []string
}

func (m *mockExtractor) Extract(_ context.Context, question string) (*intent.Intent, error) {
	m.calls = append(m.calls, question)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.intents) == 0 {
		return nil, errors.New("no scripted intent")
	}
	in := m.intents[0]
	m.intents = m.intents[1:]
	return in, nil
}

type mockComposer struct {
	explanation string
	explainErr  error
	smalltalk   string
	payloads    []map[string]any
}

func (m *mockComposer) Explain(_ context.Context, payload map[string]any) (string, error) {
	m.payloads = append(m.payloads, payload)
	return m.explanation, m.explainErr
}

func (m *mockComposer) Smalltalk(_ context.Context, _ string) (string, error) {
	return m.smalltalk, nil
}

type mockQuerier struct {
	rows   []map[string]any
	err    error
	sql    string
	params map[string]any
}

func (m *mockQuerier) Query(_ context.Context, sql string, params map[string]any) ([]map[string]any, error) {
	m.sql = sql
	m.params = params
	return m.rows, m.err
}

func newTestService(ex *mockExtractor, co *mockComposer, qr *mockQuerier) (*Service, session.Store) {
	store := session.NewMemoryStore(time.Hour)
	return NewService(store, qr, ex, co, nil, time.Second), store
}

func TestHandleEmptyMessageAsksForQuestion(t *testing.T) {
	svc, _ := newTestService(&mockExtractor{}, &mockComposer{}, &mockQuerier{})

	resp, err := svc.Handle(context.Background(), Request{Message: "   ", SessionID: "s1"})
	require.NoError(t, err)

	require.Equal(t, ModeClarify, resp.Mode)
	require.Equal(t, "Асуултаа бичнэ үү.", resp.Answer)
	require.Equal(t, true, resp.Meta["needs_clarification"])
}

func TestHandleSmalltalk(t *testing.T) {
	co := &mockComposer{smalltalk: "Сайн байна уу!"}
	svc, _ := newTestService(&mockExtractor{}, co, &mockQuerier{})

	resp, err := svc.Handle(context.Background(), Request{Message: "сайн уу", SessionID: "s1"})
	require.NoError(t, err)

	require.Equal(t, ModeSmalltalk, resp.Mode)
	require.Equal(t, "Сайн байна уу!", resp.Answer)
	require.Nil(t, resp.Result)
}

func TestHandleClarifyThenAnswer(t *testing.T) {
	ex := &mockExtractor{err: errors.New("model down")}
	co := &mockComposer{explanation: "Нүүрсний экспортын мэдээлэл."}
	qr := &mockQuerier{rows: []map[string]any{
		{"year": 2025, "month": 1, "value": 100.0},
		{"year": 2025, "month": 2, "value": 120.0},
	}}
	svc, _ := newTestService(ex, co, qr)
	ctx := context.Background()

	// turn 1: no year anywhere, so the pipeline must ask
	resp, err := svc.Handle(ctx, Request{Message: "нүүрсний экспортын дүн хэд вэ", SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, ModeClarify, resp.Mode)
	require.Equal(t, "Аль оны мэдээлэл авах вэ?", resp.Answer)
	require.NotEmpty(t, resp.Meta["choices"])

	// turn 2: the clarification answer is combined with the pending question
	resp, err = svc.Handle(ctx, Request{Message: "2025 он", SessionID: "s1"})
	require.NoError(t, err)
	require.Equal(t, ModeAnswer, resp.Mode)
	require.Equal(t, "Нүүрсний экспортын мэдээлэл.", resp.Answer)

	require.Contains(t, ex.calls[1], "нүүрсний экспортын дүн хэд вэ")
	require.Contains(t, ex.calls[1], "2025 он")

	require.Equal(t, 2025, qr.params["year"])
	require.Equal(t, []string{"2701", "2702"}, qr.params["hscodes"])
	require.Equal(t, "series", resp.Result["type"])
}

func TestHandleFallbackWhenExtractorFails(t *testing.T) {
	ex := &mockExtractor{err: errors.New("model down")}
	co := &mockComposer{explanation: "тайлбар"}
	qr := &mockQuerier{rows: []map[string]any{{"year": 2025, "month": 3, "value": 5.0}}}
	svc, _ := newTestService(ex, co, qr)

	resp, err := svc.Handle(context.Background(), Request{
		Message:   "2025 оны 3 сард нүүрсний экспорт хэд вэ?",
		SessionID: "s1",
	})
	require.NoError(t, err)

	require.Equal(t, ModeAnswer, resp.Mode)
	require.Equal(t, true, resp.Meta["used_fallback"])
	require.Equal(t, 2025, qr.params["year"])
	require.Equal(t, 3, qr.params["month"])
}

func TestHandleFollowupOverridesMetric(t *testing.T) {
	ex := &mockExtractor{err: errors.New("model down")}
	co := &mockComposer{explanation: "тайлбар"}
	qr := &mockQuerier{rows: []map[string]any{{"year": 2025, "month": 3, "value": 5.0}}}
	svc, _ := newTestService(ex, co, qr)
	ctx := context.Background()

	_, err := svc.Handle(ctx, Request{
		Message:   "2025 оны 3 сард нүүрсний экспорт хэд вэ?",
		SessionID: "s1",
	})
	require.NoError(t, err)

	resp, err := svc.Handle(ctx, Request{Message: "тоо хэмжээгээр нь 2025 оны 3 сар", SessionID: "s1"})
	require.NoError(t, err)

	require.Equal(t, ModeAnswer, resp.Mode)
	require.Contains(t, qr.sql, "SUM(COALESCE(quantity,0))")
}

func TestHandleQueryErrorPropagates(t *testing.T) {
	ex := &mockExtractor{err: errors.New("model down")}
	qr := &mockQuerier{err: errors.New("connection refused")}
	svc, _ := newTestService(ex, &mockComposer{}, qr)

	_, err := svc.Handle(context.Background(), Request{
		Message:   "2025 оны 3 сард нүүрсний экспорт хэд вэ?",
		SessionID: "s1",
	})
	require.Error(t, err)
}

func TestHandleExplainerFailureFallsBackToTemplate(t *testing.T) {
	ex := &mockExtractor{err: errors.New("model down")}
	co := &mockComposer{explainErr: errors.New("model down")}
	qr := &mockQuerier{rows: []map[string]any{{"year": 2025, "month": 3, "value": 5.0}}}
	svc, _ := newTestService(ex, co, qr)

	resp, err := svc.Handle(context.Background(), Request{
		Message:   "2025 оны 3 сард нүүрсний экспорт хэд вэ?",
		SessionID: "s1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Answer)
}

func TestHandleSessionStatePersistsDomain(t *testing.T) {
	ex := &mockExtractor{err: errors.New("model down")}
	co := &mockComposer{explanation: "тайлбар"}
	qr := &mockQuerier{rows: []map[string]any{{"year": 2025, "month": 3, "value": 5.0}}}
	svc, store := newTestService(ex, co, qr)
	ctx := context.Background()

	_, err := svc.Handle(ctx, Request{
		Message:   "2025 оны 3 сард төмрийн импорт хэд вэ?",
		SessionID: "s1",
	})
	require.NoError(t, err)

	state, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, intent.DomainImport, state.Domain)

	// next turn inherits the import domain through the fallback extractor
	_, err = svc.Handle(ctx, Request{Message: "зэс 2025 оны 3 сар", SessionID: "s1"})
	require.NoError(t, err)
	require.Contains(t, qr.sql, "v_import_monthly")
}

func TestLooksAnalytic(t *testing.T) {
	require.True(t, looksAnalytic("нүүрсний экспорт"))
	require.True(t, looksAnalytic("2025"))
	require.False(t, looksAnalytic("баярлалаа"))
}
