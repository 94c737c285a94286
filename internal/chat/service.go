// Package chat orchestrates a conversation turn: route the message, pull
// session state, extract and merge intent, clarify or build and run the
// query, then phrase the answer.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/tradechat-bot/server/internal/conversation"
	"github.com/tradechat-bot/server/internal/db"
	"github.com/tradechat-bot/server/internal/intent"
	"github.com/tradechat-bot/server/internal/querylog"
	"github.com/tradechat-bot/server/internal/result"
	"github.com/tradechat-bot/server/internal/session"
	"github.com/tradechat-bot/server/internal/sqlbuilder"
	logx "github.com/tradechat-bot/server/pkg/logger"
)

const (
	// DefaultQueryTimeout bounds one statement execution.
	DefaultQueryTimeout = 15 * time.Second
	// maxRows caps what the normalizer and explainer ever see.
	maxRows = 500
	// rowsPreviewLimit bounds how many raw rows reach the explain prompt.
	rowsPreviewLimit = 20
)

// IntentExtractor maps a question to a validated intent.
type IntentExtractor interface {
	Extract(ctx context.Context, question string) (*intent.Intent, error)
}

// AnswerComposer phrases results and handles non-analytic chit-chat.
type AnswerComposer interface {
	Explain(ctx context.Context, payload map[string]any) (string, error)
	Smalltalk(ctx context.Context, question string) (string, error)
}

// Request is one inbound chat message.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Response modes.
const (
	ModeAnswer    = "answer"
	ModeClarify   = "clarify"
	ModeSmalltalk = "smalltalk"
)

// Response is one turn's outcome. Result is nil unless Mode is "answer".
type Response struct {
	Mode   string          `json:"mode"`
	Answer string          `json:"answer"`
	Meta   map[string]any  `json:"meta"`
	Result result.Contract `json:"result,omitempty"`
}

// Service wires the turn pipeline together.
type Service struct {
	store        session.Store
	locker       *session.Locker
	db           db.Querier
	extractor    IntentExtractor
	explainer    AnswerComposer
	qlog         *querylog.Recorder
	queryTimeout time.Duration
}

func NewService(
	store session.Store,
	querier db.Querier,
	extractor IntentExtractor,
	explainer AnswerComposer,
	qlog *querylog.Recorder,
	queryTimeout time.Duration,
) *Service {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &Service{
		store:        store,
		locker:       session.NewLocker(),
		db:           querier,
		extractor:    extractor,
		explainer:    explainer,
		qlog:         qlog,
		queryTimeout: queryTimeout,
	}
}

// Handle runs one turn. Turns for the same session are serialized; the
// state written back always reflects this turn's outcome.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	q := strings.TrimSpace(req.Message)
	sid := session.NormalizeID(strings.TrimSpace(req.SessionID))

	release := s.locker.Lock(sid)
	defer release()

	prev, err := s.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}

	if q == "" {
		if err := s.store.Set(ctx, sid, prev); err != nil {
			return nil, err
		}
		return &Response{
			Mode:   ModeClarify,
			Answer: "Асуултаа бичнэ үү.",
			Meta: map[string]any{
				"needs_clarification": true,
				"choices":             []conversation.Choice{},
				"suggestions":         conversation.BuildSuggestions(prev),
				"state":               prev,
			},
		}, nil
	}

	if !looksAnalytic(q) {
		answer, err := s.explainer.Smalltalk(ctx, q)
		if err != nil || answer == "" {
			answer = "Сайн байна уу! Экспорт, импортын статистикийн талаар асуугаарай."
		}
		s.record(querylog.Entry{SessionID: sid, Question: q, Status: querylog.StatusSmalltalk})
		return &Response{Mode: ModeSmalltalk, Answer: answer, Meta: map[string]any{}}, nil
	}

	// a clarification answer alone ("2025 он") rarely extracts well, so
	// the original question is prepended for this turn's extraction
	extractionText := q
	if prev.AwaitingClarification && prev.PendingQuestion != "" {
		extractionText = prev.PendingQuestion + " " + q
	}

	overrides := intent.DetectFollowup(q)

	extracted, err := s.extractor.Extract(ctx, extractionText)
	usedFallback := false
	if err != nil || extracted == nil {
		extracted = intent.Fallback(extractionText, prev.Domain)
		usedFallback = true
		logx.Info().Str("sessionID", sid).Msg("using keyword fallback for intent extraction")
	}

	state := conversation.Merge(prev, extracted, overrides)
	if overrides.ComparePrevYear {
		state = conversation.ApplyComparePrevYear(state)
	}

	if clar := conversation.NeedsClarification(state); clar != nil {
		state.AwaitingClarification = true
		state.PendingQuestion = extractionText
		state.PendingClarify = clar
		if err := s.store.Set(ctx, sid, state); err != nil {
			return nil, err
		}
		s.record(querylog.Entry{
			SessionID: sid, Question: q, Intent: extracted, Status: querylog.StatusClarify,
		})
		return &Response{
			Mode:   ModeClarify,
			Answer: clar.Question,
			Meta: map[string]any{
				"needs_clarification": true,
				"choices":             clar.Choices,
				"suggestions":         conversation.BuildSuggestions(state),
				"state":               state,
				"intent":              extracted,
				"overrides":           overrides,
				"used_fallback":       usedFallback,
			},
		}, nil
	}

	state.AwaitingClarification = false
	state.PendingQuestion = ""
	state.PendingClarify = nil
	if err := s.store.Set(ctx, sid, state); err != nil {
		return nil, err
	}

	canonical := state.ToIntent()
	if canonical.Domain == "" {
		canonical.Domain = intent.DomainExport
	}
	if canonical.Metric == "" {
		canonical.Metric = intent.MetricAmountUSD
	}

	query := sqlbuilder.Build(canonical, extractionText)

	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	rows, err := s.db.Query(qctx, query.SQL, query.Params)
	if err != nil {
		s.record(querylog.Entry{
			SessionID: sid, Question: q, Intent: canonical,
			View: query.Meta.View, Calc: query.Meta.Calc, Status: querylog.StatusError,
		})
		return nil, err
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	// the builder may have rewritten the calc, so formatting follows the
	// query metadata rather than the intent
	contract := result.Normalize(query.Meta.Calc, query.Meta.Metric, rows)

	preview := rows
	if len(preview) > rowsPreviewLimit {
		preview = preview[:rowsPreviewLimit]
	}
	payload := map[string]any{
		"question":     q,
		"intent":       canonical,
		"overrides":    overrides,
		"sql_meta":     query.Meta,
		"result":       contract,
		"rows_preview": preview,
		"state":        state,
	}

	answer, err := s.explainer.Explain(ctx, payload)
	if err != nil || answer == "" {
		answer = fallbackAnswer(query.Meta, contract)
	}

	s.record(querylog.Entry{
		SessionID: sid, Question: q, Intent: canonical,
		View: query.Meta.View, Calc: query.Meta.Calc,
		RowCount: len(rows), Status: querylog.StatusOK,
	})

	return &Response{
		Mode:   ModeAnswer,
		Answer: answer,
		Meta: map[string]any{
			"needs_clarification": false,
			"suggestions":         conversation.BuildSuggestions(state),
			"state":               state,
			"intent":              canonical,
			"overrides":           overrides,
			"sql_meta":            query.Meta,
			"used_fallback":       usedFallback,
		},
		Result: contract,
	}, nil
}

func (s *Service) record(e querylog.Entry) {
	if s.qlog != nil {
		s.qlog.Record(e)
	}
}

var analyticKeywords = []string{
	"экспорт", "импорт", "дүн", "хэмжээ", "тонн", "usd", "ам.доллар",
	"өмнөх", "мөн үе", "өссөн", "сар", "он", "дундаж", "yoy",
}

// looksAnalytic is the cheap router between the data pipeline and
// smalltalk. Any digit counts as analytic since years and HS codes are
// the most common anchors.
func looksAnalytic(q string) bool {
	t := strings.ToLower(q)
	for _, k := range analyticKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	for _, r := range t {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// fallbackAnswer is the templated answer used when the explainer is
// unavailable.
func fallbackAnswer(meta sqlbuilder.Metadata, contract result.Contract) string {
	switch {
	case contract["warning"] == result.WarningNoData:
		return fmt.Sprintf("%s • %s: өгөгдөл олдсонгүй.", meta.Domain, meta.Metric)

	case meta.Calc == intent.CalcYoY:
		trend := "—"
		if pct, ok := result.AsFloat(contract["pct"]); ok {
			switch {
			case pct > 0:
				trend = "өссөн"
			case pct < 0:
				trend = "буурсан"
			default:
				trend = "өөрчлөлтгүй"
			}
		}
		return fmt.Sprintf(
			"%s • өмнөх оны мөн үе: Одоогийн=%v, Өмнөх=%v, Өөрчлөлт=%v (%s)",
			meta.Domain,
			contract["display_current"], contract["display_previous"], contract["display_pct"],
			trend,
		)

	case meta.Calc == intent.CalcTimeseriesMonth:
		return fmt.Sprintf("%s • %s • сар сараар цуваа гаргалаа.", meta.Domain, meta.Metric)

	case meta.Calc == intent.CalcTimeseriesYear:
		return fmt.Sprintf("%s • %s • жил жилээр хүснэгт/цуваа гаргалаа.", meta.Domain, meta.Metric)

	default:
		return fmt.Sprintf("%s • %s • %s = %v", meta.Domain, meta.Calc, meta.Metric, contract["display"])
	}
}
