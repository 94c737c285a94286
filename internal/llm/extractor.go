package llm

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/cloudwego/eino/schema"

	errx "github.com/tradechat-bot/server/internal/core/error"
	"github.com/tradechat-bot/server/internal/intent"
	logx "github.com/tradechat-bot/server/pkg/logger"
)

//go:embed template/intent_prompt.txt
var intentPromptText string

var intentPromptTmpl = template.Must(template.New("intent_prompt").Parse(intentPromptText))

// ulaanbaatar anchors the "today" hint in the prompt; dates in questions
// are relative to local trade reporting, not server time.
var ulaanbaatar = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Ulaanbaatar")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// BuildIntentPrompt renders the extraction prompt for one question.
func BuildIntentPrompt(question string, now time.Time) (string, error) {
	var sb strings.Builder
	err := intentPromptTmpl.Execute(&sb, struct {
		Today    string
		Question string
	}{
		Today:    now.In(ulaanbaatar).Format("2006-01-02"),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("render intent prompt: %w", err)
	}
	return sb.String(), nil
}

// Extractor turns a question into a validated intent via the model.
type Extractor struct {
	model     chatModel
	modelName string
	now       func() time.Time
}

func NewExtractor(model chatModel, modelName string) *Extractor {
	return &Extractor{model: model, modelName: modelName, now: time.Now}
}

// Extract asks the model for intent JSON and validates the result. Any
// failure (transport, malformed JSON, invalid intent) is returned so the
// caller can fall back to keyword extraction.
func (e *Extractor) Extract(ctx context.Context, question string) (*intent.Intent, error) {
	prompt, err := BuildIntentPrompt(question, e.now())
	if err != nil {
		return nil, err
	}

	msg, err := e.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Warn().Err(err).Msg("intent extraction call failed")
		return nil, errx.WrapLLM(err)
	}
	logUsage(msg, e.modelName)

	raw := stripCodeFence(msg.Content)

	var in intent.Intent
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		logx.Warn().Err(err).Str("content", msg.Content).Msg("intent response is not valid JSON")
		return nil, fmt.Errorf("decode intent response: %w", err)
	}

	if err := intent.Validate(&in); err != nil {
		logx.Warn().Err(err).Msg("extracted intent failed validation")
		return nil, err
	}
	return &in, nil
}

// stripCodeFence removes a ```json ... ``` wrapper the model sometimes
// adds despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 && !strings.HasPrefix(s, "{") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
