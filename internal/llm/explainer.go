package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/tradechat-bot/server/internal/core/error"
	logx "github.com/tradechat-bot/server/pkg/logger"
)

const explainInstructions = `Та экспорт/импортын monthly өгөгдөл тайлбарладаг Монгол хэлний туслах.
Доорх JSON дээр үндэслэн 3-6 өгүүлбэрээр ойлгомжтой тайлбар бич.
- Тоог таслалтайгаар бич
- Он/сар, бүтээгдэхүүн (HS) байвал дурд
- YoY бол өсөлт/бууралтыг тайлбарла
- Хэт урт бүү болго

JSON:
`

const smalltalkInstructions = "Та Монгол хэл дээр ярьдаг туслах. Найрсаг, товч хариул.\nАсуулт: "

// Explainer phrases a computed result in Mongolian. It is optional in the
// pipeline: callers substitute a templated answer when it fails.
type Explainer struct {
	model     chatModel
	modelName string
}

func NewExplainer(model chatModel, modelName string) *Explainer {
	return &Explainer{model: model, modelName: modelName}
}

// Explain renders the answer payload as JSON and asks the model for a
// short narrative.
func (e *Explainer) Explain(ctx context.Context, payload map[string]any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal explain payload: %w", err)
	}

	msg, err := e.model.Generate(ctx, []*schema.Message{
		schema.UserMessage(explainInstructions + string(b)),
	})
	if err != nil {
		logx.Warn().Err(err).Msg("explanation call failed")
		return "", errx.WrapLLM(err)
	}
	logUsage(msg, e.modelName)

	return strings.TrimSpace(msg.Content), nil
}

// Smalltalk answers a non-analytic message conversationally.
func (e *Explainer) Smalltalk(ctx context.Context, question string) (string, error) {
	msg, err := e.model.Generate(ctx, []*schema.Message{
		schema.UserMessage(smalltalkInstructions + question),
	})
	if err != nil {
		logx.Warn().Err(err).Msg("smalltalk call failed")
		return "", errx.WrapLLM(err)
	}
	logUsage(msg, e.modelName)

	return strings.TrimSpace(msg.Content), nil
}
