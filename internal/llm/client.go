// Package llm wraps the two Gemini models the pipeline talks to: a
// low-temperature extractor that maps questions to intent JSON and an
// explainer that phrases answers.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	logx "github.com/tradechat-bot/server/pkg/logger"
)

// ModelConfig configures one Gemini model. Bound under a per-model env
// prefix (EXTRACTOR_MODEL, EXPLAINER_MAX_TOKENS, ...).
type ModelConfig struct {
	Model       string  `default:"gemini-2.0-flash"`
	Temperature float32 `default:"0.1"`
	MaxTokens   int     `default:"2048" split_words:"true"`
}

// Config configures the Gemini client and both models.
type Config struct {
	APIKey    string
	BaseURL   string
	Extractor ModelConfig
	Explainer ModelConfig
}

// chatModel is the slice of the eino model surface used here, kept local
// so tests can substitute a scripted model.
type chatModel interface {
	Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Models holds the constructed chat models.
type Models struct {
	Extractor          *gemini.ChatModel
	Explainer          *gemini.ChatModel
	ExtractorModelName string
	ExplainerModelName string
}

// NewModels builds both chat models over a shared Gemini client.
func NewModels(ctx context.Context, cfg Config) (*Models, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	extractor, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Extractor.Model,
		Temperature: &cfg.Extractor.Temperature,
		MaxTokens:   &cfg.Extractor.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating extractor model")
		return nil, fmt.Errorf("error creating extractor model: %w", err)
	}

	explainer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Explainer.Model,
		Temperature: &cfg.Explainer.Temperature,
		MaxTokens:   &cfg.Explainer.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating explainer model")
		return nil, fmt.Errorf("error creating explainer model: %w", err)
	}

	return &Models{
		Extractor:          extractor,
		Explainer:          explainer,
		ExtractorModelName: cfg.Extractor.Model,
		ExplainerModelName: cfg.Explainer.Model,
	}, nil
}

func logUsage(msg *schema.Message, model string) {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	u := msg.ResponseMeta.Usage
	logx.Debug().
		Str("model", model).
		Int("promptTokens", u.PromptTokens).
		Int("completionTokens", u.CompletionTokens).
		Int("totalTokens", u.TotalTokens).
		Msg("token usage")
}
