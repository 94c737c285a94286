package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tradechat-bot/server/internal/chat"
	"github.com/tradechat-bot/server/internal/core"
	"github.com/tradechat-bot/server/internal/db"
	"github.com/tradechat-bot/server/internal/llm"
	"github.com/tradechat-bot/server/internal/querylog"
	"github.com/tradechat-bot/server/internal/session"
	logx "github.com/tradechat-bot/server/pkg/logger"
	pkgpostgres "github.com/tradechat-bot/server/pkg/postgres"
	pkgredis "github.com/tradechat-bot/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the chat example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `default:"development"`

	// Infrastructure
	Redis    pkgredis.Config
	Postgres pkgpostgres.Config

	// LLM provider
	APIKey    string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL   string `envconfig:"GEMINI_BASE_URL"`
	Extractor llm.ModelConfig
	Explainer llm.ModelConfig

	// Pipeline
	SessionTTL   string `envconfig:"SESSION_TTL" default:"6h"`
	QueryTimeout string `envconfig:"QUERY_TIMEOUT" default:"15s"`
}

func main() {
	fmt.Println("Testing trade statistics chat pipeline...")
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()
	fmt.Println("Connected to Redis successfully")

	pool, err := envCfg.Postgres.New(ctx)
	if err != nil {
		log.Fatalf("Failed to initialise Postgres pool: %v", err)
	}
	defer pool.Close()
	fmt.Println("Connected to Postgres successfully")

	models, err := llm.NewModels(ctx, llm.Config{
		APIKey:    envCfg.APIKey,
		BaseURL:   envCfg.BaseURL,
		Extractor: envCfg.Extractor,
		Explainer: envCfg.Explainer,
	})
	if err != nil {
		log.Fatalf("Failed to create chat models: %v", err)
	}

	ttl, err := time.ParseDuration(envCfg.SessionTTL)
	if err != nil {
		log.Fatalf("Invalid SESSION_TTL '%s': %v", envCfg.SessionTTL, err)
	}
	queryTimeout, err := time.ParseDuration(envCfg.QueryTimeout)
	if err != nil {
		log.Fatalf("Invalid QUERY_TIMEOUT '%s': %v", envCfg.QueryTimeout, err)
	}

	qlog := querylog.NewRecorder(0)
	defer qlog.Close()

	service := chat.NewService(
		session.NewRedisStore(rdb, ttl),
		db.NewPoolQuerier(pool),
		llm.NewExtractor(models.Extractor, models.ExtractorModelName),
		llm.NewExplainer(models.Explainer, models.ExplainerModelName),
		qlog,
		queryTimeout,
	)

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Coal export for a specific month",
			query:       "2025 оны 3 сард нүүрсний экспорт хэд вэ?",
		},
		{
			description: "Follow-up: switch to tonnage",
			query:       "тоо хэмжээгээр нь",
		},
		{
			description: "Follow-up: compare with prior year",
			query:       "өмнөх онтой харьцуул",
		},
		{
			description: "Yearly comparison table",
			query:       "2024, 2025 оныг жилээр хүснэгтээр",
		},
		{
			description: "Category query",
			query:       "тамхины импортын дүн 2025 онд",
		},
	}

	sessionID := uuid.NewString()

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)
		fmt.Println("Processing...")

		resp, err := service.Handle(ctx, chat.Request{
			Message:   test.query,
			SessionID: sessionID,
		})
		if err != nil {
			log.Fatalf("Failed to handle turn %d: %v", i+1, err)
		}

		fmt.Printf("Mode: %s\n", resp.Mode)
		fmt.Printf("Answer %d: %s\n", i+1, resp.Answer)
		fmt.Println("────────────────────────────────────────────")

		// slight delay between turns for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All chat pipeline tests completed!")
}
