package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai/gemini"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/duration"
	"github.com/spigell/assessment-recommender/internal/extract"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/pages"
	"github.com/spigell/assessment-recommender/internal/recommend"
	"github.com/spigell/assessment-recommender/internal/secrets"
)

// setup builds the logger and the config shared by every command.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil || config.Catalog == nil || config.HTTP == nil || config.Duration == nil || config.AI == nil || config.AI.Gemini == nil {
		logger.Fatal("config is incomplete")
	}

	return logger, config
}

func newGeminiClient(ctx context.Context, cfg *GeminiConfig, log *zap.Logger) (*gemini.Client, error) {
	if cfg == nil {
		return nil, errors.New("ai.gemini section is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GEMINI_API_KEY, GEMINI_API_KEY_FILE or ai.gemini.api-key-file)", err)
	}

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		Timeout:        cfg.Timeout,
		MaxLogLength:   cfg.MaxLogLength,
	}, log)
	if err != nil {
		return nil, err
	}

	logger.WithCommonFields(log, "gemini", client.Model()).Debug("gemini client ready",
		zap.String("embedding_model", client.EmbeddingModel()),
		zap.Duration("timeout", cfg.Timeout),
	)

	return client, nil
}

func newPagesClient(cfg *Config, log *zap.Logger) *pages.Client {
	client := pages.New(log, cfg.HTTP.Timeout)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	return client
}

// newDurationResolver chains the static fetch with the headless browser
// unless the browser is disabled.
func newDurationResolver(cfg *Config, client *pages.Client, log *zap.Logger) *duration.Resolver {
	sources := []duration.Source{duration.StaticSource{Getter: client}}

	if browser := cfg.Duration.Browser; browser != nil && browser.Enabled {
		sources = append(sources, duration.NewRenderedSource(duration.BrowserConfig{
			ExecPath:      browser.ExecPath,
			Headless:      browser.Headless,
			UserAgent:     client.UserAgent,
			SettleDelay:   cfg.Duration.SettleDelay,
			RenderTimeout: cfg.Duration.RenderTimeout,
		}, log))
	} else {
		log.Info("headless browser disabled, durations come from static pages only")
	}

	return duration.NewResolver(log, sources...)
}

func newRecommendService(ctx context.Context, cfg *Config, source catalog.Source, log *zap.Logger) (*recommend.Service, error) {
	client, err := newGeminiClient(ctx, cfg.AI.Gemini, log)
	if err != nil {
		return nil, err
	}

	pagesClient := newPagesClient(cfg, log)

	return recommend.New(recommend.Config{
		DefaultTopN:   cfg.TopN,
		Concurrency:   cfg.Duration.Concurrency,
		RatePerSecond: cfg.Duration.RatePerSecond,
	}, recommend.Deps{
		Extractor: extract.New(pagesClient, log),
		Embedder:  client,
		Catalog:   source,
		Durations: newDurationResolver(cfg, pagesClient, log),
		Logger:    log,
	})
}
