package app

import (
	"context"
	"fmt"
	"log/slog"

	"storyboard/internal/credentials"
	"storyboard/internal/export"
	"storyboard/internal/gemini"
	"storyboard/internal/groq"
	"storyboard/internal/metrics"
	"storyboard/internal/storage"
	"storyboard/internal/storyboard"
	"storyboard/pkg/config"
	"storyboard/pkg/prompts"
)

// Surface decides how a missing or rejected API key gets selected.
type Surface int

const (
	// SurfaceTerminal asks for the key with a terminal dialog.
	SurfaceTerminal Surface = iota
	// SurfaceHTTP raises a flag the browser page answers.
	SurfaceHTTP
)

func BuildService(ctx context.Context, cfg *config.Config, surface Surface) (*Service, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	keys := credentials.NewStore(resolveAPIKey(ctx, cfg))

	// The board's selector runs inside a spinner on the terminal, so there
	// it only records the request and the command opens the dialog later.
	var (
		selector      credentials.Selector
		boardSelector credentials.Selector
		pending       *credentials.PendingSelector
		deferred      *credentials.DeferredSelector
	)
	switch surface {
	case SurfaceHTTP:
		pending = credentials.NewPendingSelector(keys)
		selector = pending
		boardSelector = pending
	default:
		selector = credentials.NewPromptSelector(keys, cfg.Credentials.EnvFile)
		deferred = credentials.NewDeferredSelector(selector)
		boardSelector = deferred
	}

	geminiClient := gemini.NewClient(keys, gemini.Config{
		TextModel:   cfg.Analysis.Model,
		ImageModel:  cfg.Render.Model,
		AspectRatio: cfg.Render.AspectRatio,
		ImageSize:   cfg.Render.ImageSize,
	}, p)

	text, err := buildTextModel(cfg, geminiClient, p)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	board := storyboard.New(text, geminiClient,
		storyboard.WithSelector(boardSelector),
		storyboard.WithMetrics(m),
	)

	return NewService(ServiceOptions{
		Config:     cfg,
		Keys:       keys,
		Selector:   selector,
		Pending:    pending,
		Deferred:   deferred,
		Board:      board,
		Exporter:   export.NewExporter(store, cfg.Export.Format, cfg.Export.JPEGQuality),
		Metrics:    m,
		closeStore: closeStore,
	}), nil
}

// resolveAPIKey prefers GEMINI_API_KEY and falls back to the Secret Manager
// version named by GEMINI_API_KEY_SECRET. An empty result leaves the
// selection to the selector.
func resolveAPIKey(ctx context.Context, cfg *config.Config) string {
	if cfg.GeminiAPIKey != "" {
		return cfg.GeminiAPIKey
	}
	if cfg.GeminiAPIKeySecret == "" {
		return ""
	}

	key, err := credentials.LoadSecret(ctx, cfg.GeminiAPIKeySecret)
	if err != nil {
		slog.Warn("Could not read Gemini API key from Secret Manager", "secret", cfg.GeminiAPIKeySecret, "error", err)
		return ""
	}
	slog.Debug("Loaded Gemini API key from Secret Manager", "secret", cfg.GeminiAPIKeySecret)
	return key
}

func buildTextModel(cfg *config.Config, geminiClient *gemini.Client, p *prompts.Prompts) (storyboard.TextModel, error) {
	switch cfg.Analysis.Provider {
	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("analysis provider groq requires GROQ_API_KEY")
		}
		client, err := groq.NewClient(cfg.GroqAPIKey, cfg.Analysis.GroqModel, p)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return geminiClient, nil
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	if !cfg.Export.GCS.Enabled {
		return storage.NewLocalStorage(cfg.Export.OutputDir), nil, nil
	}

	gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.Export.GCS.Prefix, cfg.Export.GCS.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return gcs, gcs.Close, nil
}
