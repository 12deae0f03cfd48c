package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"breathein/internal/config"
	"breathein/internal/content"
	"breathein/internal/notifications"
	"breathein/internal/schedule"
	"breathein/internal/services/llm"
	"breathein/internal/services/youtube"
	"breathein/internal/slotstore"
	"breathein/internal/uploadlog"
	"breathein/internal/usage"
	"breathein/internal/video"
)

// Components are the production collaborators behind a Runner. Close releases
// the slot database.
type Components struct {
	Runner *Runner
	Usage  *usage.Tracker
	Slots  *slotstore.Store
	Log    *uploadlog.Log
	Writer *content.Writer
}

// Close releases resources held by the components.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	return c.Slots.Close()
}

// NewFromConfig wires the llm client, content writer, video generator, usage
// tracker, slot store, upload log, notifier, and a lazily built YouTube
// client into a Runner. observer may be nil.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, observer Observer, opts ...Option) (*Components, error) {
	if observer == nil {
		observer = noopObserver{}
	}
	sched, err := schedule.New(cfg.Schedule.Slots, cfg.Location())
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	slots, err := slotstore.Open(cfg.SlotDBPath())
	if err != nil {
		return nil, err
	}

	tracker := usage.NewTracker(cfg.UsageFile(), usage.PriceTableFromConfig(cfg.Pricing), logger,
		usage.WithLocation(cfg.Location()),
		usage.WithObserver(observer.LLMCall),
	)

	var completer content.Completer
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		completer = llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}
	writer := content.NewWriter(completer, tracker, logger, content.Options{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, nil)

	log := uploadlog.New(cfg.UploadLogPath())
	runner := New(cfg, Dependencies{
		Schedule:  sched,
		Generator: video.NewGenerator(cfg, writer, logger),
		Titles:    writer,
		Uploader:  lazyUploader(cfg, logger),
		Slots:     slots,
		Log:       log,
		Notifier:  notifications.NewService(cfg),
		Observer:  observer,
		Logger:    logger,
	}, opts...)

	return &Components{
		Runner: runner,
		Usage:  tracker,
		Slots:  slots,
		Log:    log,
		Writer: writer,
	}, nil
}

// lazyUploader builds the YouTube client on first use and reuses it after.
func lazyUploader(cfg *config.Config, logger *slog.Logger) UploaderFactory {
	var client *youtube.Client
	return func(ctx context.Context) (youtube.Uploader, error) {
		if client != nil {
			return client, nil
		}
		c, err := youtube.NewClient(context.WithoutCancel(ctx), cfg, logger)
		if err != nil {
			return nil, err
		}
		client = c
		return client, nil
	}
}
