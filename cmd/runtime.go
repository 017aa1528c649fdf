package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lexi/internal/aiconnectors"
	"github.com/lexi/internal/assistant"
	"github.com/lexi/internal/config"
	"github.com/lexi/internal/logging"
	"github.com/lexi/internal/media"
	"github.com/lexi/internal/render"
)

var timeNow = time.Now

// loadConfig reads the configuration named by --config and sets up logging
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.General.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	if err := logging.Setup(level, cfg.General.LogFormat, nil); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	return cfg, nil
}

// newAssistant connects to Gemini with the configured models and limits
func newAssistant(ctx context.Context, cfg *config.Config) (*assistant.Assistant, error) {
	if err := config.ValidateAI(cfg); err != nil {
		return nil, err
	}
	gemini := cfg.AI.Gemini

	connector, err := aiconnectors.NewConnector(ctx, aiconnectors.ConnectorOptions{
		APIKey:            gemini.APIKey,
		ModelConfig:       aiconnectors.ModelConfig{Model: gemini.ProModel},
		RequestsPerMinute: gemini.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	return assistant.New(connector, assistant.Options{
		Models: assistant.Models{
			Draft:         gemini.ProModel,
			Analysis:      gemini.ProModel,
			Chat:          gemini.ProModel,
			Transcription: gemini.FlashModel,
		},
		DraftTemperature: gemini.DraftTemperature,
		ThinkingBudget:   gemini.ThinkingBudget,
		Limits:           media.NewLimits(cfg.Limits.MaxUploadMB),
	}), nil
}

func newExporter(cfg *config.Config) *render.Exporter {
	return render.NewExporter(cfg.Export.DocumentMarginMM, cfg.Export.ReportMarginMM)
}

// Commands lists every subcommand of the lexi binary
func Commands() []*cli.Command {
	return []*cli.Command{
		APICommand(),
		ConfigCommand(),
		TemplatesCommand(),
		DraftCommand(),
		AnalyzeCommand(),
		TranscribeCommand(),
		WatchCommand(),
	}
}
