package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/lexi/internal/api"
	"github.com/lexi/internal/preferences"
	"github.com/lexi/internal/workspace"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the Lexi API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			port := cfg.Server.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			asst, err := newAssistant(c.Context, cfg)
			if err != nil {
				return err
			}

			prefs, err := preferences.Open(c.Context, preferences.Options{
				Driver:      cfg.Preferences.Driver,
				Path:        cfg.Preferences.Path,
				DatabaseURL: cfg.Preferences.DatabaseURL,
			})
			if err != nil {
				return err
			}
			defer prefs.Close()

			log.Info().
				Int("port", port).
				Str("preferences", cfg.Preferences.Driver).
				Msg("Starting Lexi API server")

			server := api.NewServer(api.ServerOptions{
				Port:               port,
				Registry:           workspace.NewRegistry(asst, prefs),
				Exporter:           newExporter(cfg),
				SessionIdleTimeout: cfg.Server.SessionIdleTimeout,
			})
			return server.Start()
		},
	}
}
