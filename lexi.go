package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lexi/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "lexi",
		Usage:   "AI legal assistant: draft contracts, X-ray documents for risk, ask follow-up questions",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./lexi.toml, ./lexi.yaml, ~/.lexi.toml)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		// field values such as "Acme, Inc." must not be split
		DisableSliceFlagSeparator: true,
		Commands:                  cmd.Commands(),
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
