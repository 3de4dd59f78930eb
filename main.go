package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/tcassar-diss/vmlisten/frontend"
	"github.com/tcassar-diss/vmlisten/listener"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	configPath  string
	metricsAddr string
	tracePath   string
	verbose     bool
)

func main() {
	app := &cli.App{
		Name:  "vmlisten",
		Usage: "count structural events (class definitions, operator redefinitions, ...) of a host runtime",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to a TOML config file",
				Destination: &configPath,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "development logging",
				Destination: &verbose,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "replay a TOML mutation script and print listener stats as JSON",
				ArgsUsage: "<script.toml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "metrics-addr",
						Usage:       "serve prometheus metrics on this address; overrides the config",
						Destination: &metricsAddr,
					},
					&cli.StringFlag{
						Name:        "trace",
						Usage:       "write a CSV trace of every event to this path; overrides the config",
						Destination: &tracePath,
					},
				},
				Action: replay,
			},
			{
				Name:  "events",
				Usage: "list the tracked listener events",
				Action: func(cCtx *cli.Context) error {
					for _, e := range listener.Events() {
						fmt.Fprintln(cCtx.App.Writer, e)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func replay(cCtx *cli.Context) error {
	if nArgs := cCtx.Args().Len(); nArgs != 1 {
		_ = cli.ShowSubcommandHelp(cCtx)

		return cli.Exit(fmt.Sprintf("\nERROR: expected one script, got %d args", nArgs), 1)
	}

	logger, err := initLogger()
	if err != nil {
		return fmt.Errorf("failed to get a logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("bad config: %v", err), 1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := frontend.Run(ctx, logger, cfg, cCtx.Args().First(), cCtx.App.Writer); err != nil {
		return cli.Exit(fmt.Sprintf("replay failed: %v", err), 2)
	}

	return nil
}

func initLogger() (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)

	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	return l.Sugar(), nil
}

func loadConfig() (*frontend.Config, error) {
	cfg := frontend.DefaultConfig()

	if configPath != "" {
		var err error

		cfg, err = frontend.ParseTOMLConfig(configPath)
		if err != nil {
			return nil, err
		}
	}

	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	if tracePath != "" {
		cfg.Listeners.Trace = tracePath
	}

	return cfg, nil
}
