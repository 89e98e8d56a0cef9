package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/watcher"
)

const (
	configFlag   = "config"
	manifestFlag = "manifest"
	debugFlag    = "debug"
	watchFlag    = "watch"
	debounceFlag = "debounce"
)

var version = "dev"

var commonFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    configFlag,
		Aliases: []string{"c"},
		Value:   "",
		Usage:   "Configuration file (YAML); OASBAKE_ environment variables override it",
	},
	&cli.StringFlag{
		Name:    manifestFlag,
		Aliases: []string{"m"},
		Usage:   "Manifest file with routes, tables, classes and metadata; overrides the configured one",
	},
	&cli.BoolFlag{
		Name:  debugFlag,
		Usage: "Enable debug logging",
	},
}

func newLogger(c *cli.Context) zerolog.Logger {
	level := zerolog.InfoLevel
	if c.Bool(debugFlag) {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

func generateAction(c *cli.Context) error {
	logger := newLogger(c)
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := load(c.String(configFlag), c.String(manifestFlag))
	if err != nil {
		return err
	}
	if err := in.write(ctx, logger); err != nil {
		return err
	}

	if !c.Bool(watchFlag) && !in.cfg.HotReload {
		return nil
	}
	return watch(ctx, c, in, logger)
}

func watchAction(c *cli.Context) error {
	logger := newLogger(c)
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := load(c.String(configFlag), c.String(manifestFlag))
	if err != nil {
		return err
	}
	if err := in.write(ctx, logger); err != nil {
		logger.Error().Err(err).Msg("initial generation failed")
	}
	return watch(ctx, c, in, logger)
}

// watch reloads every input on change, so edits to the configuration and
// the manifest take effect without a restart. The watched files follow the
// last configuration that loaded, so a new manifest path is picked up.
func watch(ctx context.Context, c *cli.Context, in *inputs, logger zerolog.Logger) error {
	current := in
	w := watcher.New(func(ctx context.Context) error {
		next, err := load(c.String(configFlag), c.String(manifestFlag))
		if err != nil {
			return err
		}
		current = next
		return next.write(ctx, logger)
	},
		watcher.WithLogger(logger),
		watcher.WithDebounce(c.Duration(debounceFlag)),
		watcher.WithRefresh(func() []string { return current.files() }),
	)

	return w.Watch(ctx, in.files()...)
}

func validateAction(c *cli.Context) error {
	logger := newLogger(c)
	ctx := c.Context

	if path := c.Args().First(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := openapi.ValidateData(ctx, data); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		logger.Info().Str("file", path).Msg("document is valid")
		return nil
	}

	in, err := load(c.String(configFlag), c.String(manifestFlag))
	if err != nil {
		return err
	}
	doc, err := in.generate(ctx, logger)
	if err != nil {
		return err
	}
	if err := openapi.Validate(ctx, doc); err != nil {
		return err
	}
	logger.Info().Int("paths", doc.Paths.Len()).Msg("generated document is valid")
	return nil
}

func main() {
	app := cli.NewApp()
	app.Name = "oasbake"
	app.Version = version
	app.Usage = "Generate OpenAPI 3.0 documents from routes, entity tables and declarative metadata."
	app.Commands = []*cli.Command{
		{
			Name:    "generate",
			Aliases: []string{"g"},
			Usage:   "Generate the document and write the configured outputs",
			Action:  generateAction,
			Flags: append([]cli.Flag{
				&cli.BoolFlag{
					Name:    watchFlag,
					Aliases: []string{"w"},
					Usage:   "Keep running and regenerate on input changes",
				},
				&cli.DurationFlag{
					Name:  debounceFlag,
					Value: watcher.DefaultDebounce,
					Usage: "Quiet period before regenerating",
				},
			}, commonFlags...),
		},
		{
			Name:   "watch",
			Usage:  "Regenerate whenever the configuration, manifest or base document changes",
			Action: watchAction,
			Flags: append([]cli.Flag{
				&cli.DurationFlag{
					Name:  debounceFlag,
					Value: watcher.DefaultDebounce,
					Usage: "Quiet period before regenerating",
				},
			}, commonFlags...),
		},
		{
			Name:      "validate",
			Usage:     "Validate a document file, or the generated document when no file is given",
			ArgsUsage: "[file]",
			Action:    validateAction,
			Flags:     commonFlags,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
