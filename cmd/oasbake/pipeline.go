package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vitalvas/oasbake/config"
	"github.com/vitalvas/oasbake/manifest"
	"github.com/vitalvas/oasbake/metadata"
	"github.com/vitalvas/oasbake/oaserr"
	"github.com/vitalvas/oasbake/openapi"
	"github.com/vitalvas/oasbake/swagger"
)

// inputs is everything one run reads from disk.
type inputs struct {
	cfgPath  string
	cfg      config.Config
	manifest *manifest.Manifest
}

func load(cfgPath, manifestPath string) (*inputs, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if manifestPath != "" {
		cfg.Manifest = manifestPath
	}
	if cfg.Manifest == "" {
		return nil, fmt.Errorf("%w: no manifest configured", oaserr.ErrConfig)
	}

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	return &inputs{cfgPath: cfgPath, cfg: cfg, manifest: m}, nil
}

// files lists the inputs the watcher follows.
func (in *inputs) files() []string {
	var out []string
	for _, f := range []string{in.cfgPath, in.cfg.Manifest, in.cfg.BaseDocument} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (in *inputs) generate(ctx context.Context, logger zerolog.Logger) (*openapi.Document, error) {
	table := metadata.NewTable()
	classes := metadata.NewRegistry()
	if err := in.manifest.Apply(metadata.NewLoader(table, classes, metadata.WithLogger(logger))); err != nil {
		return nil, err
	}

	gen := swagger.NewGenerator(in.cfg, in.manifest.Router(), table, classes,
		swagger.WithTables(in.manifest.TableSource()),
		swagger.WithLogger(logger),
	)
	return gen.Generate(ctx)
}

func (in *inputs) write(ctx context.Context, logger zerolog.Logger) error {
	doc, err := in.generate(ctx, logger)
	if err != nil {
		return err
	}
	if err := swagger.WriteFiles(ctx, doc, in.cfg.Output); err != nil {
		return err
	}
	logger.Info().
		Str("json", in.cfg.Output.JSON).
		Str("yaml", in.cfg.Output.YAML).
		Msg("document written")
	return nil
}
