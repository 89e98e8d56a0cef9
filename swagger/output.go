package swagger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/vitalvas/oasbake/config"
	"github.com/vitalvas/oasbake/openapi"
)

// WriteFiles writes the JSON and YAML projections of doc to the configured
// outputs. An empty output path is skipped. Both files are written
// concurrently; the first failure is returned.
func WriteFiles(ctx context.Context, doc *openapi.Document, out config.Output) error {
	g, ctx := errgroup.WithContext(ctx)

	if out.JSON != "" {
		g.Go(func() error {
			data, err := doc.JSON()
			if err != nil {
				return err
			}
			return writeFile(ctx, out.JSON, data)
		})
	}
	if out.YAML != "" {
		g.Go(func() error {
			data, err := doc.YAML()
			if err != nil {
				return err
			}
			return writeFile(ctx, out.YAML, data)
		})
	}

	return g.Wait()
}

// writeFile replaces path with data through a temporary file in the same
// directory, so readers never observe a partial document.
func writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
