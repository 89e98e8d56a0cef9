package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "oasbake.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(config, []byte("prefix: /\n"), 0o600))

	var runs atomic.Int32
	w := New(func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	}, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, config)
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	t.Run("ignores other files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(0), runs.Load())
	})

	t.Run("debounces a burst", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, os.WriteFile(config, []byte("prefix: /api\n"), 0o600))
		}
		assert.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(1), runs.Load())
	})

	t.Run("keeps watching after a failed run", func(t *testing.T) {
		require.NoError(t, os.WriteFile(config, []byte("prefix: /v2\n"), 0o600))
		assert.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	w := New(func(context.Context) error { return nil })
	err := w.Watch(context.Background(), filepath.Join(t.TempDir(), "absent", "oasbake.yaml"))
	assert.Error(t, err)
}

func TestWatchRefresh(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "oasbake.yaml")
	manifest := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(config, []byte("prefix: /\n"), 0o600))
	require.NoError(t, os.WriteFile(manifest, []byte("resources: []\n"), 0o600))

	var runs atomic.Int32
	var files atomic.Value
	files.Store([]string{config})

	w := New(func(context.Context) error {
		runs.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond), WithRefresh(func() []string {
		return files.Load().([]string)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Watch(ctx, config)
	}()
	time.Sleep(100 * time.Millisecond)

	t.Run("not yet watched", func(t *testing.T) {
		require.NoError(t, os.WriteFile(manifest, []byte("resources: [a]\n"), 0o600))
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(0), runs.Load())
	})

	t.Run("watched after a run", func(t *testing.T) {
		files.Store([]string{config, manifest})
		require.NoError(t, os.WriteFile(config, []byte("prefix: /api\n"), 0o600))
		require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)

		require.NoError(t, os.WriteFile(manifest, []byte("resources: [b]\n"), 0o600))
		assert.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("dropped files are ignored", func(t *testing.T) {
		files.Store([]string{config})
		require.NoError(t, os.WriteFile(config, []byte("prefix: /v2\n"), 0o600))
		require.Eventually(t, func() bool { return runs.Load() == 3 }, 2*time.Second, 10*time.Millisecond)
		time.Sleep(50 * time.Millisecond)

		require.NoError(t, os.WriteFile(manifest, []byte("resources: [c]\n"), 0o600))
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int32(3), runs.Load())
	})
}
