package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) (*atomic.Int32, context.CancelFunc, <-chan error) {
	t.Helper()
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	w := New(Options{Root: root, Debounce: 50 * time.Millisecond})
	go func() {
		done <- w.Run(ctx, func(context.Context) { calls.Add(1) })
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	return &calls, cancel, done
}

func TestWatcher_RunsOnChange(t *testing.T) {
	root := t.TempDir()
	calls, cancel, done := startWatcher(t, root)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(root, "page.tsx"), []byte("export default 1"), 0o644))

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	w := New(Options{Root: filepath.Join(t.TempDir(), "missing")})

	err := w.Run(context.Background(), func(context.Context) {})
	require.Error(t, err)
	var watchErr *Error
	assert.ErrorAs(t, err, &watchErr)
}

func TestWatcher_Relevant(t *testing.T) {
	root := t.TempDir()
	w := New(Options{Root: root})

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"page write", fsnotify.Event{Name: filepath.Join(root, "app", "page.tsx"), Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(root, "app", "page.tsx"), Op: fsnotify.Chmod}, false},
		{"node_modules", fsnotify.Event{Name: filepath.Join(root, "node_modules", "x", "index.js"), Op: fsnotify.Create}, false},
		{"git", fsnotify.Event{Name: filepath.Join(root, ".git", "HEAD"), Op: fsnotify.Write}, false},
		{"public asset", fsnotify.Event{Name: filepath.Join(root, "public", "logo.png"), Op: fsnotify.Create}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.ev))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	w := New(Options{Root: "."})
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.True(t, w.skip["node_modules"])
	assert.NotNil(t, w.logger)
}
