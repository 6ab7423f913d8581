package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const testDebounce = 30 * time.Millisecond

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{Created, "created"},
		{Written, "written"},
		{Removed, "removed"},
		{Op(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func newTestWatcher(t *testing.T, dir string, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithDebounce(testDebounce)}, opts...)
	w, err := New(dir, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, w *Watcher, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestWatcher_EventOnInputWrite(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	path := filepath.Join(dir, "bores.csv")
	if err := os.WriteFile(path, []byte("element_id,nominal\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ev, ok := waitEvent(t, w, 2*time.Second)
	if !ok {
		t.Fatal("expected an event for a new CSV file")
	}
	if ev.Path != path {
		t.Errorf("event path = %q, want %q", ev.Path, path)
	}
	if ev.Op != Created && ev.Op != Written {
		t.Errorf("event op = %v, want created or written", ev.Op)
	}
	if ev.Timestamp.IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	for _, name := range []string{"notes.txt", "~$study.xlsx", ".hidden.csv", "study.csv~"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if ev, ok := waitEvent(t, w, 200*time.Millisecond); ok {
		t.Errorf("unexpected event for %s", ev.Path)
	}
}

func TestWatcher_PatternAndIgnore(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "line-a"), 0755); err != nil {
		t.Fatal(err)
	}
	export := filepath.Join(dir, "line-a", "results.json")
	w := newTestWatcher(t, dir, WithPattern("line-*/**/*.{csv,json}"), WithIgnore(export))

	if w.Pattern() != "line-*/**/*.{csv,json}" {
		t.Errorf("Pattern() = %q", w.Pattern())
	}

	// outside the pattern
	if err := os.WriteFile(filepath.Join(dir, "top.csv"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	// ignored export
	if err := os.WriteFile(export, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}
	if ev, ok := waitEvent(t, w, 200*time.Millisecond); ok {
		t.Fatalf("unexpected event for %s", ev.Path)
	}

	want := filepath.Join(dir, "line-a", "shaft.csv")
	if err := os.WriteFile(want, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ev, ok := waitEvent(t, w, 2*time.Second)
	if !ok {
		t.Fatal("expected an event for a matching file")
	}
	if ev.Path != want {
		t.Errorf("event path = %q, want %q", ev.Path, want)
	}
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	sub := filepath.Join(dir, "batch-7")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// give the watcher time to add the directory
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "study.yaml")
	if err := os.WriteFile(path, []byte("elements: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ev, ok := waitEvent(t, w, 2*time.Second)
	if !ok {
		t.Fatal("expected an event from the new subdirectory")
	}
	if ev.Path != path {
		t.Errorf("event path = %q, want %q", ev.Path, path)
	}
}

func TestWatcher_RunBatchesChanges(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir)

	var (
		mu      sync.Mutex
		batches [][]string
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			mu.Lock()
			batches = append(batches, changed)
			mu.Unlock()
		}, nil)
	}()

	b := filepath.Join(dir, "b.csv")
	a := filepath.Join(dir, "a.json")
	for _, p := range []string{b, a} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := 0
		for _, batch := range batches {
			n += len(batch)
		}
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	seen := map[string]bool{}
	for _, batch := range batches {
		for i := 1; i < len(batch); i++ {
			if batch[i-1] > batch[i] {
				t.Errorf("batch not sorted: %v", batch)
			}
		}
		for _, p := range batch {
			seen[p] = true
		}
	}
	if !seen[a] || !seen[b] {
		t.Errorf("batches %v missing a changed file", batches)
	}
}

func TestWatcher_RunReturnsOnClose(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), func(context.Context, []string) {}, nil)
	}()

	w.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		w.Close()
		t.Fatal("expected error for missing directory")
	}
}
