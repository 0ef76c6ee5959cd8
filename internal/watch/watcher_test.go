package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"casebook/internal/manifest"
	"casebook/internal/registry"
	"casebook/internal/store"
	"casebook/internal/story"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeManifest(t *testing.T, path, kind string, names ...string) {
	t.Helper()
	content := fmt.Sprintf("kind: %s\nstories:\n", kind)
	for _, name := range names {
		content += fmt.Sprintf("  - name: %s\n", name)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newWatcher(t *testing.T, dir string) (*Watcher, *store.Store) {
	t.Helper()
	st := store.New(nil)
	reg := registry.New(st, registry.Options{}, nil)
	loader := manifest.NewLoader(manifest.Catalog{
		"border": func(next story.RenderFn) story.RenderFn {
			return func(ctx *story.Context) any { return fmt.Sprintf("[%v]", next(ctx)) }
		},
	}, nil)

	w, err := New(dir, reg, loader, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	return w, st
}

func TestInitialLoad(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, filepath.Join(dir, "button.yaml"), "Button", "Primary", "Secondary")
	writeManifest(t, filepath.Join(dir, "ignored.txt"), "Nope", "X")

	w, st := newWatcher(t, dir)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if st.Count() != 2 {
		t.Errorf("expected 2 stories after initial load, got %d", st.Count())
	}
	if !st.Has("button-primary") || !st.Has("button-secondary") {
		t.Error("expected button stories to be registered")
	}
	if stats := w.GetStats(); stats.Loads != 1 {
		t.Errorf("expected 1 manifest load, got %d", stats.Loads)
	}
}

func TestEditReplacesNotAccumulates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.yaml")
	writeManifest(t, path, "Button", "Primary")

	w, st := newWatcher(t, dir)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	waitFor(t, "initial story", func() bool { return st.Has("button-primary") })
	revBefore := st.Revision()

	// Edit: same kind, same story plus a new one. The reload must dispose
	// first, so "Primary" exists exactly once afterwards.
	writeManifest(t, path, "Button", "Primary", "Secondary")
	waitFor(t, "reloaded manifest", func() bool {
		return st.Has("button-secondary")
	})

	if st.Count() != 2 {
		t.Errorf("edit-reload must replace, not accumulate: got %d stories", st.Count())
	}
	if !st.Has("button-primary") {
		t.Error("unchanged story id should survive the reload")
	}
	if st.Revision() <= revBefore {
		t.Error("reload must advance the revision counter")
	}
}

func TestEditRenamesStory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.yaml")
	writeManifest(t, path, "Button", "Primary")

	w, st := newWatcher(t, dir)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	waitFor(t, "initial story", func() bool { return st.Has("button-primary") })

	writeManifest(t, path, "Button", "Renamed")
	waitFor(t, "renamed story", func() bool { return st.Has("button-renamed") })

	if st.Has("button-primary") {
		t.Error("old story must be disposed on reload")
	}
	if st.Count() != 1 {
		t.Errorf("expected exactly 1 story, got %d", st.Count())
	}
}

func TestRemoveDisposes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.yaml")
	writeManifest(t, path, "Button", "Primary")

	w, st := newWatcher(t, dir)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	waitFor(t, "initial story", func() bool { return st.Has("button-primary") })

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "disposal after delete", func() bool { return st.Count() == 0 })
}

func TestBrokenEditLeavesNoStaleEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "button.yaml")
	writeManifest(t, path, "Button", "Primary")

	w, st := newWatcher(t, dir)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	waitFor(t, "initial story", func() bool { return st.Has("button-primary") })

	// Invalid manifest: previous registrations must be disposed, not kept.
	if err := os.WriteFile(path, []byte("kind: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "disposal after broken edit", func() bool { return st.Count() == 0 })

	// The next good save recovers.
	writeManifest(t, path, "Button", "Primary")
	waitFor(t, "recovery", func() bool { return st.Has("button-primary") })
}

func TestStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, _ := newWatcher(t, dir)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !w.Running() {
		t.Error("watcher should be running after Start")
	}
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Error("watcher should not be running after Stop")
	}
}
