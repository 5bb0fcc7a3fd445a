package pubnav

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcherRelevantEvents(t *testing.T) {
	w := &Watcher{redirects: filepath.Clean("site/redirects.yaml"), logger: discardLogger()}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"markdown write", fsnotify.Event{Name: "content/a.md", Op: fsnotify.Write}, true},
		{"markdown create", fsnotify.Event{Name: "content/b.markdown", Op: fsnotify.Create}, true},
		{"redirects write", fsnotify.Event{Name: "site/redirects.yaml", Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: "content/a.md", Op: fsnotify.Chmod}, false},
		{"other file write", fsnotify.Event{Name: "content/notes.txt", Op: fsnotify.Write}, false},
		{"directory removed", fsnotify.Event{Name: "content/posts", Op: fsnotify.Remove}, true},
		{"directory renamed", fsnotify.Event{Name: "content/posts", Op: fsnotify.Rename}, true},
		{"other yaml", fsnotify.Event{Name: "site/other.yaml", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	cfg := SiteConfig{
		ContentDir:    filepath.Join(root, "content"),
		RedirectsFile: filepath.Join(root, "redirects.yaml"),
		StaticDir:     filepath.Join(root, "public"),
	}
	writeFile(t, filepath.Join(cfg.ContentDir, "index.md"), "---\ntitle: Home\ntype: page\n---\nhi")

	built := make(chan *Site, 4)
	w, err := NewWatcher(cfg, func(s *Site) { built <- s }, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, filepath.Join(cfg.ContentDir, "about.md"), "---\ntitle: About\ntype: page\n---\nus")

	select {
	case s := <-built:
		if !s.Registry.Has("/about") {
			t.Error("rebuilt site should contain /about")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after content change")
	}
}

func TestWatcherKeepsSiteOnBrokenContent(t *testing.T) {
	root := t.TempDir()
	cfg := SiteConfig{
		ContentDir:    filepath.Join(root, "content"),
		RedirectsFile: filepath.Join(root, "redirects.yaml"),
	}
	writeFile(t, filepath.Join(cfg.ContentDir, "index.md"), "---\ntitle: Home\ntype: page\n---\nhi")

	built := make(chan *Site, 4)
	w, err := NewWatcher(cfg, func(s *Site) { built <- s }, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// A post without a date fails validation.
	writeFile(t, filepath.Join(cfg.ContentDir, "broken.md"), "---\ntitle: Broken\ntype: post\n---\nx")

	select {
	case <-built:
		t.Fatal("a failed rebuild must not replace the site")
	case <-time.After(500 * time.Millisecond):
	}
}
