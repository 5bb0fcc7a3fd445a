package pubnav

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const rebuildDebounce = 250 * time.Millisecond

// Watcher rebuilds the site when content or redirect definitions change. A
// failed rebuild is logged and the previous snapshot keeps serving.
type Watcher struct {
	cfg       SiteConfig
	fsw       *fsnotify.Watcher
	onBuild   func(*Site)
	logger    *slog.Logger
	redirects string
	debounce  time.Duration
}

// NewWatcher watches cfg.ContentDir recursively and the directory holding
// cfg.RedirectsFile.
func NewWatcher(cfg SiteConfig, onBuild func(*Site), logger *slog.Logger) (*Watcher, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		cfg:       cfg,
		fsw:       fsw,
		onBuild:   onBuild,
		logger:    logger,
		redirects: filepath.Clean(cfg.RedirectsFile),
		debounce:  rebuildDebounce,
	}
	if err := w.addTree(cfg.ContentDir); err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(w.redirects)); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// relevant reports whether ev should trigger a rebuild. New directories are
// added to the watch list.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == w.redirects {
		return true
	}
	if ev.Has(fsnotify.Create) {
		if isDir, err := statDir(name); err == nil && isDir {
			if err := w.addTree(name); err != nil {
				w.logger.Warn("watch new directory", "dir", name, "error", err)
			}
			return true
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	// Removing or renaming a directory drops its files.
	return ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("content changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	site, err := BuildSite(ctx, w.cfg, w.logger)
	if err != nil {
		w.logger.Error("rebuild failed, keeping previous site", "error", err)
		return
	}
	w.onBuild(site)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func statDir(name string) (bool, error) {
	info, err := os.Stat(name)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
