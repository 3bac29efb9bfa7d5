package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses editor save bursts into one reload.
const DefaultDebounce = 300 * time.Millisecond

// Reloader is what the watcher triggers; *Store implements it.
type Reloader interface {
	Reload(ctx context.Context) (*Catalog, error)
}

// Watcher reloads a Reloader whenever lesson or chapter files under root
// change.
type Watcher struct {
	root     string
	reloader Reloader
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher prepares a watcher on root. Call Start to begin watching.
func NewWatcher(root string, reloader Reloader, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:     root,
		reloader: reloader,
		logger:   logger.Named("content.watcher"),
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start watches root and every chapter directory below it. It returns
// immediately; events are handled on a goroutine until ctx ends or Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.root); err != nil {
		_ = fw.Close()
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		_ = fw.Close()
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := fw.Add(filepath.Join(w.root, entry.Name())); err != nil {
			w.logger.Warn("watch chapter dir failed", zap.String("dir", entry.Name()), zap.Error(err))
		}
	}

	w.watcher = fw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go w.run(ctx, fw, w.debounce, w.stopCh, w.doneCh)

	w.logger.Info("watching content", zap.String("root", w.root))
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fw := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := fw.Close(); err != nil {
		w.logger.Error("close watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, debounce time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				// new chapter directories need their own watch
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.Add(event.Name); err != nil {
						w.logger.Warn("watch new dir failed", zap.String("dir", event.Name), zap.Error(err))
					}
				}
			}
			w.logger.Debug("content changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	catalog, err := w.reloader.Reload(ctx)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.logger.Warn("content reload rejected", zap.Int("problems", len(verr.Problems)), zap.Error(err))
			return
		}
		w.logger.Error("content reload failed", zap.Error(err))
		return
	}
	w.logger.Info("content reloaded", zap.Int("lessons", catalog.Count()))
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch filepath.Ext(base) {
	case ".md", ".yaml", "":
		return true
	}
	return false
}
