package docs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Uploader receives files picked up by the inbox watcher.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

const defaultSettle = 500 * time.Millisecond

// InboxWatcher uploads PDF and CSV files dropped into a local directory.
// A file is uploaded once it has not changed for the settle period, so a
// copy in progress is not sent half-written.
type InboxWatcher struct {
	watcher    *fsnotify.Watcher
	dir        string
	uploader   Uploader
	extensions []string
	settle     time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewInboxWatcher starts watching dir.
func NewInboxWatcher(dir string, uploader Uploader, logger *zap.Logger) (*InboxWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &InboxWatcher{
		watcher:    w,
		dir:        dir,
		uploader:   uploader,
		extensions: []string{".pdf", ".csv"},
		settle:     defaultSettle,
		logger:     logger.Named("inbox"),
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *InboxWatcher) Run(ctx context.Context) error {
	w.logger.Info("watching inbox", zap.String("dir", w.dir))
	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *InboxWatcher) Close() error {
	return w.watcher.Close()
}

func (w *InboxWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := w.upload(ctx, path); err != nil {
			w.logger.Error("inbox upload failed", zap.String("path", path), zap.Error(err))
		}
	})
}

func (w *InboxWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *InboxWatcher) upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	key, err := w.uploader.Upload(ctx, filepath.Base(path), "", f)
	if err != nil {
		return err
	}
	w.logger.Info("inbox file uploaded", zap.String("path", path), zap.String("key", key))
	return nil
}

func (w *InboxWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
