package documents

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher ingests files dropped into a directory.
type Watcher struct {
	watcher  *fsnotify.Watcher
	ingestor *Ingestor
	clean    bool
	settle   time.Duration
	logger   *zap.Logger
}

// NewWatcher creates a watcher feeding ingestor.
func NewWatcher(ingestor *Ingestor, clean bool, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{watcher: w, ingestor: ingestor, clean: clean, settle: 500 * time.Millisecond, logger: logger}, nil
}

// Watch blocks, ingesting created or rewritten files in dir until ctx ends.
// Writes are debounced per file so a file is ingested once it stops changing.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	defer w.watcher.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isSupported(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[event.Name] = time.Now()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher: fsnotify error", zap.Error(err))
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				w.ingest(ctx, path)
			}
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	res, err := w.ingestor.IngestFile(ctx, path, w.clean, nil)
	if err != nil {
		w.logger.Warn("watcher: ingest failed", zap.String("file", path), zap.Error(err))
		return
	}
	w.logger.Info("watcher: ingested", zap.String("file", res.FileName), zap.Int("chunks", res.ChunksIndexed))
}

func isSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
