package storage

import (
	"context"
	"errors"
	"fsd/internal/providers"
	"fsd/internal/services"
	"fsd/internal/storage/interfaces"
	"fsd/internal/structures"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

var ErrWatcherStarted = errors.New("state watcher already started")

// StateWatcher triggers a forced favorites-change refresh whenever the state
// document is rewritten by someone else (an editor, another tool).
type StateWatcher struct {
	path     string
	debounce time.Duration
	service  services.SyncServiceInterface
	logger   providers.Logger

	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	timer     *time.Timer
	cancel    context.CancelFunc
	done      chan struct{}
}

func (w *StateWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsWatcher != nil {
		return ErrWatcherStarted
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// The directory is watched so atomic rename-over writes are still seen.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fsWatcher = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, fsw, w.done)

	w.logger.Infof(providers.TypeApp, "Watching %s for favorites changes", w.path)
	return nil
}

func (w *StateWatcher) Stop() {
	w.mu.Lock()
	if w.fsWatcher == nil {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.fsWatcher.Close()
	w.fsWatcher = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	done := w.done
	w.mu.Unlock()

	<-done
}

func (w *StateWatcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	target := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf(providers.TypeApp, "State watcher error: %s", err)
		}
	}
}

func (w *StateWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsWatcher == nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *StateWatcher) fire() {
	w.logger.Infof(providers.TypeSync, "State file changed, refreshing")
	if _, err := w.service.GetSnapshot(context.Background(), true, services.ReasonFavoritesChange); err != nil {
		w.logger.Errorf(providers.TypeSync, "Refresh after state change failed: %s", err)
	}
}

func NewStateWatcher(conf *structures.Config, service services.SyncServiceInterface, logger providers.Logger) interfaces.WatcherInterface {
	debounce := conf.Watch.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &StateWatcher{
		path:     conf.Persistence.StatePath,
		debounce: debounce,
		service:  service,
		logger:   logger,
	}
}
