package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/telemetry"
)

const defaultReloadDebounce = 200 * time.Millisecond

type snapshot struct {
	datasets []domain.DatasetSummary
	names    []string
	loadedAt time.Time
}

// SnapshotSource serves listings from a local package index file shaped like
// the current_package_list_with_resources response.
type SnapshotSource struct {
	logger   *zap.Logger
	path     string
	debounce time.Duration

	state    atomic.Pointer[snapshot]
	lastErr  atomic.Pointer[error]
	reloadMu sync.Mutex

	watchOnce sync.Once
	watchDone chan struct{}
}

// NewSnapshotSource loads path once. The file must be readable at startup.
func NewSnapshotSource(path string, logger *zap.Logger) (*SnapshotSource, error) {
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s := &SnapshotSource{
		logger:    logger.Named("snapshot"),
		path:      path,
		debounce:  defaultReloadDebounce,
		watchDone: make(chan struct{}),
	}
	snap, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}
	s.state.Store(snap)
	s.logger.Info("snapshot loaded",
		telemetry.EventField(telemetry.EventSnapshotLoad),
		zap.String("path", path),
		zap.Int("datasets", len(snap.datasets)),
	)
	return s, nil
}

func (s *SnapshotSource) DatasetNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.state.Load().names, nil
}

func (s *SnapshotSource) Datasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.state.Load().datasets, nil
}

// LoadedAt reports when the current snapshot was read.
func (s *SnapshotSource) LoadedAt() time.Time {
	return s.state.Load().loadedAt
}

// Healthy returns the error of the most recent failed reload, if the file has
// not loaded successfully since, naming the snapshot still being served.
func (s *SnapshotSource) Healthy() error {
	if errPtr := s.lastErr.Load(); errPtr != nil {
		return fmt.Errorf("%w (serving snapshot loaded at %s)", *errPtr, s.LoadedAt().UTC().Format(time.RFC3339))
	}
	return nil
}

// Reload re-reads the file. On failure the previous snapshot stays active.
func (s *SnapshotSource) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := loadSnapshot(s.path)
	if err != nil {
		s.lastErr.Store(&err)
		return err
	}
	s.state.Store(snap)
	s.lastErr.Store(nil)
	return nil
}

// Watch reloads the snapshot whenever the file changes until ctx ends.
// Only the first call starts a watcher.
func (s *SnapshotSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("snapshot watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("snapshot watcher add %s: %w", filepath.Dir(s.path), err)
	}
	started := false
	s.watchOnce.Do(func() {
		started = true
		go func() {
			defer close(s.watchDone)
			defer watcher.Close()
			s.runWatcher(ctx, watcher)
		}()
	})
	if !started {
		return watcher.Close()
	}
	return nil
}

// WatchDone is closed once the watcher goroutine exits.
func (s *SnapshotSource) WatchDone() <-chan struct{} {
	return s.watchDone
}

func (s *SnapshotSource) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("snapshot watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !sameFile(event.Name, s.path) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
		case <-timerChan(timer):
			timer = nil
			if err := s.Reload(ctx); err != nil {
				s.logger.Warn("snapshot reload failed, keeping previous snapshot",
					telemetry.EventField(telemetry.EventSnapshotFailed),
					zap.String("path", s.path),
					zap.Error(err),
				)
				continue
			}
			s.logger.Info("snapshot reloaded",
				telemetry.EventField(telemetry.EventSnapshotReload),
				zap.String("path", s.path),
				zap.Int("datasets", len(s.state.Load().datasets)),
			)
		}
	}
}

func loadSnapshot(path string) (*snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	datasets, err := decodePackageDocument(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	names := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		names = append(names, ds.Name)
	}
	return &snapshot{datasets: datasets, names: names, loadedAt: time.Now()}, nil
}

func sameFile(path string, target string) bool {
	if path == "" || target == "" {
		return false
	}
	return filepath.Clean(path) == filepath.Clean(target)
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}

var _ Source = (*SnapshotSource)(nil)
