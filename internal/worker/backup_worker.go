// Package worker pushes fresh exports of the persisted ledger to the
// configured backup targets.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kas/internal/amqp"
	"kas/internal/backup"
	"kas/internal/core"
	"kas/internal/ledger"
	"kas/internal/log"
	"kas/internal/storage"
)

// Mirror receives the whole decoded state, e.g. a spreadsheet view.
type Mirror interface {
	Name() string
	Sync(ctx context.Context, s core.State) error
}

// Recorder observes per-target outcomes.
type Recorder interface {
	Backup(sink string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Backup(string, error) {}

// BackupWorker reloads the storage slot and fans the result out to every
// sink and mirror. A slot whose content has not changed since the last
// successful run is skipped.
type BackupWorker struct {
	store    storage.Store
	sinks    []backup.Sink
	mirrors  []Mirror
	recorder Recorder
	logger   *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

type Option func(*BackupWorker)

func WithRecorder(r Recorder) Option {
	return func(w *BackupWorker) { w.recorder = r }
}

func WithLogger(l *log.Logger) Option {
	return func(w *BackupWorker) { w.logger = l.WithComponent(log.ComponentWorker) }
}

func WithClock(now func() time.Time) Option {
	return func(w *BackupWorker) { w.now = now }
}

func NewBackupWorker(store storage.Store, sinks []backup.Sink, mirrors []Mirror, opts ...Option) *BackupWorker {
	w := &BackupWorker{
		store:    store,
		sinks:    sinks,
		mirrors:  mirrors,
		recorder: nopRecorder{},
		logger:   log.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleLedgerEvent processes a change event from AMQP. Only storage errors
// are returned so the message is requeued; target failures are retried by
// the next event or periodic run.
func (w *BackupWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventKind, string(msg.Kind),
		log.FieldRevision, msg.Revision)

	_, err := w.RunOnce(ctx)
	return err
}

// RunOnce pushes the current slot to every target. It reports whether a push
// was attempted.
func (w *BackupWorker) RunOnce(ctx context.Context) (bool, error) {
	data, err := w.store.Load(ctx)
	if errors.Is(err, storage.ErrNoData) {
		w.logger.DebugContext(ctx, "Storage slot empty, nothing to back up")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load slot: %w", err)
	}

	sum := sha256.Sum256(data)
	w.mu.Lock()
	unchanged := sum == w.lastHash
	w.mu.Unlock()
	if unchanged {
		w.logger.DebugContext(ctx, "Ledger unchanged since last backup")
		return false, nil
	}

	state, err := storage.Decode(data, core.DefaultSettings())
	if err != nil {
		return false, fmt.Errorf("decode slot: %w", err)
	}
	export := ledger.NewExport(state, w.now())
	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal export: %w", err)
	}

	if err := w.push(ctx, export.FileName(), body, state); err != nil {
		w.logger.WarnContext(ctx, "Backup incomplete", log.FieldError, err)
		return true, nil
	}

	w.mu.Lock()
	w.lastHash = sum
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Backup completed",
		"file", export.FileName(),
		"sinks", len(w.sinks),
		"mirrors", len(w.mirrors))
	return true, nil
}

func (w *BackupWorker) push(ctx context.Context, name string, body []byte, state core.State) error {
	var g errgroup.Group
	for _, sink := range w.sinks {
		g.Go(func() error {
			err := sink.Put(ctx, name, body)
			w.recorder.Backup(sink.Name(), err)
			if err != nil {
				w.logger.ErrorContext(ctx, "Backup sink failed", log.FieldSink, sink.Name(), log.FieldError, err)
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	for _, m := range w.mirrors {
		g.Go(func() error {
			err := m.Sync(ctx, state)
			w.recorder.Backup(m.Name(), err)
			if err != nil {
				w.logger.ErrorContext(ctx, "Mirror sync failed", log.FieldSink, m.Name(), log.FieldError, err)
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Run pushes once at startup and then on every tick until ctx is done.
func (w *BackupWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup backup failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic backup failed", log.FieldError, err)
			}
		}
	}
}
