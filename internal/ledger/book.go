// Package ledger holds the single live copy of the ledger and runs every
// change as mutate, persist, commit.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"kas/internal/core"
	"kas/internal/log"
	"kas/internal/storage"
)

// Book is the ledger state object. It is safe for concurrent use; operations
// are serialized.
type Book struct {
	mu       sync.Mutex
	state    core.State
	revision int64

	store    storage.Store
	now      func() time.Time
	logger   *log.Logger
	notifier Notifier
	recorder Recorder
}

type Option func(*Book)

// WithClock overrides time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(b *Book) { b.logger = l.WithComponent(log.ComponentLedger) }
}

func WithNotifier(n Notifier) Option {
	return func(b *Book) { b.notifier = n }
}

func WithRecorder(r Recorder) Option {
	return func(b *Book) { b.recorder = r }
}

// Open loads the slot from store. An empty slot, or one that cannot be read
// or parsed, is replaced by three sample members, which are saved. Open never
// fails; problems are logged.
func Open(ctx context.Context, store storage.Store, opts ...Option) *Book {
	b := &Book{
		store:    store,
		now:      time.Now,
		logger:   log.Discard(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}

	state, err := b.load(ctx)
	if err == nil {
		b.state = state
		b.logger.InfoContext(ctx, "Ledger loaded",
			"members", len(state.Members),
			"payments", len(state.Payments),
			"expenses", len(state.Expenses))
		b.recorder.Committed(b.revision, totalsOf(b.state))
		return b
	}

	if errors.Is(err, storage.ErrNoData) {
		b.logger.InfoContext(ctx, "No saved ledger, creating sample members")
	} else {
		b.logger.WarnContext(ctx, "Saved ledger unusable, creating sample members", log.FieldError, err)
	}
	b.state = b.sample()
	if err := b.persist(ctx, b.state); err != nil {
		b.logger.ErrorContext(ctx, "Failed to save sample ledger", log.FieldError, err)
	}
	b.recorder.Committed(b.revision, totalsOf(b.state))
	return b
}

func (b *Book) load(ctx context.Context) (core.State, error) {
	data, err := b.store.Load(ctx)
	if err != nil {
		return core.State{}, err
	}
	return storage.Decode(data, core.DefaultSettings())
}

func (b *Book) sample() core.State {
	now := b.now()
	today := core.DateOf(now)
	s := core.NewState()
	for i, seed := range []struct{ name, division string }{
		{"Ahmad Fauzi", "BPH"},
		{"Budi Santoso", "PSDM"},
		{"Citra Dewi", "PSDM"},
	} {
		s.Members = append(s.Members, core.Member{
			ID:       core.NewID(core.PrefixMember, now.Add(time.Duration(i)*time.Millisecond)),
			Name:     seed.name,
			Division: seed.division,
			Status:   core.StatusActive,
			JoinDate: today,
		})
	}
	return s
}

func (b *Book) persist(ctx context.Context, s core.State) error {
	data, err := storage.Encode(s, b.now())
	if err != nil {
		return &core.PersistenceError{Op: "encode", Err: err}
	}
	if err := b.store.Save(ctx, data); err != nil {
		return &core.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// apply runs mutate on a working copy, saves it and commits it. The live state
// and the revision change only when the save succeeds. mutate returns the
// event to emit, or a zero Kind when nothing changed and nothing must be
// saved. The notifier runs after the lock is released.
func (b *Book) apply(ctx context.Context, op string, mutate func(s *core.State) (Event, error)) error {
	ev, err := b.commit(ctx, op, mutate)
	if err != nil || ev.Kind == "" || b.notifier == nil {
		return err
	}
	if err := b.notifier.Notify(ctx, ev); err != nil {
		b.logger.WarnContext(ctx, "Failed to publish ledger event", log.FieldEventKind, string(ev.Kind), log.FieldError, err)
	}
	return nil
}

func (b *Book) commit(ctx context.Context, op string, mutate func(s *core.State) (Event, error)) (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	work := b.state.Clone()
	ev, err := mutate(&work)
	if err != nil {
		b.recorder.Operation(op, err)
		b.logger.WarnContext(ctx, "Ledger operation rejected", log.FieldOperation, op, log.FieldError, err)
		return Event{}, err
	}
	if ev.Kind == "" {
		b.recorder.Operation(op, nil)
		return Event{}, nil
	}

	if err := b.persist(ctx, work); err != nil {
		b.recorder.Operation(op, err)
		b.logger.ErrorContext(ctx, "Ledger save failed, change discarded", log.FieldOperation, op, log.FieldError, err)
		return Event{}, err
	}

	b.state = work
	b.revision++
	ev.Revision = b.revision
	ev.Time = b.now()
	b.recorder.Operation(op, nil)
	b.recorder.Committed(b.revision, totalsOf(b.state))
	b.logger.InfoContext(ctx, "Ledger change committed",
		log.FieldOperation, op,
		log.FieldEventKind, string(ev.Kind),
		log.FieldRevision, b.revision)
	return ev, nil
}

// Snapshot returns a copy of the live state.
func (b *Book) Snapshot() core.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// Revision returns the number of commits since Open.
func (b *Book) Revision() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// View returns a copy of the live state together with its revision.
func (b *Book) View() (core.State, int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone(), b.revision
}

// Now returns the ledger clock's current time.
func (b *Book) Now() time.Time {
	return b.now()
}

func totalsOf(s core.State) TotalsView {
	t := s.DashboardTotals()
	return TotalsView{
		Members:  len(s.Members),
		Payments: len(s.Payments),
		Expenses: len(s.Expenses),
		Balance:  int64(t.Balance),
	}
}
