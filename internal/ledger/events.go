package ledger

import (
	"context"
	"time"
)

// EventKind names a committed change.
type EventKind string

const (
	EventPaymentRecorded    EventKind = "payment.recorded"
	EventExpenseRecorded    EventKind = "expense.recorded"
	EventMemberUpserted     EventKind = "member.upserted"
	EventMemberDeleted      EventKind = "member.deleted"
	EventTransactionDeleted EventKind = "transaction.deleted"
	EventLedgerReset        EventKind = "ledger.reset"
	EventLedgerImported     EventKind = "ledger.imported"
	EventSettingsUpdated    EventKind = "settings.updated"
)

// Event describes a committed change. ID is the affected record, empty for
// whole-ledger changes.
type Event struct {
	Kind     EventKind
	ID       string
	Revision int64
	Time     time.Time
}

// Notifier receives events after a change has been persisted. Errors are
// logged and never undo the change.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Recorder observes operation outcomes and the committed state.
type Recorder interface {
	Operation(name string, err error)
	Committed(revision int64, totals TotalsView)
}

// TotalsView is what a Recorder sees of the state after a commit.
type TotalsView struct {
	Members  int
	Payments int
	Expenses int
	Balance  int64
}

type nopRecorder struct{}

func (nopRecorder) Operation(string, error)     {}
func (nopRecorder) Committed(int64, TotalsView) {}
