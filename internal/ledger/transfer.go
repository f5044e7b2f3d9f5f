package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kas/internal/core"
)

// ExportVersion is written into every export document.
const ExportVersion = "5.0"

// Export is the backup document produced by ExportAll.
type Export struct {
	Version  string         `json:"version"`
	Exported time.Time      `json:"exported"`
	Members  []core.Member  `json:"members"`
	Payments []core.Payment `json:"payments"`
	Expenses []core.Expense `json:"expenses"`
	Settings core.Settings  `json:"settings"`
}

// FileName is the download name of the export, backup_<date>.json.
func (e Export) FileName() string {
	return "backup_" + core.DateOf(e.Exported).String() + ".json"
}

// ExportAll returns the full state as a backup document.
func (b *Book) ExportAll() Export {
	s := b.Snapshot()
	return NewExport(s, b.now())
}

// NewExport builds an export document from a state.
func NewExport(s core.State, at time.Time) Export {
	return Export{
		Version:  ExportVersion,
		Exported: at.UTC(),
		Members:  nonNil(s.Members),
		Payments: nonNil(s.Payments),
		Expenses: nonNil(s.Expenses),
		Settings: s.Settings,
	}
}

// importDoc mirrors the accepted import keys. Pointers distinguish a missing
// or null key from an empty list.
type importDoc struct {
	Members  *[]core.Member  `json:"members"`
	Payments *[]core.Payment `json:"payments"`
	Expenses *[]core.Expense `json:"expenses"`
	Settings json.RawMessage `json:"settings"`
}

// ImportAll applies a backup document. Each present collection replaces the
// current one wholesale; settings keys are merged over the current settings;
// unknown keys are ignored. References are not checked. Nothing changes
// unless the whole document is valid and saved.
func (b *Book) ImportAll(ctx context.Context, data []byte) error {
	doc, err := parseImport(data)
	if err != nil {
		b.recorder.Operation(opImport, err)
		return err
	}
	return b.apply(ctx, opImport, func(s *core.State) (Event, error) {
		if doc.Members != nil {
			s.Members = *doc.Members
		}
		if doc.Payments != nil {
			s.Payments = *doc.Payments
		}
		if doc.Expenses != nil {
			s.Expenses = *doc.Expenses
		}
		if len(doc.Settings) > 0 && !bytes.Equal(doc.Settings, []byte("null")) {
			merged := s.Settings
			if err := json.Unmarshal(doc.Settings, &merged); err != nil {
				return Event{}, &core.ImportError{Err: fmt.Errorf("settings: %w", err)}
			}
			s.Settings = merged
		}
		return Event{Kind: EventLedgerImported}, nil
	})
}

func parseImport(data []byte) (importDoc, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return importDoc{}, &core.ImportError{Err: errors.New("document must be a JSON object")}
	}
	var doc importDoc
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return importDoc{}, &core.ImportError{Err: err}
	}
	return doc, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
