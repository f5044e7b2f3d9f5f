// Package storage persists the ledger as a single JSON document in a named
// slot. A Store only moves bytes; Encode and Decode own the document shape.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kas/internal/core"
)

// ErrNoData is returned by Load when the slot has never been written.
var ErrNoData = errors.New("storage: slot is empty")

// Store reads and overwrites one storage slot.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// document is the persisted shape of the ledger.
type document struct {
	Members   []core.Member  `json:"members"`
	Payments  []core.Payment `json:"payments"`
	Expenses  []core.Expense `json:"expenses"`
	Settings  core.Settings  `json:"settings"`
	LastSaved time.Time      `json:"lastSaved"`
}

// Encode serializes the state with the given save time.
func Encode(s core.State, savedAt time.Time) ([]byte, error) {
	doc := document{
		Members:   orEmpty(s.Members),
		Payments:  orEmpty(s.Payments),
		Expenses:  orEmpty(s.Expenses),
		Settings:  s.Settings,
		LastSaved: savedAt.UTC(),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return b, nil
}

// Decode parses a persisted document, which must be a JSON object. Settings
// are decoded over defaults so keys missing from older documents keep their
// default values.
func Decode(data []byte, defaults core.Settings) (core.State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return core.State{}, errors.New("decode ledger: document is not a JSON object")
	}
	doc := document{Settings: defaults}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return core.State{}, fmt.Errorf("decode ledger: %w", err)
	}
	return core.State{
		Members:  doc.Members,
		Payments: doc.Payments,
		Expenses: doc.Expenses,
		Settings: doc.Settings,
	}, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
