package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kas/internal/core"
)

func sampleState() core.State {
	s := core.NewState()
	s.Members = []core.Member{{
		ID: "MEM1", Name: "Ahmad Fauzi", Division: "BPH", Status: core.StatusActive,
		JoinDate: core.NewDate(2025, 1, 1), LastPayment: core.NewDate(2025, 1, 6),
	}}
	s.Payments = []core.Payment{{
		ID: "PAY1", MemberID: "MEM1", MemberName: "Ahmad Fauzi", Division: "BPH",
		Amount: 2000, Date: core.NewDate(2025, 1, 6), Notes: core.DefaultPaymentNote, Type: core.TypeIncome,
	}}
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	saved := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	b, err := Encode(sampleState(), saved)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"members", "payments", "expenses", "settings", "lastSaved"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing key %q in %s", key, b)
		}
	}
	if string(raw["expenses"]) != "[]" {
		t.Fatalf("empty collection must encode as [], got %s", raw["expenses"])
	}

	got, err := Decode(b, core.DefaultSettings())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].LastPayment != core.NewDate(2025, 1, 6) {
		t.Fatalf("unexpected members: %+v", got.Members)
	}
	if len(got.Payments) != 1 || got.Payments[0].Amount != 2000 {
		t.Fatalf("unexpected payments: %+v", got.Payments)
	}
}

func TestDecodeMergesSettingsOverDefaults(t *testing.T) {
	got, err := Decode([]byte(`{"members":[],"settings":{"orgName":"Remaja Masjid"}}`), core.DefaultSettings())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Settings.OrgName != "Remaja Masjid" {
		t.Fatalf("orgName not applied: %+v", got.Settings)
	}
	if got.Settings.WeeklyFee != core.DefaultWeeklyFee {
		t.Fatalf("missing weeklyFee must keep default, got %d", got.Settings.WeeklyFee)
	}

	got, err = Decode([]byte(`{}`), core.DefaultSettings())
	if err != nil || got.Settings != core.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v err=%v", got.Settings, err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not json", `{"members":{}}`, `[1,2]`, "null", "  null\n", `"kas"`, "42"} {
		if _, err := Decode([]byte(in), core.DefaultSettings()); err == nil {
			t.Fatalf("%q: expected error", in)
		}
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, ErrNoData) {
		t.Fatalf("fresh slot: expected ErrNoData, got %v", err)
	}
	if err := s.Save(ctx, []byte(`{"members":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, []byte(`{"members":[1]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(string(b), "[1]") {
		t.Fatalf("expected last write to win, got %s", b)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewFileStore(dir, "irmanufa_data")
	if filepath.Base(s.Path()) != "irmanufa_data.json" {
		t.Fatalf("unexpected path %s", s.Path())
	}
	testStore(t, s)

	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)
	if s.Saves() != 2 {
		t.Fatalf("expected 2 saves, got %d", s.Saves())
	}

	boom := errors.New("quota exceeded")
	s.FailSaves(boom)
	if err := s.Save(context.Background(), []byte("x")); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if string(s.Bytes()) != `{"members":[1]}` {
		t.Fatalf("failed save must not change the slot")
	}
	s.FailSaves(nil)
	if err := s.Save(context.Background(), []byte("y")); err != nil {
		t.Fatalf("save after reset: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "kas.db")
	s, err := NewSQLiteStore(path, "irmanufa_data")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	testStore(t, s)

	// Slots are independent rows.
	other, err := NewSQLiteStore(path, "other")
	if err != nil {
		t.Fatalf("open second slot: %v", err)
	}
	defer other.Close()
	if _, err := other.Load(context.Background()); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected empty second slot, got %v", err)
	}
}
