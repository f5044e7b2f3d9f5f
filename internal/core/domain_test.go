package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`"2025-01-31"`, "2025-01-31", true},
		{`"2025-01-31T18:30:00Z"`, "2025-01-31", true},
		{`""`, "", true},
		{`null`, "", true},
		{`"31/01/2025"`, "", false},
		{`12`, "", false},
	}
	for _, tc := range cases {
		var d Date
		err := json.Unmarshal([]byte(tc.in), &d)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if d.String() != tc.want {
			t.Fatalf("%s: got %q want %q", tc.in, d.String(), tc.want)
		}
	}

	b, err := json.Marshal(NewDate(2025, 3, 4))
	if err != nil || string(b) != `"2025-03-04"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
}

func TestMemberOmitsEmptyLastPayment(t *testing.T) {
	b, err := json.Marshal(Member{ID: "MEM1", Name: "A", Division: "B", Status: StatusActive, JoinDate: NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "lastPayment") {
		t.Fatalf("expected lastPayment to be omitted: %s", b)
	}
}

func TestMemberStatusLegacyValues(t *testing.T) {
	cases := map[string]MemberStatus{
		`"aktif"`:    StatusActive,
		`"active"`:   StatusActive,
		`"nonaktif"`: StatusInactive,
		`"inactive"`: StatusInactive,
		`"paused"`:   MemberStatus("paused"),
	}
	for in, want := range cases {
		var s MemberStatus
		if err := json.Unmarshal([]byte(in), &s); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if s != want {
			t.Fatalf("%s: got %q want %q", in, s, want)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	fee := Money(2000)
	good := Payment{MemberID: "MEM1", Amount: 2000, Date: NewDate(2025, 1, 1)}
	if err := good.Validate(fee); err != nil {
		t.Fatalf("amount equal to fee must be accepted: %v", err)
	}

	cases := []struct {
		name string
		p    Payment
		want error
	}{
		{"no member", Payment{Amount: 2000, Date: NewDate(2025, 1, 1)}, ErrNoMember},
		{"missing amount", Payment{MemberID: "MEM1", Date: NewDate(2025, 1, 1)}, ErrInvalidAmount},
		{"below fee", Payment{MemberID: "MEM1", Amount: 1999, Date: NewDate(2025, 1, 1)}, ErrAmountBelowFee},
		{"no date", Payment{MemberID: "MEM1", Amount: 2000}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate(fee)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestBelowFeeMessageNamesMinimum(t *testing.T) {
	err := Payment{MemberID: "MEM1", Amount: 10, Date: NewDate(2025, 1, 1)}.Validate(2000)
	if err == nil || !strings.Contains(err.Error(), "2000") {
		t.Fatalf("expected minimum in message, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	goods := []Expense{
		{Category: "Konsumsi", Amount: 5000, Date: NewDate(2025, 1, 1), Description: "Snacks"},
		{Category: "Konsumsi", Amount: 5000, Date: NewDate(2025, 1, 1), Description: strings.Repeat("a", 201)},
		{Category: "Konsumsi", Amount: 5000, Date: NewDate(2025, 1, 1), Description: strings.Repeat("é", 101)},
	}
	for i, e := range goods {
		if err := e.Validate(); err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
	}

	bads := []Expense{
		{Amount: 5000, Date: NewDate(2025, 1, 1), Description: "x"},
		{Category: "c", Date: NewDate(2025, 1, 1), Description: "x"},
		{Category: "c", Amount: 5000, Date: NewDate(2025, 1, 1), Description: "  "},
		{Category: "c", Amount: 5000, Description: "x"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil || !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestMemberValidate(t *testing.T) {
	if err := (Member{Name: "A", Division: "B"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Member{Name: " ", Division: "B"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Member{Name: "A", Division: ""}).Validate(); !errors.Is(err, ErrEmptyDivision) {
		t.Fatalf("expected ErrEmptyDivision, got %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if err := (Settings{WeeklyFee: 0, OrgName: "x"}).Validate(); err == nil {
		t.Fatalf("expected error for zero fee")
	}
	if err := (Settings{WeeklyFee: 1, OrgName: ""}).Validate(); !errors.Is(err, ErrEmptyOrgName) {
		t.Fatalf("expected ErrEmptyOrgName, got %v", err)
	}
}

func TestNewIDPrefixAndUniqueness(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewID(PrefixPayment, now)
		if !strings.HasPrefix(id, "PAY1735725600000") {
			t.Fatalf("unexpected id %q", id)
		}
		if len(id) != len("PAY1735725600000")+5 {
			t.Fatalf("unexpected id length %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), &PersistenceError{Op: "save", Err: errors.New("quota exceeded")})
	if !IsPersistence(wrapped) {
		t.Fatalf("expected persistence error")
	}
	if !IsImport(&ImportError{Err: errors.New("bad")}) {
		t.Fatalf("expected import error")
	}
	if !IsNotFound(&NotFoundError{Kind: "member", ID: "x"}) {
		t.Fatalf("expected not found error")
	}
	if IsValidation(errors.New("plain")) {
		t.Fatalf("plain error is not a validation error")
	}
}
