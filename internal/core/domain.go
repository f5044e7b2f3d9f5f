package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	StatusActive   MemberStatus = "active"
	StatusInactive MemberStatus = "inactive"
)

const (
	TypeIncome  TxType = "income"
	TypeExpense TxType = "expense"
)

const (
	DefaultWeeklyFee   Money = 2000
	DefaultOrgName           = "IRMANUFA"
	DefaultPaymentNote       = "Dues payment"
)

const dateLayout = "2006-01-02"

type (
	MemberStatus string

	TxType string

	// Date is a calendar day. It is serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Member struct {
		ID          string       `json:"id"`
		Name        string       `json:"name"`
		Division    string       `json:"division"`
		Status      MemberStatus `json:"status"`
		JoinDate    Date         `json:"joinDate"`
		LastPayment Date         `json:"lastPayment,omitzero"`
	}

	Payment struct {
		ID         string `json:"id"`
		MemberID   string `json:"memberId"`
		MemberName string `json:"memberName"` // snapshot at payment time
		Division   string `json:"division"`   // snapshot at payment time
		Amount     Money  `json:"amount"`
		Date       Date   `json:"date"`
		Notes      string `json:"notes"`
		Type       TxType `json:"type"`
	}

	Expense struct {
		ID          string `json:"id"`
		Category    string `json:"category"`
		Amount      Money  `json:"amount"`
		Date        Date   `json:"date"`
		Description string `json:"description"`
		Type        TxType `json:"type"`
	}

	Settings struct {
		WeeklyFee Money  `json:"weeklyFee"`
		OrgName   string `json:"orgName"`
	}
)

var (
	ErrInvalidDate = errors.New("invalid date")
)

// DefaultSettings returns the settings restored by a reset.
func DefaultSettings() Settings {
	return Settings{WeeklyFee: DefaultWeeklyFee, OrgName: DefaultOrgName}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// AddDays returns the date n calendar days later (earlier if negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts YYYY-MM-DD, a full RFC 3339 timestamp (date part kept)
// or an empty string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = DateOf(t)
	return nil
}

// UnmarshalJSON maps the legacy "aktif"/"nonaktif" values onto the current ones.
func (s *MemberStatus) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "aktif", string(StatusActive):
		*s = StatusActive
	case "nonaktif", "tidak aktif", string(StatusInactive):
		*s = StatusInactive
	default:
		*s = MemberStatus(v)
	}
	return nil
}

func (m Member) IsActive() bool {
	return m.Status == StatusActive
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if strings.TrimSpace(m.Division) == "" {
		return &ValidationError{Field: "division", Err: ErrEmptyDivision}
	}
	return nil
}

// Validate checks a new payment against the fee in force at creation time.
func (p Payment) Validate(fee Money) error {
	if strings.TrimSpace(p.MemberID) == "" {
		return &ValidationError{Field: "memberId", Err: ErrNoMember}
	}
	if p.Amount <= 0 {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if p.Amount < fee {
		return &ValidationError{Field: "amount", Err: ErrAmountBelowFee, Min: fee}
	}
	if p.Date.IsEmpty() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if strings.TrimSpace(e.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if e.Date.IsEmpty() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	return nil
}

func (s Settings) Validate() error {
	if err := s.WeeklyFee.Validate(); err != nil {
		return &ValidationError{Field: "weeklyFee", Err: err}
	}
	if strings.TrimSpace(s.OrgName) == "" {
		return &ValidationError{Field: "orgName", Err: ErrEmptyOrgName}
	}
	return nil
}
