package ledger

import (
	"context"
	"slices"
	"strings"

	"kas/internal/core"
)

const (
	opRecordPayment     = "record_payment"
	opRecordExpense     = "record_expense"
	opUpsertMember      = "upsert_member"
	opDeleteMember      = "delete_member"
	opDeleteTransaction = "delete_transaction"
	opReset             = "reset"
	opImport            = "import"
	opUpdateSettings    = "update_settings"
)

// RecordPayment records dues paid by a member and moves the member's last
// payment date to date. An empty date means today; empty notes get the
// default note. The amount must be at least the weekly fee in force now.
func (b *Book) RecordPayment(ctx context.Context, memberID string, amount core.Money, date core.Date, notes string) (core.Payment, error) {
	var p core.Payment
	err := b.apply(ctx, opRecordPayment, func(s *core.State) (Event, error) {
		now := b.now()
		if date.IsEmpty() {
			date = core.DateOf(now)
		}
		if strings.TrimSpace(notes) == "" {
			notes = core.DefaultPaymentNote
		}
		candidate := core.Payment{MemberID: strings.TrimSpace(memberID), Amount: amount, Date: date}
		if err := candidate.Validate(s.Settings.WeeklyFee); err != nil {
			return Event{}, err
		}
		i := s.MemberIndex(candidate.MemberID)
		if i < 0 {
			return Event{}, &core.NotFoundError{Kind: "member", ID: candidate.MemberID}
		}
		m := &s.Members[i]

		p = core.Payment{
			ID:         core.NewID(core.PrefixPayment, now),
			MemberID:   m.ID,
			MemberName: m.Name,
			Division:   m.Division,
			Amount:     amount,
			Date:       date,
			Notes:      notes,
			Type:       core.TypeIncome,
		}
		s.Payments = append(s.Payments, p)
		m.LastPayment = date
		return Event{Kind: EventPaymentRecorded, ID: p.ID}, nil
	})
	if err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

// RecordExpense records money spent. An empty date means today.
func (b *Book) RecordExpense(ctx context.Context, category string, amount core.Money, date core.Date, description string) (core.Expense, error) {
	var e core.Expense
	err := b.apply(ctx, opRecordExpense, func(s *core.State) (Event, error) {
		now := b.now()
		if date.IsEmpty() {
			date = core.DateOf(now)
		}
		e = core.Expense{
			ID:          core.NewID(core.PrefixExpense, now),
			Category:    strings.TrimSpace(category),
			Amount:      amount,
			Date:        date,
			Description: strings.TrimSpace(description),
			Type:        core.TypeExpense,
		}
		if err := e.Validate(); err != nil {
			return Event{}, err
		}
		s.Expenses = append(s.Expenses, e)
		return Event{Kind: EventExpenseRecorded, ID: e.ID}, nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// UpsertMember renames an existing member, or creates an active member
// joining today when id is empty or unknown. Past payments keep the name and
// division they were recorded with.
func (b *Book) UpsertMember(ctx context.Context, id, name, division string) (core.Member, error) {
	var m core.Member
	err := b.apply(ctx, opUpsertMember, func(s *core.State) (Event, error) {
		name, division := strings.TrimSpace(name), strings.TrimSpace(division)
		if err := (core.Member{Name: name, Division: division}).Validate(); err != nil {
			return Event{}, err
		}
		if i := s.MemberIndex(strings.TrimSpace(id)); id != "" && i >= 0 {
			s.Members[i].Name = name
			s.Members[i].Division = division
			m = s.Members[i]
			return Event{Kind: EventMemberUpserted, ID: m.ID}, nil
		}

		now := b.now()
		m = core.Member{
			ID:       core.NewID(core.PrefixMember, now),
			Name:     name,
			Division: division,
			Status:   core.StatusActive,
			JoinDate: core.DateOf(now),
		}
		s.Members = append(s.Members, m)
		return Event{Kind: EventMemberUpserted, ID: m.ID}, nil
	})
	if err != nil {
		return core.Member{}, err
	}
	return m, nil
}

// DeleteMember removes the member and every payment referencing it, including
// payments left without a member by an import. When nothing matches the id it
// is a no-op and nothing is saved.
func (b *Book) DeleteMember(ctx context.Context, id string) error {
	return b.apply(ctx, opDeleteMember, func(s *core.State) (Event, error) {
		nm, np := len(s.Members), len(s.Payments)
		s.Members = slices.DeleteFunc(s.Members, func(m core.Member) bool { return m.ID == id })
		s.Payments = slices.DeleteFunc(s.Payments, func(p core.Payment) bool { return p.MemberID == id })
		if len(s.Members) == nm && len(s.Payments) == np {
			return Event{}, nil
		}
		return Event{Kind: EventMemberDeleted, ID: id}, nil
	})
}

// DeleteTransaction removes the payment or expense with the given id. Member
// last payment dates are left as they are. An unknown id is a no-op.
func (b *Book) DeleteTransaction(ctx context.Context, id string) error {
	return b.apply(ctx, opDeleteTransaction, func(s *core.State) (Event, error) {
		np, ne := len(s.Payments), len(s.Expenses)
		s.Payments = slices.DeleteFunc(s.Payments, func(p core.Payment) bool { return p.ID == id })
		s.Expenses = slices.DeleteFunc(s.Expenses, func(e core.Expense) bool { return e.ID == id })
		if len(s.Payments) == np && len(s.Expenses) == ne {
			return Event{}, nil
		}
		return Event{Kind: EventTransactionDeleted, ID: id}, nil
	})
}

// ResetAll empties every collection and restores the default settings.
func (b *Book) ResetAll(ctx context.Context) error {
	return b.apply(ctx, opReset, func(s *core.State) (Event, error) {
		*s = core.NewState()
		return Event{Kind: EventLedgerReset}, nil
	})
}

// UpdateSettings replaces the weekly fee and organization name. Existing
// payments are not revalidated against the new fee.
func (b *Book) UpdateSettings(ctx context.Context, weeklyFee core.Money, orgName string) (core.Settings, error) {
	var out core.Settings
	err := b.apply(ctx, opUpdateSettings, func(s *core.State) (Event, error) {
		next := core.Settings{WeeklyFee: weeklyFee, OrgName: strings.TrimSpace(orgName)}
		if err := next.Validate(); err != nil {
			return Event{}, err
		}
		s.Settings = next
		out = next
		return Event{Kind: EventSettingsUpdated}, nil
	})
	return out, err
}
