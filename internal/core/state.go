package core

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// State is the whole ledger: the member, payment and expense collections plus
// the organization settings. Views are pure functions of a State.
type State struct {
	Members  []Member
	Payments []Payment
	Expenses []Expense
	Settings Settings
}

// NewState returns an empty state with default settings.
func NewState() State {
	return State{Settings: DefaultSettings()}
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	return State{
		Members:  slices.Clone(s.Members),
		Payments: slices.Clone(s.Payments),
		Expenses: slices.Clone(s.Expenses),
		Settings: s.Settings,
	}
}

// MemberIndex returns the position of the member with the given id, or -1.
func (s State) MemberIndex(id string) int {
	return slices.IndexFunc(s.Members, func(m Member) bool { return m.ID == id })
}

// Member returns the member with the given id.
func (s State) Member(id string) (Member, bool) {
	if i := s.MemberIndex(id); i >= 0 {
		return s.Members[i], true
	}
	return Member{}, false
}

// IsPaidUp reports whether the member has paid within the weekly window.
func IsPaidUp(m Member, asOf time.Time) bool {
	return !WeeklyDues{}.IsDue(m.LastPayment, asOf)
}

// ActiveMembers returns the members with status active, in insertion order.
func (s State) ActiveMembers() []Member {
	out := make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		if m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}

// UnpaidActiveMembers returns active members whose last payment is absent or
// older than asOf minus seven days.
func (s State) UnpaidActiveMembers(asOf time.Time) []Member {
	return s.unpaidBy(WeeklyDues{}, asOf)
}

func (s State) unpaidBy(checker DuesChecker, asOf time.Time) []Member {
	var out []Member
	for _, m := range s.Members {
		if m.IsActive() && checker.IsDue(m.LastPayment, asOf) {
			out = append(out, m)
		}
	}
	return out
}

// FilterByPayment returns active members filtered by FilterAll, FilterPaid or
// FilterUnpaid. Unknown filters behave like FilterAll.
func (s State) FilterByPayment(filter string, asOf time.Time) []Member {
	active := s.ActiveMembers()
	switch filter {
	case FilterPaid:
		return slices.DeleteFunc(active, func(m Member) bool { return !IsPaidUp(m, asOf) })
	case FilterUnpaid:
		return slices.DeleteFunc(active, func(m Member) bool { return IsPaidUp(m, asOf) })
	default:
		return active
	}
}

// SearchMembers returns members whose name or division contains term,
// case-insensitively. An empty term matches everyone.
func (s State) SearchMembers(term string) []Member {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]Member, 0, len(s.Members))
	for _, m := range s.Members {
		if term == "" ||
			strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.Division), term) {
			out = append(out, m)
		}
	}
	return out
}

// DashboardTotals sums every payment and expense. There is no time window.
func (s State) DashboardTotals() Totals {
	var t Totals
	for _, p := range s.Payments {
		t.Income += p.Amount
	}
	for _, e := range s.Expenses {
		t.Expense += e.Amount
	}
	t.Balance = t.Income - t.Expense
	t.Members = len(s.Members)
	return t
}

// ActivityFeed returns the n most recent transactions. Each source list is
// first cut to its own ceil(n/2) most recent items, so a busy list cannot
// crowd the other one out entirely. Equal dates keep insertion order with
// payments ahead of expenses.
func (s State) ActivityFeed(n int) []Transaction {
	if n <= 0 {
		return nil
	}
	per := (n + 1) / 2

	payments := byDateDesc(s.paymentTransactions())
	if len(payments) > per {
		payments = payments[:per]
	}
	expenses := byDateDesc(s.expenseTransactions())
	if len(expenses) > per {
		expenses = expenses[:per]
	}

	merged := byDateDesc(append(payments, expenses...))
	if len(merged) > n {
		merged = merged[:n]
	}
	return merged
}

// DailySeries sums payments and expenses for each of the last days calendar
// days ending at today, oldest first. A record counts toward a day only when
// its date equals that day.
func (s State) DailySeries(days int, today Date) DailySeries {
	if days <= 0 {
		return DailySeries{}
	}
	income := make(map[string]Money, len(s.Payments))
	for _, p := range s.Payments {
		income[p.Date.String()] += p.Amount
	}
	expense := make(map[string]Money, len(s.Expenses))
	for _, e := range s.Expenses {
		expense[e.Date.String()] += e.Amount
	}

	series := DailySeries{
		Days:    make([]Date, 0, days),
		Income:  make([]Money, 0, days),
		Expense: make([]Money, 0, days),
	}
	for i := days - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		series.Days = append(series.Days, day)
		series.Income = append(series.Income, income[day.String()])
		series.Expense = append(series.Expense, expense[day.String()])
	}
	return series
}

// Transactions merges payments and expenses, keeps those matching filter
// (FilterAll, FilterIncome or FilterExpense) and sorts them newest first.
func (s State) Transactions(filter string) []Transaction {
	var all []Transaction
	if filter != FilterExpense {
		all = append(all, s.paymentTransactions()...)
	}
	if filter != FilterIncome {
		all = append(all, s.expenseTransactions()...)
	}
	return byDateDesc(all)
}

// ExpensesByDate returns the expenses newest first.
func (s State) ExpensesByDate() []Expense {
	out := slices.Clone(s.Expenses)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

// ReportTotals sums the records dated between start and end, both days
// included.
func (s State) ReportTotals(start, end Date) ReportTotals {
	r := ReportTotals{Start: start, End: end}
	inRange := func(d Date) bool {
		return d.Compare(start) >= 0 && d.Compare(end) <= 0
	}
	for _, p := range s.Payments {
		if inRange(p.Date) {
			r.Income += p.Amount
			r.Count++
		}
	}
	for _, e := range s.Expenses {
		if inRange(e.Date) {
			r.Expense += e.Amount
			r.Count++
		}
	}
	r.Balance = r.Income - r.Expense
	return r
}

func (s State) paymentTransactions() []Transaction {
	out := make([]Transaction, len(s.Payments))
	for i, p := range s.Payments {
		out[i] = Transaction{
			ID:         p.ID,
			Type:       TypeIncome,
			Date:       p.Date,
			Amount:     p.Amount,
			MemberID:   p.MemberID,
			MemberName: p.MemberName,
			Division:   p.Division,
			Notes:      p.Notes,
		}
	}
	return out
}

func (s State) expenseTransactions() []Transaction {
	out := make([]Transaction, len(s.Expenses))
	for i, e := range s.Expenses {
		out[i] = Transaction{
			ID:          e.ID,
			Type:        TypeExpense,
			Date:        e.Date,
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
		}
	}
	return out
}

func byDateDesc(txs []Transaction) []Transaction {
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date.Time) })
	return txs
}
