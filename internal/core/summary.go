package core

const (
	FilterAll     = "all"
	FilterIncome  = string(TypeIncome)
	FilterExpense = string(TypeExpense)

	FilterPaid   = "paid"
	FilterUnpaid = "unpaid"
)

// Totals is the all-time dashboard summary.
type Totals struct {
	Income  Money
	Expense Money
	Balance Money
	Members int
}

// ReportTotals summarizes the records dated inside a closed date range.
type ReportTotals struct {
	Start   Date
	End     Date
	Income  Money
	Expense Money
	Balance Money
	Count   int
}

// Transaction is a payment or an expense flattened for listing.
type Transaction struct {
	ID          string
	Type        TxType
	Date        Date
	Amount      Money
	MemberID    string
	MemberName  string
	Division    string
	Notes       string
	Category    string
	Description string
}

// Title returns the member name of a payment or the category of an expense.
func (t Transaction) Title() string {
	if t.Type == TypeIncome {
		return t.MemberName
	}
	return t.Category
}

// Detail returns the payment notes or the expense description.
func (t Transaction) Detail() string {
	if t.Type == TypeIncome {
		return t.Notes
	}
	return t.Description
}

// Summary is the short line shown in the activity feed: member name for a
// payment, description for an expense.
func (t Transaction) Summary() string {
	if t.Type == TypeIncome {
		return t.MemberName
	}
	return t.Description
}

// DailySeries holds per-day sums for charting, oldest day first.
type DailySeries struct {
	Days    []Date
	Income  []Money
	Expense []Money
}
