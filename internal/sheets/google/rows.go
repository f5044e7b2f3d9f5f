package google

import "kas/internal/core"

// header is the first row of the mirrored tab.
var header = []any{"Date", "Type", "ID", "Member / Category", "Division", "Notes / Description", "Amount", "Display"}

const lastColumn = "H"

// Rows flattens every transaction, newest first, below a header row.
// Amount is the raw integer so sheet formulas can sum it.
func Rows(s core.State, currency string) [][]any {
	txs := s.Transactions(core.FilterAll)
	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, header)
	for _, tx := range txs {
		rows = append(rows, []any{
			tx.Date.String(),
			string(tx.Type),
			tx.ID,
			tx.Title(),
			tx.Division,
			tx.Detail(),
			int64(tx.Amount),
			tx.Amount.Display(currency),
		})
	}
	return rows
}
