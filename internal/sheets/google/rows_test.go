package google

import (
	"testing"

	"kas/internal/core"
)

func TestRows(t *testing.T) {
	s := core.State{
		Members: []core.Member{{ID: "MEM1", Name: "Ahmad", Division: "BPH", Status: core.StatusActive}},
		Payments: []core.Payment{
			{ID: "PAY1", MemberID: "MEM1", MemberName: "Ahmad", Division: "BPH", Amount: 2000, Date: core.NewDate(2025, 1, 10), Notes: "Dues payment", Type: core.TypeIncome},
		},
		Expenses: []core.Expense{
			{ID: "EXP1", Category: "Konsumsi", Amount: 15000, Date: core.NewDate(2025, 1, 12), Description: "Snacks", Type: core.TypeExpense},
		},
	}

	rows := Rows(s, "IDR")
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || len(rows[0]) != len(rows[1]) {
		t.Fatalf("unexpected header %v", rows[0])
	}

	exp := rows[1]
	if exp[0] != "2025-01-12" || exp[1] != "expense" || exp[2] != "EXP1" || exp[3] != "Konsumsi" || exp[5] != "Snacks" || exp[6] != int64(15000) {
		t.Fatalf("unexpected expense row %v", exp)
	}
	pay := rows[2]
	if pay[1] != "income" || pay[3] != "Ahmad" || pay[4] != "BPH" || pay[5] != "Dues payment" {
		t.Fatalf("unexpected payment row %v", pay)
	}
	if pay[7] == "" {
		t.Fatal("display column must be filled")
	}
}

func TestRowsEmptyLedger(t *testing.T) {
	rows := Rows(core.NewState(), "IDR")
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %v", rows)
	}
}
