package sheets

import (
	"testing"

	"expensync/internal/core"
)

func TestRows(t *testing.T) {
	expenses := []core.Expense{
		{ID: "1", Category: core.ResolveCategory("Groceries"), Amount: core.Money{Cents: 1000}, OccurredAt: core.NewDate(2024, 3, 2).Time},
		{ID: "2", Category: core.ResolveCategory("Gas"), Amount: core.Money{Cents: 250}, OccurredAt: core.NewDate(2024, 3, 1).Time},
		{ID: "3", Category: core.ResolveCategory("Groceries"), Amount: core.Money{Cents: 5}, OccurredAt: core.NewDate(2024, 3, 2).Time},
	}
	report := core.Summarize(expenses)

	totals := TotalsRows(report)
	want := [][]any{
		{"Category", "Amount"},
		{"Groceries", "10.05"},
		{"Gas", "2.50"},
		{"Total", "12.55"},
	}
	if len(totals) != len(want) {
		t.Fatalf("TotalsRows = %v", totals)
	}
	for i := range want {
		if totals[i][0] != want[i][0] || totals[i][1] != want[i][1] {
			t.Errorf("row %d = %v, want %v", i, totals[i], want[i])
		}
	}

	timeline := TimelineRows(report)
	if len(timeline) != 3 {
		t.Fatalf("TimelineRows = %v", timeline)
	}
	if timeline[1][0] != "2024-03-01" || timeline[1][1] != "2.50" || timeline[2][0] != "2024-03-02" || timeline[2][1] != "10.05" {
		t.Errorf("TimelineRows = %v", timeline)
	}

	empty := core.Summarize(nil)
	if rows := TotalsRows(empty); len(rows) != 2 || rows[1][1] != "0.00" {
		t.Errorf("empty TotalsRows = %v", rows)
	}
	if rows := TimelineRows(empty); len(rows) != 1 {
		t.Errorf("empty TimelineRows = %v", rows)
	}
}
