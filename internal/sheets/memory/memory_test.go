package memory

import (
	"context"
	"testing"

	"expensync/internal/core"
)

func TestExportOverwrites(t *testing.T) {
	e := New()
	ctx := context.Background()

	first := core.Summarize([]core.Expense{
		{ID: "1", Category: core.ResolveCategory("Gas"), Amount: core.Money{Cents: 100}, OccurredAt: core.NewDate(2024, 1, 1).Time},
		{ID: "2", Category: core.ResolveCategory("Rent"), Amount: core.Money{Cents: 900}, OccurredAt: core.NewDate(2024, 1, 2).Time},
	})
	res, err := e.Export(ctx, first)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.TotalsRows != 4 || res.TimelineRows != 3 {
		t.Fatalf("result = %+v", res)
	}

	second := core.Summarize([]core.Expense{
		{ID: "3", Category: core.ResolveCategory("Books"), Amount: core.Money{Cents: 50}, OccurredAt: core.NewDate(2024, 2, 1).Time},
	})
	if _, err := e.Export(ctx, second); err != nil {
		t.Fatalf("Export: %v", err)
	}

	totals, timeline := e.Sheets()
	if len(totals) != 3 || totals[1][0] != "Books" {
		t.Fatalf("totals = %v", totals)
	}
	if len(timeline) != 2 || timeline[1][0] != "2024-02-01" {
		t.Fatalf("timeline = %v", timeline)
	}
	if e.Exports() != 2 {
		t.Fatalf("Exports = %d", e.Exports())
	}

	totals[1][0] = "mutated"
	if again, _ := e.Sheets(); again[1][0] != "Books" {
		t.Fatal("Sheets exposed internal rows")
	}
}

func TestExportHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Export(ctx, core.Report{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
