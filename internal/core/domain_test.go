package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDayOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	ts := time.Date(2024, 11, 15, 23, 30, 0, 0, loc)
	d := DayOf(ts)
	if d.String() != "2024-11-15" {
		t.Fatalf("expected 2024-11-15, got %s", d)
	}
	if d.Hour() != 0 || d.Minute() != 0 || d.Location() != loc {
		t.Fatalf("expected midnight in original location, got %v", d.Time)
	}
	if !d.SameDay(NewDate(2024, 11, 15)) {
		t.Fatalf("expected same day across locations")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil || d.String() != "2024-02-29" {
		t.Fatalf("unexpected parse: %v err=%v", d, err)
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestExpenseValidate(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	good := Expense{
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    Category{ID: 1, Name: "Groceries"},
		OccurredAt:  at,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Description: "", Amount: Money{Cents: 1}, OccurredAt: at},
		{Description: "   ", Amount: Money{Cents: 1}, OccurredAt: at},
		{Description: "a", Amount: Money{Cents: -1}, OccurredAt: at},
		{Description: "a", Amount: Money{Cents: 1}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
