package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// TimelineEntry is the total spent on one calendar day.
type TimelineEntry struct {
	Date   Date
	Amount Money
}

// Report bundles the derived views published to chart consumers.
type Report struct {
	Total      Money
	ByCategory []CategoryAmount // sorted by amount desc, then name
	Timeline   []TimelineEntry
}

// CategoryTotals sums amounts per category label. Expenses without a
// resolvable category land in UncategorizedLabel.
func CategoryTotals(expenses []Expense) map[string]Money {
	totals := make(map[string]Money)
	for _, e := range expenses {
		label := e.Category.Label()
		totals[label] = totals[label].Add(e.Amount)
	}
	return totals
}

// DailyTimeline buckets expenses by the calendar day of OccurredAt and
// returns one entry per day in ascending order. The day is taken in the
// location OccurredAt carries, which the API boundary fixes.
func DailyTimeline(expenses []Expense) []TimelineEntry {
	buckets := make(map[string]*TimelineEntry)
	for _, e := range expenses {
		day := e.Day()
		key := day.String()
		entry, ok := buckets[key]
		if !ok {
			entry = &TimelineEntry{Date: day}
			buckets[key] = entry
		}
		entry.Amount = entry.Amount.Add(e.Amount)
	}
	out := make([]TimelineEntry, 0, len(buckets))
	for _, entry := range buckets {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Summarize computes the total, the sorted category breakdown and the timeline.
func Summarize(expenses []Expense) Report {
	totals := CategoryTotals(expenses)
	byCat := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		byCat = append(byCat, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(byCat, func(i, j int) bool {
		if byCat[i].Amount.Cents != byCat[j].Amount.Cents {
			return byCat[i].Amount.Cents > byCat[j].Amount.Cents
		}
		return byCat[i].Name < byCat[j].Name
	})
	return Report{
		Total:      SumAmounts(expenses),
		ByCategory: byCat,
		Timeline:   DailyTimeline(expenses),
	}
}
