package core

import "strings"

// FilterSpec selects the visible subset of expenses. A nil field places no
// constraint on that dimension; empty strings are treated the same way.
type FilterSpec struct {
	Category *string
	Keyword  *string
	Date     *Date
}

// Apply returns the expenses satisfying every present predicate, in input order.
func Apply(expenses []Expense, spec FilterSpec) []Expense {
	out := make([]Expense, 0, len(expenses))
	var keyword string
	if spec.Keyword != nil {
		keyword = strings.ToLower(*spec.Keyword)
	}
	for _, e := range expenses {
		if spec.Category != nil && *spec.Category != "" && !matchCategory(e.Category, *spec.Category) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(e.Description), keyword) {
			continue
		}
		if spec.Date != nil && !spec.Date.IsZero() && !e.Day().SameDay(*spec.Date) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchCategory compares by identifying key. A catalog label is accepted
// for catalog entries so callers can filter by either form.
func matchCategory(c Category, want string) bool {
	if c.Key() == want {
		return true
	}
	return c.ID > 0 && c.Name == want
}

// StringFilter returns a pointer suitable for FilterSpec.Category or Keyword.
func StringFilter(s string) *string { return &s }

// DateFilter returns a pointer suitable for FilterSpec.Date.
func DateFilter(d Date) *Date { return &d }
