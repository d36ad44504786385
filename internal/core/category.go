package core

import (
	"strconv"
	"strings"
)

// UncategorizedLabel is the bucket used for expenses whose category
// cannot be resolved.
const UncategorizedLabel = "Uncategorized"

// Category is the canonical category representation: a stable numeric id
// from the catalog plus its display label. Free-form categories that are
// not in the catalog keep ID 0 and their label.
type Category struct {
	ID   int
	Name string
}

// catalog is the fixed category set known to the remote service.
var catalog = []Category{
	{1, "Groceries"},
	{2, "Restaurants"},
	{3, "Gas"},
	{4, "Public Transit"},
	{5, "Rent"},
	{6, "Mortgage"},
	{7, "Utilities"},
	{8, "Doctor Visits"},
	{9, "Medications"},
	{10, "Health Insurance"},
	{11, "Movies"},
	{12, "Concerts"},
	{13, "Clothing"},
	{14, "Electronics"},
	{15, "Flights"},
	{16, "Hotels"},
	{17, "Tuition"},
	{18, "Books"},
	{19, "Car Insurance"},
	{20, "Home Insurance"},
	{21, "Haircuts"},
	{22, "Cosmetics"},
	{23, "Credit Card Payment"},
	{24, "Loan Payment"},
	{25, "Savings Account Deposit"},
	{26, "Charity Donations"},
	{27, "Miscellaneous"},
}

// Categories returns a copy of the category catalog in id order.
func Categories() []Category {
	return append([]Category(nil), catalog...)
}

// CategoryByID looks up a catalog entry.
func CategoryByID(id int) (Category, bool) {
	if id < 1 || id > len(catalog) {
		return Category{}, false
	}
	return catalog[id-1], true
}

// ResolveCategory turns any of the representations seen on the wire
// (numeric id, numeric string, label) into a Category. Labels are matched
// against the catalog case-insensitively; unknown labels are kept as
// free-form categories. Numeric ids outside the catalog cannot be
// resolved and yield the zero Category.
func ResolveCategory(raw string) Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Category{}
	}
	if id, err := strconv.Atoi(raw); err == nil {
		if c, ok := CategoryByID(id); ok {
			return c
		}
		return Category{}
	}
	for _, c := range catalog {
		if strings.EqualFold(c.Name, raw) {
			return c
		}
	}
	return Category{Name: raw}
}

// Key is the identifying value used for filtering: the catalog id when
// known, the label otherwise.
func (c Category) Key() string {
	if c.ID > 0 {
		return strconv.Itoa(c.ID)
	}
	return c.Name
}

// Label is the display label, falling back to UncategorizedLabel.
func (c Category) Label() string {
	if strings.TrimSpace(c.Name) == "" {
		return UncategorizedLabel
	}
	return c.Name
}

// IsZero reports whether the category is missing entirely.
func (c Category) IsZero() bool {
	return c.ID == 0 && strings.TrimSpace(c.Name) == ""
}
