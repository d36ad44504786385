package core

import (
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

type (
	// Date is a calendar day. The embedded time is midnight in the
	// location the day was derived in.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Receipt references an uploaded image or PDF attached to an expense.
	Receipt struct {
		URL         string
		ContentType string
	}

	Expense struct {
		ID          string // server-assigned, empty until creation succeeds
		UserID      string
		Category    Category
		Amount      Money
		OccurredAt  time.Time
		Description string
		Receipt     *Receipt
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrMissingDate      = errors.New("missing date")
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to the start of its calendar day in t's own location.
func DayOf(t time.Time) Date {
	return Date{Time: now.With(t).BeginningOfDay()}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// SameDay reports whether both dates name the same calendar day,
// regardless of the location they carry.
func (d Date) SameDay(other Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := other.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Before orders dates by calendar day.
func (d Date) Before(other Date) bool {
	return d.String() < other.String()
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Day returns the calendar day the expense occurred on.
func (e Expense) Day() Date {
	return DayOf(e.OccurredAt)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.OccurredAt.IsZero() {
		return ErrMissingDate
	}
	return nil
}
