package api

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"expensync/internal/core"
)

// Field names used on the wire and in ValidationError.
const (
	FieldUserID      = "user_id"
	FieldExpenseID   = "expense_id"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldDatetime    = "datetime"
	FieldDescription = "description"
	FieldReceipt     = "receipt"
)

var allowedReceiptTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// ExpenseFields are the user-editable fields of an expense. A nil Amount,
// zero Category, zero OccurredAt or blank Description means "not provided".
type ExpenseFields struct {
	Category    core.Category
	Amount      *core.Money
	OccurredAt  time.Time
	Description string
}

// FieldsOf returns the editable fields of an existing expense.
func FieldsOf(e core.Expense) ExpenseFields {
	amount := e.Amount
	return ExpenseFields{
		Category:    e.Category,
		Amount:      &amount,
		OccurredAt:  e.OccurredAt,
		Description: e.Description,
	}
}

// MergeOnto fills the fields left blank with the values of existing.
func (f ExpenseFields) MergeOnto(existing core.Expense) ExpenseFields {
	prior := FieldsOf(existing)
	if f.Category.IsZero() {
		f.Category = prior.Category
	}
	if f.Amount == nil {
		f.Amount = prior.Amount
	}
	if f.OccurredAt.IsZero() {
		f.OccurredAt = prior.OccurredAt
	}
	if strings.TrimSpace(f.Description) == "" {
		f.Description = prior.Description
	}
	return f
}

// Validate checks the fields locally. The datetime is only mandatory on
// creation.
func (f ExpenseFields) Validate(requireDatetime bool) error {
	if strings.TrimSpace(f.Description) == "" {
		return &ValidationError{Field: FieldDescription, Reason: "must not be empty"}
	}
	if f.Amount == nil {
		return &ValidationError{Field: FieldAmount, Reason: "is required"}
	}
	if err := f.Amount.Validate(); err != nil {
		return &ValidationError{Field: FieldAmount, Reason: "must not be negative"}
	}
	if f.Category.IsZero() {
		return &ValidationError{Field: FieldCategory, Reason: "is required"}
	}
	if requireDatetime && f.OccurredAt.IsZero() {
		return &ValidationError{Field: FieldDatetime, Reason: "is required"}
	}
	return nil
}

// Receipt is a file to upload alongside an expense.
type Receipt struct {
	Filename    string
	ContentType string // optional; detected when empty
	Data        []byte
}

// MediaType returns the declared content type, or one detected from the
// file content and extension.
func (r *Receipt) MediaType() string {
	if r.ContentType != "" {
		if mt, _, err := mime.ParseMediaType(r.ContentType); err == nil {
			return mt
		}
		return strings.ToLower(strings.TrimSpace(r.ContentType))
	}
	if len(r.Data) > 0 {
		if mt, _, err := mime.ParseMediaType(http.DetectContentType(r.Data)); err == nil && allowedReceiptTypes[mt] {
			return mt
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(r.Filename))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	return "application/octet-stream"
}

// Validate rejects empty files and types other than JPEG, PNG and PDF.
func (r *Receipt) Validate() error {
	if len(r.Data) == 0 {
		return &ValidationError{Field: FieldReceipt, Reason: "file is empty"}
	}
	if mt := r.MediaType(); !allowedReceiptTypes[mt] {
		return &ValidationError{Field: FieldReceipt, Reason: "unsupported type " + mt}
	}
	return nil
}

func (r *Receipt) filename() string {
	if name := filepath.Base(r.Filename); name != "." && name != "/" && name != "" {
		return name
	}
	return "receipt"
}
