package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"expensync/internal/core"
)

// outboundLayout is how datetimes are sent to the remote service.
const outboundLayout = "2006-01-02T15:04:05"

// inboundLayouts are tried in order; layouts without an offset are
// interpreted in the client's location.
var inboundLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var errMalformedRecord = errors.New("malformed expense record")

type wireExpense struct {
	ExpenseID   json.RawMessage `json:"expense_id"`
	UserID      json.RawMessage `json:"user_id"`
	CategoryID  json.RawMessage `json:"category_id"`
	Category    json.RawMessage `json:"category"`
	Amount      json.RawMessage `json:"amount"`
	Datetime    *string         `json:"datetime"`
	Description *string         `json:"description"`
	Receipt     json.RawMessage `json:"receipt"`
}

type wireCategory struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
}

type wireReceipt struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// hasRecord reports whether the object carries more than a bare id, i.e.
// it is a full expense rather than a confirmation.
func (w wireExpense) hasRecord() bool {
	return len(w.Amount) > 0 || w.Description != nil || len(w.Category) > 0 || len(w.CategoryID) > 0
}

func (w wireExpense) decode(loc *time.Location) (core.Expense, error) {
	var e core.Expense
	var err error

	if e.ID, err = scalarString(w.ExpenseID); err != nil {
		return e, fmt.Errorf("%w: expense_id: %v", errMalformedRecord, err)
	}
	if e.UserID, err = scalarString(w.UserID); err != nil {
		return e, fmt.Errorf("%w: user_id: %v", errMalformedRecord, err)
	}
	if e.Category, err = decodeCategory(w.CategoryID, w.Category); err != nil {
		return e, fmt.Errorf("%w: category: %v", errMalformedRecord, err)
	}

	amount, err := scalarString(w.Amount)
	if err != nil {
		return e, fmt.Errorf("%w: amount: %v", errMalformedRecord, err)
	}
	if amount != "" {
		if e.Amount, err = core.ParseAmount(amount); err != nil {
			return e, fmt.Errorf("%w: amount %q: %v", errMalformedRecord, amount, err)
		}
	}

	if w.Datetime != nil && strings.TrimSpace(*w.Datetime) != "" {
		if e.OccurredAt, err = parseDatetime(*w.Datetime, loc); err != nil {
			return e, fmt.Errorf("%w: %v", errMalformedRecord, err)
		}
	}
	if w.Description != nil {
		e.Description = *w.Description
	}
	if e.Receipt, err = decodeReceipt(w.Receipt); err != nil {
		return e, fmt.Errorf("%w: receipt: %v", errMalformedRecord, err)
	}
	return e, nil
}

func decodeExpenses(body []byte, loc *time.Location) ([]core.Expense, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []core.Expense{}, nil
	}
	var records []wireExpense
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode expense list: %w", err)
	}
	out := make([]core.Expense, 0, len(records))
	for i, w := range records {
		e, err := w.decode(loc)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeCategory prefers category_id and falls back to category, which
// may be an object, a label or a numeric id.
func decodeCategory(idRaw, catRaw json.RawMessage) (core.Category, error) {
	id, err := scalarString(idRaw)
	if err != nil {
		return core.Category{}, err
	}
	if id != "" {
		return core.ResolveCategory(id), nil
	}

	catRaw = bytes.TrimSpace(catRaw)
	if len(catRaw) > 0 && catRaw[0] == '{' {
		var obj wireCategory
		if err := json.Unmarshal(catRaw, &obj); err != nil {
			return core.Category{}, err
		}
		objID, err := scalarString(obj.ID)
		if err != nil {
			return core.Category{}, err
		}
		if objID != "" {
			c := core.ResolveCategory(objID)
			if c.ID == 0 && obj.Name != "" {
				return core.ResolveCategory(obj.Name), nil
			}
			return c, nil
		}
		return core.ResolveCategory(obj.Name), nil
	}

	label, err := scalarString(catRaw)
	if err != nil {
		return core.Category{}, err
	}
	return core.ResolveCategory(label), nil
}

func decodeReceipt(raw json.RawMessage) (*core.Receipt, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var r wireReceipt
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		if r.URL == "" {
			return nil, nil
		}
		return &core.Receipt{URL: r.URL, ContentType: r.ContentType}, nil
	}
	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, nil
	}
	return &core.Receipt{URL: url}, nil
}

// scalarString reads a JSON string or number as text. Absent and null
// yield "".
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	return n.String(), nil
}

func parseDatetime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inboundLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

func formatDatetime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(outboundLayout)
}

// jsonMessage extracts "message" or "error" from a JSON error body.
func jsonMessage(body []byte) (string, bool) {
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &obj); err != nil {
		return "", false
	}
	if obj.Message != "" {
		return strings.TrimSpace(obj.Message), true
	}
	if obj.Error != "" {
		return strings.TrimSpace(obj.Error), true
	}
	return "", false
}

type authResponse struct {
	UserID   json.RawMessage `json:"user_id"`
	Username string          `json:"username"`
}

// decodeUserID returns the user id of a login or signup response; text
// bodies carry none.
func decodeUserID(body []byte) (string, string) {
	var resp authResponse
	if err := json.Unmarshal(bytes.TrimSpace(body), &resp); err != nil {
		return "", ""
	}
	id, err := scalarString(resp.UserID)
	if err != nil {
		return "", ""
	}
	return id, resp.Username
}
