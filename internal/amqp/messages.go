package amqp

import (
	"encoding/json"
	"time"

	"expensync/internal/core"
)

// Actions carried by ExpenseChangedMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ExpenseChangedMessage announces a mutation the remote service confirmed.
type ExpenseChangedMessage struct {
	Action      string    `json:"action"`
	UserID      string    `json:"user_id"`
	ExpenseID   string    `json:"expense_id"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseChangedMessage builds the message for a confirmed mutation of e.
func NewExpenseChangedMessage(action, userID string, e core.Expense) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Action:      action,
		UserID:      userID,
		ExpenseID:   e.ID,
		AmountCents: e.Amount.Cents,
		Category:    e.Category.Label(),
		Timestamp:   time.Now().UTC(),
	}
}

// RoutingKey is "expense.<action>".
func (m *ExpenseChangedMessage) RoutingKey() string {
	return "expense." + m.Action
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
