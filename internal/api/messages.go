package api

import (
	"context"
	"errors"
)

// Messages shown to the user after successful mutations.
const (
	MsgExpenseAdded   = "Expense added successfully!"
	MsgExpenseUpdated = "Expense updated successfully!"
	MsgExpenseDeleted = "Expense successfully deleted."
)

const (
	msgLoginFailed    = "Login failed. Please try again."
	msgInvalidReceipt = "Invalid file type. Only JPEG, PNG, or PDF are allowed."
	msgMissingFields  = "Please fill out all mandatory fields."
	msgNetwork        = "A network error occurred. Please try again later."
	msgTimeout        = "The request timed out. Please try again."
	msgNotFound       = "Expense not found."
	msgUnexpected     = "An unexpected error occurred. Please try again."
)

// UserMessage turns an error from this package into text fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		authErr     *AuthError
		validErr    *ValidationError
		fetchErr    *FetchError
		notFoundErr *NotFoundError
	)
	switch {
	case errors.As(err, &validErr):
		if validErr.Field == FieldReceipt {
			return msgInvalidReceipt
		}
		return msgMissingFields
	case errors.As(err, &authErr):
		if authErr.Message != "" {
			return authErr.Message
		}
		return msgLoginFailed
	case errors.As(err, &notFoundErr):
		return msgNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.As(err, &fetchErr):
		if fetchErr.Err != nil {
			return msgNetwork
		}
		if fetchErr.Message != "" {
			return "Error: " + fetchErr.Message
		}
		return msgUnexpected
	default:
		return msgUnexpected
	}
}
