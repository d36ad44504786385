// Package session owns the locally held identity of the current user:
// how it is persisted, how navigation is gated on it and how the
// login/signup flow establishes it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Key is the single well-known key the session is persisted under.
const Key = "expensync.session"

// ErrInvalidSession is returned when saving a partially populated session.
var ErrInvalidSession = errors.New("session: user id is required")

// Session is the proof of who is using the client.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Valid reports whether the session is fully populated.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.UserID) != ""
}

// Store persists at most one session.
//
// Load returns nil when nothing is stored or the stored data is malformed;
// malformed data is cleared rather than reported. Save overwrites in a
// single write. Clear is idempotent.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

func encodeSession(s Session) ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidSession
	}
	return json.Marshal(s)
}

// decodeSession returns ok=false for anything that is not a complete session.
func decodeSession(data []byte) (Session, bool) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false
	}
	if !s.Valid() {
		return Session{}, false
	}
	return s, true
}
