package session

import (
	"context"
	"fmt"
)

// Target names a navigation destination.
type Target string

const (
	TargetHome           Target = "home"
	TargetAddExpense     Target = "add-expense"
	TargetViewExpenses   Target = "view-expenses"
	TargetExpenseDetails Target = "expense-details"
	TargetReports        Target = "reports"
	TargetProfile        Target = "profile"
)

const (
	ReasonPublic         = "public"
	ReasonAuthenticated  = "authenticated"
	ReasonNoSession      = "no session"
	ReasonUnknownTarget  = "unknown target"
	ReasonSessionFailure = "session unavailable"
)

var protected = map[Target]bool{
	TargetHome:           false,
	TargetAddExpense:     true,
	TargetViewExpenses:   true,
	TargetExpenseDetails: true,
	TargetReports:        true,
	TargetProfile:        true,
}

// Targets lists every known target, public first.
func Targets() []Target {
	return []Target{TargetHome, TargetAddExpense, TargetViewExpenses, TargetExpenseDetails, TargetReports, TargetProfile}
}

// ParseTarget returns the known target with the given name.
func ParseTarget(name string) (Target, error) {
	t := Target(name)
	if _, ok := protected[t]; !ok {
		return "", fmt.Errorf("unknown target %q", name)
	}
	return t, nil
}

// Protected reports whether t requires a session. Unknown targets are protected.
func (t Target) Protected() bool {
	p, ok := protected[t]
	return !ok || p
}

// Decision is the outcome of a gate check. When denied, Redirect names
// where to go instead and OpenAuth asks the caller to show the login flow.
type Decision struct {
	Allowed  bool
	Redirect Target
	OpenAuth bool
	Reason   string
	Session  *Session
}

// Gate decides whether a target may be entered given the stored session.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Check consults the store on every call, so a logout in between two
// checks is always observed.
func (g *Gate) Check(ctx context.Context, target Target) Decision {
	known, isKnown := protected[target]
	if !isKnown {
		return denied(ReasonUnknownTarget)
	}
	if !known {
		return Decision{Allowed: true, Reason: ReasonPublic}
	}
	s, err := g.store.Load(ctx)
	if err != nil {
		return denied(ReasonSessionFailure)
	}
	if s == nil {
		return denied(ReasonNoSession)
	}
	return Decision{Allowed: true, Reason: ReasonAuthenticated, Session: s}
}

func denied(reason string) Decision {
	return Decision{Redirect: TargetHome, OpenAuth: true, Reason: reason}
}
