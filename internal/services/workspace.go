// Package services ties the session, the remote API and the expense cache
// together into the operations a front-end calls.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"expensync/internal/amqp"
	"expensync/internal/api"
	"expensync/internal/cache"
	"expensync/internal/core"
	"expensync/internal/log"
	"expensync/internal/session"
)

// ErrNoSession is returned by operations that need a logged-in user.
var ErrNoSession = errors.New("no active session")

// DefaultDeleteConcurrency bounds DeleteMany unless overridden.
const DefaultDeleteConcurrency = 4

// ExpenseAPI is the remote service as seen by the Workspace.
type ExpenseAPI interface {
	session.Authenticator
	ListExpenses(ctx context.Context, userID string, opts api.ListOptions) ([]core.Expense, error)
	GetExpense(ctx context.Context, userID, expenseID string) (core.Expense, error)
	CreateExpense(ctx context.Context, userID string, fields api.ExpenseFields, receipt *api.Receipt) (core.Expense, error)
	UpdateExpense(ctx context.Context, expenseID string, fields api.ExpenseFields, receipt *api.Receipt) (core.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}

// EventPublisher announces confirmed mutations.
type EventPublisher interface {
	PublishExpenseChanged(ctx context.Context, msg *amqp.ExpenseChangedMessage) error
}

// Workspace is the per-process context object: the current session, the
// expense cache for that session and the collaborators that feed them.
//
// Mutations are write-through: the cache changes only after the remote
// service confirmed the change.
type Workspace struct {
	api       ExpenseAPI
	store     session.Store
	cache     *cache.ExpenseCache
	publisher EventPublisher
	logger    *log.Logger

	deleteConcurrency int

	mu      sync.RWMutex
	current *session.Session
}

func NewWorkspace(client ExpenseAPI, store session.Store, c *cache.ExpenseCache, publisher EventPublisher, logger *log.Logger) *Workspace {
	if logger == nil {
		logger = log.Discard()
	}
	if publisher == nil {
		publisher = amqp.NoopPublisher{}
	}
	return &Workspace{
		api:               client,
		store:             store,
		cache:             c,
		publisher:         publisher,
		logger:            logger.WithComponent(log.ComponentSync),
		deleteConcurrency: DefaultDeleteConcurrency,
	}
}

// SetDeleteConcurrency bounds the number of concurrent deletes in DeleteMany.
func (w *Workspace) SetDeleteConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	w.deleteConcurrency = n
}

// Restore loads the persisted session, if any, into the workspace.
func (w *Workspace) Restore(ctx context.Context) (*session.Session, error) {
	s, err := w.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	w.setCurrent(s)
	if s != nil {
		w.logger.DebugContext(ctx, "Session restored", log.FieldOperation, log.OpRestore, log.FieldUserID, s.UserID)
	}
	return w.Session(), nil
}

// SubmitAuth runs the flow against the remote service. The flow saves the
// session itself; on success the workspace switches to it.
func (w *Workspace) SubmitAuth(ctx context.Context, flow *session.AuthFlow) (*session.Session, error) {
	state := flow.State()
	s, err := flow.Submit(ctx, w.api)
	if err != nil {
		return nil, err
	}
	w.cache.Reset()
	w.setCurrent(s)

	op := log.OpLogin
	if state == session.SigningUp {
		op = log.OpSignup
	}
	w.logger.InfoContext(ctx, "Authenticated", log.FieldOperation, op, log.FieldUserID, s.UserID)
	return s, nil
}

// Logout forgets the session and empties the cache.
func (w *Workspace) Logout(ctx context.Context) error {
	if err := w.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	w.cache.Reset()
	w.setCurrent(nil)
	w.logger.InfoContext(ctx, "Logged out", log.FieldOperation, log.OpLogout)
	return nil
}

// Session returns a copy of the current session, or nil.
func (w *Workspace) Session() *session.Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return nil
	}
	s := *w.current
	return &s
}

func (w *Workspace) setCurrent(s *session.Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s == nil {
		w.current = nil
		return
	}
	cp := *s
	w.current = &cp
}

func (w *Workspace) requireSession() (session.Session, error) {
	s := w.Session()
	if s == nil {
		return session.Session{}, ErrNoSession
	}
	return *s, nil
}

// maxRefreshAttempts bounds how often Refresh re-fetches after local
// mutations overtook its fetch.
const maxRefreshAttempts = 3

// Refresh re-fetches the expense list into the cache. A fetch overtaken
// only by local mutations is repeated. applied is false when a later fetch
// superseded this one or the session changed meanwhile, and after
// maxRefreshAttempts overtaken fetches.
func (w *Workspace) Refresh(ctx context.Context) (applied bool, err error) {
	s, err := w.requireSession()
	if err != nil {
		return false, err
	}
	for attempt := 1; ; attempt++ {
		gen := w.cache.BeginFetch()
		expenses, err := w.api.ListExpenses(ctx, s.UserID, api.ListOptions{})
		if err != nil {
			return false, err
		}
		applied = w.cache.Hydrate(gen, expenses)
		w.logger.DebugContext(ctx, "Expenses fetched",
			log.FieldOperation, log.OpList,
			log.FieldGeneration, gen,
			log.FieldCount, len(expenses),
			"applied", applied,
			"attempt", attempt,
		)
		if applied || w.cache.Superseded(gen) || attempt == maxRefreshAttempts {
			return applied, nil
		}
		if cur := w.Session(); cur == nil || cur.UserID != s.UserID {
			return false, nil
		}
	}
}

// Create adds an expense. When the service does not return the new id the
// list is re-fetched so the cache still reflects the server.
func (w *Workspace) Create(ctx context.Context, fields api.ExpenseFields, receipt *api.Receipt) (core.Expense, error) {
	s, err := w.requireSession()
	if err != nil {
		return core.Expense{}, err
	}
	created, err := w.api.CreateExpense(ctx, s.UserID, fields, receipt)
	if err != nil {
		return core.Expense{}, err
	}

	if created.ID == "" {
		w.logger.DebugContext(ctx, "Create confirmation without id, refreshing", log.FieldOperation, log.OpCreate)
		w.publish(ctx, amqp.ActionCreated, s.UserID, created)
		if _, err := w.Refresh(ctx); err != nil {
			return created, fmt.Errorf("refresh after create: %w", err)
		}
		return created, nil
	}

	if err := w.cache.Upsert(created); err != nil {
		return created, err
	}
	w.publish(ctx, amqp.ActionCreated, s.UserID, created)
	return created, nil
}

// Update edits an expense. Blank fields keep their current values.
func (w *Workspace) Update(ctx context.Context, expenseID string, fields api.ExpenseFields, receipt *api.Receipt) (core.Expense, error) {
	s, err := w.requireSession()
	if err != nil {
		return core.Expense{}, err
	}
	existing, err := w.Expense(ctx, expenseID)
	if err != nil {
		return core.Expense{}, err
	}

	updated, err := w.api.UpdateExpense(ctx, expenseID, fields.MergeOnto(existing), receipt)
	if err != nil {
		return core.Expense{}, err
	}
	if updated.UserID == "" {
		updated.UserID = s.UserID
	}
	if updated.Receipt == nil && receipt == nil {
		updated.Receipt = existing.Receipt
	}

	if err := w.cache.Upsert(updated); err != nil {
		return updated, err
	}
	w.publish(ctx, amqp.ActionUpdated, s.UserID, updated)
	return updated, nil
}

// Delete removes an expense on the server, then from the cache.
func (w *Workspace) Delete(ctx context.Context, expenseID string) error {
	s, err := w.requireSession()
	if err != nil {
		return err
	}
	if err := w.api.DeleteExpense(ctx, s.UserID, expenseID); err != nil {
		return err
	}

	deleted, ok := w.cache.Get(expenseID)
	if !ok {
		deleted = core.Expense{ID: expenseID}
	}
	w.cache.Remove(expenseID)
	w.publish(ctx, amqp.ActionDeleted, s.UserID, deleted)
	return nil
}

// DeleteMany deletes the given expenses concurrently. Each delete is
// independent; failures are joined into the returned error.
func (w *Workspace) DeleteMany(ctx context.Context, ids []string) error {
	if _, err := w.requireSession(); err != nil {
		return err
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(w.deleteConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := w.Delete(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Expense returns an expense from the cache, or fetches it when missing.
func (w *Workspace) Expense(ctx context.Context, expenseID string) (core.Expense, error) {
	s, err := w.requireSession()
	if err != nil {
		return core.Expense{}, err
	}
	if e, ok := w.cache.Get(expenseID); ok {
		return e, nil
	}
	return w.api.GetExpense(ctx, s.UserID, expenseID)
}

// Visible returns the cached expenses matching spec, in cache order.
func (w *Workspace) Visible(spec core.FilterSpec) ([]core.Expense, error) {
	if _, err := w.requireSession(); err != nil {
		return nil, err
	}
	return core.Apply(w.cache.All(), spec), nil
}

func (w *Workspace) Totals() (map[string]core.Money, error) {
	if _, err := w.requireSession(); err != nil {
		return nil, err
	}
	return core.CategoryTotals(w.cache.All()), nil
}

func (w *Workspace) Timeline() ([]core.TimelineEntry, error) {
	if _, err := w.requireSession(); err != nil {
		return nil, err
	}
	return core.DailyTimeline(w.cache.All()), nil
}

// Report summarizes the expenses matching spec.
func (w *Workspace) Report(spec core.FilterSpec) (core.Report, error) {
	visible, err := w.Visible(spec)
	if err != nil {
		return core.Report{}, err
	}
	return core.Summarize(visible), nil
}

// publish announces a confirmed mutation. Failures are logged only: the
// change already happened on the server.
func (w *Workspace) publish(ctx context.Context, action, userID string, e core.Expense) {
	msg := amqp.NewExpenseChangedMessage(action, userID, e)
	if err := w.publisher.PublishExpenseChanged(ctx, msg); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish expense change",
			log.FieldOperation, log.OpPublish,
			log.FieldExpenseID, e.ID,
			"action", action,
			log.FieldError, err,
		)
	}
}
