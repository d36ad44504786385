// Package cache holds the in-memory mirror of the current user's expenses.
package cache

import (
	"errors"
	"sync"

	"expensync/internal/core"
	"expensync/internal/log"
)

// ErrMissingID is returned when upserting an expense the server has not
// assigned an id to yet.
var ErrMissingID = errors.New("cache: expense has no id")

// Generation tags a list fetch. Later fetches get larger generations.
type Generation uint64

// ExpenseCache mirrors the server's expense list for one user.
//
// Hydrates are ordered by Generation: a fetch issued before a newer fetch
// was applied, or before a local mutation, is discarded when it lands.
type ExpenseCache struct {
	mu      sync.Mutex
	entries *orderedMap[core.Expense]
	issued  Generation // last generation handed out by BeginFetch
	applied Generation // generation of the last applied hydrate
	barrier Generation // value of issued at the last Upsert, Remove or Reset
	logger  *log.Logger
}

func NewExpenseCache(logger *log.Logger) *ExpenseCache {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseCache{
		entries: newOrderedMap[core.Expense](),
		logger:  logger.WithComponent(log.ComponentCache),
	}
}

// BeginFetch issues the tag for a list fetch about to start.
func (c *ExpenseCache) BeginFetch() Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// Hydrate replaces the contents with expenses fetched under gen, keeping
// server order. It reports false, leaving the cache untouched, when gen
// is older than an applied hydrate or predates the last mutation.
func (c *ExpenseCache) Hydrate(gen Generation, expenses []core.Expense) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen < c.applied || gen <= c.barrier {
		c.logger.Debug("Discarding stale hydrate",
			log.FieldGeneration, gen,
			"applied", c.applied,
			"barrier", c.barrier,
		)
		return false
	}

	c.entries.clear()
	for _, e := range expenses {
		if e.ID == "" {
			continue
		}
		c.entries.set(e.ID, e)
	}
	c.applied = gen
	c.logger.Debug("Cache hydrated", log.FieldGeneration, gen, log.FieldCount, c.entries.len())
	return true
}

// Upsert inserts or replaces an expense by id.
func (c *ExpenseCache) Upsert(e core.Expense) error {
	if e.ID == "" {
		return ErrMissingID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.set(e.ID, e)
	c.barrier = c.issued
	return nil
}

// Remove deletes the expense with the given id; absent ids are a no-op.
func (c *ExpenseCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.delete(id)
	c.barrier = c.issued
}

// All returns a copy of the cached expenses in order.
func (c *ExpenseCache) All() []core.Expense {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.values()
}

func (c *ExpenseCache) Get(id string) (core.Expense, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.get(id)
}

func (c *ExpenseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

// Superseded reports whether a fetch newer than gen has been issued. Such
// a fetch lands later and brings the cache up to date on its own.
func (c *ExpenseCache) Superseded(gen Generation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issued > gen
}

// Reset empties the cache and discards every fetch issued so far.
func (c *ExpenseCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.clear()
	c.barrier = c.issued
}
