// Package backend builds the pluggable infrastructure of the client from
// configuration: where the session lives, where change events go and
// where reports are exported.
package backend

import (
	"context"

	"expensync/internal/services"
	"expensync/internal/session"
	"expensync/internal/sheets"
)

// Publisher is an event publisher that owns a connection.
type Publisher interface {
	services.EventPublisher
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the built components and a cleanup function
// releasing everything they hold.
type BackendResult struct {
	Store     session.Store
	Publisher Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the session store and event publisher.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateExporter creates the report exporter. It is separate so that
	// commands not exporting never need spreadsheet credentials.
	CreateExporter(ctx context.Context, config Config) (sheets.ReportExporter, error)
}

// StoreType represents the kind of session store
type StoreType string

const (
	FileStore   StoreType = "file"
	SQLiteStore StoreType = "sqlite"
	RedisStore  StoreType = "redis"
	MemoryStore StoreType = "memory"
)

// String implements fmt.Stringer
func (st StoreType) String() string {
	return string(st)
}

// IsValid returns true if the store type is valid
func (st StoreType) IsValid() bool {
	switch st {
	case FileStore, SQLiteStore, RedisStore, MemoryStore:
		return true
	default:
		return false
	}
}
