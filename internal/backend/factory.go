package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"expensync/internal/amqp"
	"expensync/internal/log"
	"expensync/internal/session"
	"expensync/internal/sheets"
	gsheet "expensync/internal/sheets/google"
	"expensync/internal/sheets/memory"
	"expensync/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, closeStore, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	publisher := f.createPublisher(config)

	return &BackendResult{
		Store:     store,
		Publisher: publisher,
		Cleanup: func() error {
			var errs []error
			if err := publisher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
			if closeStore != nil {
				if err := closeStore(); err != nil {
					errs = append(errs, fmt.Errorf("session store: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (session.Store, CleanupFunc, error) {
	switch config.Type {
	case FileStore:
		f.logger.Debug("Initialized file session store", "session_dir", config.SessionDir)
		return session.NewFileStore(config.SessionDir), nil, nil

	case SQLiteStore:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Debug("Initialized SQLite session store", "db_path", config.SQLiteDBPath)
		return session.NewSQLiteStore(repo), repo.Close, nil

	case RedisStore:
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", config.RedisAddr, err)
		}
		f.logger.Debug("Initialized Redis session store", "addr", config.RedisAddr, "db", config.RedisDB)
		return session.NewRedisStore(client, config.RedisPrefix), client.Close, nil

	case MemoryStore:
		f.logger.Debug("Initialized memory session store")
		return session.NewMemoryStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported session backend: %s", config.Type)
	}
}

// createPublisher connects to the broker when configured. Events are
// optional, so a broker that cannot be reached degrades to a no-op.
func (f *DefaultFactory) createPublisher(config Config) Publisher {
	if config.AMQPURL == "" {
		return amqp.NoopPublisher{}
	}
	publisher, err := amqp.NewPublisher(config.AMQPURL, config.AMQPExchange, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP publisher, continuing without events", log.FieldError, err)
		return amqp.NoopPublisher{}
	}
	f.logger.Info("Initialized AMQP publisher", "exchange", config.AMQPExchange)
	return publisher
}

// CreateExporter implements Factory.CreateExporter
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (sheets.ReportExporter, error) {
	if !config.ExportEnabled() {
		f.logger.Debug("No spreadsheet configured, exporting to memory")
		return memory.New(), nil
	}
	exporter, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
		TotalsSheet:     config.GoogleTotalsSheetName,
		TimelineSheet:   config.GoogleTimelineSheetName,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
	}
	f.logger.Info("Initialized Google Sheets exporter", "spreadsheet_id", config.GoogleSpreadsheetID)
	return exporter, nil
}
