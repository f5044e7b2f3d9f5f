package backend

import (
	"context"
	"fmt"

	"kas/internal/log"
	"kas/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		store := storage.NewFileStore(config.DataDir, config.Slot)
		f.logger.InfoContext(ctx, "Initialized file backend", "path", store.Path())
		return &BackendResult{Store: store}, nil

	case SQLiteBackend:
		store, err := storage.NewSQLiteStore(config.SQLiteDBPath, config.Slot)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath, "slot", config.Slot)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case PostgresBackend:
		store, err := storage.NewPostgresStore(ctx, config.PostgresDSN, config.Slot)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Postgres backend", "slot", config.Slot)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend; data is lost on exit")
		return &BackendResult{Store: storage.NewMemoryStore()}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
