package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"complaint_desk/internal/domain/repository"
	"complaint_desk/internal/platform/config"
	"complaint_desk/internal/platform/database"
)

const startupTimeout = 10 * time.Second

// Store is the configured pair of repositories plus whatever owns their connections.
type Store struct {
	Users      repository.UserRepository
	Complaints repository.ComplaintRepository
	Driver     string

	closers []func(context.Context) error
}

// Open builds repositories for cfg.StoreDriver. It fails only on configuration
// errors; an unreachable database is logged and requests report it as 503
// until the driver reconnects.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return openMongo(ctx, cfg, logger)
	case config.StorePostgres:
		return openPostgres(ctx, cfg, logger)
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &Store{Users: mem.Users(), Complaints: mem.Complaints(), Driver: config.StoreMemory}, nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	client, err := database.OpenMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)

	pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.Error("mongo unreachable at startup, continuing", "database", cfg.MongoDatabase, "error", err)
	} else if err := database.EnsureIndexes(pingCtx, db); err != nil {
		logger.Error("failed to ensure mongo indexes", "error", err)
	} else {
		logger.Info("connected to mongo", "database", cfg.MongoDatabase)
	}

	return &Store{
		Users:      repository.NewMongoUserRepository(db),
		Complaints: repository.NewMongoComplaintRepository(db),
		Driver:     config.StoreMongo,
		closers:    []func(context.Context) error{client.Disconnect},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	db, err := database.OpenPostgres(cfg.DBConnStr)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("postgres unreachable at startup, continuing", "host", cfg.DBHost, "error", err)
	} else if err := database.Migrate(pingCtx, db); err != nil {
		logger.Error("failed to apply migrations", "error", err)
	} else {
		logger.Info("connected to postgres", "host", cfg.DBHost, "database", cfg.DBName)
	}

	return &Store{
		Users:      repository.NewPgUserRepository(db),
		Complaints: repository.NewPgComplaintRepository(db),
		Driver:     config.StorePostgres,
		closers:    []func(context.Context) error{func(context.Context) error { return db.Close() }},
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
