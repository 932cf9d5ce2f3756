package app

import (
	"context"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/loan-intake/internal/common"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

// Database is an open, migrated driver plus whatever must be released with it.
type Database struct {
	Driver *entsql.Driver
	Pool   *pgxpool.Pool // nil for in-memory databases
	logger *slog.Logger
}

// OpenDatabase opens Postgres from cfg, or a private in-memory SQLite
// database when inmem is set, and creates the schema.
func OpenDatabase(ctx context.Context, cfg *common.Config, inmem bool, logger *slog.Logger) (*Database, error) {
	if inmem {
		drv, err := repository.OpenSQLite(ctx, repository.MemoryDSN("loan_intake_"+uuid.NewString()), logger)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(ctx, drv, logger); err != nil {
			_ = drv.Close()
			return nil, err
		}
		return &Database{Driver: drv, logger: logger}, nil
	}

	if cfg.Database.DSN == "" {
		return nil, common.NewAppError(common.CodeConfig, "DB_URL is required unless --inmem is set", nil)
	}
	drv, pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		repository.Close(drv, pool, logger)
		return nil, err
	}
	if err := repository.Migrate(ctx, drv, logger); err != nil {
		repository.Close(drv, pool, logger)
		return nil, err
	}
	return &Database{Driver: drv, Pool: pool, logger: logger}, nil
}

func (d *Database) Close() {
	repository.Close(d.Driver, d.Pool, d.logger)
}
