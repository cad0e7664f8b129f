package main

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vshulcz/Cubeship/internal/adapters/persistence/file"
	memrepo "github.com/vshulcz/Cubeship/internal/adapters/repository/memory"
	pgrepo "github.com/vshulcz/Cubeship/internal/adapters/repository/postgres"
	"github.com/vshulcz/Cubeship/internal/config"
	"github.com/vshulcz/Cubeship/internal/misc"
	"github.com/vshulcz/Cubeship/internal/ports"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// buildStorage prefers Postgres when a DSN is set and falls back to memory with a file persister.
// The returned close func releases the database handle, if any.
func buildStorage(ctx context.Context, cfg config.CollectorConfig, logger *zap.Logger) (ports.EventRepo, ports.Persister, func() error) {
	if cfg.DSN != "" {
		db, err := openDB(cfg.DSN)
		if err == nil {
			op := func() error {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
				return pgrepo.Migrate(db)
			}
			if err = misc.Retry(ctx, misc.DefaultBackoff, pgrepo.IsRetryable, op); err == nil {
				logger.Info("db connected & migrated")
				return pgrepo.New(db), nil, db.Close
			}
			_ = db.Close()
		}
		logger.Warn("postgres init failed, falling back to memory", zap.Error(err))
	}

	repo := memrepo.New()
	p := file.New(cfg.File)
	if cfg.Restore {
		if err := p.Restore(ctx, repo); err != nil {
			logger.Warn("restore failed", zap.Error(err))
		} else {
			logger.Info("restore ok", zap.String("file", cfg.File), zap.Int("events", repo.Len()))
		}
	}
	return repo, p, func() error { return nil }
}
