package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/paintballpark/config"
	"github.com/Domenick1991/paintballpark/internal/repository"
	"github.com/Domenick1991/paintballpark/internal/repository/memory"
	"github.com/Domenick1991/paintballpark/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// OpenStore builds the repository set for the configured driver. The
// returned func releases whatever the store holds.
func OpenStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*repository.Store, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return repository.NewPGStore(pool), pool.Close, nil
}
