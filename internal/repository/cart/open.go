package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"vibe-commerce/internal/config"
	"vibe-commerce/internal/db"
	"vibe-commerce/internal/migrate"
)

// Handle is the lazily dialed connection behind a Repository.
type Handle interface {
	Established() bool
	Warm(ctx context.Context) error
	Close()
}

// Open builds the repository selected by cfg.StoreBackend. Nothing is dialed
// until the first call that needs the store.
func Open(cfg config.Config) (Repository, Handle, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		conn := db.NewLazy(func(ctx context.Context) (*db.Mongo, error) {
			m, err := db.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
			if err != nil {
				return nil, err
			}
			if err := EnsureMongoIndexes(ctx, m.Database); err != nil {
				m.Close()
				return nil, err
			}
			return m, nil
		}, (*db.Mongo).Close)
		return NewMongo(conn), conn, nil
	case config.BackendPostgres:
		conn := db.NewLazy(func(ctx context.Context) (*pgxpool.Pool, error) {
			pool, err := db.ConnectPostgres(ctx, cfg.DBConnString)
			if err != nil {
				return nil, err
			}
			if err := migrate.Apply(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			return pool, nil
		}, (*pgxpool.Pool).Close)
		return NewPostgres(conn), conn, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
