package main

import (
	"context"

	"vibe-commerce/internal/config"
	"vibe-commerce/internal/db"
	"vibe-commerce/internal/logging"
	"vibe-commerce/internal/migrate"
)

// Applies the Postgres cart schema ahead of time. The Mongo backend needs no
// migrations; its indexes are created on connect.
func main() {
	cfg := config.FromEnv()
	logger := logging.New("migrate", cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	logger.Info().Msg("migrations applied")
}
