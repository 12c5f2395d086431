package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"vibe-commerce/internal/catalog"
	"vibe-commerce/internal/config"
	"vibe-commerce/internal/httpserver"
	"vibe-commerce/internal/logging"
	cartrepo "vibe-commerce/internal/repository/cart"
	cartsvc "vibe-commerce/internal/service/cart"
	checkoutsvc "vibe-commerce/internal/service/checkout"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New("api", cfg.LogLevel)

	// The store is dialed on the first request; a dead database must not keep
	// the catalog routes from serving.
	cartRepo, storeHandle, err := cartrepo.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("init cart store")
	}
	defer storeHandle.Close()

	var cache catalog.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		cache = catalog.NewRedisCache(rdb)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("catalog cache enabled")
	}

	catalogClient := catalog.NewClient(catalog.Options{
		BaseURL:  cfg.CatalogBaseURL,
		Limit:    cfg.CatalogLimit,
		Timeout:  cfg.CatalogTimeout,
		Cache:    cache,
		CacheTTL: cfg.CatalogCacheTTL,
		Logger:   logger,
	})

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Catalog:  catalogClient,
		CartSvc:  cartsvc.New(cartRepo),
		Checkout: checkoutsvc.New(cartRepo),
		Store:    storeHandle,
		Ready:    cartRepo,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreBackend).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}
