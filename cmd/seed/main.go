package main

import (
	"context"
	"flag"
	"io"
	"os"
	"strings"

	"vibe-commerce/internal/config"
	"vibe-commerce/internal/logging"
	cartrepo "vibe-commerce/internal/repository/cart"
	cartsvc "vibe-commerce/internal/service/cart"
	"vibe-commerce/internal/seed"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "CSV of productId,quantity,name,price[,image]; demo items when empty")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New("seed", cfg.LogLevel)

	var src io.Reader = strings.NewReader(seed.DemoCSV)
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("open file")
		}
		defer f.Close()
		src = f
	}

	repo, handle, err := cartrepo.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("init cart store")
	}
	defer handle.Close()

	ctx := context.Background()
	res, err := seed.NewCSVSeeder(src, cartsvc.New(repo)).Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Int("created", res.Created).Int("merged", res.Merged).Msg("seed failed")
	}

	logger.Info().Int("created", res.Created).Int("merged", res.Merged).Msg("seed applied")
}
