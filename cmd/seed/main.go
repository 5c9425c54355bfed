// Command seed imports restaurant and neighborhood exports into the store
// selected by the same environment the server reads (STORE_DRIVER, DB_PATH,
// MONGO_URI, ...).
//
// Usage:
//
//	go run ./cmd/seed -restaurants restaurants.json -neighborhoods neighborhoods.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sakif/restaurant-guide/internal/config"
	"github.com/sakif/restaurant-guide/internal/seed"
	"github.com/sakif/restaurant-guide/internal/server"
)

func main() {
	var restaurantsPath, neighborhoodsPath string
	flag.StringVar(&restaurantsPath, "restaurants", "", "Restaurants export (JSON array or one document per line)")
	flag.StringVar(&neighborhoodsPath, "neighborhoods", "", "Neighborhoods export (JSON array or one document per line)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if restaurantsPath == "" && neighborhoodsPath == "" {
		logger.Error("nothing to import: pass -restaurants and/or -neighborhoods")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	if err := run(ctx, logger, restaurantsPath, neighborhoodsPath); err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}
	logger.Info("seed complete", slog.Duration("elapsed", time.Since(start)))
}

func run(ctx context.Context, logger *slog.Logger, restaurantsPath, neighborhoodsPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := server.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	importer := seed.NewImporter(store, logger)
	if err := importFile(ctx, restaurantsPath, importer.ImportRestaurants); err != nil {
		return fmt.Errorf("importing %s: %w", restaurantsPath, err)
	}
	if err := importFile(ctx, neighborhoodsPath, importer.ImportNeighborhoods); err != nil {
		return fmt.Errorf("importing %s: %w", neighborhoodsPath, err)
	}
	return nil
}

func importFile(ctx context.Context, path string, load func(context.Context, io.Reader) (seed.Result, error)) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = load(ctx, f)
	return err
}
