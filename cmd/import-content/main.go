// Package main imports enemy templates from YAML into the participant store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/config"
	"github.com/cory-johannsen/tabletop/internal/game/bestiary"
	"github.com/cory-johannsen/tabletop/internal/observability"
	"github.com/cory-johannsen/tabletop/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "content/enemies", "directory of enemy template YAML files")
	dryRun := flag.Bool("dry-run", false, "validate templates without writing to the database")
	flag.Parse()

	start := time.Now()

	templates, err := bestiary.LoadTemplates(*sourceDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("%d templates valid in %s\n", len(templates), time.Since(start).Round(time.Millisecond))
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		fmt.Fprintf(os.Stderr, "storage.driver is %q: importing requires postgres (use gameserver -enemies for memory storage)\n", cfg.Storage.Driver)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	rep, err := bestiary.Import(ctx, postgres.NewStore(pool.DB()), templates, logger)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err), zap.Int("created", rep.Created))
	}
	fmt.Printf("import complete in %s: %d created, %d skipped\n",
		time.Since(start).Round(time.Millisecond), rep.Created, rep.Skipped)
}
