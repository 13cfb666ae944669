// Package main provides the tabletop server binary: the JSON API, the admin
// gRPC health service and the database health loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/api"
	"github.com/cory-johannsen/tabletop/internal/auth"
	"github.com/cory-johannsen/tabletop/internal/chat"
	"github.com/cory-johannsen/tabletop/internal/chat/discord"
	"github.com/cory-johannsen/tabletop/internal/config"
	"github.com/cory-johannsen/tabletop/internal/game/bestiary"
	"github.com/cory-johannsen/tabletop/internal/game/dice"
	"github.com/cory-johannsen/tabletop/internal/game/interaction"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
	"github.com/cory-johannsen/tabletop/internal/gameserver"
	"github.com/cory-johannsen/tabletop/internal/observability"
	"github.com/cory-johannsen/tabletop/internal/server"
	"github.com/cory-johannsen/tabletop/internal/storage/memory"
	"github.com/cory-johannsen/tabletop/internal/storage/postgres"
)

// store is satisfied by both storage drivers.
type store interface {
	account.Store
	gameserver.GameStore
	turn.Store
	api.ParticipantStore
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	enemiesDir := flag.String("enemies", "", "optional directory of enemy templates imported at startup")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("server", cfg.Server.Name))

	logger.Info("starting tabletop server",
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("admin_addr", cfg.Admin.Addr()),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("auth", cfg.Auth.Strategy),
	)

	lifecycle := server.NewLifecycle(logger)
	healthSrv := health.NewServer()

	// Storage
	var st store
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		st = postgres.NewStore(pool.DB())

		reporter := server.NewHealthReporter(healthSrv, func(ctx context.Context) error {
			return pool.Health(ctx, cfg.Admin.HealthTimeout)
		}, logger)
		lifecycle.Add("postgres", server.TickerService(cfg.Admin.HealthInterval, reporter.Check, pool.Close))
	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		st = memory.New()
		server.NewHealthReporter(healthSrv, func(context.Context) error { return nil }, logger)
	}

	if *enemiesDir != "" {
		templates, err := bestiary.LoadTemplates(*enemiesDir)
		if err != nil {
			logger.Fatal("loading enemy templates", zap.Error(err))
		}
		rep, err := bestiary.Import(ctx, st, templates, logger)
		if err != nil {
			logger.Fatal("importing enemy templates", zap.Error(err))
		}
		logger.Info("enemy templates imported",
			zap.Int("created", rep.Created),
			zap.Int("skipped", rep.Skipped),
		)
	}

	// Randomness
	src := dice.NewCryptoSource()
	if cfg.Dice.Seed != 0 {
		logger.Warn("dice seeded; rolls are reproducible", zap.Uint64("seed", cfg.Dice.Seed))
		src = dice.NewSeededSource(cfg.Dice.Seed)
	}
	roller := dice.NewLoggedRoller(src, logger)

	// Chat
	var platform chat.Platform = chat.Disabled{Logger: logger}
	if cfg.Discord.Enabled {
		dc, err := discord.New(cfg.Discord.Token, discord.Options{
			GuildID:       cfg.Discord.GuildID,
			CategoryID:    cfg.Discord.CategoryID,
			InviteMaxAge:  cfg.Discord.InviteMaxAge,
			InviteMaxUses: cfg.Discord.InviteMaxUses,
		}, logger)
		if err != nil {
			logger.Fatal("creating discord client", zap.Error(err))
		}
		platform = dc
		logger.Info("discord enabled", zap.String("guild_id", cfg.Discord.GuildID))
	}

	// Auth
	strategy, tokens, err := auth.New(cfg.Auth)
	if err != nil {
		logger.Fatal("configuring auth", zap.Error(err))
	}
	var google *auth.GoogleLogin
	if cfg.Auth.Google.Enabled() {
		google = auth.NewGoogleLogin(cfg.Auth.Google)
		logger.Info("google login enabled", zap.String("redirect_url", cfg.Auth.Google.RedirectURL))
	}

	// Services
	turns := turn.NewService(st, st, logger)
	sessions := gameserver.NewSessionHandler(st, st, turns, platform, logger)
	resolver := interaction.NewResolver(roller, logger)

	apiServer := api.New(api.Deps{
		Sessions:     sessions,
		Turns:        turns,
		Resolver:     resolver,
		Participants: st,
		Users:        st,
		Auth:         strategy,
		Tokens:       tokens,
		Google:       google,
		Logger:       logger,
	})

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	lifecycle.Add("admin-grpc", server.GRPCService(grpcServer, cfg.Admin.Addr(), logger))

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}
	lifecycle.Add("http", server.HTTPService(httpServer, cfg.Server.ShutdownTimeout, logger))

	logger.Info("tabletop server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(fmt.Errorf("lifecycle: %w", err)))
	}
}
