package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/playmatatu/billiards/internal/api"
	"github.com/playmatatu/billiards/internal/api/handlers"
	"github.com/playmatatu/billiards/internal/auth"
	"github.com/playmatatu/billiards/internal/config"
	"github.com/playmatatu/billiards/internal/database"
	"github.com/playmatatu/billiards/internal/game"
	"github.com/playmatatu/billiards/internal/leaderboard"
	"github.com/playmatatu/billiards/internal/logging"
	"github.com/playmatatu/billiards/internal/middleware"
	"github.com/playmatatu/billiards/internal/migrations"
	"github.com/playmatatu/billiards/internal/redis"
	"github.com/playmatatu/billiards/internal/ws"
)

func main() {
	if err := run(); err != nil {
		zap.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	// Initialize configuration
	cfg := config.Load()
	logger := logging.Init(cfg.Logging())
	defer logging.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := api.Deps{
		Config: cfg,
		Logger: logger,
		Seats:  auth.NewIssuer(cfg.JWTSecret, cfg.SeatTokenTTL()),
		Checks: map[string]handlers.Check{},
	}

	var recorder game.WinRecorder
	if cfg.LeaderboardEnabled {
		if cfg.MigrateOnStart {
			logger.Info("running DB migrations on startup", zap.String("dir", cfg.MigrationsDir))
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, logger.Named("migrate")); err != nil {
				return err
			}
		}

		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		board := leaderboard.NewRepository(db, logger.Named("leaderboard"))
		recorder = board
		deps.Leaderboard = board
		deps.Checks["postgres"] = db.PingContext
	} else {
		logger.Info("leaderboard disabled, wins are not recorded")
	}

	var snapshots game.SnapshotStore
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		store := redis.NewStore(rdb, cfg.StateTTL(), logger.Named("store"))
		snapshots = store
		deps.History = store
		deps.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		logger.Warn("REDIS_URL not set, areas are kept in memory only")
	}

	areas := game.NewAreaManager(snapshots, recorder, logger.Named("game"),
		game.WithParams(cfg.PhysicsParams()),
		game.WithSimConfig(cfg.SimConfig()))
	defer areas.Close()
	deps.Areas = areas

	deps.Hub = ws.NewHub(logger.Named("ws"),
		ws.WithRateLimit(cfg.WSMessagesPerSecond, cfg.WSBurst),
		ws.WithTickStream(cfg.WSStreamTicks),
		ws.WithCheckOrigin(middleware.WebSocketOriginCheck(cfg)))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(deps),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting billiards server", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		areas.RunIdleSweeper(gctx, cfg.IdleSweepInterval, cfg.IdleAreaTimeout)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
