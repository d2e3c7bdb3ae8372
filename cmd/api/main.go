package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"catapult-platform/internal/auth"
	"catapult-platform/internal/calls"
	"catapult-platform/internal/config"
	"catapult-platform/internal/httpapi"
	"catapult-platform/internal/routing"
	"catapult-platform/internal/telephony"
	"catapult-platform/pkg/catapult"
	"catapult-platform/pkg/logger"
	"catapult-platform/pkg/utils"
)

// callbackDedupeTTL covers Catapult's callback retry window.
const callbackDedupeTTL = 24 * time.Hour

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	client, err := cfg.Catapult.NewClient(catapult.WithUserAgent("catapult-platform"))
	if err != nil {
		log.Error("catapult client init failed", "err", err)
		os.Exit(1)
	}

	engine := routing.NewEngine(nil, nil)
	if cfg.Routing.File != "" {
		fsys := afero.NewOsFs()
		if err := engine.Reload(fsys, cfg.Routing.File); err != nil {
			log.Error("route file load failed", "file", cfg.Routing.File, "err", err)
			os.Exit(1)
		}
		go reloadOnHangup(rootCtx, log, engine, fsys, cfg.Routing.File)
	} else {
		log.Warn("ROUTING_FILE not set; every inbound call will be rejected")
	}

	checks := map[string]httpapi.Check{}

	var store calls.Store = calls.NewMemoryStore()
	if cfg.HasDB() {
		db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := calls.NewPostgresStore(db)
		if err := pg.Migrate(rootCtx); err != nil {
			log.Error("postgres migrate failed", "err", err)
			os.Exit(1)
		}
		store = pg
		checks["postgres"] = func(ctx context.Context) error { return utils.HealthCheck(ctx, db, 2*time.Second) }
	} else {
		log.Warn("DB_HOST not set; calls are kept in memory")
	}

	var (
		dedupe telephony.Deduper = utils.NewMemoryDeduper(callbackDedupeTTL)
		slots  httpapi.Limiter   = utils.NewMemoryLimiter(cfg.Limits.MaxConcurrentCalls, cfg.Limits.CallSlotTTL)
	)
	if cfg.HasRedis() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()

		dedupe = utils.NewRedisDeduper(rdb, "catapult:callback:", callbackDedupeTTL)
		limiter, err := utils.NewRedisLimiter(rdb, "catapult:calls:", cfg.Limits.MaxConcurrentCalls, cfg.Limits.CallSlotTTL)
		if err != nil {
			log.Error("redis limiter init failed", "err", err)
			os.Exit(1)
		}
		slots = limiter
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	provider := telephony.NewCatapultProvider(client, engine,
		telephony.WithCallbackBaseURL(cfg.Catapult.CallbackURL),
		telephony.WithProviderLogger(log),
	)
	checks["catapult"] = provider.HealthCheck

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps{
		auth:     authManager,
		provider: provider,
		numbers:  engine,
		store:    store,
		slots:    slots,
		dedupe:   dedupe,
		checks:   checks,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "catapult", client.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// reloadOnHangup re-reads the route file on SIGHUP. A bad file is logged
// and the previous table stays active.
func reloadOnHangup(ctx context.Context, log *slog.Logger, engine *routing.Engine, fsys afero.Fs, path string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := engine.Reload(fsys, path); err != nil {
				log.Error("route file reload failed", "file", path, "err", err)
				continue
			}
			log.Info("route file reloaded", "file", path)
		}
	}
}
