package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gmatprep/internal/config"
	"github.com/gmatprep/internal/content"
	"github.com/gmatprep/internal/db"
	"github.com/gmatprep/internal/handler"
	"github.com/gmatprep/internal/logging"
	"github.com/gmatprep/internal/mathtex"
	"github.com/gmatprep/internal/metrics"
	"github.com/gmatprep/internal/render"
	"github.com/gmatprep/internal/router"
)

const (
	shutdownTimeout   = 15 * time.Second
	redisPingTimeout  = 2 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lesson site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.AppConfig) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.SeedsSuperRoot() {
		if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
	}

	m := metrics.New()

	store := content.NewStore(os.DirFS(cfg.ContentDir))
	store.OnReload(func(catalog *content.Catalog, err error) {
		if err != nil {
			m.ContentReloaded(0, err)
			return
		}
		m.ContentReloaded(catalog.Count(), nil)
	})
	catalog, err := store.Reload(ctx)
	if err != nil {
		return fmt.Errorf("load content from %s: %w", cfg.ContentDir, err)
	}
	logger.Info("content loaded",
		zap.String("dir", cfg.ContentDir),
		zap.Int("chapters", len(catalog.Chapters)),
		zap.Int("lessons", catalog.Count()),
		zap.Int("warnings", len(catalog.Warnings)),
	)
	for _, warning := range catalog.Warnings {
		logger.Warn("content warning", zap.String("path", warning.Path), zap.String("message", warning.Message))
	}

	math := mathtex.New(mathtex.WithFailureHook(func(mode mathtex.Mode, err error) {
		m.MathFailed(mode.String())
		logger.Debug("math fallback", zap.Stringer("mode", mode), zap.Error(err))
	}))

	cache, closeCache := newRenderCache(ctx, cfg, logger)
	defer closeCache()
	renderer := render.NewCachedRenderer(render.New(math), cache, cfg.RenderCacheTTL, logger)
	renderer.OnLookup(m.CacheLookup)
	logger.Info("render cache ready", zap.String("backend", renderer.Backend()), zap.Duration("ttl", cfg.RenderCacheTTL))

	api := handler.NewAPI(handler.Dependencies{
		DB:          db.DB,
		Content:     store,
		Renderer:    renderer,
		Metrics:     m,
		Logger:      logger,
		SiteBaseURL: cfg.SiteBaseURL,
	})
	engine, err := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		Logger:        logger,
		Metrics:       m,
	})
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ContentWatch {
		watcher := content.NewWatcher(cfg.ContentDir, store, logger)
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("watch content: %w", err)
		}
		defer watcher.Stop()
		logger.Info("watching content for changes", zap.String("dir", cfg.ContentDir))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newRenderCache picks redis when REDIS_ADDR is set and reachable, and the
// in-process cache otherwise.
func newRenderCache(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (render.Cache, func()) {
	if cfg.RedisAddr == "" {
		return render.NewMemoryCache(0), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cache := render.NewRedisCache(client)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := cache.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable, using in-memory render cache",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return render.NewMemoryCache(0), func() {}
	}

	return cache, func() { _ = client.Close() }
}
