package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/marque/internal/config"
	"github.com/MrSnakeDoc/marque/internal/httpserver"
	"github.com/MrSnakeDoc/marque/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marque/internal/logger"
	"github.com/MrSnakeDoc/marque/internal/mutex"
	"github.com/MrSnakeDoc/marque/internal/redis"
	"github.com/MrSnakeDoc/marque/internal/scheduler"
	"github.com/MrSnakeDoc/marque/internal/search"
	"github.com/MrSnakeDoc/marque/internal/sources/seed"
	"github.com/MrSnakeDoc/marque/internal/store/file"
	redisstore "github.com/MrSnakeDoc/marque/internal/store/redis"
	"github.com/MrSnakeDoc/marque/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       *file.Datastore
	thumbnailer *scheduler.Thumbnailer
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	for _, path := range []string{cfg.DataFile, cfg.HistoryFile, cfg.LockFile} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			loggerClient.Errorf("Failed to create data directory for %s: %v", path, err)
			os.Exit(1)
		}
	}

	// Optional redis page cache - run without one when not configured
	var redisClient *goredis.Client
	var pageCache *redisstore.Store
	var invalidator file.Invalidator = file.NoopInvalidator{}
	if cfg.RedisAddr != "" {
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDialTimeout,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, running without page cache",
				logger.Error(err))
		} else {
			redisClient = client
			pageCache = redisstore.NewStore(client, loggerClient)
			invalidator = pageCache
		}
	} else {
		loggerClient.Info("redis not configured, page cache disabled")
	}

	lock := mutex.NewFileMutex(cfg.LockFile, cfg.LockTimeout, cfg.LockRetry, cfg.LockStaleAfter)

	history := file.NewHistoryStore(cfg.HistoryFile, time.Now)
	if err := history.Load(); err != nil {
		loggerClient.Errorf("Failed to load history store: %v", err)
		os.Exit(1)
	}

	store := file.New(file.Options{
		Path:     cfg.DataFile,
		Lock:     lock,
		Cache:    invalidator,
		History:  history,
		Clock:    time.Now,
		LoggedIn: cfg.ExposePrivate,
	})
	if err := store.Load(); err != nil {
		loggerClient.Errorf("Failed to load datastore: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("datastore loaded",
		logger.String("file", cfg.DataFile),
		logger.Int("bookmarks", store.Count("all")))

	if cfg.SeedFile != "" {
		importSeed(cfg, store, loggerClient)
	}

	engine := search.NewEngine(cfg.TagSeparator, time.Now, cfg.ThumbnailRetryAfter)

	// Thumbnail worker (if enabled)
	var thumbnailer *scheduler.Thumbnailer
	var thumbTrigger chan struct{}
	if cfg.ThumbnailsEnabled {
		thumbTrigger = make(chan struct{}, 1)
		thumbnailer = scheduler.NewThumbnailer(
			store,
			engine,
			loggerClient,
			cfg.ThumbnailInterval,
			cfg.ThumbnailTimeout,
			thumbTrigger,
		)
	} else {
		loggerClient.Info("thumbnail worker disabled")
	}

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		Store:        store,
		History:      history,
		Engine:       engine,
		PageCache:    pageCache,
		PageSize:     cfg.PageSize,
		TagSeparator: cfg.TagSeparator,
		ExtraSchemes: cfg.ExtraSchemes,
		ThumbTrigger: thumbTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		store:       store,
		thumbnailer: thumbnailer,
	}
}

func importSeed(cfg *config.Config, store *file.Datastore, log logger.Logger) {
	entries, err := seed.NewLoader(cfg.SeedFile).Load()
	if err != nil {
		log.Warn("failed to load seed file, skipping import",
			logger.String("file", cfg.SeedFile),
			logger.Error(err))
		return
	}

	bookmarks, skipped := seed.NewMapper(cfg.TagSeparator, cfg.ExtraSchemes).Map(entries)
	if skipped > 0 {
		log.Warn("seed entries skipped", logger.Int("skipped", skipped))
	}

	added, err := store.Import(context.Background(), bookmarks)
	if err != nil {
		log.Error("seed import failed", logger.Error(err))
		return
	}
	if added > 0 {
		log.Info("seed import finished",
			logger.String("file", cfg.SeedFile),
			logger.Int("added", added))
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Marque v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Marque %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start thumbnail worker (if enabled)
	if a.thumbnailer != nil {
		if err := a.thumbnailer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start thumbnail worker: %w", err)
		}
		a.logger.Info("thumbnail worker started",
			logger.Duration("interval", a.cfg.ThumbnailInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.thumbnailer != nil {
		a.thumbnailer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Marque stopped cleanly")
	return nil
}
