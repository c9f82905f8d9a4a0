package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"quotereel/internal/httpapi"
	"quotereel/internal/httpapi/handlers"
	"quotereel/internal/images"
	"quotereel/internal/pkg/logger"
	"quotereel/internal/pkg/shutdown"
	"quotereel/internal/render"
	"quotereel/internal/storage"
	"quotereel/internal/videos"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: "quotereel-api",
	})

	log.Info("starting quotereel API", "version", "0.1.0")

	httpPort := getEnv("HTTP_PORT", "8080")
	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := getEnv("REDIS_ADDR", "")
	unsplashKey := mustEnv(log, "UNSPLASH_ACCESS_KEY")
	tmpDir := getEnv("TMP_DIR", os.TempDir())
	fontDir := getEnv("FONT_DIR", "assets/fonts")
	maxConcurrent := getEnvInt(log, "MAX_CONCURRENT_RENDERS", 2)
	renderTimeout := getEnvDuration(log, "RENDER_TIMEOUT", 90*time.Second)

	ctx := context.Background()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})
	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	log.Info("PostgreSQL connected")

	var rdb *redis.Client
	if redisAddr != "" {
		log.Info("connecting to Redis")
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		shutdownMgr.Register("redis", func(ctx context.Context) error {
			return rdb.Close()
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The artifact cache degrades to Postgres-only; not fatal.
			log.Warn("redis unreachable, artifact cache will use PostgreSQL only", "error", err.Error())
		} else {
			log.Info("Redis connected")
		}
	}

	sp, err := storage.NewProvider()
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	if sp != nil {
		log.Info("storage provider initialized", "provider", sp.Provider())
	} else {
		log.Info("no storage provider configured, persist requests degrade to streaming")
	}

	store := videos.NewStore(pool)
	if err := store.Init(ctx); err != nil {
		log.LogFatal("failed to initialize artifact table", err)
	}

	render.CleanupOrphans(tmpDir, log)

	gate := render.NewGate(maxConcurrent)
	telemetry := render.NewTelemetry(512)

	pipeline := render.NewPipeline(render.Deps{
		Gate:      gate,
		Fetcher:   images.NewClient(unsplashKey, log),
		Encoder:   render.NewEncoder(getEnv("FFMPEG_BIN", "ffmpeg"), renderTimeout, log),
		Artifacts: videos.NewCache(store, rdb, log),
		Storage:   sp,
		Telemetry: telemetry,
		Log:       log,
		TmpDir:    tmpDir,
		FontDir:   fontDir,
	})

	mediaDir := ""
	if sp != nil && sp.Provider() == "localfs" {
		mediaDir = os.Getenv("STORAGE_LOCAL_ROOT")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Handlers: handlers.Deps{
			Pipeline:  pipeline,
			Gate:      gate,
			Telemetry: telemetry,
			Videos:    store,
			Pool:      pool,
			RDB:       rdb,
			Log:       log,
		},
		Log:      log,
		MediaDir: mediaDir,
	})

	server := &http.Server{
		Addr:        "0.0.0.0:" + httpPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No server-wide WriteTimeout: a stream response covers queue
		// wait plus the encode, and the queue has no depth bound, so any
		// fixed budget would kill slow-but-healthy responses mid-stream.
		// Each job is bounded by the encoder's wall-clock timeout and
		// client disconnects cancel the request context.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}

func getEnv(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v
}

func mustEnv(log *logger.Logger, key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		log.Error("missing required environment variable", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnvInt(log *logger.Logger, key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		log.Warn("invalid integer environment variable, using default",
			"key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getEnvDuration(log *logger.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Warn("invalid duration environment variable, using default",
			"key", key, "value", raw, "default", defaultValue.String())
		return defaultValue
	}
	return v
}
