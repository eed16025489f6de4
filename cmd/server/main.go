package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smaliarov/post-recommender/internal/config"
	"github.com/smaliarov/post-recommender/internal/database"
	"github.com/smaliarov/post-recommender/internal/experiment"
	"github.com/smaliarov/post-recommender/internal/features"
	"github.com/smaliarov/post-recommender/internal/handlers"
	"github.com/smaliarov/post-recommender/internal/logger"
	"github.com/smaliarov/post-recommender/internal/middleware"
	"github.com/smaliarov/post-recommender/internal/models"
	"github.com/smaliarov/post-recommender/internal/recommend"
	"github.com/smaliarov/post-recommender/internal/scoring"
	"github.com/smaliarov/post-recommender/internal/telemetry"
)

const serviceName = "post-recommender"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.ServerDebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", cfg.ServerDebugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("model_dir", cfg.ModelDir),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry is optional; a broken collector must not block serving.
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL())
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("invalid_redis_url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		pingCancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	splitter, err := buildSplitter(cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_build_experiment_splitter", zap.Error(err))
	}

	// Model artifacts and the candidate catalog load concurrently; both
	// must succeed before the server accepts traffic.
	var (
		engine  *scoring.Engine
		catalog []models.Post
	)
	postRepo := database.NewPostRepository(db, cfg.CatalogBatchSize)
	loadStart := time.Now()
	g, loadCtx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		engine, err = scoring.LoadEngine(cfg.ModelDir, splitter.Groups())
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = postRepo.LoadCatalog(loadCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		zapLogger.Fatal("failed_to_load_startup_data", zap.Error(err))
	}
	zapLogger.Info("startup_data_loaded",
		zap.Int("catalog_size", len(catalog)),
		zap.Int64("duration_ms", time.Since(loadStart).Milliseconds()),
	)
	for _, group := range splitter.Groups() {
		if m, err := engine.Model(group); err == nil {
			zapLogger.Info("model_loaded",
				zap.String("exp_group", string(group)),
				zap.String("version", m.Version()),
			)
		}
	}

	userRepo := database.NewUserFeatureRepository(db)
	assembler := features.NewAssembler(features.DefaultSchema())

	serviceOpts := []recommend.Option{}
	if redisClient != nil {
		ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
		serviceOpts = append(serviceOpts, recommend.WithCache(recommend.NewCache(redisClient, ttl)))
	}
	service := recommend.NewService(splitter, userRepo, catalog, assembler, engine, zapLogger, serviceOpts...)

	recHandler := handlers.NewRecommendationsHandler(service, cfg.DefaultLimit, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisClient)

	r := mux.NewRouter()

	// Middleware runs in registration order under gorilla/mux.
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	r.Handle("/post/recommendations/", rateLimitMW(http.HandlerFunc(recHandler.GetRecommendations))).Methods("GET")

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// buildSplitter constructs the experiment splitter, preferring an
// explicit group layout file over the simple percentage split.
func buildSplitter(cfg *config.Config) (*experiment.Splitter, error) {
	if cfg.ExperimentsFile != "" {
		return experiment.NewSplitterFromFile(cfg.Salt, cfg.ExperimentsFile)
	}
	return experiment.NewSplitter(cfg.Salt, cfg.SplitPercentage)
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
