// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"tour-workers/internal/analytics"
	"tour-workers/internal/catalog"
	notify "tour-workers/internal/common/aws"
	"tour-workers/internal/common/camunda"
	"tour-workers/internal/common/config"
	"tour-workers/internal/common/database"
	"tour-workers/internal/common/logger"
	"tour-workers/internal/common/observability"
	"tour-workers/internal/recommend"
	"tour-workers/pkg/registry"

	// Recommendation Workers (4)
	gr "tour-workers/internal/workers/recommendation/generate-recommendations"
	ga "tour-workers/internal/workers/recommendation/get-analytics"
	stm "tour-workers/internal/workers/recommendation/score-tour-match"
	ti "tour-workers/internal/workers/recommendation/track-interaction"

	// Booking Workers (3)
	cb "tour-workers/internal/workers/booking/create-booking"
	rc "tour-workers/internal/workers/booking/register-customer"
	sbc "tour-workers/internal/workers/booking/send-booking-confirmation"

	// Data Access Workers (2)
	qc "tour-workers/internal/workers/data-access/query-catalog"
	st "tour-workers/internal/workers/data-access/search-tours"
	"tour-workers/internal/workers/data-access/search-tours/queries"
)

const registryPath = "configs/activity-registry.json"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.Observability.ServiceName,
		observability.WithJaegerEndpoint(cfg.Observability.JaegerEndpoint),
	)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	deps := &dependencies{}

	// --- Init PostgreSQL with retry ---
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			deps.postgres = pg
			return nil
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer deps.postgres.Close()
		zapLog.Info("PostgreSQL connected successfully")

		if cfg.Database.Postgres.Migrate {
			if err := deps.postgres.Migrate(ctx); err != nil {
				zapLog.Fatal("schema migration failed", zap.Error(err))
			}
			zapLog.Info("Catalog schema applied")

			n, err := catalog.SeedTours(ctx, deps.postgres.DB, catalog.SampleTours())
			if err != nil {
				zapLog.Fatal("seeding sample tours failed", zap.Error(err))
			}
			zapLog.Info("Sample tours seeded", zap.Int("inserted", n))
		}
	}

	// --- Init Redis with retry ---
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				rdb.Close()
				return err
			}
			deps.redis = rdb
			return nil
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer deps.redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch with retry ---
	if cfg.Database.Elasticsearch.GetURL() != "" {
		err = retryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			deps.elasticsearch = es
			return nil
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Catalog, analytics and the recommender ---
	source, sourceName, err := buildCatalogSource(cfg, deps, log)
	if err != nil {
		zapLog.Fatal("catalog source", zap.Error(err))
	}
	store, err := buildAnalyticsStore(cfg.Analytics, deps)
	if err != nil {
		zapLog.Fatal("analytics store", zap.Error(err))
	}
	engine, err := buildEngine(cfg.Recommendation, store, log)
	if err != nil {
		zapLog.Fatal("recommendation engine", zap.Error(err))
	}
	zapLog.Info("Recommender ready",
		zap.String("catalogSource", sourceName),
		zap.String("analyticsBackend", cfg.Analytics.Backend),
		zap.String("algorithm", engine.Config().Algorithm),
	)

	if deps.elasticsearch != nil {
		syncSearchIndex(ctx, cfg.Catalog.ToursIndex, source, deps, zapLog)
	}

	var lookup *catalog.ProfileLookup
	if deps.postgres != nil {
		lookup = catalog.NewProfileLookup(deps.postgres.DB, deps.redisClient(), cfg.Catalog.ProfileCacheTTLDuration())
	}

	// --- Register Workers ---
	workers := camunda.NewWorkerSet(zeebe.GetClient(), log)
	start := func(taskType string, handler worker.JobHandler) {
		workers.Start(taskType, cfg.Workers[taskType], obs.Instrument(taskType, handler))
	}

	// --- 1. Recommendation Workers (4) ---
	{
		handler := gr.NewHandler(
			&gr.Config{Timeout: workerTimeout(cfg, gr.TaskType, gr.LoadConfig().Timeout), SourceName: sourceName},
			source, engine, log,
		)
		start(gr.TaskType, handler.Handle)
	}
	{
		handler := ti.NewHandler(
			&ti.Config{Timeout: workerTimeout(cfg, ti.TaskType, ti.LoadConfig().Timeout)},
			engine, log,
		)
		start(ti.TaskType, handler.Handle)
	}
	{
		handler := ga.NewHandler(
			&ga.Config{Timeout: workerTimeout(cfg, ga.TaskType, ga.LoadConfig().Timeout)},
			engine, log,
		)
		start(ga.TaskType, handler.Handle)
	}
	{
		var profiles stm.ProfileGetter
		if lookup != nil {
			profiles = lookup
		}
		handler := stm.NewHandler(
			&stm.Config{Timeout: workerTimeout(cfg, stm.TaskType, stm.LoadConfig().Timeout)},
			source, profiles, engine, log,
		)
		start(stm.TaskType, handler.Handle)
	}

	// --- 2. Booking Workers (2) ---
	if deps.postgres != nil {
		var snapshots cb.SnapshotInvalidator
		var profiles cb.ProfileInvalidator
		if cached, ok := source.(*catalog.CachedSource); ok {
			snapshots = cached
		}
		if deps.redis != nil {
			profiles = lookup
		}

		var customers rc.Invalidator
		if snapshots != nil {
			customers = snapshots
		}
		register := rc.NewHandler(
			&rc.Config{Timeout: workerTimeout(cfg, rc.TaskType, rc.LoadConfig().Timeout)},
			deps.postgres.DB, customers, log,
		)
		start(rc.TaskType, register.Handle)

		booking := cb.NewHandler(
			&cb.Config{Timeout: workerTimeout(cfg, cb.TaskType, cb.LoadConfig().Timeout)},
			deps.postgres.DB, snapshots, profiles, log,
		)
		start(cb.TaskType, booking.Handle)

		if cfg.Notifications.Enabled() {
			mailer, texter, err := buildNotifiers(ctx, cfg.Notifications)
			if err != nil {
				zapLog.Fatal("notification clients", zap.Error(err))
			}
			confirm := sbc.NewHandler(
				&sbc.Config{Timeout: workerTimeout(cfg, sbc.TaskType, sbc.LoadConfig().Timeout)},
				deps.postgres.DB, mailer, texter, log,
			)
			start(sbc.TaskType, confirm.Handle)
		}

		// --- 3a. Postgres data access ---
		query := qc.NewHandler(
			&qc.Config{Timeout: workerTimeout(cfg, qc.TaskType, qc.LoadConfig().Timeout)},
			deps.postgres.DB, log,
		)
		start(qc.TaskType, query.Handle)
	} else {
		zapLog.Warn("PostgreSQL not configured, booking and query-catalog workers not started")
	}

	// --- 3b. Elasticsearch data access ---
	if deps.elasticsearch != nil {
		handler := st.NewHandler(
			&st.Config{
				Timeout: workerTimeout(cfg, st.TaskType, st.LoadConfig().Timeout),
				Index:   cfg.Catalog.ToursIndex,
			},
			deps.elasticsearch.Client, log,
		)
		start(st.TaskType, handler.Handle)
	} else {
		zapLog.Warn("Elasticsearch not configured, search-tours worker not started")
	}

	checkRegistry(workers.Running(), zapLog)
	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.Running()))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           newServerMux(zeebe, deps, engine),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// workerTimeout prefers the configured per-worker timeout over the package default.
func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if ms := cfg.Workers[taskType].Timeout; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func buildCatalogSource(cfg *config.Config, deps *dependencies, log logger.Logger) (catalog.Source, string, error) {
	var source catalog.Source
	name := cfg.Catalog.Source
	switch name {
	case "", "static":
		name = "static"
		source = catalog.NewSampleSource()
	case "postgres":
		if deps.postgres == nil {
			return nil, "", fmt.Errorf("catalog source postgres requires database.postgres.host")
		}
		source = catalog.NewPostgresSource(deps.postgres.DB)
	default:
		return nil, "", fmt.Errorf("unknown catalog source %q", name)
	}

	if deps.redis != nil && cfg.Catalog.CacheTTL > 0 {
		source = catalog.NewCachedSource(source, deps.redis.Client, cfg.Catalog.CacheTTLDuration(), log)
	}
	return source, name, nil
}

func buildAnalyticsStore(cfg config.AnalyticsConfig, deps *dependencies) (analytics.Store, error) {
	retention := analytics.RetentionPolicy{MaxRecords: cfg.MaxRecords, MaxAge: cfg.MaxAge()}
	switch cfg.Backend {
	case "", "memory":
		return analytics.NewMemoryStore(retention, nil), nil
	case "redis":
		if deps.redis == nil {
			return nil, fmt.Errorf("analytics backend redis requires database.redis.address")
		}
		return analytics.NewRedisStore(deps.redis.Client, retention), nil
	default:
		return nil, fmt.Errorf("unknown analytics backend %q", cfg.Backend)
	}
}

func buildEngine(cfg config.RecommendationConfig, store analytics.Store, log logger.Logger) (*recommend.Engine, error) {
	matcher, err := recommend.MatcherByName(cfg.InterestMatching)
	if err != nil {
		return nil, err
	}
	return recommend.NewEngine(recommend.Config{
		ContentWeight:       cfg.ContentWeight,
		CollaborativeWeight: cfg.CollaborativeWeight,
		TopN:                cfg.TopN,
		MinConfidence:       cfg.MinConfidence,
		MaxConfidence:       cfg.MaxConfidence,
		PeerThreshold:       cfg.PeerThreshold,
		PeerBookingPoints:   cfg.PeerBookingPoints,
		Algorithm:           cfg.Algorithm,
	}, store,
		recommend.WithLogger(log),
		recommend.WithInterestMatcher(matcher),
	), nil
}

// buildNotifiers returns nil interfaces for disabled channels.
func buildNotifiers(ctx context.Context, cfg config.NotificationsConfig) (sbc.Sender, sbc.SMSSender, error) {
	sesClient, snsClient, err := notify.NewClients(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, nil, err
	}
	var mailer sbc.Sender
	var texter sbc.SMSSender
	if cfg.EmailEnabled {
		mailer = notify.NewMailer(sesClient, cfg.FromEmail)
	}
	if cfg.SMSEnabled {
		texter = notify.NewTexter(snsClient, cfg.SMSSenderID)
	}
	return mailer, texter, nil
}

// syncSearchIndex copies the catalog's tours into Elasticsearch so search-tours
// sees the same catalog as the recommender. Failures are logged only.
func syncSearchIndex(ctx context.Context, index string, source catalog.Source, deps *dependencies, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	snap, err := source.Load(ctx)
	if err != nil {
		log.Warn("search index sync skipped: catalog load failed", zap.Error(err))
		return
	}
	if err := queries.EnsureIndex(ctx, deps.elasticsearch.Client, index); err != nil {
		log.Warn("search index sync skipped", zap.Error(err))
		return
	}
	n, err := queries.IndexTours(ctx, deps.elasticsearch.Client, index, snap.Tours)
	if err != nil {
		log.Warn("search index sync incomplete", zap.Int("indexed", n), zap.Error(err))
		return
	}
	log.Info("search index synced", zap.String("index", index), zap.Int("tours", n))
}

// checkRegistry warns about running workers that the activity registry does not describe.
func checkRegistry(running []string, log *zap.Logger) {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", registryPath), zap.Error(err))
		return
	}
	for _, taskType := range running {
		if _, ok := reg.Find(taskType); !ok {
			log.Warn("worker missing from activity registry", zap.String("taskType", taskType))
		}
	}
}
