package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"antrian-bbm-service/internal/aggregate"
	"antrian-bbm-service/internal/estimator"
	"antrian-bbm-service/internal/middleware"
	"antrian-bbm-service/internal/repos"
	"antrian-bbm-service/shared/cachex"
	"antrian-bbm-service/shared/config"
	"antrian-bbm-service/shared/dbx"
	"antrian-bbm-service/shared/events"
	"antrian-bbm-service/shared/httpx"
	"antrian-bbm-service/shared/influxx"
	"antrian-bbm-service/shared/logx"
	"antrian-bbm-service/shared/metricsx"
	"antrian-bbm-service/shared/mqx"
	"antrian-bbm-service/shared/observability"
)

type statusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Env     string `json:"env,omitempty"`
	Version string `json:"version,omitempty"`
}

func main() {
	cfg, readyProblems := config.Load("api", 8080)
	version := strings.TrimSpace(os.Getenv("VERSION"))
	logger := logx.New(cfg.ServiceName, cfg.Env, version, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "DATABASE_URL is required"})
	}

	if cfg.OtelEnabled {
		if shutdown, err := observability.InitTracer(context.Background(), observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OtelEndpoint,
			Insecure:    cfg.OtelInsecure,
			SampleRatio: cfg.OtelSampleRatio,
		}); err == nil {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		dbPool, err = dbx.NewPool(cfg)
		if err != nil {
			readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "failed to connect to database"})
			logger.Error(context.Background(), "db_init_failed", "database init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
		}
	}
	if len(readyProblems) > 0 && dbPool == nil {
		logger.Error(context.Background(), "config_invalid", "invalid config",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.Any("problems", readyProblems),
		)
		os.Exit(1)
	}

	var cacheClient *cachex.Client
	if cfg.RedisAddr != "" {
		var err error
		cacheClient, err = cachex.New(cfg)
		if err != nil {
			logger.Warn(context.Background(), "redis_init_failed", "redis init failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if cacheClient != nil {
		defer cacheClient.Close()
	}

	var influxClient *influxx.Client
	if cfg.InfluxURL != "" && cfg.InfluxToken != "" && cfg.InfluxOrg != "" && cfg.InfluxBucket != "" {
		var err error
		influxClient, err = influxx.New(cfg)
		if err != nil {
			logger.Warn(context.Background(), "influx_init_failed", "influx init failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if influxClient != nil {
		defer influxClient.Close()
	}

	metricsx.Register()

	outboxRepo := repos.NewOutboxRepo(dbPool)
	stationsRepo := repos.NewStationsRepo(dbPool)
	reportsRepo := repos.NewReportsRepo(dbPool, outboxRepo)

	var store aggregate.SnapshotStore
	var redisStore *aggregate.RedisSnapshotStore
	if cacheClient != nil {
		redisStore = aggregate.NewRedisSnapshotStore(cacheClient, time.Duration(cfg.SnapshotCacheTTLSec)*time.Second)
		store = redisStore
	}
	engine := aggregate.New(stationsRepo, reportsRepo, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if redisStore != nil {
		if cached, found, err := redisStore.LoadSnapshot(ctx); err == nil && found {
			engine.Restore(cached)
			logger.Info(ctx, "snapshot_restored", "aggregate warm-started from cache",
				slog.Int("stations", len(cached)),
			)
		}
	}

	go runResyncLoop(ctx, engine, time.Duration(cfg.ResyncIntervalSec)*time.Second, logger)
	go runNotificationConsumer(ctx, cfg, engine, logger)

	a := &app{
		logger:   logger,
		engine:   engine,
		stations: stationsRepo,
		reports:  reportsRepo,
		influx:   influxClient,
		pricing:  estimator.Pricing{Pertalite: cfg.HargaPertalite, Pertamax: cfg.HargaPertamax},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "ok",
			Service: cfg.ServiceName,
			Env:     cfg.Env,
			Version: version,
		})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if len(readyProblems) > 0 {
			httpx.WriteError(
				w,
				r,
				http.StatusServiceUnavailable,
				"FAILED_PRECONDITION",
				"service not ready: invalid configuration",
				map[string]any{"problems": readyProblems},
			)
			return
		}
		if err := dbx.Ping(r.Context(), dbPool); err != nil {
			httpx.WriteError(
				w,
				r,
				http.StatusServiceUnavailable,
				"FAILED_PRECONDITION",
				"service not ready: database unavailable",
				map[string]any{"problem": "db_ping_failed"},
			)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, statusResponse{
			Status:  "ready",
			Service: cfg.ServiceName,
			Env:     cfg.Env,
			Version: version,
		})
	})
	mux.Handle("GET /metrics", metricsx.Handler())

	mux.HandleFunc("POST /api/v1/estimate", a.handleEstimate)
	mux.HandleFunc("POST /api/v1/laporan", a.handleLaporan)
	mux.HandleFunc("GET /api/v1/laporan", a.handleRecentReports)
	mux.HandleFunc("GET /api/v1/spbu", a.handleListStations)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})

	handler := httpx.WrapServeMux(mux, notFound)
	handler = metricsx.Instrument(handler)
	handler = middleware.CORSMiddleware{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		MaxAge:         10 * time.Minute,
		Skip: func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics"
		},
	}.Wrap(handler)
	handler = httpx.WithTimeout(cfg.RequestTimeout, handler)
	handler = httpx.WithRequestID(handler)
	handler = httpx.WithRecover(logger, handler)
	handler = httpx.WithRequestLog(logger, httpx.RequestLogOptions{SkipPaths: map[string]bool{"/healthz": true, "/metrics": true}}, handler)

	server := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "service_start", "starting service",
			slog.String("addr", server.Addr),
			slog.Int("http_port", cfg.HTTPPort),
			slog.String("log_level", cfg.LogLevel),
			slog.Int("resync_interval_seconds", cfg.ResyncIntervalSec),
		)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(context.Background(), "shutdown_signal", "received signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "server_failed", "server failed",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(context.Background(), "shutdown_failed", "shutdown failed",
			slog.String("error_code", "INTERNAL_ERROR"),
			slog.String("error", err.Error()),
		)
	}
	if dbPool != nil {
		dbPool.Close()
	}
	logger.Info(context.Background(), "service_stop", "service stopped")
}

// runResyncLoop performs the initial rebuild and then one on every tick.
func runResyncLoop(ctx context.Context, engine *aggregate.Engine, interval time.Duration, logger logx.Logger) {
	if err := engine.Resync(ctx, aggregate.TriggerInitial); err != nil {
		logger.Error(ctx, "resync_failed", "initial resync failed",
			slog.String("error_code", "INTERNAL_ERROR"),
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := engine.Resync(ctx, aggregate.TriggerInterval); err != nil {
				logger.Error(ctx, "resync_failed", "interval resync failed",
					slog.String("error_code", "INTERNAL_ERROR"),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// runNotificationConsumer resyncs whenever a report event lands on the topic.
// The message body is deliberately ignored; the database is re-read instead.
func runNotificationConsumer(ctx context.Context, cfg config.Config, engine *aggregate.Engine, logger logx.Logger) {
	if len(cfg.KafkaBrokers) == 0 || cfg.KafkaGroupID == "" {
		logger.Warn(ctx, "kafka_disabled", "notification consumer disabled: brokers or group not configured")
		return
	}
	reader, err := mqx.NewConsumer(cfg, events.TopicLaporanAntrian, cfg.KafkaGroupID)
	if err != nil {
		logger.Error(ctx, "kafka_init_failed", "notification reader init failed",
			slog.String("error_code", "FAILED_PRECONDITION"),
			slog.String("error", err.Error()),
		)
		return
	}
	defer reader.Close()

	runConsumer(ctx, reader, cfg.KafkaGroupID, func(payload []byte) error {
		return engine.Resync(ctx, aggregate.TriggerEvent)
	}, logger)
}

func runConsumer(ctx context.Context, reader *kafka.Reader, groupID string, handler func([]byte) error, logger logx.Logger) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error(ctx, "kafka_fetch_failed", "failed to fetch message",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		_, span := otel.Tracer("mqx").Start(ctx, "kafka.consume")
		span.SetAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		)
		if err := handler(msg.Value); err != nil {
			span.End()
			logger.Error(ctx, "event_handle_failed", "failed to handle event",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			continue
		}
		span.End()
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "kafka_commit_failed", "failed to commit message",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
		}
		stats := reader.Stats()
		metricsx.SetKafkaLag(stats.Topic, groupID, stats.Lag)
	}
}
