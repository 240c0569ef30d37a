package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"escena/internal/claims/handler"
	claimmetrics "escena/internal/claims/metrics"
	claimsservice "escena/internal/claims/service"
	claimsstore "escena/internal/claims/store"
	jwttoken "escena/internal/jwt_token"
	"escena/internal/notification"
	"escena/internal/platform/config"
	"escena/internal/platform/database"
	"escena/internal/platform/httpserver"
	"escena/internal/platform/kafka"
	"escena/internal/platform/logger"
	"escena/internal/platform/metrics"
	"escena/internal/platform/redis"
	"escena/pkg/platform/audit"
	"escena/pkg/platform/audit/publisher"
	auditkafka "escena/pkg/platform/audit/store/kafka"
	auditmemory "escena/pkg/platform/audit/store/memory"
	auditpostgres "escena/pkg/platform/audit/store/postgres"
	"escena/pkg/platform/httputil"
	"escena/pkg/platform/middleware/request"
	"escena/pkg/platform/middleware/requesttime"
)

const auditBufferSize = 256

// main wires the claim workflow onto whatever backends are configured. Each
// backend is optional: without DATABASE_URL stores live in memory, without
// REDIS_URL notifications are not deduplicated, without KAFKA_BROKERS audit
// events stay in process and without SMTP_HOST emails are only logged.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	checks := healthChecks{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}

	store, txOpt, err := buildStore(ctx, cfg, db, log)
	if err != nil {
		return err
	}

	auditPublisher, closeAudit, err := buildAudit(ctx, cfg, db, log, checks)
	if err != nil {
		return err
	}
	defer closeAudit()

	gateway, closeGateway, err := buildGateway(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeGateway()

	opts := []claimsservice.Option{
		claimsservice.WithLogger(log),
		claimsservice.WithNotifier(gateway),
		claimsservice.WithAuditPublisher(auditPublisher),
		claimsservice.WithMetrics(claimmetrics.New(prometheus.DefaultRegisterer)),
	}
	if txOpt != nil {
		opts = append(opts, txOpt)
	}
	svc, err := claimsservice.New(store, opts...)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	httpMetrics := metrics.NewHTTP(prometheus.DefaultRegisterer)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)
	r.Get("/healthz", checks.handler())
	r.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log, jwtService.Validator()).Register(r)

	srv := httpserver.New(cfg.Addr, r, log)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting escena", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildStore picks Postgres when a database is configured and otherwise seeds
// an in-memory store with demo data.
func buildStore(ctx context.Context, cfg config.Server, db *sql.DB, log *slog.Logger) (claimsservice.Store, claimsservice.Option, error) {
	if db == nil {
		mem := claimsstore.NewInMemory()
		demo, err := claimsstore.SeedDemo(ctx, mem, time.Now().UTC())
		if err != nil {
			return nil, nil, err
		}
		log.Info("using in-memory store with demo data",
			"admin_id", demo.Admin.ID.String(),
			"user_id", demo.Fan.ID.String(),
		)
		return mem, nil, nil
	}

	if cfg.Database.Migrate {
		if err := claimsstore.Migrate(ctx, db); err != nil {
			return nil, nil, err
		}
		log.Info("database schema applied")
	}
	return claimsstore.NewPostgres(db), claimsservice.WithStoreTx(newClaimsPostgresTx(db, cfg.TxTimeout)), nil
}

// buildAudit streams audit events to Kafka when brokers are configured, then
// falls back to the audit_events table and finally to process memory.
func buildAudit(ctx context.Context, cfg config.Server, db *sql.DB, log *slog.Logger, checks healthChecks) (*publisher.Publisher, func(), error) {
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}

	var (
		store   audit.Store
		closeFn = func() {}
	)
	switch {
	case producer != nil:
		checks["kafka"] = producer.Health
		store = auditkafka.New(producer)
		closeFn = producer.Close
	case db != nil:
		if cfg.Database.Migrate {
			if err := auditpostgres.Migrate(ctx, db); err != nil {
				return nil, nil, err
			}
		}
		store = auditpostgres.New(db)
	default:
		return publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(log)), closeFn, nil
	}

	p := publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	return p, func() {
		p.Close()
		closeFn()
	}, nil
}

func buildGateway(ctx context.Context, cfg config.Server, log *slog.Logger, checks healthChecks) (*notification.Gateway, func(), error) {
	var mailer notification.Mailer = notification.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		mailer = notification.NewSMTPMailer(cfg.SMTP)
	}

	opts := []notification.Option{notification.WithLogger(log)}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if client != nil {
		opts = append(opts, notification.WithDeduper(notification.NewRedisDeduper(client.Client, cfg.Redis.DedupeTTL)))
		checks["redis"] = client.Health
		closeFn = func() { _ = client.Close() }
	}
	return notification.NewGateway(mailer, opts...), closeFn, nil
}

// healthChecks maps a backend name to its ping.
type healthChecks map[string]func(context.Context) error

func (c healthChecks) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range c {
			if err := check(r.Context()); err != nil {
				status[name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}
