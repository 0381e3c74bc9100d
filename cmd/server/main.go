// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
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

	"golang.org/x/sync/errgroup"

	"changeflow/internal/audit"
	"changeflow/internal/audit/outbox"
	changehandler "changeflow/internal/change/handler"
	changemetrics "changeflow/internal/change/metrics"
	changeservice "changeflow/internal/change/service"
	changememory "changeflow/internal/change/store/memory"
	changepostgres "changeflow/internal/change/store/postgres"
	"changeflow/internal/identity"
	"changeflow/internal/platform/config"
	"changeflow/internal/platform/httpserver"
	"changeflow/internal/platform/kafka"
	"changeflow/internal/platform/logger"
	platformmetrics "changeflow/internal/platform/metrics"
	pgplatform "changeflow/internal/platform/postgres"
	redisplatform "changeflow/internal/platform/redis"
	"changeflow/internal/refdata"
	httptransport "changeflow/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		changeStore changeservice.Store
		auditStore  audit.Store
		refStore    refdata.Store
		userStore   identity.Store
		serviceOpts []changeservice.Option
		db          *sql.DB
	)
	health := map[string]httptransport.HealthCheck{}

	if cfg.Database.URL != "" {
		var err error
		db, err = pgplatform.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := pgplatform.Migrate(ctx, db); err != nil {
			return err
		}

		changeStore = changepostgres.New(db)
		auditStore = audit.NewPostgresStore(db)
		userStore = identity.NewPostgresStore(db)
		pgRef := refdata.NewPostgresStore(db)
		if err := pgRef.Seed(ctx); err != nil {
			return err
		}
		refStore = pgRef
		serviceOpts = append(serviceOpts, changeservice.WithChangeTx(changepostgres.NewTx(db)))
		health["postgres"] = db.PingContext
		log.Info("using postgres persistence")
	} else {
		changeStore = changememory.New()
		auditStore = audit.NewInMemoryStore()
		userStore = identity.NewInMemoryStore()
		refStore = refdata.NewSeededStore()
		log.Warn("DATABASE_URL not set, using in-memory persistence")
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		refStore = refdata.NewCachedStore(refStore, redisClient.Client)
		health["redis"] = redisClient.Health
		log.Info("reference data cache enabled")
	}

	recorder := audit.NewRecorder(auditStore, audit.WithLogger(log))
	users := identity.NewService(userStore, recorder, log)
	serviceOpts = append(serviceOpts,
		changeservice.WithLogger(log),
		changeservice.WithMetrics(changemetrics.New()),
	)
	changes := changeservice.New(changeStore, recorder, refdata.NewLookup(refStore), users, serviceOpts...)

	validator := identity.NewTokenValidator(cfg.Server.JWTSigningKey)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Changes:   changehandler.New(changes, users, recorder, log),
		Validator: validator,
		Logger:    log,
		Health:    health,
		Metrics:   platformmetrics.NewHTTP(),
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting changeflow", "addr", cfg.Server.Addr)
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

	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			return err
		}
		defer producer.Close()

		relay := outbox.NewRelay(db, producer, log, outbox.WithInterval(cfg.Kafka.RelayInterval))
		g.Go(func() error {
			log.Info("starting audit outbox relay", "topic", cfg.Kafka.Topic)
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
