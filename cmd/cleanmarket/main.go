package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	appavailability "cleanmarket/internal/app/availability"
	"cleanmarket/internal/app/idempotency"
	"cleanmarket/internal/app/lifecycle"
	appoutbox "cleanmarket/internal/app/outbox"
	appreliability "cleanmarket/internal/app/reliability"
	"cleanmarket/internal/app/uow"
	"cleanmarket/internal/infra/broker/kafka"
	"cleanmarket/internal/infra/config"
	mongostore "cleanmarket/internal/infra/db/mongo"
	ginserver "cleanmarket/internal/infra/http/gin"
	"cleanmarket/internal/infra/lock/redislock"
	"cleanmarket/internal/infra/obs"
	"cleanmarket/internal/infra/outbox"
	"cleanmarket/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(getenv("APP_ENV", "dev")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	fixturesPath := getenv("WORKER_FIXTURES", "")
	if fixturesPath == "" {
		fixturesPath = defaultWorkerFixturesPath()
	}
	if err := loadWorkerFixtures(ctx, fixturesPath, app.seed, logger); err != nil {
		logger.Warn("worker fixtures load failed", "error", err, "path", fixturesPath)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})
	for _, run := range app.background {
		run := run
		g.Go(func() error {
			if err := run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
		app.close(logger)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	health     obs.HealthHandlers
	background []func(ctx context.Context) error
	closers    []func(ctx context.Context) error
	seed       fixtureStore
}

func (a *application) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close runs closers in reverse order once.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}

type storage struct {
	units       uow.UoWFactory
	box         appoutbox.Outbox
	relay       outbox.Store
	idempotency idempotency.Store
	inbox       kafka.Inbox
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}, Timeout: 2 * time.Second}}

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		app.onClose(func(context.Context) error { return producer.Close() })
	}

	var (
		st     storage
		scorer *appreliability.Scorer
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.onClose(client.Close)
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := mongostore.NewOutboxStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		inbox, err := mongostore.NewInboxStore(ctx, client.DB, cfg.KafkaConsumerGroup)
		if err != nil {
			return nil, fmt.Errorf("mongo inbox: %w", err)
		}
		st = storage{units: mongostore.NewFactory(client.DB), box: box, relay: box, idempotency: idem, inbox: inbox}
		scorer = appreliability.NewScorer(st.units, logger, nil, cfg.RescoreConcurrency)
		app.seed = fixtureStore{
			workers:      mongostore.NewWorkerRepository(client.DB),
			availability: mongostore.NewAvailabilityRepository(client.DB),
		}
		app.health.Checks["mongo"] = client.Ping
	default:
		store := memory.NewStore()
		units := store.Factory()
		scorer = appreliability.NewScorer(units, logger, nil, cfg.RescoreConcurrency)
		st = storage{
			units:       units,
			box:         memory.NewOutbox(memorySink(producer, scorer, cfg.KafkaTopicPrefix, logger)),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			inbox:       memory.NewInbox(),
		}
		app.seed = fixtureStore{workers: store.Workers, availability: store.Availability}
	}

	var locker uow.SlotLocker = memory.NewSlotLocker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		app.onClose(func(context.Context) error { return rdb.Close() })
		redisLocker := redislock.New(rdb, logger, redislock.WithTTL(cfg.SlotLockTTL))
		app.health.Checks["redis"] = redisLocker.Ping
		locker = redisLocker
	}

	if st.relay != nil {
		var relayTo outbox.Producer = localProducer{events: scorer}
		if producer != nil {
			relayTo = producer
		}
		worker := &outbox.Worker{
			Store:       st.relay,
			Producer:    relayTo,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger.With("component", "outbox"),
		}
		app.background = append(app.background, worker.Run)
	}

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil, kafka.RescoringHandler{
			Events: scorer,
			Inbox:  st.inbox,
			Logger: logger.With("component", "rescoring"),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		app.onClose(func(context.Context) error { return consumer.Close() })
		topics := kafka.RescoringTopics(cfg.KafkaTopicPrefix)
		app.background = append(app.background, func(ctx context.Context) error {
			return consumer.Run(ctx, topics)
		})
	}

	if cfg.RescoreInterval > 0 {
		app.background = append(app.background, func(ctx context.Context) error {
			return runPeriodicRescore(ctx, scorer, cfg.RescoreInterval, logger)
		})
	}

	svc := lifecycle.NewService(lifecycle.Deps{
		Units:  st.units,
		Locker: locker,
		Outbox: st.box,
		Logger: logger,
	})
	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{Service: svc, Logger: logger},
		Worker: ginserver.WorkerHandler{
			Availability: appavailability.NewResolver(st.units, logger),
			Reliability:  scorer,
			Logger:       logger,
		},
		Geofence:    ginserver.GeofenceHandler{},
		Idempotency: ginserver.Idempotency(st.idempotency, logger),
	}
	return app, nil
}

// memorySink publishes flushed records to Kafka when a producer is configured
// and otherwise feeds them straight to the scorer.
func memorySink(producer *kafka.Producer, scorer *appreliability.Scorer, prefix string, logger *slog.Logger) memory.Sink {
	if producer == nil {
		return func(ctx context.Context, rec appoutbox.EventRecord) error {
			return scorer.HandleEvent(ctx, rec.Name, rec.Payload)
		}
	}
	return func(ctx context.Context, rec appoutbox.EventRecord) error {
		payload, headers, err := outbox.Wrap(rec, "")
		if err != nil {
			return err
		}
		topic := appoutbox.Topic(prefix, rec.Name)
		if err := producer.Publish(ctx, topic, rec.Aggregate, payload, headers); err != nil {
			logger.Warn("event publish failed", "topic", topic, "event_id", rec.ID, "error", err)
			return err
		}
		return nil
	}
}

// localProducer lets the relay deliver to the in-process scorer when no broker is configured.
type localProducer struct {
	events kafka.EventHandler
}

func (p localProducer) Publish(ctx context.Context, _ string, _ string, payload []byte, _ map[string]string) error {
	evt, err := outbox.Unwrap(payload)
	if err != nil {
		return err
	}
	return p.events.HandleEvent(ctx, evt.EventName(), evt.Data)
}

func runPeriodicRescore(ctx context.Context, scorer *appreliability.Scorer, every time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report, err := scorer.RecomputeAll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("periodic rescore failed", "error", err)
				continue
			}
			logger.Info("periodic rescore done", "scored", report.Scored, "changed", len(report.Changes), "failed", len(report.Failures))
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
