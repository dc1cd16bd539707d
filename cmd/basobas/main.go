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

	"github.com/redis/go-redis/v9"

	"basobas/internal/app/commands"
	bookingapp "basobas/internal/app/handlers/booking"
	listingapp "basobas/internal/app/handlers/listings"
	reviewapp "basobas/internal/app/handlers/reviews"
	"basobas/internal/app/middleware"
	appoutbox "basobas/internal/app/outbox"
	"basobas/internal/app/policies"
	"basobas/internal/app/queries"
	authsvc "basobas/internal/app/services/auth"
	"basobas/internal/app/uow"
	domainauth "basobas/internal/domain/auth"
	"basobas/internal/domain/user"
	"basobas/internal/infra/broker/kafka"
	"basobas/internal/infra/config"
	mongodb "basobas/internal/infra/db/mongo"
	ginserver "basobas/internal/infra/http/gin"
	"basobas/internal/infra/notify"
	"basobas/internal/infra/obs"
	outboxinfra "basobas/internal/infra/outbox"
	"basobas/internal/infra/payments"
	"basobas/internal/infra/security"
	"basobas/internal/infra/storage/memory"
	redisstore "basobas/internal/infra/storage/redis"
	"basobas/internal/infra/storage/s3"
	"basobas/internal/infra/sweep"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, runner := range app.runners {
		r := runner
		go func() {
			if err := r.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background runner stopped", "name", r.name, "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type runner struct {
	name string
	run  func(ctx context.Context) error
}

type application struct {
	handlers ginserver.Handlers
	runners  []runner
	ready    func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory uow.Factory
		box        appoutbox.Outbox
		idStore    middleware.IdempotencyStore
		users      user.Repository
		sessions   domainauth.SessionStore
		ready      = func() error { return nil }
		runners    []runner
		counters   *redisstore.NotificationCounters
	)

	var redisClient *redis.Client
	if cfg.StorageMode == "mongo" {
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		uowFactory = mongodb.Factory{
			DB:           client.DB,
			ListingsRepo: mongodb.NewListingRepository(client.DB),
			BookingRepo:  mongodb.NewBookingRepository(client.DB),
			ReviewsRepo:  mongodb.NewReviewRepository(client.DB),
		}
		users = mongodb.NewUserRepository(client.DB)
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		outboxStore := outboxinfra.NewStore(client.DB)
		box = outboxStore
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		sessions = redisstore.NewSessionStore(redisClient)
		counters = redisstore.NewNotificationCounters(redisClient)

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker := &outboxinfra.Worker{
				Store:       outboxStore,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			runners = append(runners, runner{name: "outbox-worker", run: worker.Run})

			relay := &notify.Relay{
				Topics:  []string{cfg.KafkaTopicPrefix + "booking.events.v1"},
				Counter: counters,
				Logger:  logger,
			}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "basobas-notify", nil, relay.Handle)
			if err != nil {
				return application{}, err
			}
			relay.Source = consumer
			runners = append(runners, runner{name: "notify-relay", run: relay.Run})
		}
	} else {
		uowFactory = memory.Factory{
			ListingsRepo: memory.NewListingRepository(),
			BookingRepo:  memory.NewBookingRepository(),
			ReviewsRepo:  memory.NewReviewsRepository(),
		}
		users = memory.NewUserRepository()
		sessions = memory.NewSessionStore()
		idStore = memory.NewIdempotencyStore()
		box = memory.NewOutbox()
	}

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Hasher:     security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		PendingTTL: cfg.BookingPendingTTL,
	})
	commands.RegisterHandler(commandBus, bookingapp.DecideBookingCommand{}.Key(), &bookingapp.DecideBookingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ExpirePendingCommand{}.Key(), &bookingapp.ExpirePendingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.RecordPaymentCommand{}.Key(), &bookingapp.RecordPaymentHandler{
		UoWFactory: uowFactory,
		Gateways:   paymentGateways(cfg),
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.PublishListingCommand{}.Key(), &listingapp.PublishListingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.UpdateListingCommand{}.Key(), &listingapp.UpdateListingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.RemoveListingCommand{}.Key(), &listingapp.RemoveListingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.SetLockCommand{}.Key(), &listingapp.SetLockHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, listingapp.AttachPhotoCommand{}.Key(), &listingapp.AttachPhotoHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, reviewapp.SubmitReviewCommand{}.Key(), &reviewapp.SubmitReviewHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListUserBookingsQuery{}.Key(), &bookingapp.ListUserBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListOwnerBookingsQuery{}.Key(), &bookingapp.ListOwnerBookingsHandler{UoWFactory: uowFactory, Logger: logger})
	queries.RegisterHandler(queryBus, listingapp.SearchListingsQuery{}.Key(), &listingapp.SearchListingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingapp.GetListingOverviewQuery{}.Key(), &listingapp.GetListingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingapp.OwnerListingsQuery{}.Key(), &listingapp.OwnerListingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, reviewapp.ListReviewsQuery{}.Key(), &reviewapp.ListReviewsHandler{UoWFactory: uowFactory})

	pipeline := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(box),
	)
	queryPipeline := middleware.ChainQueries(queryBus)

	sweeper := &sweep.Sweeper{
		Bus:      pipeline,
		Interval: cfg.SweepInterval,
		Batch:    cfg.SweepBatch,
		Logger:   logger,
	}
	runners = append(runners, runner{name: "expiry-sweeper", run: sweeper.Run})

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("s3 unavailable, photo uploads disabled", "error", err)
		} else {
			uploader = client
		}
	}

	handlers := ginserver.Handlers{
		Auth:    ginserver.AuthHandler{Service: authService, Logger: logger},
		Booking: ginserver.BookingHandler{Commands: pipeline, Queries: queryPipeline, Logger: logger},
		Listing: ginserver.ListingHandler{Queries: queryPipeline, Logger: logger},
		Owner: ginserver.OwnerHandler{
			Commands: pipeline,
			Queries:  queryPipeline,
			Uploader: uploader,
			Logger:   logger,
		},
		Admin:          ginserver.AdminHandler{Commands: pipeline, Logger: logger},
		Review:         ginserver.ReviewHandler{Commands: pipeline, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	if counters != nil {
		handlers.Notifications = ginserver.NotificationHandler{Counters: counters, Logger: logger}
	}

	return application{handlers: handlers, runners: runners, ready: ready}, nil
}

func paymentGateways(cfg config.Config) map[string]policies.PaymentGateway {
	return map[string]policies.PaymentGateway{
		"esewa": &payments.Esewa{VerifyURL: cfg.EsewaVerifyURL},
		"khalti": &payments.Khalti{
			LookupURL: cfg.KhaltiVerifyURL,
			SecretKey: cfg.KhaltiSecretKey,
		},
	}
}
