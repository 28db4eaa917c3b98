package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ordersystem/internal/app/customers"
	"ordersystem/internal/app/orders"
	"ordersystem/internal/app/payments"
	"ordersystem/internal/config"
	"ordersystem/internal/domain"
	"ordersystem/internal/handler/http/router"
	kafka_handler "ordersystem/internal/handler/kafka"
	"ordersystem/internal/infrastructure/database"
	kafka_infra "ordersystem/internal/infrastructure/kafka"
	"ordersystem/internal/logger"
	"ordersystem/internal/notify"
	"ordersystem/internal/outbox"
	"ordersystem/internal/repository"
	"ordersystem/internal/repository/customers_repo"
	postgres_customers_repo "ordersystem/internal/repository/customers_repo/postgres"
	"ordersystem/internal/repository/inbox_repo"
	postgres_inbox_repo "ordersystem/internal/repository/inbox_repo/postgres"
	"ordersystem/internal/repository/memory"
	"ordersystem/internal/repository/order_repo"
	postgres_order_repo "ordersystem/internal/repository/order_repo/postgres"
	"ordersystem/internal/repository/outbox_repo"
	postgres_outbox_repo "ordersystem/internal/repository/outbox_repo/postgres"
	"ordersystem/internal/repository/payments_repo"
	postgres_payments_repo "ordersystem/internal/repository/payments_repo/postgres"
)

const shutdownTimeout = 30 * time.Second

type storage struct {
	uow       repository.UnitOfWork
	customers customers_repo.CustomerRepository
	orders    order_repo.OrderRepository
	payments  payments_repo.PaymentRepository
	outbox    outbox_repo.OutboxRepository
	inbox     inbox_repo.InboxRepository
	close     func() error
}

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, outbox processor and payment result consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			appLogger, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer appLogger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, skipMigrations, appLogger)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, skipMigrations bool, appLogger *zap.Logger) error {
	appLogger.Info("Order system starting...", zap.String("storage", cfg.StorageDriver))

	store, err := openStorage(ctx, cfg, skipMigrations, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			appLogger.Error("Error closing storage", zap.Error(err))
		}
	}()

	topics := outbox.Topics{Orders: cfg.KafkaOrderEventsTopic, Payments: cfg.KafkaPaymentEventsTopic}
	events := outbox.NewWriter(store.outbox, topics)

	policy := domain.ReserveApproved
	if cfg.PaymentReservePending {
		policy = domain.ReserveApprovedAndPending
	}

	customerService := customers.NewCustomerService(store.uow, store.customers,
		appLogger.With(zap.String("component", "CustomerService")))
	orderService := orders.NewOrderService(store.uow, store.orders, store.customers, events,
		appLogger.With(zap.String("component", "OrderService")))
	paymentService := payments.NewPaymentService(store.uow, store.orders, store.payments, store.inbox, events,
		domain.NewReconciler(policy), appLogger.With(zap.String("component", "PaymentService")))

	publishers := notify.FanOut{notify.NewLogPublisher(appLogger.With(zap.String("component", "Notifier")))}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.KafkaEnabled {
		brokers := cfg.GetKafkaBrokers()
		if err := kafka_infra.EnsureTopics(ctx, brokers, []string{
			cfg.KafkaOrderEventsTopic,
			cfg.KafkaPaymentEventsTopic,
			cfg.KafkaPaymentResultTopic,
		}, appLogger); err != nil {
			appLogger.Warn("Could not ensure Kafka topics", zap.Error(err))
		}

		producer := kafka_infra.NewProducer(brokers, appLogger.With(zap.String("component", "KafkaProducer")))
		defer func() {
			if err := producer.Close(); err != nil {
				appLogger.Error("Error closing Kafka producer", zap.Error(err))
			}
		}()
		publishers = append(publishers, producer)

		resultHandler := kafka_handler.NewPaymentResultConsumer(paymentService,
			appLogger.With(zap.String("component", "PaymentResultConsumer")))
		consumer := kafka_infra.NewConsumer(brokers, cfg.KafkaPaymentResultTopic, cfg.KafkaConsumerGroup,
			resultHandler.HandleMessage, appLogger.With(zap.String("component", "KafkaConsumer")))
		g.Go(func() error {
			defer consumer.Close() //nolint:errcheck
			return consumer.Consume(gctx)
		})
		appLogger.Info("Kafka payment result consumer started", zap.String("topic", cfg.KafkaPaymentResultTopic))
	}

	processor := outbox.NewProcessor(store.uow, store.outbox, publishers, outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		PollTimeout:  cfg.OutboxPollTimeout,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,

		PublishOutsideTx: cfg.StorageDriver == config.StorageDriverMemory,
	}, appLogger.With(zap.String("component", "OutboxProcessor")))
	g.Go(func() error { return processor.Start(gctx) })

	handler := router.NewRouter(router.Services{
		Customers: customerService,
		Orders:    orderService,
		Payments:  paymentService,
	}, router.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: 30 * time.Second,
	}, appLogger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		appLogger.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down order system...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Order system stopped with error", zap.Error(err))
		return err
	}
	appLogger.Info("Order system stopped.")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, skipMigrations bool, l *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		l.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			uow:       store,
			customers: store.Customers(),
			orders:    store.Orders(),
			payments:  store.Payments(),
			outbox:    store.Outbox(),
			inbox:     store.Inbox(),
			close:     func() error { return nil },
		}, nil
	}

	db, err := database.ConnectWithRetry(ctx, database.DBConfig{
		Host:     cfg.DBConfig.DBHost,
		Port:     cfg.DBConfig.DBPort,
		User:     cfg.DBConfig.DBUser,
		Password: cfg.DBConfig.DBPassword,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.DBSSLMode,
	}, cfg.DBConnectRetries, cfg.DBConnectRetryDelay, l)
	if err != nil {
		return nil, err
	}

	if !skipMigrations {
		if err := migrateUp(cfg, l); err != nil {
			closeDB(db, l)
			return nil, err
		}
	}

	return &storage{
		uow:       database.NewTxManager(db, cfg.DBTxRetries, l.With(zap.String("component", "TxManager"))),
		customers: postgres_customers_repo.NewCustomerRepository(db),
		orders:    postgres_order_repo.NewOrderRepository(db),
		payments:  postgres_payments_repo.NewPaymentRepository(db),
		outbox:    postgres_outbox_repo.NewOutboxRepository(db),
		inbox:     postgres_inbox_repo.NewInboxRepository(db),
		close:     db.Close,
	}, nil
}

func closeDB(db *sql.DB, l *zap.Logger) {
	if err := db.Close(); err != nil {
		l.Error("Error closing database connection", zap.Error(err))
	}
}
