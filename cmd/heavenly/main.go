package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"heavenly/internal/app/commands"
	availabilityapp "heavenly/internal/app/handlers/availability"
	bookingapp "heavenly/internal/app/handlers/booking"
	paymentsapp "heavenly/internal/app/handlers/payments"
	"heavenly/internal/app/middleware"
	appoutbox "heavenly/internal/app/outbox"
	"heavenly/internal/app/queries"
	"heavenly/internal/app/uow"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/infra/broker/kafka"
	"heavenly/internal/infra/config"
	"heavenly/internal/infra/db/mysql"
	ginserver "heavenly/internal/infra/http/gin"
	"heavenly/internal/infra/obs"
	relayoutbox "heavenly/internal/infra/outbox"
	"heavenly/internal/infra/security"
	"heavenly/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.StorageMode == "memory" {
		if err := app.loadPropertyFixtures(ctx, getenv("PROPERTY_FIXTURES", ""), logger); err != nil {
			logger.Warn("property fixtures load failed", "error", err)
		}
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

type application struct {
	handlers   ginserver.Handlers
	ready      func() error
	uowFactory uow.UoWFactory
	properties domainproperty.Repository
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory uow.UoWFactory
		outboxPort appoutbox.Outbox
		properties domainproperty.Repository
		ready      = func() error { return nil }
	)

	switch cfg.StorageMode {
	case "mysql":
		db, err := mysql.Open(cfg.MySQLDSN)
		if err != nil {
			return application{}, err
		}
		factory := mysql.Factory{DB: db}
		store := mysql.NewOutboxStore(db)
		uowFactory = factory
		outboxPort = store
		ready = func() error { return mysql.Ping(db) }
		properties = propertyGateway{factory: factory}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka producer: %w", err)
			}
			worker := &relayoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
			go func() {
				defer producer.Close()
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			}()
		} else {
			logger.Warn("no kafka brokers configured, outbox rows will accumulate unsent")
		}
	default:
		factory := memory.NewFactory()
		uowFactory = factory
		outboxPort = memory.NewOutbox()
		properties = factory.PropertiesRepo
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateStatusCommand{}.Key(), &bookingapp.UpdateStatusHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, availabilityapp.CreateIntervalCommand{}.Key(), &availabilityapp.CreateIntervalHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, availabilityapp.CreateBatchCommand{}.Key(), &availabilityapp.CreateBatchHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, availabilityapp.UpdateIntervalCommand{}.Key(), &availabilityapp.UpdateIntervalHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, availabilityapp.DeleteIntervalCommand{}.Key(), &availabilityapp.DeleteIntervalHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, paymentsapp.ProcessPaymentCommand{}.Key(), &paymentsapp.ProcessPaymentHandler{
		UoWFactory: uowFactory, Outbox: outboxPort, Encoder: encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListMyBookingsQuery{}.Key(), &bookingapp.ListMyBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListPropertyBookingsQuery{}.Key(), &bookingapp.ListPropertyBookingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.CheckAvailabilityQuery{}.Key(), &bookingapp.CheckAvailabilityHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.AvailabilityGridQuery{}.Key(), &bookingapp.AvailabilityGridHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ValidateBookingQuery{}.Key(), &bookingapp.ValidateBookingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, availabilityapp.GetPropertyCalendarQuery{}.Key(), &availabilityapp.GetPropertyCalendarHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, paymentsapp.ListBookingPaymentsQuery{}.Key(), &paymentsapp.ListBookingPaymentsHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxPort),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMW := ginserver.AuthMiddleware{
		Resolver: security.NewStaticResolver(cfg.AuthTokens),
		Logger:   logger,
	}

	return application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Availability: ginserver.AvailabilityHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Payment: ginserver.PaymentHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			AuthMiddleware: authMW.Handle,
		},
		ready:      ready,
		uowFactory: uowFactory,
		properties: properties,
	}, nil
}

// propertyGateway adapts the transactional factory into a standalone
// repository for fixture-style seeding paths.
type propertyGateway struct {
	factory mysql.Factory
}

func (g propertyGateway) ByID(ctx context.Context, id int64) (*domainproperty.Property, error) {
	unit, err := g.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	return unit.Properties().ByID(ctx, id)
}

func (g propertyGateway) OwnedBy(ctx context.Context, id int64, region int32, ownerID int64) (*domainproperty.Property, error) {
	unit, err := g.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	return unit.Properties().OwnedBy(ctx, id, region, ownerID)
}

func (g propertyGateway) Save(ctx context.Context, p *domainproperty.Property) error {
	unit, err := g.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := unit.Properties().Save(ctx, p); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}

type propertyFixture struct {
	ID               int64 `json:"id"`
	Region           int32 `json:"region_id"`
	OwnerID          int64 `json:"owner_id"`
	NightlyRateCents int64 `json:"nightly_rate_cents"`
	MaxAdults        int   `json:"max_adults"`
	MaxChildren      int   `json:"max_children"`
	MaxInfants       int   `json:"max_infants"`
	MaxPets          int   `json:"max_pets"`
	Active           bool  `json:"active"`
}

func (a application) loadPropertyFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	for _, fx := range fixtures {
		if err := a.properties.Save(ctx, &domainproperty.Property{
			ID:               fx.ID,
			Region:           fx.Region,
			OwnerID:          fx.OwnerID,
			NightlyRateCents: fx.NightlyRateCents,
			MaxAdults:        fx.MaxAdults,
			MaxChildren:      fx.MaxChildren,
			MaxInfants:       fx.MaxInfants,
			MaxPets:          fx.MaxPets,
			Active:           fx.Active,
		}); err != nil {
			return fmt.Errorf("seed property %d: %w", fx.ID, err)
		}
	}
	logger.Info("property fixtures loaded", "count", len(fixtures))
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
