package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/trek-booking-system/internal/auth"
	"github.com/fairyhunter13/trek-booking-system/internal/config"
	"github.com/fairyhunter13/trek-booking-system/internal/handler"
	"github.com/fairyhunter13/trek-booking-system/internal/notify"
	"github.com/fairyhunter13/trek-booking-system/internal/repository"
	"github.com/fairyhunter13/trek-booking-system/internal/service"
	"github.com/fairyhunter13/trek-booking-system/internal/validator"
	"github.com/fairyhunter13/trek-booking-system/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.DB.MigrateOnStart {
		if err := database.Migrate(cfg.DB.MigrationDSN()); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Notifications go to the broker when one is configured, otherwise to the log
	var (
		sender notify.Notifier = notify.NewLogNotifier()
		broker *notify.AMQPNotifier
	)
	if cfg.Notify.AMQPURL != "" {
		broker, err = notify.NewAMQPNotifier(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to notification broker")
		}
		sender = broker
	}
	dispatcher := notify.NewDispatcher(sender, notify.DispatcherOptions{
		QueueSize: cfg.Notify.QueueSize,
		Workers:   cfg.Notify.Workers,
		Timeout:   time.Duration(cfg.Notify.Timeout) * time.Second,
	})

	// Layered components
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	voucherRepo := repository.NewVoucherRepository(pool)

	voucherService := service.NewVoucherService(voucherRepo)
	reconciler := service.NewReconciler(pool, slotRepo, bookingRepo)
	slotService := service.NewSlotService(pool, slotRepo, bookingRepo)
	bookingService := service.NewBookingService(pool, slotRepo, bookingRepo, voucherService, reconciler, dispatcher,
		service.BookingOptions{
			MaxParticipants: cfg.Booking.MaxParticipants,
			Admission:       service.AdmissionMode(cfg.Booking.Admission),
		})

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		service.NewSweeper(reconciler, cfg.Reconcile.IntervalDuration(), cfg.Reconcile.TimeoutDuration()).Run(sweepCtx)
	}()

	validate := validator.New()
	sessions := auth.NewJWTSessions(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Minute)

	healthHandler := handler.NewHealthHandler(pool)
	if broker != nil {
		healthHandler.WithCheck("broker", broker)
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Trek Booking System",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(handler.RequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	app.Use(auth.Authenticate(sessions))

	registerRoutes(app, routes{
		health:   healthHandler,
		slots:    handler.NewSlotHandler(slotService, validate),
		bookings: handler.NewBookingHandler(bookingService, validate),
		sync:     handler.NewSyncHandler(reconciler, validate),
		vouchers: handler.NewVoucherHandler(voucherService, validate),
	})

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("admission", cfg.Booking.Admission).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	stopSweeper()
	<-sweeperDone

	// Drain queued notifications before the broker connection goes away
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notification queue not drained before shutdown")
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing notification broker")
		}
	}

	// Close database pool last
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("server stopped")
}

type routes struct {
	health   *handler.HealthHandler
	slots    *handler.SlotHandler
	bookings *handler.BookingHandler
	sync     *handler.SyncHandler
	vouchers *handler.VoucherHandler
}

func registerRoutes(app *fiber.App, r routes) {
	app.Get("/health", r.health.Check)

	api := app.Group("/api")

	// Public availability
	api.Get("/slots", r.slots.ListSlots)
	api.Get("/slots/:id", r.slots.GetSlot)
	api.Post("/vouchers/validate", r.vouchers.ValidateVoucher)

	// Slot administration
	api.Post("/slots", auth.RequireAdmin(), r.slots.CreateSlot)
	api.Patch("/slots/:id", auth.RequireAdmin(), r.slots.UpdateSlot)
	api.Delete("/slots/:id", auth.RequireAdmin(), r.slots.DeleteSlot)

	// Bookings
	bookings := api.Group("/bookings", auth.RequireSession())
	bookings.Post("/", r.bookings.CreateBooking)
	bookings.Get("/", r.bookings.ListBookings)
	bookings.Get("/:id", r.bookings.GetBooking)
	bookings.Patch("/:id", r.bookings.UpdateBooking)

	// Back office
	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Post("/slots/generate", r.slots.GenerateSlots)
	admin.Post("/slots/sync", r.sync.Sync)
	admin.Get("/slots/sync", r.sync.Audit)
	admin.Post("/vouchers", r.vouchers.CreateVoucher)
	admin.Get("/vouchers", r.vouchers.ListVouchers)
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
