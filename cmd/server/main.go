package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tourlink/server/internal/config"
	"github.com/tourlink/server/internal/handlers"
	custommw "github.com/tourlink/server/internal/middleware"
	"github.com/tourlink/server/internal/observability"
	"github.com/tourlink/server/internal/repository"
	"github.com/tourlink/server/internal/services"
)

const serviceVersion = "1.0.0"

// noopSender reports every message delivered without contacting a
// provider. Used when push is disabled in development.
type noopSender struct{}

func (noopSender) SendBatch(ctx context.Context, batch []services.PushMessage) ([]services.DeliveryTicket, error) {
	tickets := make([]services.DeliveryTicket, 0, len(batch))
	for _, msg := range batch {
		tickets = append(tickets, services.DeliveryTicket{Token: msg.Token, OK: true})
	}
	return tickets, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize telemetry
	telemetry, err := observability.Initialize(context.Background(),
		observability.NewConfig("tourlink-server", serviceVersion))
	if err != nil {
		log.Printf("Warning: telemetry init failed: %v", err)
	}

	// Initialize database
	var db *sql.DB
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL database: %v", err)
		}
	} else {
		log.Println("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite database: %v", err)
		}
	}
	defer db.Close()

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	tourRepo := repository.NewTourRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	principalRepo := repository.NewPrincipalRepository(db)

	// Services
	limiter := services.NewRateLimiter(services.DefaultSweepInterval)
	defer limiter.Stop()

	verifier := services.NewBroadcastVerifier(principalRepo)

	var sender services.PushSender
	if cfg.Push.Enabled {
		pushService, err := services.NewPushService(cfg.Push.CredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize push service: %v", err)
		}
		sender = pushService
	} else {
		log.Println("Push delivery disabled, events will only reach live clients")
		sender = noopSender{}
	}

	hub := services.NewEventHub()
	go hub.Run()

	fanoutCfg := services.DefaultFanoutConfig()
	fanoutCfg.ChatBudget = services.RateBudget{Max: cfg.Fanout.ChatMaxPerMinute, Window: time.Minute}
	fanoutCfg.ScheduleBudget = services.RateBudget{
		Max:    cfg.Fanout.ScheduleMaxPerWindow,
		Window: time.Duration(cfg.Fanout.ScheduleWindowMinutes) * time.Minute,
	}
	fanoutCfg.BodyLimit = cfg.Fanout.BodyLimit
	fanout := services.NewFanoutService(participantRepo, deviceRepo, verifier, limiter, sender, hub, fanoutCfg)

	adminService := services.NewAdminService(tourRepo, bookingRepo, participantRepo, principalRepo)

	if cfg.Bootstrap.StaffEmail != "" {
		name := cfg.Bootstrap.StaffName
		if name == "" {
			name = "Operations"
		}
		key, err := adminService.EnsureBootstrapStaff(context.Background(),
			cfg.Bootstrap.StaffEmail, name, cfg.Bootstrap.StaffPassword)
		if err != nil {
			log.Fatalf("Failed to bootstrap staff principal: %v", err)
		}
		if key != "" {
			log.Printf("Bootstrap staff API key (shown once): %s", key)
		}
	}

	loginService := services.NewLoginService(bookingRepo, tourRepo, limiter, services.LoginConfig{
		PreVerifyToken: cfg.Security.PreVerifyToken,
		Budget: services.RateBudget{
			Max:    cfg.Login.MaxAttempts,
			Window: time.Duration(cfg.Login.WindowMinutes) * time.Minute,
		},
	})

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	loginHandler := handlers.NewLoginHandler(loginService)
	notifyHandler := handlers.NewNotifyHandler(fanout)
	deviceHandler := handlers.NewDeviceHandler(deviceRepo)
	adminHandler := handlers.NewAdminHandler(adminService)
	wsHandler := handlers.NewWebSocketHandler(hub, bookingRepo, participantRepo, principalRepo, cfg.Security.APIKeyHeader)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware("tourlink-server"))
	if httpMetrics, err := observability.NewHTTPMetrics(); err == nil {
		r.Use(observability.MetricsMiddleware(httpMetrics))
	}
	r.Use(custommw.PrincipalAPIKeyAuth(principalRepo, cfg.Security.APIKeyHeader, []string{
		"/health",
		"/api/health",
		"/api/auth/login",
		"/api/auth/staff",
		"/api/notify",
	}))

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)

	r.Post("/api/auth/login", loginHandler.Login)
	r.Post("/api/auth/staff", adminHandler.StaffLogin)

	// The notify trigger presents the shared key, not a principal key
	r.Route("/api/notify", func(r chi.Router) {
		r.Use(custommw.APIKeyAuth(cfg.Security.APIKey, cfg.Security.APIKeyHeader))
		r.Post("/", notifyHandler.Notify)
	})

	r.Route("/api/devices", func(r chi.Router) {
		r.Post("/register", deviceHandler.RegisterDevice)
		r.Get("/", deviceHandler.ListDevices)
		r.Put("/{id}/token", deviceHandler.UpdateToken)
		r.Put("/{id}/notifications", deviceHandler.UpdateNotifications)
		r.Delete("/{id}", deviceHandler.DeactivateDevice)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/tours", adminHandler.CreateTour)
		r.Post("/tours/{id}/itinerary", adminHandler.AddItineraryItem)
		r.Put("/tours/{id}/driver", adminHandler.SetDriverInfo)
		r.Post("/tours/{id}/participants", adminHandler.AddParticipant)
		r.Post("/bookings", adminHandler.CreateBooking)
		r.Get("/bookings/{reference}", adminHandler.GetBooking)
		r.Post("/principals", adminHandler.CreatePrincipal)
	})

	r.Get("/ws", wsHandler.HandleConnection)

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("TourLink Server starting on %s", cfg.ServerAddress)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(ctx); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}

	log.Println("Server stopped")
}
