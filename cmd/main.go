package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"ltitool/clients/platform"
	"ltitool/config"
	"ltitool/db"
	"ltitool/handlers"
	"ltitool/middleware"
	"ltitool/services/grades"
	"ltitool/services/launches"
	"ltitool/services/memberships"
	"ltitool/services/platforms"
	"ltitool/services/registration"
	"ltitool/services/tokens"
	"ltitool/services/toolkeys"
	"ltitool/services/txmanager"
	"ltitool/services/users"
	"ltitool/usecases"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.AlertingConfig.WebhookURL,
		Environment: cfg.Environment,
		AppName:     "ltitool",
	})

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	platformsRepo := db.NewPostgresPlatformsRepository(dbConn, cfg.DatabaseSchema)
	toolKeysRepo := db.NewPostgresToolKeysRepository(dbConn, cfg.DatabaseSchema)
	launchStatesRepo := db.NewPostgresLaunchStatesRepository(dbConn, cfg.DatabaseSchema)
	launchesRepo := db.NewPostgresLaunchesRepository(dbConn, cfg.DatabaseSchema)
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	platformClient := platform.NewPlatformHTTPClient()

	platformsService := platforms.NewPlatformsService(platformsRepo)
	toolKeysService := toolkeys.NewToolKeysService(toolKeysRepo, txManager)
	launchesService := launches.NewLaunchesService(launchStatesRepo, launchesRepo)
	usersService := users.NewUsersService(usersRepo)
	tokensService := tokens.NewPlatformTokensService(platformClient, toolKeysService)
	gradesService := grades.NewGradesService(platformClient, tokensService)
	membershipsService := memberships.NewMembershipsService(platformClient, tokensService, gradesService)
	registrationService := registration.NewRegistrationService(
		platformClient,
		platformsService,
		txManager,
		cfg.ToolConfig,
	)

	// Make sure a signing key exists before the first launch or registration
	if err := ensureActiveToolKey(toolKeysService); err != nil {
		return err
	}

	ltiUseCase := usecases.NewLTIUseCase(
		platformsService,
		launchesService,
		toolKeysService,
		gradesService,
		membershipsService,
		platformClient,
		cfg.ToolConfig,
	)

	ltiHandler := handlers.NewLTIHTTPHandler(ltiUseCase, registrationService, toolKeysService, cfg.ToolConfig.Name)
	adminHandler := handlers.NewAdminHTTPHandler(platformsService, toolKeysService)
	authMiddleware := middleware.NewClerkAuthMiddleware(usersService, cfg.ClerkConfig.SecretKey)

	// Create a new router
	router := mux.NewRouter()

	// Setup endpoints with the new router
	ltiHandler.SetupEndpoints(router)
	adminHandler.SetupEndpoints(router, authMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Start periodic cleanup of expired login states and launches
	cleanupTicker := time.NewTicker(1 * time.Minute)
	go func() {
		for range cleanupTicker.C {
			_ = alertMiddleware.WrapBackgroundTask("CleanupExpiredLaunches", func() error {
				_, err := launchesService.CleanupExpired(context.Background())
				return err
			})()
		}
	}()
	defer cleanupTicker.Stop()

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func ensureActiveToolKey(toolKeysService *toolkeys.ToolKeysService) error {
	keyOpt, err := toolKeysService.GetActiveToolKey(context.Background())
	if err != nil {
		return err
	}
	if keyOpt.IsPresent() {
		return nil
	}

	log.Printf("🔑 No active tool key found, generating one")
	_, err = toolKeysService.GenerateToolKey(context.Background(), true)
	return err
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
