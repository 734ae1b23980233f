package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "modernc.org/sqlite"

	"tenderwatch/internal/core"
	"tenderwatch/internal/features/tenders"
	"tenderwatch/internal/features/tenders/adapters"
)

type Server struct {
	config     *core.Config
	logger     *slog.Logger
	coreLogger *core.Logger
	db         *sql.DB
	registry   *core.Registry
	server     *http.Server
}

func New(logger *slog.Logger) *Server {
	// Load configuration
	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	dbPath := config.Database.Path
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		os.Exit(1)
	}

	// Initialize core components
	coreLogger := core.NewLogger()
	coreDB := core.NewDatabase(db, coreLogger)
	registry := core.NewRegistry(coreLogger)

	// Register source adapters. Site-specific scrapers plug in here.
	adapterRegistry := adapters.NewRegistry()
	if err := adapterRegistry.Register("httpjson", adapters.NewHTTPJSONAdapter(30*time.Second, "Tenderwatch/1.0")); err != nil {
		logger.Error("Failed to register adapter", "error", err)
		os.Exit(1)
	}

	// Initialize tender feature if enabled
	if config.IsFeatureEnabled("tenders") {
		tendersFeature, err := tenders.NewFeature(coreLogger, coreDB, adapterRegistry, tenders.NewConfig(config))
		if err != nil {
			logger.Error("Failed to create tenders feature", "error", err)
			os.Exit(1)
		}
		if err := registry.Register(tendersFeature); err != nil {
			logger.Error("Failed to register tenders feature", "error", err)
			os.Exit(1)
		}
	}

	srv := &Server{
		config:     config,
		logger:     logger,
		coreLogger: coreLogger,
		db:         db,
		registry:   registry,
	}

	// Setup routes
	srv.setupRoutes()

	return srv
}

func (s *Server) setupRoutes() {
	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)

	// Health check
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	// Feature routes - use the registry to get all feature routes
	routes := s.registry.GetAllRoutes()
	for _, route := range routes {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	// Create HTTP server
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler: mux,
	}
}

func (s *Server) Start() error {
	// Initialize all features
	ctx := context.Background()
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}

	// Start HTTP server
	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	// Shutdown all features
	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
