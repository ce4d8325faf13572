// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	router "membership-service/internal/api"
	"membership-service/internal/api/handler"
	"membership-service/internal/config"
	"membership-service/internal/repository"
	"membership-service/internal/repository/sqlrepo"
	"membership-service/internal/service"
	"membership-service/internal/util"
	"membership-service/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config   *config.AppConfig
	Logger   zerolog.Logger
	DB       *sqlx.DB
	Registry *prometheus.Registry

	SessionFactory *db.SessionFactory

	// Repositories
	AccountRepository  repository.AccountRepository
	MemberRepository   repository.MemberRepository
	LocationRepository repository.LocationRepository

	// Services
	AccountService  service.AccountService
	MemberService   service.MemberService
	LocationService service.LocationService

	// HTTP API
	HTTPHandler http.Handler
	Server      *http.Server
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// InitializeDatabase loads the configuration, sets up logging and connects to
// the database. It is all the migrate command needs.
func (app *Application) InitializeDatabase(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	app.Logger = util.InitLogger(cfg.Log.Level, cfg.Log.Pretty)
	app.Logger.Info().Str("driver", cfg.Database.Driver).Msg("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.Open(ctx, cfg.Database.DBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info().Msg("Database connection established.")
	return nil
}

// Migrate applies pending schema migrations and returns the resulting version.
func (app *Application) Migrate(ctx context.Context) (int64, error) {
	if app.DB == nil {
		return 0, errors.New("migrate: database is not initialized")
	}
	version, err := db.Migrate(ctx, app.DB, app.Logger)
	if err != nil {
		return 0, fmt.Errorf("failed to migrate database: %w", err)
	}
	app.Logger.Info().Int64("version", version).Msg("Database schema is up to date.")
	return version, nil
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	if err := app.InitializeDatabase(ctx); err != nil {
		return err
	}
	cfg := app.Config

	// 4. Apply Migrations
	if cfg.Database.MigrateOnStart {
		if _, err := app.Migrate(ctx); err != nil {
			return err
		}
	}

	isolation, err := cfg.Database.IsolationLevel()
	if err != nil {
		return fmt.Errorf("failed to parse isolation level: %w", err)
	}

	// 5. Metrics and Session Factory
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(app.DB.DB, cfg.Database.Driver),
	)
	metrics, err := db.NewMetrics(app.Registry)
	if err != nil {
		return fmt.Errorf("failed to register database metrics: %w", err)
	}
	app.SessionFactory = db.NewSessionFactory(app.DB, app.Logger, metrics)

	// 6. Initialize Repositories
	app.AccountRepository = sqlrepo.NewAccountRepository()
	app.MemberRepository = sqlrepo.NewMemberRepository()
	app.LocationRepository = sqlrepo.NewLocationRepository()
	app.Logger.Info().Msg("Repositories initialized.")

	// 7. Initialize Services
	app.AccountService = service.NewAccountService(app.SessionFactory, isolation, app.AccountRepository, app.MemberRepository)
	app.MemberService = service.NewMemberService(app.SessionFactory, isolation, app.AccountRepository, app.MemberRepository)
	app.LocationService = service.NewLocationService(app.SessionFactory, isolation, app.LocationRepository)
	app.Logger.Info().Str("isolation", isolation.String()).Msg("Services initialized.")

	// 8. Initialize HTTP Handlers and Router
	handlers := router.Handlers{
		Accounts:  handler.NewAccountHandler(app.AccountService, app.MemberService, app.Logger),
		Members:   handler.NewMemberHandler(app.MemberService, app.Logger),
		Locations: handler.NewLocationHandler(app.LocationService, app.Logger),
	}
	app.HTTPHandler, err = router.NewRouter(handlers, app.SessionFactory, app.Registry, cfg.Server.RequestTimeout, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	app.Server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.HTTPHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	app.Logger.Info().Msg("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error().Err(err).Msg("Failed to close database connection")
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info().Msg("Database connection closed.")
	}
	app.Logger.Info().Msg("Application shut down gracefully.")
	return nil
}
