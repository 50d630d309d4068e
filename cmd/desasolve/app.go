package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/isra2/desasolve/internal/api"
	"github.com/isra2/desasolve/internal/config"
	"github.com/isra2/desasolve/internal/handlers"
	"github.com/isra2/desasolve/internal/migrations"
	"github.com/isra2/desasolve/internal/services"
	"github.com/isra2/desasolve/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// App структура для управления приложением и его зависимостями.
type App struct {
	cfg    *config.Config
	logger *log.Logger
	dbPool *pgxpool.Pool
	echo   *echo.Echo

	quotes    *services.QuoteStore
	schedule  *services.ScheduleStore
	refresher *services.Refresher

	// Handlers
	quoteHandler   *handlers.QuoteHandler
	serviceHandler *handlers.ServiceHandler
	workerHandler  *handlers.WorkerHandler
	photoHandler   *handlers.PhotoHandler
}

// NewApp создаёт и инициализирует новое приложение.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: log.Default(),
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initDependencies(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	app.initServer()

	return app, nil
}

// initDatabase подключает PostgreSQL для бригады и присутствия, если он настроен.
func (app *App) initDatabase(ctx context.Context) error {
	if app.cfg.DatabaseURI == "" {
		log.Println("WARNING: DATABASE_URI is not configured. Worker attendance is disabled")
		return nil
	}

	// Применение миграций
	log.Println("Running database migrations...")
	sqlDB, err := sql.Open("pgx", app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to open database connection: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Run(sqlDB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, err := migrations.Version(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Printf("Migrations completed successfully, schema version %d", version)

	dbPool, err := pgxpool.New(ctx, app.cfg.DatabaseURI)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return fmt.Errorf("unable to ping database: %w", err)
	}

	app.dbPool = dbPool
	log.Println("Successfully connected to database")

	return nil
}

// initDependencies инициализирует клиент бэкенда, хранилища и обработчики.
func (app *App) initDependencies(ctx context.Context) error {
	client, err := api.NewHTTPClient(api.Config{
		BaseURL:        app.cfg.BackendURL,
		ConnectTimeout: app.cfg.ConnectTimeout,
		ReadTimeout:    app.cfg.ReadTimeout,
		WriteTimeout:   app.cfg.WriteTimeout,
		LogBodies:      app.cfg.LogHTTPBodies,
		Logger:         app.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	log.Printf("Using backend at %s", client.BaseURL())

	var opts []services.QuoteStoreOption
	if app.cfg.FallbackQuotesFile != "" && !app.cfg.IsProduction() {
		fallback, err := services.LoadFallbackFile(app.cfg.FallbackQuotesFile)
		if err != nil {
			return err
		}
		opts = append(opts, services.WithFallback(fallback))
		log.Printf("Fallback quotes loaded from %s", app.cfg.FallbackQuotesFile)
	}

	app.quotes = services.NewQuoteStore(client, app.logger, opts...)
	app.schedule = services.NewScheduleStore(client, app.logger)
	app.quoteHandler = handlers.NewQuoteHandler(app.quotes)
	app.serviceHandler = handlers.NewServiceHandler(app.schedule)

	app.refresher = services.NewRefresher(app.cfg.RefreshInterval, app.logger).
		Add("quotes", app.quotes.LoadQuotes).
		Add("services", app.schedule.LoadServices)

	if app.dbPool != nil {
		workerStorage := storage.NewPostgresWorkerStorage(app.dbPool)
		attendanceStorage := storage.NewPostgresAttendanceStorage(app.dbPool)
		app.workerHandler = handlers.NewWorkerHandler(services.NewAttendanceService(workerStorage, attendanceStorage))
	}

	if app.cfg.PhotosEnabled() {
		objects, err := storage.NewS3ObjectStore(ctx, storage.S3Config{
			Region:          app.cfg.AWSRegion,
			Bucket:          app.cfg.AWSS3Bucket,
			AccessKeyID:     app.cfg.AWSAccessKeyID,
			SecretAccessKey: app.cfg.AWSSecretAccessKey,
			Endpoint:        app.cfg.AWSS3Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize photo storage: %w", err)
		}
		app.photoHandler = handlers.NewPhotoHandler(services.NewPhotoService(objects))
		log.Printf("Photo storage initialized with bucket %s", app.cfg.AWSS3Bucket)
	} else {
		log.Println("WARNING: AWS_S3_BUCKET is not configured. Service photos are disabled")
	}

	return nil
}

// initServer инициализирует HTTP-сервер и настраивает маршруты.
func (app *App) initServer() {
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/events")
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	registerRoutes(e, app.quoteHandler, app.serviceHandler, app.workerHandler, app.photoHandler)

	app.echo = e
}

// registerRoutes регистрирует маршруты. Маршруты бригады и фото - только при настроенном хранилище.
func registerRoutes(e *echo.Echo, quotes *handlers.QuoteHandler, schedule *handlers.ServiceHandler, workers *handlers.WorkerHandler, photos *handlers.PhotoHandler) {
	g := e.Group("/api")
	g.GET("/health", handlers.Health)

	g.GET("/quotes", quotes.List)
	g.POST("/quotes", quotes.Create)
	g.POST("/quotes/refresh", quotes.Refresh)
	g.GET("/quotes/events", quotes.Events)
	g.POST("/quotes/:id/accept", quotes.Accept)
	g.POST("/quotes/:id/reject", quotes.Reject)

	g.GET("/services", schedule.List)
	g.POST("/services", schedule.Create)
	g.POST("/services/refresh", schedule.Refresh)
	g.PUT("/services/:id", schedule.Update)

	if workers != nil {
		g.GET("/workers", workers.List)
		g.POST("/workers", workers.Add)
		g.DELETE("/workers/:id", workers.Remove)
		g.GET("/attendance", workers.Daily)
		g.PUT("/attendance/:workerID", workers.Mark)
	}

	if photos != nil {
		g.GET("/services/:id/photos", photos.Get)
		g.PUT("/services/:id/photos/:kind", photos.Upload)
	}
}

// Start запускает фоновое обновление и сервер.
func (app *App) Start(ctx context.Context) error {
	log.Println("Starting refresher...")
	app.refresher.Start(ctx)

	log.Printf("Starting server on %s", app.cfg.RunAddress)
	if err := app.echo.Start(app.cfg.RunAddress); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped: %w", err)
	}

	return nil
}

// Shutdown корректно завершает работу приложения.
func (app *App) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")

	// Закрытие хранилищ завершает потоки событий, иначе Shutdown ждёт их до таймаута.
	// Поздние ответы бэкенда после Close отбрасываются.
	app.quotes.Close()
	app.schedule.Close()

	if err := app.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.dbPool != nil {
		app.dbPool.Close()
	}

	log.Println("Server gracefully stopped")
	return nil
}
