package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"appcontext/docs"
	"appcontext/internal/config"
	"appcontext/internal/database"
	handlers "appcontext/internal/http/handler"
	"appcontext/internal/http/middleware"
	"appcontext/internal/logging"
	"appcontext/internal/model"
	"appcontext/internal/otel"
	"appcontext/internal/repository/mongodb"
	"appcontext/internal/service"
	"appcontext/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title AppContext Sample API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logging.New(os.Stdout, logging.Location(cfg.TimeZone), cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logging.Component(log, "otel"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, err := database.ConnectFromProvider(ctx, config.EnvProvider{}, logging.Component(log, "database"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Export storage is optional; without it POST /samples/export answers 503
	var objStore storage.Storage
	if cfg.MinIO.Enabled() {
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO, logging.Component(log, "storage"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize object storage")
		}
	}

	sampleRepo := mongodb.NewRepository[model.Sample](db.Database())
	sampleSvc := service.NewSampleService(sampleRepo, objStore)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID(log))
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	app.Get(middleware.MetricsPath, middleware.MetricsHandler(reg))

	handlers.RegisterRoutes(app, db, sampleSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info().Str("event", "shutdown").Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}()

	addr := ":" + cfg.Port
	log.Info().Str("event", "listen").Str("addr", addr).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("failed to start server")
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := db.Disconnect(cleanupCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if err := shutdownTracing(cleanupCtx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
}
