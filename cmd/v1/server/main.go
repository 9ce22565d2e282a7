package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/coup-arena/backend/go/internal/v1/config"
	"github.com/coup-arena/backend/go/internal/v1/health"
	"github.com/coup-arena/backend/go/internal/v1/lobby"
	"github.com/coup-arena/backend/go/internal/v1/logging"
	"github.com/coup-arena/backend/go/internal/v1/middleware"
	"github.com/coup-arena/backend/go/internal/v1/ratelimit"
	"github.com/coup-arena/backend/go/internal/v1/tracing"
)

func main() {
	// Load .env file for local development. Try a couple of paths to handle
	// different ways of running the binary.
	for _, path := range []string{".env", "../../../.env"} {
		if err := godotenv.Load(path); err == nil {
			slog.Info("Loaded environment from", "path", path)
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("Invalid environment", "error", err)
		os.Exit(1)
	}

	development := cfg.GoEnv == "development"
	if err := logging.Initialize(development); err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	// --- Tracing (optional) ---
	if cfg.OTelCollectorAddr != "" {
		tp, err := tracing.InitTracer(ctx, "coup-backend", cfg.OTelCollectorAddr)
		if err != nil {
			logging.Error(ctx, "Failed to initialize tracing", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logging.Error(shutdownCtx, "Failed to shut down tracer provider", zap.Error(err))
			}
		}()
	}

	// --- Hub & Rate Limiter ---
	hub := lobby.NewHub(cfg.RoomIdleTTL)
	defer hub.Close()

	limiter, err := ratelimit.NewRateLimiter(cfg)
	if err != nil {
		logging.Fatal(ctx, "Failed to create rate limiter", zap.Error(err))
	}

	// --- Set up Server ---
	if !development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestMetrics())
	if cfg.OTelCollectorAddr != "" {
		router.Use(otelgin.Middleware("coup-backend"))
	}

	// Cors: the display clients are thin browsers/desktop shells polling
	// from anywhere, so the surface is permissive by default.
	corsConfig := cors.DefaultConfig()
	origins := cfg.Origins()
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	router.Use(cors.New(corsConfig))

	// Routing
	api := router.Group("/", limiter.Middleware())
	{
		api.GET("/state", hub.HandleState)
		api.POST("/action", hub.HandleAction)
		api.POST("/quit", hub.HandleQuit)
	}
	router.POST("/matchmake", limiter.MatchmakeMiddleware(), hub.HandleMatchmake)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check endpoints
	healthHandler := health.NewHandler(hub)
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// --- Graceful Shutdown ---
	go func() {
		logging.Info(ctx, "Coup server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "Failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "Shutting down server...")

	// In-flight requests get five seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logging.Info(ctx, "Server exiting")
}
