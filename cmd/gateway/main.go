package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/scaleops-io/incident-gateway/pkg/ai"
	"github.com/scaleops-io/incident-gateway/pkg/api"
	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/notify"
	"github.com/scaleops-io/incident-gateway/pkg/scaler"
	"github.com/scaleops-io/incident-gateway/pkg/services"
	"github.com/scaleops-io/incident-gateway/pkg/store"
)

// @title Incident Gateway API
// @version 1.0
// @description API for AI-assisted incident detection and auto-scaling
// @BasePath /api

func main() {
	// Configure Log Level from Environment Variable
	logLevelStr := os.Getenv("LOG_LEVEL")
	switch strings.ToLower(logLevelStr) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.Infof("Log level set to: %s", logrus.GetLevel().String())

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Set up the history store when enabled
	var history store.StoreClient
	if cfg.Timeplus.Enabled {
		client, err := store.NewClient(&cfg.Timeplus)
		if err != nil {
			logrus.Fatalf("Failed to create history store client: %v", err)
		}
		if err := client.SetupStreams(ctx); err != nil {
			logrus.Warnf("Failed to set up history streams: %v", err)
		}
		history = client
		defer client.Close()
	} else {
		logrus.Info("History store disabled, incidents are kept in memory only")
	}

	// Build the analyzer chain: AI when configured, heuristic as fallback
	heuristic := ai.NewHeuristicAnalyzer()
	var analyzer ai.Analyzer = heuristic
	if cfg.OpenAI.Enabled {
		openaiAnalyzer, err := ai.NewOpenAIAnalyzer(&cfg.OpenAI)
		if err != nil {
			logrus.Warnf("AI analyzer unavailable, using heuristic rules only: %v", err)
		} else {
			analyzer = ai.NewFallbackAnalyzer(openaiAnalyzer, heuristic)
			logrus.Infof("AI analyzer enabled (model: %s)", cfg.OpenAI.Model)
		}
	}

	// Notifier
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notifier.Enabled && cfg.Notifier.WebhookURL != "" {
		notifier = notify.NewSlackNotifier(&cfg.Notifier)
		logrus.Infof("Chat notifications enabled (channel: %s)", cfg.Notifier.Channel)
	}

	// Scaling trigger: remote function when configured, local group otherwise
	var trigger scaler.Trigger
	if cfg.Scaler.TriggerURL != "" {
		trigger = scaler.NewHTTPTrigger(cfg.Scaler.TriggerURL)
		logrus.Infof("Scaling trigger: %s", cfg.Scaler.TriggerURL)
	} else {
		trigger = scaler.NewLocalTrigger(scaler.NewGroup(&cfg.Scaler))
		logrus.Info("No scaling trigger URL configured, using local capacity simulation")
	}

	incidentService := services.NewIncidentService(analyzer, notifier, trigger, history, cfg.Detection)

	// Set up the Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// API routes
	apiHandler := api.NewAPIHandler(incidentService)
	apiHandler.SetupRoutes(e)

	// Swagger documentation
	e.GET("/swagger/*", echo.WrapHandler(httpSwagger.Handler()))

	// Create HTTP server
	// Use PORT environment variable if available, otherwise use config
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logrus.Infof("Starting incident gateway on port %s", port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}
