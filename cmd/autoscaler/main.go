package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/scaleops-io/incident-gateway/pkg/config"
	"github.com/scaleops-io/incident-gateway/pkg/models"
	"github.com/scaleops-io/incident-gateway/pkg/scaler"
)

// The autoscaler binary stands in for the cloud scaling function during
// local development: same request/response contract, same capacity rules,
// no cloud account required.
func main() {
	port := flag.String("port", "9000", "port to listen on")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	group := scaler.NewGroup(&cfg.Scaler)

	r := mux.NewRouter()

	r.HandleFunc("/scale", func(w http.ResponseWriter, req *http.Request) {
		var scaleReq models.ScaleRequest
		if err := json.NewDecoder(req.Body).Decode(&scaleReq); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid JSON body"})
			return
		}

		logrus.Infof("Scale request: action=%s type=%s severity=%s confidence=%d",
			scaleReq.Action, scaleReq.AlertType, scaleReq.Severity, scaleReq.AIConfidence)

		result := group.Apply(&scaleReq)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}).Methods(http.MethodPost)

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(group.Status())
	}).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         ":" + *port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logrus.Infof("Starting autoscaler stub on port %s (group: %s, capacity %d-%d)",
			*port, cfg.Scaler.GroupName, cfg.Scaler.MinCapacity, cfg.Scaler.MaxCapacity)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down autoscaler...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}
}
