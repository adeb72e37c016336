// Copyright (c) 2025 Transcendence Inc. All Rights Reserved.
// This is licensed software from Transcendence Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/thetranscendence/matchmaking/pkg/clients"
	"github.com/thetranscendence/matchmaking/pkg/config"
	"github.com/thetranscendence/matchmaking/pkg/matchmaking"
	"github.com/thetranscendence/matchmaking/pkg/metrics"
	"github.com/thetranscendence/matchmaking/pkg/notifier"
	"github.com/thetranscendence/matchmaking/pkg/storage"
	"github.com/thetranscendence/matchmaking/pkg/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment variables")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		logrus.Fatalf("failed to parse config: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	penalties := storage.NewPenalties(db)
	sessions := storage.NewSessions(db)

	gameClient := clients.NewGameClient(cfg.GameServiceURL, cfg.GameClientTimeout())
	usersClient := clients.NewUsersClient(cfg.UserServiceURL, cfg.GameClientTimeout())

	registry := prometheus.NewRegistry()
	mmMetrics := metrics.NewMetrics(registry)
	gameClient.SetFallbackHook(mmMetrics.AddGameClientFallback)

	service := matchmaking.NewService(cfg, penalties, sessions, gameClient, notifier.Nop{}, mmMetrics)

	hub := ws.NewHub()
	go hub.Run()
	service.SetNotifier(hub)

	gateway := ws.NewGateway(hub, service, usersClient, ws.NewTokenVerifier(cfg.JWTSecret))

	service.Start()
	defer service.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gateway.ServeWS)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/matchmaking/queue", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.QueueStats())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      cors.Default().Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.WithField("address", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server forced to shutdown: %v", err)
	}

	logrus.Info("server exited")
}
