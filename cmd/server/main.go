package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docbuilder/internal/config"
	"docbuilder/internal/handler"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := handler.NewRateLimiter(
		container.Config.GetRateLimitRPS(),
		container.Config.GetRateLimitBurst(),
	)
	go limiter.Run(ctx)
	go container.Sessions.Run(ctx, time.Minute)

	// Handlers
	routes := handler.Routes{
		Templates: handler.NewTemplateHandler(
			container.Storage,
			container.Exporter,
			container.Render,
			container.Share,
			container.Logger,
		),
		Sessions: handler.NewSessionHandler(
			container.Sessions,
			container.Exporter,
			container.Render,
			container.Logger,
		),
		Integration: handler.NewIntegrationHandler(
			container.Integration,
			container.Logger,
		),
		Metrics: container.Metrics.Handler(),
		Middleware: []mux.MiddlewareFunc{
			container.Metrics.Middleware,
			handler.RequestLogger(container.Logger),
			limiter.Middleware,
		},
		AllowedOrigins: container.Config.GetAllowedOrigins(),
		Logger:         container.Logger,
	}
	if container.Sync != nil {
		routes.Sync = handler.NewSyncHandler(container.Sync, container.Logger)
	}

	// start server
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           handler.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
	}

	container.Logger.Info("Server exited")
}
