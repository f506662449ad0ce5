// Command server runs the TIPA membership API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tipa/internal/bootstrap"
	"tipa/internal/config"
	"tipa/internal/middleware"
	"tipa/internal/observability"
	"tipa/internal/server"
)

// @title TIPA API
// @version 1.0
// @description Membership, forum, events and resources API for the TIPA membership association.

// @contact.name TIPA Board
// @contact.email board@tipa.example.org

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider's access token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "tipa-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		middleware.Logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), time.Minute)
	db, rdb, err := bootstrap.InitRuntime(initCtx, cfg, bootstrap.Options{ApplySchema: true})
	cancelInit()
	if err != nil {
		middleware.Logger.Error("Failed to initialize runtime", "error", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg, db, rdb)
	if err != nil {
		middleware.Logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		middleware.Logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			middleware.Logger.Error("Server shutdown error", "error", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			middleware.Logger.Error("Tracing shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		middleware.Logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
