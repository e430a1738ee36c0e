package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/floodcast/floodcast/internal/infrastructure/config"
	"github.com/floodcast/floodcast/internal/infrastructure/logger"
	"github.com/floodcast/floodcast/internal/infrastructure/monitoring"
	"github.com/floodcast/floodcast/internal/infrastructure/websocket"
)

func main() {
	// Parse command line flags
	var (
		port = flag.String("port", "", "Server port (overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Override port if provided via flag
	if *port != "" {
		cfg.Port = *port
	}

	// Setup logger
	log := logger.Setup(cfg.LogLevel)
	log.Info("starting floodcast simulation server",
		"version", "1.0.0",
		"port", cfg.Port,
	)

	// Session registry for connection tracking and shutdown
	registry := websocket.NewRegistry(log)
	go registry.Run()

	// Simulation lifecycle observers
	observers := monitoring.NewManager()
	observers.Register(monitoring.NewLogObserver())

	// WebSocket endpoint plus a health probe
	mux := http.NewServeMux()
	mux.Handle("/", websocket.NewHandler(registry, observers, log))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Setup HTTP server. Connections stay open for the life of a
	// simulation, so only the handshake read is bounded.
	httpServer := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...", "open_sessions", registry.Count())

	registry.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited gracefully")
}
