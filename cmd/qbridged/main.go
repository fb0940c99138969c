package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/perclft/QuantumBridge/backends"
	"github.com/perclft/QuantumBridge/config"
	"github.com/perclft/QuantumBridge/credentials"
	"github.com/perclft/QuantumBridge/dispatch"
	"github.com/perclft/QuantumBridge/library"
	"github.com/perclft/QuantumBridge/metrics"
	"github.com/perclft/QuantumBridge/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	registry := backends.DefaultRegistry()
	credStore := credentials.NewStore()
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// Result cache is optional; a dead redis just disables it.
	var cache *dispatch.ResultCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("⚠️ Redis unreachable at %s, result cache disabled: %v", cfg.RedisAddr, err)
		} else {
			cache = dispatch.NewResultCache(rdb, cfg.ResultCacheTTL.Std(), logger)
			log.Printf("💾 Result cache enabled (redis %s, TTL %v)", cfg.RedisAddr, cfg.ResultCacheTTL.Std())
		}
	}

	// The circuit library is optional too, but a configured DSN that does
	// not work is a deployment mistake worth failing on.
	var lib *library.Store
	if cfg.PostgresDSN != "" {
		lib, err = library.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to open circuit library: %v", err)
		}
		defer lib.Close()
		log.Println("🗄️ Circuit library enabled")
	}

	orchestrator := dispatch.NewOrchestrator(registry, credentials.NewResolver(credStore), dispatch.Options{
		Cache:          cache,
		Metrics:        collector,
		AttemptTimeout: cfg.AttemptTimeout.Std(),
		Logger:         logger,
	})

	mux := http.NewServeMux()
	server.New(orchestrator, registry, credStore, lib, cfg.MaxShots, logger).Routes(mux)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		log.Printf("⚡ QuantumBridge gateway starting on %s (%d backends)", cfg.ListenAddr, len(registry.List()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	credStore.Clear()
	log.Println("✅ Goodbye")
}
