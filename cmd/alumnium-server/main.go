// Package main provides the entry point for the Alumnium server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sudoCommit/alumnium/internal/cache"
	"github.com/sudoCommit/alumnium/internal/config"
	"github.com/sudoCommit/alumnium/internal/logging"
	"github.com/sudoCommit/alumnium/internal/server"
	"github.com/sudoCommit/alumnium/internal/session"
	"github.com/sudoCommit/alumnium/pkg/types"
)

var (
	port    = flag.Int("port", 0, "Server port (overrides ALUMNIUM_PORT)")
	version = flag.Bool("version", false, "Print version and exit")
)

const Version = "0.1.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("alumnium-server %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: logging.ParseLevel(cfg.LogLevel)})
	log := logging.Component("main")

	opts := session.Options{PromptDir: cfg.PromptDir}
	if cfg.CacheRedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.CacheRedisAddr,
			Password: cfg.CacheRedisPassword,
			DB:       cfg.CacheRedisDB,
		})
		opts.CacheStoreFor = func(m types.Model) cache.Store {
			return cache.NewRedisStore(client, m.String())
		}
		log.Info().Str("addr", cfg.CacheRedisAddr).Msg("cache backing store enabled")
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Port
	if *port != 0 {
		serverConfig.Port = *port
	}

	srv := server.New(serverConfig, session.NewManager(opts), cfg.Model)

	go func() {
		log.Info().Int("port", serverConfig.Port).Str("model", cfg.Model.String()).Msg("starting Alumnium server")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
