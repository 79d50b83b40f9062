package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/skyglow/internal/config"
	"github.com/woozymasta/skyglow/internal/logger"
	"github.com/woozymasta/skyglow/internal/server"
	"github.com/woozymasta/skyglow/internal/service"
	"github.com/woozymasta/skyglow/internal/tilecache"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"     env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"     env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	Dataset    string `short:"d" long:"dataset"  env:"DATASET_PATH"   description:"Override the GeoTIFF path from the config"`
	Land       string `short:"l" long:"land"     env:"LAND_PATH"      description:"Override the land geometry path from the config"`
	RedisAddr  string `short:"r" long:"redis"    env:"REDIS_ADDR"     description:"Override the Redis tile cache address"`
	Warmup     bool   `short:"w" long:"warmup"   env:"WARMUP"         description:"Open the dataset and land mask before serving"`
	NoConfig   bool   `long:"no-config"          env:"NO_CONFIG"      description:"Run with built-in defaults, ignoring the config file"`
}

func main() {
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg := config.Default()
	if !opts.NoConfig {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}
	if opts.Dataset != "" {
		cfg.Dataset = opts.Dataset
	}
	if opts.Land != "" {
		cfg.Land = opts.Land
	}
	if opts.RedisAddr != "" {
		cfg.Redis.Addr = opts.RedisAddr
	}

	var remote tilecache.Store
	if client := tilecache.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
		store := tilecache.NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL)
		defer func() { _ = store.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := store.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unreachable, remote tile cache reads will miss")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis tile cache connected")
		}
		cancel()
		remote = store
	}

	svc, err := service.FromConfig(cfg, remote)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service")
	}

	if opts.Warmup || cfg.Warmup {
		if err := svc.Warm(); err != nil {
			log.Warn().Err(err).Msg("Warmup incomplete, resources will load on first request")
		}
	}

	srvCtx, err := server.NewServerContext(svc, cfg.HTTP, cfg.Tiles.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server context")
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("dataset", cfg.Dataset).
		Str("land", cfg.Land).
		Int("max_zoom", cfg.Tiles.MaxZoom).
		Bool("redis", remote != nil).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}
