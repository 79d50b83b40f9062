package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/skyglow/internal/config"
	"github.com/woozymasta/skyglow/internal/logger"
	"github.com/woozymasta/skyglow/internal/processor"
	"github.com/woozymasta/skyglow/internal/raster/geotiff"
	"github.com/woozymasta/skyglow/internal/render"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	NoConfig    bool   `long:"no-config"             env:"NO_CONFIG"   description:"Use built-in defaults, ignoring the config file"`
	Dataset     string `short:"d" long:"dataset"     env:"DATASET_PATH" description:"Override the GeoTIFF path from the config"`
	Out         string `short:"o" long:"out"         env:"TILES_OUT"   description:"Output directory for tiles" default:"lightmap-tiles"`
	Format      string `short:"f" long:"format"      env:"TILES_FORMAT" description:"Tile format, defaults to the configured one" choice:"png" choice:"webp"`
	MinZoom     int    `long:"min-zoom"              env:"MIN_ZOOM"    description:"Minimum zoom level" default:"0"`
	MaxZoom     int    `long:"max-zoom"              env:"MAX_ZOOM"    description:"Maximum zoom level" default:"8"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"8"`
	Force       bool   `long:"force"                 description:"Force overwrite of existing files"`
	SkipEmpty   bool   `short:"s" long:"skip-empty"  description:"Do not write tiles outside the dataset"`
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

	opts.Logger.Setup()

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
	if opts.Format == "" {
		opts.Format = cfg.Tiles.Format
	}

	mapper, err := cfg.Gradient.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid gradient")
	}
	enc, err := render.EncoderFor(opts.Format)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid tile format")
	}

	ds, err := geotiff.Open(cfg.Dataset, geotiff.Options{BlockCache: cfg.Raster.BlockCache})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open dataset")
	}
	defer func() { _ = ds.Close() }()

	gen, err := processor.NewGenerator(ds, render.New(mapper, cfg.Tiles.Size), enc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare generator")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := gen.Pyramid(ctx, processor.Options{
		OutDir:      opts.Out,
		MinZoom:     opts.MinZoom,
		MaxZoom:     opts.MaxZoom,
		Concurrency: opts.Concurrency,
		Force:       opts.Force,
		SkipEmpty:   opts.SkipEmpty,
	})
	if err != nil {
		log.Error().Err(err).Int64("written", stats.Written).Msg("Tile generation incomplete")
		stop()
		os.Exit(1)
	}

	log.Info().Msg("Tile generation finished successfully")
}
