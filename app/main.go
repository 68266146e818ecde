package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierroma/go-rakis/app/config"
	"github.com/xavierroma/go-rakis/app/fsys"
	"github.com/xavierroma/go-rakis/app/request"
	"github.com/xavierroma/go-rakis/app/response"
	"github.com/xavierroma/go-rakis/app/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "rakis:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	logger.Info().
		Str("addr", cfg.BindAddr).
		Str("default_index", cfg.DefaultIndex).
		Str("not_found_page", cfg.NotFoundPage).
		Str("doc_root", cfg.DocRoot).
		Msg("starting")

	parser, err := request.NewParser(&cfg, fsys.OS{})
	if err != nil {
		return err
	}
	resolver := response.NewResolver(&cfg, fsys.OS{}, logger)
	srv := server.NewServer(&cfg, parser, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info().Msg("stopped")
	return nil
}

// loadConfig layers defaults, the optional YAML file and explicitly set
// flags, in that order.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("rakis", flag.ContinueOnError)
	var (
		path      = fs.String("config", "", "path to a YAML config file")
		addr      = fs.String("addr", "", "address to listen on")
		root      = fs.String("root", "", "document root")
		index     = fs.String("index", "", "file served for /")
		notFound  = fs.String("notfound", "", "page served with 404, relative to the document root unless absolute")
		logLevel  = fs.String("log-level", "", "debug, info, warn or error")
		logFormat = fs.String("log-format", "", "console or json")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *path != "" {
		var err error
		if cfg, err = config.Load(*path); err != nil {
			return cfg, err
		}
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.BindAddr, *addr)
	override(&cfg.DocRoot, *root)
	override(&cfg.DefaultIndex, *index)
	override(&cfg.NotFoundPage, *notFound)
	override(&cfg.LogLevel, *logLevel)
	override(&cfg.LogFormat, *logFormat)

	return cfg.Finalize()
}

func newLogger(cfg config.Config, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	switch cfg.LogFormat {
	case "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
