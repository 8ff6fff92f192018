package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	api "pinserve/internal/adapters/primary/http"
	"pinserve/internal/adapters/secondary/board/boltboard"
	"pinserve/internal/adapters/secondary/board/folderboard"
	"pinserve/internal/adapters/secondary/board/pgboard"
	"pinserve/internal/adapters/secondary/codec/gobcodec"
	"pinserve/internal/config"
	ports "pinserve/internal/core/ports/output"
	"pinserve/internal/core/services"

	// Registers the built-in predictor types with the gob codec.
	_ "pinserve/internal/mock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	board, cleanup, err := openBoard(cfg)
	if err != nil {
		log.Fatalf("open board: %v", err)
	}
	defer cleanup()

	packager := services.NewPackager(board, gobcodec.New())

	model, err := packager.Read(context.Background(), cfg.Model.Name, cfg.Model.Version)
	if err != nil {
		log.Fatalf("read pin %q: %v", cfg.Model.Name, err)
	}
	log.WithFields(log.Fields{
		"name":    model.Name(),
		"version": model.Metadata().Version,
	}).Info("model loaded")

	opts := []api.Option{api.WithAddress(cfg.Server.Host, cfg.Server.Port)}
	if !cfg.Serving.Strict {
		opts = append(opts, api.WithoutValidation())
	}
	srv, err := api.New(model, opts...)
	if err != nil {
		log.Fatalf("build serving api: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Info("server stopped")
}

func openBoard(cfg *config.Config) (ports.Board, func(), error) {
	noop := func() {}
	switch cfg.Board.Backend {
	case "folder":
		b, err := folderboard.New(cfg.Board.Path,
			folderboard.WithUnsafeSerialization(cfg.Board.AllowUnsafe))
		return b, noop, err
	case "bolt":
		b, err := boltboard.Open(cfg.Board.Path,
			boltboard.WithUnsafeSerialization(cfg.Board.AllowUnsafe))
		if err != nil {
			return nil, noop, err
		}
		return b, func() { _ = b.Close() }, nil
	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.Board.DSN)
		if err != nil {
			return nil, noop, err
		}
		if err := pool.Ping(context.Background()); err != nil {
			pool.Close()
			return nil, noop, err
		}
		b := pgboard.New(pool, pgboard.WithUnsafeSerialization(cfg.Board.AllowUnsafe))
		return b, pool.Close, nil
	default:
		return nil, noop, os.ErrInvalid
	}
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
