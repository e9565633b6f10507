package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gogpu/gg"

	"github.com/inamate/sketchboard/internal/clipboard"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/db"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/storage"
	"github.com/inamate/sketchboard/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	gg.SetLogger(slog.Default())

	ctx := context.Background()

	var store storage.Store = storage.NewMemory()
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		pg := storage.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		store = pg
	}
	defer store.Close()

	var clip clipboard.Clipboard
	if sys, err := clipboard.NewSystem(); err == nil {
		clip = sys
	} else {
		slog.Warn("falling back to in-process clipboard", "error", err)
		clip = clipboard.NewMemory()
	}

	eng := engine.New(cfg, store, clip)
	defer eng.Close()
	if err := eng.Load(ctx); err != nil {
		slog.Error("load board", "error", err)
		os.Exit(1)
	}

	ui.Run(eng, cfg.FrameRate)
}
