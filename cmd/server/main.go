package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/gg"
	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/api"
	"github.com/inamate/sketchboard/internal/asset"
	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/clipboard"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/db"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/export"
	mw "github.com/inamate/sketchboard/internal/middleware"
	"github.com/inamate/sketchboard/internal/session"
	"github.com/inamate/sketchboard/internal/storage"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := auth.HashPassword(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	gg.SetLogger(slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store storage.Store
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
	} else {
		slog.Warn("DATABASE_URL not set, the board lives in memory only")
		store = storage.NewMemory()
	}
	defer store.Close()

	eng := engine.New(cfg, store, clipboard.NewMemory())
	defer eng.Close()
	if err := eng.Load(ctx); err != nil {
		slog.Error("load board", "error", err)
		os.Exit(1)
	}

	hub := session.NewHub(eng, cfg.FrameRate)
	go hub.Run()

	authService := auth.NewService(cfg.AccessPasswordHash, cfg.JWTSecret)
	if !authService.Enabled() {
		slog.Warn("ACCESS_PASSWORD_HASH not set, authentication is disabled")
	}
	authHandler := auth.NewHandler(authService)
	apiHandler := api.NewHandler(hub)
	assetHandler := asset.NewHandler(hub)
	exportHandler := export.NewHandler(hub)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/status", authHandler.Status).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(authService.AuthMiddleware)
	apiHandler.Register(apiRouter)
	apiRouter.HandleFunc("/images", assetHandler.Upload).Methods("POST")
	apiRouter.HandleFunc("/export.png", exportHandler.PNG).Methods("GET")
	apiRouter.HandleFunc("/export.pdf", exportHandler.PDF).Methods("GET")

	// Browsers cannot set headers on a websocket handshake, so the token
	// comes in the query string.
	r.Handle("/ws", authService.AuthMiddleware(hub.ServeWS(cfg.Origins())))

	// Preflight for any route; CORS answers it.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop the hub first so queued writes reach storage.
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "persistent", cfg.DatabaseURL != "")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
