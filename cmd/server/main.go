package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/rig/internal/api"
	"github.com/inamate/rig/internal/auth"
	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/config"
	"github.com/inamate/rig/internal/engine"
	"github.com/inamate/rig/internal/journal"
	mw "github.com/inamate/rig/internal/middleware"
	"github.com/inamate/rig/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	b := bus.New(logger)
	eng := engine.NewEngine(b, engine.Options{
		Logger:          logger,
		SolverTolerance: cfg.SolverTolerance,
	})
	if cfg.LoadSample {
		eng.LoadSampleDocument("sample")
	}

	store, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	var (
		jrnl   *journal.Journal
		lister api.EntryLister
	)
	if store != nil {
		defer store.Close()
		// Delivery runs inside API calls that already hold the handler lock.
		jrnl = journal.New(store, b, eng.ID, logger)
		lister = jrnl
	}
	apiHandler := api.NewHandler(eng, lister, logger)

	hub := relay.NewHub(b, apiHandler.DocumentID, cfg.AllowedOrigins, logger)

	authService := auth.NewService(cfg.SessionSecret, cfg.SessionTTL, cfg.AccessKey)
	authHandler := auth.NewHandler(authService)

	r := mux.NewRouter()

	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/session", authHandler.CreateSession).Methods("POST")

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authService.AuthMiddleware)
	protected.HandleFunc("/session", authHandler.Me).Methods("GET")
	apiHandler.Routes(protected)

	r.Handle("/ws", authService.AuthMiddleware(hub))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		// CORS wraps the router so preflight requests reach it before route matching.
		Handler:      mw.CORS(cfg.CORSOrigins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	if jrnl != nil {
		g.Go(func() error { return jrnl.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("server starting", "addr", addr, "journal", cfg.JournalDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openJournal(ctx context.Context, cfg *config.Config) (journal.Store, error) {
	switch cfg.JournalDriver {
	case config.JournalSQLite:
		s, err := journal.OpenSQLite(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		return s, nil
	case config.JournalPostgres:
		s, err := journal.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres journal: %w", err)
		}
		return s, nil
	default:
		return nil, nil
	}
}
