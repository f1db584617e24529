package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hemlist/engine/internal/bot"
	"hemlist/engine/internal/config"
	"hemlist/engine/internal/hub"
	"hemlist/engine/internal/list"
	"hemlist/engine/internal/reconcile"
	"hemlist/engine/internal/store"
	"hemlist/engine/internal/transport"
)

// bridge hops Converge off the hub's lock onto the reconciler's own
// serialization. The reconciler buffers the latest target, so fire-and-forget
// here never loses a snapshot.
type bridge struct {
	ctx        context.Context
	reconciler *reconcile.Reconciler
}

func (b *bridge) Converge(target []list.Item) {
	go b.reconciler.Converge(b.ctx, target)
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var snapshots hub.SnapshotStore
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		snapshots = pg
		log.Printf("Using PostgreSQL for list snapshots")
	} else {
		log.Printf("No DATABASE_URL set, list state is in-memory only")
	}

	h := hub.New(snapshots)
	if err := h.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (starting from empty list): %v", err)
	}

	if strings.TrimSpace(cfg.BotURL) != "" {
		chromeBot, err := bot.NewChromeBot(cfg.BotURL, bot.Options{
			Headless:      cfg.BotHeadless,
			ActionTimeout: cfg.BotActionTimeout,
			Selectors:     bot.DefaultSelectors(),
		})
		if err != nil {
			log.Fatalf("browser startup failed: %v", err)
		}
		defer chromeBot.Close()

		reconciler := reconcile.New(chromeBot, h, cfg.MaxConvergeRounds)
		br := &bridge{ctx: ctx, reconciler: reconciler}
		h.SetBridge(br)
		log.Printf("Reconciling against %s every %s", cfg.BotURL, cfg.ReconcileInterval)

		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()
		go func() {
			for range ticker.C {
				br.Converge(h.Items())
			}
		}()
	}

	tokenHash := cfg.SyncTokenHash
	if tokenHash == "" {
		var err error
		tokenHash, err = transport.HashSyncToken(cfg.SyncToken)
		if err != nil {
			log.Fatalf("sync token hashing failed: %v", err)
		}
	}

	// No Read/WriteTimeout: /sync holds websocket connections open
	// indefinitely and a write deadline would sever idle clients.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           transport.NewServer(h, tokenHash).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Hemlist hub listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
