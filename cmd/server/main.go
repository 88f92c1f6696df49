package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abram-kaleb/slidenauli/internal/api"
	"github.com/abram-kaleb/slidenauli/internal/background"
	"github.com/abram-kaleb/slidenauli/internal/config"
	"github.com/abram-kaleb/slidenauli/internal/convert"
	"github.com/abram-kaleb/slidenauli/internal/dialect"
	"github.com/abram-kaleb/slidenauli/internal/history"
	"github.com/abram-kaleb/slidenauli/internal/notify"
	"github.com/abram-kaleb/slidenauli/internal/parser"
	"github.com/abram-kaleb/slidenauli/internal/pipeline"
	"github.com/abram-kaleb/slidenauli/internal/session"
	"github.com/abram-kaleb/slidenauli/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	parser.PDFFallbackPdftotext = cfg.PDFFallbackPdftotext

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dialects, err := dialect.Load(cfg.DialectsFile)
	if err != nil {
		log.Error("load dialect tables", "error", err)
		os.Exit(1)
	}

	// Optional collaborators.
	var hist *history.Store
	if cfg.HistoryDB != "" {
		hist, err = history.Open(cfg.HistoryDB)
		if err != nil {
			log.Error("open render history", "error", err)
			os.Exit(1)
		}
		defer hist.Close()
	}
	var hook *notify.Client
	if cfg.WebhookURL != "" {
		hook = notify.NewClient(cfg.WebhookURL, cfg.WebhookToken, cfg.WebhookTimeout)
	}
	renderStats := stats.New(cfg.StatsWindow, 24*time.Hour)

	p := pipeline.New(pipeline.Deps{
		Dialects:    dialects,
		Converter:   &convert.Converter{Path: cfg.SofficePath, Timeout: cfg.ConvertTimeout},
		Backgrounds: background.NewPicker(cfg.BackgroundDir, cfg.BackgroundWidth),
		Stats:       renderStats,
		History:     hist,
		Webhook:     hook,
		Logger:      log,
	})

	sessions := session.NewStore(cfg.SessionTTL)
	go sessions.Run(ctx, 5*time.Minute)

	srv := api.NewServer(p, sessions, renderStats, hist, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting slidenauli",
		"port", cfg.Port,
		"dialects", len(dialects.All()),
		"history", cfg.HistoryDB != "",
		"webhook", hook != nil,
		"auth", cfg.APIKey != "",
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
