package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/marcusv/decksched/internal/api"
	"github.com/marcusv/decksched/internal/config"
	"github.com/marcusv/decksched/internal/db"
	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
	"github.com/marcusv/decksched/internal/repository/sqlite"
	"github.com/marcusv/decksched/internal/scheduler"
	"github.com/marcusv/decksched/internal/services"
	"github.com/marcusv/decksched/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("DeckSched Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("new_spread=%s", cfg.NewSpread)
	log.Debug("collapse_seconds=%d", cfg.CollapseSeconds)
	log.Debug("queue_limit=%d", cfg.QueueLimit)
	log.Debug("bury_siblings=%v", cfg.BurySiblings)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	crt, err := database.Bootstrap(context.Background(), scheduler.CreationAnchor(time.Now()))
	if err != nil {
		log.Error("failed to bootstrap collection: %v", err)
		os.Exit(1)
	}
	log.Debug("collection creation anchor: %d", crt)

	// Repositories and scheduler
	cards := sqlite.NewCardRepository(database.DB)
	decks := sqlite.NewDeckRepository(database.DB)
	revlog := sqlite.NewReviewLogRepository(database.DB)

	sched := scheduler.New(crt, cards, decks, revlog,
		scheduler.WithNewSpread(parseSpread(cfg.NewSpread)),
		scheduler.WithQueueLimit(cfg.QueueLimit),
		scheduler.WithCollapseTime(int64(cfg.CollapseSeconds)),
		scheduler.WithBuryOnAnswer(cfg.BurySiblings),
	)

	// Services share one mutex: the scheduler is single-threaded
	var mu sync.Mutex
	studyService := services.NewStudyService(&mu, sched, cards)
	deckService := services.NewDeckService(&mu, sched, decks)

	// Background maintenance
	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)

	srv := &api.Server{
		DB:    database.DB,
		Study: studyService,
		Decks: deckService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	pool.Submit(&worker.ResetSchedulerJob{Study: studyService})

	// Submit a reset right after each day rollover and a checkpoint once
	// an hour.
	go func() {
		checkpoint := time.NewTicker(time.Hour)
		defer checkpoint.Stop()
		for {
			mu.Lock()
			cutoff := sched.DayCutoff()
			mu.Unlock()
			rollover := time.NewTimer(time.Until(time.Unix(cutoff, 0)) + time.Second)
			select {
			case <-ctx.Done():
				rollover.Stop()
				return
			case <-rollover.C:
				pool.Submit(&worker.ResetSchedulerJob{Study: studyService})
			case <-checkpoint.C:
				rollover.Stop()
				pool.Submit(&worker.CheckpointJob{DB: database.DB})
			}
		}
	}()

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping background workers")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	pool.Stop()

	log.Info("===========================================")
	log.Info("DeckSched Server Stopped")
	log.Info("===========================================")
}

func parseSpread(s string) models.NewSpread {
	switch s {
	case "last":
		return models.NewSpreadLast
	case "first":
		return models.NewSpreadFirst
	default:
		return models.NewSpreadDistribute
	}
}
