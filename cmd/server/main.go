package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkarag/finboard/internal/config"
	"github.com/dkarag/finboard/internal/database"
	"github.com/dkarag/finboard/internal/modules/brokers"
	"github.com/dkarag/finboard/internal/modules/junk"
	"github.com/dkarag/finboard/internal/modules/ledger"
	"github.com/dkarag/finboard/internal/modules/optimizer"
	"github.com/dkarag/finboard/internal/modules/rebalance"
	"github.com/dkarag/finboard/internal/scheduler"
	"github.com/dkarag/finboard/internal/server"
	"github.com/dkarag/finboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "error"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting finboard advisory server")

	// Recommendation ledger lives in memory; nothing persists across restarts.
	db, err := database.NewInMemory()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer db.Close()

	led, err := ledger.New(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger")
	}

	svc := optimizer.NewService(
		junk.NewDetector(log),
		rebalance.NewPlanner(log),
		brokers.NewAdvisor(log),
		led,
		log,
	)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.RefreshSchedule, optimizer.NewRefreshJob(svc, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:             cfg.Port,
		Log:              log,
		DevMode:          cfg.DevMode,
		OptimizerHandler: optimizer.NewHandler(svc, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
