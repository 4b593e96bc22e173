package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consigna/internal/config"
	"consigna/internal/infra"
	"consigna/internal/repository"
	"consigna/internal/router"
	"consigna/internal/service"
	"consigna/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL vacío: sin cache de precios ni envío de e-mails")
	}

	metrics := infra.NewMetrics()

	// E-mail workers are wired here (composition root) so the pool can render
	// remitos with the same services the API uses.
	var pool *worker.Pool
	if rdb != nil {
		remitoSvc := service.NewRemitoService(
			repository.NewRemitoRepository(db),
			repository.NewArticuloRepository(db),
			repository.NewClienteRepository(db),
			repository.NewHistorialPrecioRepository(db),
			rdb, metrics,
		)
		renderer := service.NewDocumentoService(remitoSvc, repository.NewArticuloRepository(db), worker.NewDispatcher(rdb), cfg.RemitoTemplatePath)
		pool = worker.NewPool(rdb, map[string]worker.JobHandler{
			worker.JobTypeEmailRemito: worker.NewEmailWorker(renderer, infra.NewMailer(cfg), metrics),
		})
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	r, err := router.New(cfg, db, rdb, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("consigna listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server exited")
}
