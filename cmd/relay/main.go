package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/socia-app/relay/internal/adapters/httpapi"
	wssignal "github.com/socia-app/relay/internal/adapters/signal"
	"github.com/socia-app/relay/internal/app"
	"github.com/socia-app/relay/internal/config"
	"github.com/socia-app/relay/internal/core"
	"github.com/socia-app/relay/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var history store.MessageStore
	history, err = store.OpenSQLite(cfg.HistoryDSN)
	if err != nil {
		// The relay keeps running without durable call history.
		log.Error().Err(err).Str("dsn", cfg.HistoryDSN).Msg("history store unavailable, running without persistence")
		history = store.Noop{}
	}

	registry := app.NewRegistry()
	rooms := core.NewRoomIndex()
	relay := app.NewRelay(registry, rooms)
	calls := app.NewCalls(relay)
	sink := app.NewHistory(relay, history)

	ctl := wssignal.NewController(cfg, registry, rooms, relay, calls, sink)

	r := httpapi.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("session relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
