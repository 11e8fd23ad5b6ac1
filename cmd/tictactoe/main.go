// Command tictactoe serves the game against the computer over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-solo/internal/app"
	"github.com/jaminalder/tictactoe-solo/internal/config"
	"github.com/jaminalder/tictactoe-solo/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "listen address, overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log.Logger = cfg.Logger(os.Stderr)

	svc := app.NewService(
		app.WithChooser(cfg.Opponent(uint64(time.Now().UnixNano()), log.Logger.With().Str("component", "opponent").Logger())),
		app.WithThinkDelay(cfg.ThinkDelay()),
		app.WithLogger(log.Logger.With().Str("component", "service").Logger()),
	)
	handler := web.NewServer(svc,
		web.WithHeartbeat(cfg.Heartbeat()),
		web.WithLogger(log.Logger.With().Str("component", "http").Logger()),
	)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).
			Bool("attacking", cfg.AttackingMode).
			Bool("defensive", cfg.DefensiveMode).
			Str("tie_break", cfg.TieBreak).
			Dur("think_delay", cfg.ThinkDelay()).
			Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
