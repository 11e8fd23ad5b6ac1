// Command tictactoe-tui plays the game against the computer in a terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jaminalder/tictactoe-solo/internal/config"
	"github.com/jaminalder/tictactoe-solo/internal/domain"
	"github.com/jaminalder/tictactoe-solo/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	logPath := flag.String("log", "", "write logs to this file; the screen belongs to the game")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	log.Logger = cfg.Logger(out)

	sess := domain.NewSession(domain.WithListener(func(e domain.Event) {
		log.Info().Stringer("from", e.From).Stringer("to", e.To).Stringer("winner", e.Winner).Bool("draw", e.Draw).Msg("game state changed")
	}))
	model := tui.NewModel(sess, cfg.Opponent(uint64(time.Now().UnixNano()), log.Logger), log.Logger)
	if err := tui.Run(model, cfg.ThinkDelay()); err != nil {
		log.Error().Err(err).Msg("terminal")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(model.Status())
}
