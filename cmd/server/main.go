package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"chessping/internal/config"
	"chessping/internal/match"
	"chessping/internal/netwrk"
	"chessping/internal/renderer"
	"chessping/internal/save"
	"chessping/internal/session"
)

func main() {
	local := flag.Bool("local", false, "play both paddles on this keyboard instead of hosting")
	flag.Parse()

	config.LoadConfig(flag.Arg(0))
	if err := run(*local); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(local bool) error {
	cfg := config.Config
	logFile, err := cfg.SetupLogging()
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	opts, err := cfg.MatchOptions()
	if err != nil {
		return fmt.Errorf("match settings: %w", err)
	}
	m, err := match.New(opts)
	if err != nil {
		return fmt.Errorf("build match: %w", err)
	}

	store, err := save.Open(cfg.SavePath, cfg.SaveSlot, cfg.SaveFormat)
	if err != nil {
		slog.Warn("saving disabled", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Welcome to chessping!")

	var s *session.Session
	if local {
		s = session.NewLocal(m, store)
	} else {
		hostSide, err := cfg.HostSide()
		if err != nil {
			return err
		}
		link := netwrk.NewLink()
		link.OnChange = func(st netwrk.State) { fmt.Println("Connection:", st) }
		ln, err := link.Listen(cfg.Address)
		if err != nil {
			return err
		}
		fmt.Println("Waiting for a mirror on", ln.Addr())
		peer, err := link.Accept(ctx, ln)
		ln.Close()
		if err != nil {
			return err
		}
		s, err = session.HostSession(m, peer, hostSide, store)
		if err != nil {
			return err
		}
	}

	view, err := renderer.Open()
	if err != nil {
		s.Close()
		return err
	}
	defer view.Close()

	slog.Info("match started", "session", s.ID.String(), "role", s.Role.String(), "rows", m.Layout.Rows, "variant", m.Variant.String())
	if err := s.Run(ctx, view, cfg.TickRate); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
