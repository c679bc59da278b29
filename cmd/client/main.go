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
	"chessping/internal/netwrk"
	"chessping/internal/renderer"
	"chessping/internal/session"
)

func main() {
	addr := flag.String("addr", "", "host address, overrides the config file")
	flag.Parse()

	config.LoadConfig(flag.Arg(0))
	if *addr != "" {
		config.Config.Address = *addr
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Config
	logFile, err := cfg.SetupLogging()
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Welcome to chessping!")
	fmt.Println("Connecting to", cfg.Address)

	link := netwrk.NewLink()
	link.OnChange = func(st netwrk.State) { fmt.Println("Connection:", st) }
	peer, err := link.Dial(ctx, cfg.Address)
	if err != nil {
		return fmt.Errorf("Sorry, failed to connect to host: %w", err)
	}
	hostCfg, rest, err := netwrk.AwaitConfig(ctx, peer, netwrk.DefaultHandshakeTimeout)
	if err != nil {
		peer.Close()
		return err
	}
	m, side, err := session.MirrorMatch(hostCfg)
	if err != nil {
		peer.Close()
		return fmt.Errorf("host sent a bad config: %w", err)
	}
	s := session.NewMirror(m, peer, side)
	s.Apply(rest)

	view, err := renderer.Open()
	if err != nil {
		s.Close()
		return err
	}
	defer view.Close()

	slog.Info("mirroring match", "session", s.ID.String(), "side", side, "rows", m.Layout.Rows)
	if err := s.Run(ctx, view, cfg.TickRate); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
