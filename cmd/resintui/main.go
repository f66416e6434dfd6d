package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"resintimer/internal/adapter/kv/sqlite"
	"resintimer/internal/adapter/terminal"
	"resintimer/internal/app/timer"
	"resintimer/internal/config"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/gdamore/tcell/v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "resintui: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// the screen owns stdout; keep hlog quiet unless something breaks
	hlog.SetLevel(hlog.LevelError)
	hlog.SetOutput(os.Stderr)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableFocus()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	view := terminal.NewView(screen)
	svc := timer.NewService(timer.Config{
		Store:      store,
		Key:        cfg.StoreKey,
		SpendUnits: cfg.SpendUnits,
		Location:   loc,
		Publisher:  view,
	})
	if err := svc.Load(ctx); err != nil {
		hlog.Errorf("load persisted target: %v", err)
	}
	view.Timer = svc

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			hlog.Errorf("timer stopped: %v", err)
		}
	}()

	if err := view.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
