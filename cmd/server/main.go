package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpadapter "resintimer/internal/adapter/http"
	gormkv "resintimer/internal/adapter/kv/gorm"
	"resintimer/internal/adapter/kv/memory"
	"resintimer/internal/adapter/kv/sqlite"
	metricsinmem "resintimer/internal/adapter/metrics/inmemory"
	"resintimer/internal/adapter/stream"
	"resintimer/internal/app/ports"
	"resintimer/internal/app/timer"
	"resintimer/internal/config"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		hlog.Fatalf("load config: %v", err)
	}
	hlog.SetLevel(cfg.HlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		hlog.Fatalf("open %s store: %v", cfg.Store, err)
	}
	defer closeStore()

	loc, err := cfg.Location()
	if err != nil {
		hlog.Fatalf("%v", err)
	}

	kpiRecorder := metricsinmem.NewRecorder()
	hub := stream.NewHub()
	svc := timer.NewService(timer.Config{
		Store:      store,
		Key:        cfg.StoreKey,
		SpendUnits: cfg.SpendUnits,
		Location:   loc,
		Metrics:    kpiRecorder,
		Publisher:  hub,
	})
	if err := svc.Load(ctx); err != nil {
		hlog.Warnf("load persisted target: %v (starting full)", err)
	}
	hub.Dispatcher = svc

	go hub.Run(ctx)
	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			hlog.Errorf("timer stopped: %v", err)
		}
	}()

	streamSrv := &http.Server{Addr: cfg.StreamAddr, Handler: hub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		hlog.Infof("resin stream listening on %s", cfg.StreamAddr)
		if err := streamSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hlog.Errorf("stream server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = streamSrv.Shutdown(shutdownCtx)
	}()

	h := httpadapter.Handler{Timer: svc, KPI: kpiRecorder, CORSOrigin: cfg.CORSOrigin}
	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	h.RegisterRoutes(s)

	hlog.Infof("resin server listening on %s (store=%s key=%s)", cfg.HTTPAddr, cfg.Store, cfg.StoreKey)
	s.Spin()
}

func openStore(ctx context.Context, cfg config.Config) (ports.KeyValueStore, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case config.StorePostgres:
		db, err := gormkv.OpenPostgres(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := gormkv.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return gormkv.NewStore(db), closeDB, nil
	case config.StoreMemory, "":
		return memory.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.Store)
	}
}
