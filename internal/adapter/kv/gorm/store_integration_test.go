package gormkv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"resintimer/internal/app/ports"
)

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("RESIN_DB_DSN")
	if dsn == "" {
		t.Skip("RESIN_DB_DSN is required for integration test")
	}
	return dsn
}

func TestStore_RoundTripAndOverwrite(t *testing.T) {
	dsn := requireDSN(t)
	db, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	ctx := context.Background()
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "..", "..", "migrations")); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	key := "it-rechargedDate"
	_ = db.Exec("DELETE FROM kv_entries WHERE state_key = ?", key).Error

	store := NewStore(db)
	if _, err := store.Get(ctx, key); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, key, "1767225600000"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, key, "1767229200000"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "1767229200000" {
		t.Fatalf("expected overwritten value, got %s", got)
	}
}

var _ ports.KeyValueStore = Store{}
