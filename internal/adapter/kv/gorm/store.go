package gormkv

import (
	"context"
	"errors"
	"time"

	"resintimer/internal/adapter/kv/gorm/model"
	"resintimer/internal/app/ports"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return Store{db: db}
}

func (s Store) Get(ctx context.Context, key string) (string, error) {
	var row model.KVEntry
	err := s.db.WithContext(ctx).
		Where(&model.KVEntry{StateKey: key}).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ports.ErrNotFound
		}
		return "", err
	}
	return row.StateValue, nil
}

func (s Store) Set(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).
		Where(&model.KVEntry{StateKey: key}).
		Assign(model.KVEntry{
			StateValue: value,
			UpdatedAt:  time.Now(),
		}).
		FirstOrCreate(&model.KVEntry{}).Error
}
