package model

import "time"

const TableNameKVEntry = "kv_entries"

type KVEntry struct {
	StateKey   string    `gorm:"column:state_key;primaryKey" json:"state_key"`
	StateValue string    `gorm:"column:state_value;not null" json:"state_value"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (*KVEntry) TableName() string {
	return TableNameKVEntry
}
