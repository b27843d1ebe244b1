package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one durable key/value pair.
type KVEntry struct {
	Name      string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string { return "kv_entries" }

// KV is a small key/value store on top of a GORM table.
type KV struct {
	DB *gorm.DB
}

func NewKV(db *gorm.DB) *KV {
	return &KV{DB: db}
}

// Get returns the value for key and whether it exists.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var e KVEntry
	err := k.DB.WithContext(ctx).Where("name = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

// Set writes value under key, replacing any previous value.
func (k *KV) Set(ctx context.Context, key, value string) error {
	return k.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&KVEntry{Name: key, Value: value}).Error
}
