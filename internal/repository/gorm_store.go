package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docbuilder/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// StorageEntry is one key of the SQL store. Values are JSON documents.
type StorageEntry struct {
	Key       string         `gorm:"column:storage_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (StorageEntry) TableName() string {
	return "storage_entries"
}

// GormStore implements domain.KeyValueStore on a SQL table.
type GormStore struct {
	db     *gorm.DB
	logger domain.Logger
}

var _ domain.KeyValueStore = (*GormStore)(nil)

// OpenGormStore connects with the named driver (sqlite or postgres) and
// migrates the storage table.
func OpenGormStore(driver, dsn string, logger domain.Logger) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return NewGormStore(db, logger)
}

// NewGormStore wraps an open connection and migrates the storage table.
func NewGormStore(db *gorm.DB, logger domain.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&StorageEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage table: %w", err)
	}
	return &GormStore{db: db, logger: logger}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry StorageEntry
	err := s.db.WithContext(ctx).Where("storage_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(entry.Value), true, nil
}

// Set upserts the row for key.
func (s *GormStore) Set(ctx context.Context, key, value string) error {
	entry := StorageEntry{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
