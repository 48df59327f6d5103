package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SessionRecord is the sqlite row backing one issued bearer session.
type SessionRecord struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID string         `gorm:"type:varchar(64);index;not null"        json:"session_id"`
	Token     string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"token"`
	Username  string         `gorm:"not null"                               json:"username"`
	Role      string         `gorm:"not null"                               json:"role"`
	IssuedAt  time.Time      `                                              json:"issued_at"`
	ExpiresAt time.Time      `                                              json:"expires_at"`
	Metadata  datatypes.JSON `                                              json:"metadata,omitempty"`
}

// Open creates or opens the sqlite database at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
