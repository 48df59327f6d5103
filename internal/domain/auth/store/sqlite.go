package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"soxmonitor/internal/domain/auth/model"
	"soxmonitor/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a sqlite-backed session store on an opened database handle.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Save(ctx context.Context, sess model.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("session token required")
	}
	meta, _ := json.Marshal(sess.Metadata)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", sess.Token).Delete(&storage.SessionRecord{}).Error; err != nil {
			return err
		}
		record := &storage.SessionRecord{
			SessionID: sess.ID,
			Token:     sess.Token,
			Username:  sess.Username,
			Role:      sess.Role,
			IssuedAt:  sess.IssuedAt,
			ExpiresAt: sess.ExpiresAt,
			Metadata:  meta,
		}
		return tx.Create(record).Error
	})
}

// Lookup runs the fetch and the conditional eviction in one transaction so a
// concurrent lookup of the same expired token cannot observe it twice as live.
func (s *sqliteStore) Lookup(ctx context.Context, token string) (model.Session, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record storage.SessionRecord
		err := tx.Where("token = ?", token).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if time.Now().After(record.ExpiresAt) {
			if err := tx.Delete(&record).Error; err != nil {
				return err
			}
			return ErrSessionExpired
		}
		sess = recordToSession(record)
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

func (s *sqliteStore) Delete(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&storage.SessionRecord{}).Error
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	var records []storage.SessionRecord
	if err := s.db.WithContext(ctx).Select("token", "expires_at").Find(&records).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	tokens := make([]string, 0, len(records))
	for _, r := range records {
		if now.Before(r.ExpiresAt) {
			tokens = append(tokens, r.Token)
		}
	}
	return tokens, nil
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&storage.SessionRecord{}).
		Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.SessionRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var active int64
	err := s.db.WithContext(ctx).
		Model(&storage.SessionRecord{}).
		Where("expires_at >= ?", time.Now()).
		Count(&active).Error
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":   "sqlite",
		"total":  total,
		"active": active,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func recordToSession(record storage.SessionRecord) model.Session {
	sess := model.Session{
		ID:        record.SessionID,
		Token:     record.Token,
		Username:  record.Username,
		Role:      record.Role,
		IssuedAt:  record.IssuedAt,
		ExpiresAt: record.ExpiresAt,
	}
	if len(record.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(record.Metadata, &meta); err == nil && len(meta) > 0 {
			sess.Metadata = meta
		}
	}
	return sess
}
