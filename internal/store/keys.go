package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateAccessKey(ctx context.Context, k *AccessKey) error {
	return s.db.WithContext(ctx).Create(k).Error
}

// ActiveKeyByApp returns the application's currently active, unexpired key.
func (s *Store) ActiveKeyByApp(ctx context.Context, appID uuid.UUID, now time.Time) (*AccessKey, error) {
	var k AccessKey
	if err := s.db.WithContext(ctx).
		Where("app_id = ? AND active = ? AND expires_at > ?", appID, true, now).
		First(&k).Error; err != nil {
		return nil, translate(err)
	}
	return &k, nil
}

// DeactivateKeys sets active=false on every key for the application,
// regardless of previous state. Deactivating zero keys is not an error.
func (s *Store) DeactivateKeys(ctx context.Context, appID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&AccessKey{}).
		Where("app_id = ?", appID).
		Update("active", false).Error
}

// AccessKeyByValue matches a raw key string that is active and unexpired.
// Revoked, expired and never-existed keys all come back as ErrNotFound.
func (s *Store) AccessKeyByValue(ctx context.Context, raw string, now time.Time) (*AccessKey, error) {
	var k AccessKey
	if err := s.db.WithContext(ctx).
		Where("key = ? AND active = ? AND expires_at > ?", raw, true, now).
		First(&k).Error; err != nil {
		return nil, translate(err)
	}
	return &k, nil
}
