package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) CreateApplication(ctx context.Context, a *Application) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) ApplicationsByAccount(ctx context.Context, accountID uuid.UUID) ([]Application, error) {
	var apps []Application
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// ApplicationByID looks up an application scoped to its owning account, so
// a missing row and a row owned by someone else are indistinguishable.
func (s *Store) ApplicationByID(ctx context.Context, appID, accountID uuid.UUID) (*Application, error) {
	var a Application
	if err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", appID, accountID).
		First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) UpdateApplication(ctx context.Context, a *Application) error {
	return s.db.WithContext(ctx).Save(a).Error
}

// DeleteApplication revokes every access key for the application and deletes
// the application row as a single transaction. Partial completion (app gone
// but keys still active, or the reverse) must never be observable.
func (s *Store) DeleteApplication(ctx context.Context, appID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&AccessKey{}).
			Where("app_id = ?", appID).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", appID).Delete(&Application{}).Error
	})
}
