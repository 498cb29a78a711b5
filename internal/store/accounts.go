package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateAccount(ctx context.Context, a *Account) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) AccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var a Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) UpdateAccountName(ctx context.Context, id uuid.UUID, name string) error {
	return s.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).Update("name", name).Error
}

func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

// SessionByToken resolves a bearer token to its session. Expiry is checked
// in the query so stale tokens behave exactly like unknown ones.
func (s *Store) SessionByToken(ctx context.Context, token string, now time.Time) (*Session, error) {
	var sess Session
	if err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, now).
		First(&sess).Error; err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}
