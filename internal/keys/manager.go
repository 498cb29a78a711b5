// Package keys manages the API-key lifecycle for applications: issuance,
// revocation, rotation and resolution of raw keys back to an application.
package keys

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/priyanshu24071/event-analytics/internal/store"
)

// ErrInvalidKey covers every way a raw key can fail to resolve: unknown,
// revoked or expired. Callers cannot distinguish the cases.
var ErrInvalidKey = errors.New("invalid or expired API key")

// Store is the slice of the record store the manager needs.
type Store interface {
	CreateAccessKey(ctx context.Context, k *store.AccessKey) error
	ActiveKeyByApp(ctx context.Context, appID uuid.UUID, now time.Time) (*store.AccessKey, error)
	DeactivateKeys(ctx context.Context, appID uuid.UUID) error
	AccessKeyByValue(ctx context.Context, raw string, now time.Time) (*store.AccessKey, error)
}

// Manager issues, revokes, rotates and resolves access keys.
type Manager struct {
	store  Store
	expiry time.Duration
	now    func() time.Time
}

// NewManager builds a manager. expiry is the lifetime of newly issued keys
// (365 days unless configured otherwise). now may be nil.
func NewManager(s Store, expiry time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: s, expiry: expiry, now: now}
}

func generateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "ak_" + base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue creates a new active key for the application. Any previously active
// keys are deactivated first, so an application never carries more than one
// active key regardless of how callers sequence Issue and Rotate.
func (m *Manager) Issue(ctx context.Context, appID uuid.UUID) (*store.AccessKey, error) {
	if err := m.store.DeactivateKeys(ctx, appID); err != nil {
		return nil, err
	}
	raw, err := generateKey()
	if err != nil {
		return nil, err
	}
	k := &store.AccessKey{
		AppID:     appID,
		Key:       raw,
		Active:    true,
		ExpiresAt: m.now().Add(m.expiry),
	}
	if err := m.store.CreateAccessKey(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

// Revoke deactivates every key for the application. Revoking an application
// with no keys succeeds.
func (m *Manager) Revoke(ctx context.Context, appID uuid.UUID) error {
	return m.store.DeactivateKeys(ctx, appID)
}

// Rotate revokes all keys and issues a fresh one. On success exactly one
// active key exists for the application.
func (m *Manager) Rotate(ctx context.Context, appID uuid.UUID) (*store.AccessKey, error) {
	if err := m.Revoke(ctx, appID); err != nil {
		return nil, err
	}
	return m.Issue(ctx, appID)
}

// Active returns the application's current active unexpired key, or
// ErrInvalidKey when there is none.
func (m *Manager) Active(ctx context.Context, appID uuid.UUID) (*store.AccessKey, error) {
	k, err := m.store.ActiveKeyByApp(ctx, appID, m.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	return k, nil
}

// Resolve matches a raw key string against active unexpired keys and
// returns the owning application's key record. Wrong, revoked and expired
// keys all fail with ErrInvalidKey.
func (m *Manager) Resolve(ctx context.Context, raw string) (*store.AccessKey, error) {
	k, err := m.store.AccessKeyByValue(ctx, raw, m.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	return k, nil
}
