package keys

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/priyanshu24071/event-analytics/internal/store"
)

type fakeKeyStore struct {
	keys           []*store.AccessKey
	deactivateErr  error
	createErr      error
	deactivateCall int
}

func (f *fakeKeyStore) CreateAccessKey(_ context.Context, k *store.AccessKey) error {
	if f.createErr != nil {
		return f.createErr
	}
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	cp := *k
	f.keys = append(f.keys, &cp)
	return nil
}

func (f *fakeKeyStore) ActiveKeyByApp(_ context.Context, appID uuid.UUID, now time.Time) (*store.AccessKey, error) {
	for _, k := range f.keys {
		if k.AppID == appID && k.Active && k.ExpiresAt.After(now) {
			cp := *k
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeKeyStore) DeactivateKeys(_ context.Context, appID uuid.UUID) error {
	f.deactivateCall++
	if f.deactivateErr != nil {
		return f.deactivateErr
	}
	for _, k := range f.keys {
		if k.AppID == appID {
			k.Active = false
		}
	}
	return nil
}

func (f *fakeKeyStore) AccessKeyByValue(_ context.Context, raw string, now time.Time) (*store.AccessKey, error) {
	for _, k := range f.keys {
		if k.Key == raw && k.Active && k.ExpiresAt.After(now) {
			cp := *k
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeKeyStore) activeCount(appID uuid.UUID) int {
	n := 0
	for _, k := range f.keys {
		if k.AppID == appID && k.Active {
			n++
		}
	}
	return n
}

func newTestManager(f *fakeKeyStore) (*Manager, *time.Time) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cur := &now
	return NewManager(f, 365*24*time.Hour, func() time.Time { return *cur }), cur
}

func TestIssueAndResolve(t *testing.T) {
	t.Parallel()

	f := &fakeKeyStore{}
	mgr, _ := newTestManager(f)
	appID := uuid.New()

	k, err := mgr.Issue(context.Background(), appID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(k.Key, "ak_") {
		t.Fatalf("expected ak_ prefix, got %q", k.Key)
	}
	if got := k.ExpiresAt.Sub(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)); got != 365*24*time.Hour {
		t.Fatalf("expected 365d expiry, got %s", got)
	}

	resolved, err := mgr.Resolve(context.Background(), k.Key)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.AppID != appID {
		t.Fatalf("expected app %s, got %s", appID, resolved.AppID)
	}
}

func TestRotateInvalidatesOldKey(t *testing.T) {
	t.Parallel()

	f := &fakeKeyStore{}
	mgr, _ := newTestManager(f)
	appID := uuid.New()

	old, err := mgr.Issue(context.Background(), appID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	fresh, err := mgr.Rotate(context.Background(), appID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if fresh.Key == old.Key {
		t.Fatalf("rotation returned the same key")
	}

	if _, err := mgr.Resolve(context.Background(), fresh.Key); err != nil {
		t.Fatalf("resolve new key: %v", err)
	}
	if _, err := mgr.Resolve(context.Background(), old.Key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected old key to be invalid, got %v", err)
	}
	if n := f.activeCount(appID); n != 1 {
		t.Fatalf("expected exactly one active key after rotate, got %d", n)
	}
}

func TestIssueDeactivatesExistingKey(t *testing.T) {
	t.Parallel()

	f := &fakeKeyStore{}
	mgr, _ := newTestManager(f)
	appID := uuid.New()

	first, err := mgr.Issue(context.Background(), appID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Issue(context.Background(), appID); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if n := f.activeCount(appID); n != 1 {
		t.Fatalf("expected exactly one active key, got %d", n)
	}
	if _, err := mgr.Resolve(context.Background(), first.Key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected first key to be deactivated, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	f := &fakeKeyStore{}
	mgr, _ := newTestManager(f)
	appID := uuid.New()

	// Revoking an app with no keys succeeds.
	if err := mgr.Revoke(context.Background(), appID); err != nil {
		t.Fatalf("revoke without keys: %v", err)
	}

	k, err := mgr.Issue(context.Background(), appID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := mgr.Revoke(context.Background(), appID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := mgr.Revoke(context.Background(), appID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if _, err := mgr.Resolve(context.Background(), k.Key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected revoked key to be invalid, got %v", err)
	}
}

func TestExpiredKeyIsInvalid(t *testing.T) {
	t.Parallel()

	f := &fakeKeyStore{}
	mgr, now := newTestManager(f)
	appID := uuid.New()

	k, err := mgr.Issue(context.Background(), appID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	*now = now.Add(366 * 24 * time.Hour)

	if _, err := mgr.Resolve(context.Background(), k.Key); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected expired key to be invalid, got %v", err)
	}
	if _, err := mgr.Active(context.Background(), appID); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected no active key after expiry, got %v", err)
	}
}

func TestRotateSurfacesStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	f := &fakeKeyStore{deactivateErr: boom}
	mgr, _ := newTestManager(f)

	if _, err := mgr.Rotate(context.Background(), uuid.New()); !errors.Is(err, boom) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if len(f.keys) != 0 {
		t.Fatalf("expected no key created after failed revoke")
	}
}
