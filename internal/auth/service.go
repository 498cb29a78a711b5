// Package auth is the credential verifier: it registers accounts, checks
// passwords and resolves bearer tokens back to accounts. Tokens are opaque
// random strings backed by a sessions table.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/priyanshu24071/event-analytics/internal/store"
)

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken covers unknown and expired bearer tokens uniformly.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Store is the slice of the record store the verifier needs.
type Store interface {
	CreateAccount(ctx context.Context, a *store.Account) error
	AccountByEmail(ctx context.Context, email string) (*store.Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*store.Account, error)
	UpdateAccountName(ctx context.Context, id uuid.UUID, name string) error
	CreateSession(ctx context.Context, s *store.Session) error
	SessionByToken(ctx context.Context, token string, now time.Time) (*store.Session, error)
}

// Service verifies credentials and mints bearer tokens.
type Service struct {
	store    Store
	tokenTTL time.Duration
	now      func() time.Time
}

// NewService builds a verifier. now may be nil.
func NewService(s Store, tokenTTL time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, tokenTTL: tokenTTL, now: now}
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "at_" + base64.RawURLEncoding.EncodeToString(b), nil
}

// Signup creates an account with a bcrypt password hash and returns it
// together with a fresh bearer token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*store.Account, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	acct := &store.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, "", err
	}
	token, err := s.mintToken(ctx, acct.ID)
	if err != nil {
		return nil, "", err
	}
	return acct, token, nil
}

// Login verifies the password and mints a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*store.Account, string, error) {
	acct, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.mintToken(ctx, acct.ID)
	if err != nil {
		return nil, "", err
	}
	return acct, token, nil
}

func (s *Service) mintToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	sess := &store.Session{
		AccountID: accountID,
		Token:     token,
		ExpiresAt: s.now().Add(s.tokenTTL),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// ResolveToken resolves a bearer token to its account. Unknown and expired
// tokens fail identically with ErrInvalidToken.
func (s *Service) ResolveToken(ctx context.Context, token string) (*store.Account, error) {
	sess, err := s.store.SessionByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	acct, err := s.store.AccountByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return acct, nil
}

// UpdateName changes the account's display name.
func (s *Service) UpdateName(ctx context.Context, accountID uuid.UUID, name string) error {
	return s.store.UpdateAccountName(ctx, accountID, name)
}
