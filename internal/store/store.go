package store

import (
	"errors"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/priyanshu24071/event-analytics/internal/config"
)

// ErrNotFound is returned by lookup methods when no row matches. Callers
// should compare with errors.Is rather than depending on GORM's error.
var ErrNotFound = errors.New("store: record not found")

// Store wraps the GORM handle and exposes explicit repository methods.
// It is passed into services at construction; nothing in this package
// holds global state.
type Store struct {
	db *gorm.DB
}

// New wraps an already-open GORM handle. Used by tests and by Connect.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Connect opens a GORM database connection using APP_DATABASE_URL
// (PostgreSQL URL) and migrates the core tables.
func Connect(cfg *config.Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DatabaseURL)
	if dsn == "" {
		return nil, errors.New("APP_DATABASE_URL is required (PostgreSQL URL)")
	}
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return nil, errors.New("APP_DATABASE_URL must be a postgres:// or postgresql:// URL")
	}

	// PrepareStmt: true prevents the GORM postgres migrator from forcing simple protocol
	// for "SELECT * FROM table LIMIT 1", which would otherwise trigger "insufficient arguments".
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Account{}, &Application{}, &AccessKey{}, &Session{}, &Event{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
