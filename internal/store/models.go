package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account is a registered dashboard user that owns applications and
// authenticates with email/password (or a federated Google identity).
type Account struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Name         string  `gorm:"size:255;not null"`
	Email        string  `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string  `gorm:"size:255"`
	GoogleID     *string `gorm:"uniqueIndex;size:255"`
}

// Application is one monitored property (site or app) belonging to an
// account. It is the unit of API-key scoping and event ownership.
type Application struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	AccountID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name   string `gorm:"size:255;not null"`
	Domain string `gorm:"size:255"`

	// Type is one of "website", "mobile" or "desktop".
	Type string `gorm:"size:32;not null"`
}

// AccessKey is the bearer secret client-side collectors present when
// submitting events. At most one key per application is active at a time;
// the lifecycle manager enforces that, not the database.
type AccessKey struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	AppID uuid.UUID `gorm:"type:uuid;index;not null"`

	// Key is the actual secret value presented in the X-API-Key header.
	Key string `gorm:"uniqueIndex;size:255;not null"`

	Active    bool `gorm:"default:true"`
	ExpiresAt time.Time
}

// Session is a bearer token minted at signup/login. Tokens are opaque
// random strings resolved back to an account on every request.
type Session struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time

	AccountID uuid.UUID `gorm:"type:uuid;index;not null"`
	Token     string    `gorm:"uniqueIndex;size:255;not null"`
	ExpiresAt time.Time
}

// Event is one behavioral occurrence submitted by a collector. Rows are
// immutable once created; Timestamp is the client-reported event time,
// distinct from CreatedAt which is the storage time.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time

	AppID uuid.UUID `gorm:"type:uuid;index;not null"`

	// Type and Name are the same string at ingestion time; Name exists so
	// downstream consumers can rename the display label independently later.
	Type string `gorm:"size:255;index;not null"`
	Name string `gorm:"size:255;not null"`

	URL      string `gorm:"size:2048"`
	Referrer string `gorm:"size:2048"`
	Device   string `gorm:"size:255"`

	IPAddress string  `gorm:"size:64"`
	UserID    *string `gorm:"size:255;index"`

	// Metadata is the normalized (serialized) free-form payload, NULL when
	// the collector sent none.
	Metadata datatypes.JSON

	Timestamp time.Time `gorm:"index;not null"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Application) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (k *AccessKey) BeforeCreate(*gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
