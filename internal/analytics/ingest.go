package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/priyanshu24071/event-analytics/internal/store"
)

// EventPayload is the body of a collect call. Metadata may arrive either as
// a structured object or as an already-serialized JSON string.
type EventPayload struct {
	Event     string          `json:"event" validate:"required"`
	URL       string          `json:"url" validate:"required,url"`
	Referrer  string          `json:"referrer,omitempty" validate:"omitempty,url"`
	Device    string          `json:"device" validate:"required"`
	IPAddress string          `json:"ipAddress" validate:"required,ip"`
	UserID    string          `json:"userId,omitempty"`
	Timestamp string          `json:"timestamp" validate:"required"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// IngestStore is the slice of the record store ingestion needs.
type IngestStore interface {
	CreateEvent(ctx context.Context, e *store.Event) error
}

// Ingestor validates and persists one behavioral event per call.
type Ingestor struct {
	store    IngestStore
	validate *validator.Validate
}

func NewIngestor(s IngestStore) *Ingestor {
	return &Ingestor{
		store:    s,
		validate: validator.New(),
	}
}

// Collect stores exactly one event for the application. There is no
// deduplication: retried submissions create duplicate rows by design.
// Validation failures happen before any store access; store errors
// propagate unchanged.
func (i *Ingestor) Collect(ctx context.Context, appID uuid.UUID, p EventPayload) error {
	if err := i.validate.Struct(p); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			msgs := make([]string, 0, len(invalid))
			for _, fe := range invalid {
				msgs = append(msgs, fieldMessage(fe))
			}
			return validationErr(msgs...)
		}
		return validationErr(err.Error())
	}

	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return validationErr("timestamp must be a valid ISO-8601 date")
	}

	meta, err := normalizeMetadata(p.Metadata)
	if err != nil {
		return validationErr("metadata must be an object or a serialized object")
	}

	var userID *string
	if p.UserID != "" {
		userID = &p.UserID
	}

	ev := &store.Event{
		AppID:     appID,
		Type:      p.Event,
		Name:      p.Event, // display name equals type at ingestion time
		URL:       p.URL,
		Referrer:  p.Referrer,
		Device:    p.Device,
		IPAddress: p.IPAddress,
		UserID:    userID,
		Metadata:  meta,
		Timestamp: ts,
	}
	return i.store.CreateEvent(ctx, ev)
}

// normalizeMetadata produces the canonical serialized form: structured
// values are marshaled, serialized strings are unwrapped and re-marshaled so
// both arrive at the same stored bytes, and absent metadata stays NULL.
func normalizeMetadata(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, errNotObject
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "\"" + fe.Field() + "\" is required"
	case "url":
		return "\"" + fe.Field() + "\" must be a valid uri"
	case "ip":
		return "\"" + fe.Field() + "\" must be a valid ip address"
	default:
		return "\"" + fe.Field() + "\" is invalid"
	}
}
