package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventFilter is a conjunctive filter over events. Zero-valued fields are
// not applied. Both bounds present means an inclusive range on the event
// timestamp; a single bound becomes >= or <= respectively.
type EventFilter struct {
	AppID uuid.UUID
	Type  string
	Start *time.Time
	End   *time.Time
}

func (f EventFilter) apply(q *gorm.DB) *gorm.DB {
	if f.AppID != uuid.Nil {
		q = q.Where("app_id = ?", f.AppID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	switch {
	case f.Start != nil && f.End != nil:
		q = q.Where("timestamp >= ? AND timestamp <= ?", *f.Start, *f.End)
	case f.Start != nil:
		q = q.Where("timestamp >= ?", *f.Start)
	case f.End != nil:
		q = q.Where("timestamp <= ?", *f.End)
	}
	return q
}

// DeviceCount is one row of a device breakdown.
type DeviceCount struct {
	Device string `json:"device"`
	Count  int64  `json:"count"`
}

// TypeCount is one row of a per-event-type breakdown.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// DailyTypeCount is one row of a per-day, per-type breakdown.
type DailyTypeCount struct {
	Day   time.Time `json:"date"`
	Type  string    `json:"type"`
	Count int64     `json:"count"`
}

func (s *Store) CreateEvent(ctx context.Context, e *Event) error {
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *Store) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	var n int64
	err := f.apply(s.db.WithContext(ctx).Model(&Event{})).Count(&n).Error
	return n, err
}

// CountDistinctUsers counts distinct non-null user ids under the filter.
func (s *Store) CountDistinctUsers(ctx context.Context, f EventFilter) (int64, error) {
	var n int64
	err := f.apply(s.db.WithContext(ctx).Model(&Event{})).
		Distinct("user_id").
		Count(&n).Error
	return n, err
}

func (s *Store) DeviceCounts(ctx context.Context, f EventFilter) ([]DeviceCount, error) {
	var rows []DeviceCount
	err := f.apply(s.db.WithContext(ctx).Model(&Event{})).
		Select("device, count(id) AS count").
		Group("device").
		Scan(&rows).Error
	return rows, err
}

// TypeCounts returns the count-per-type breakdown for an application,
// ordered by descending count.
func (s *Store) TypeCounts(ctx context.Context, appID uuid.UUID) ([]TypeCount, error) {
	var rows []TypeCount
	err := s.db.WithContext(ctx).Model(&Event{}).
		Select("type, count(id) AS count").
		Where("app_id = ?", appID).
		Group("type").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// DailyTypeCounts returns per-day per-type counts under the filter,
// ordered by day ascending.
func (s *Store) DailyTypeCounts(ctx context.Context, f EventFilter) ([]DailyTypeCount, error) {
	var rows []DailyTypeCount
	err := f.apply(s.db.WithContext(ctx).Model(&Event{})).
		Select("date_trunc('day', timestamp) AS day, type, count(id) AS count").
		Group("day, type").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

func (s *Store) CountEventsByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Event{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

// LatestEventByUser returns the most recently stored event for the user,
// by creation order descending.
func (s *Store) LatestEventByUser(ctx context.Context, userID string) (*Event, error) {
	var e Event
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}
