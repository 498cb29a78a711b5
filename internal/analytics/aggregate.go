package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/priyanshu24071/event-analytics/internal/cache"
	"github.com/priyanshu24071/event-analytics/internal/store"
)

// AggregateStore is the slice of the record store aggregation needs.
type AggregateStore interface {
	ApplicationByID(ctx context.Context, appID, accountID uuid.UUID) (*store.Application, error)
	CountEvents(ctx context.Context, f store.EventFilter) (int64, error)
	CountDistinctUsers(ctx context.Context, f store.EventFilter) (int64, error)
	DeviceCounts(ctx context.Context, f store.EventFilter) ([]store.DeviceCount, error)
	TypeCounts(ctx context.Context, appID uuid.UUID) ([]store.TypeCount, error)
	DailyTypeCounts(ctx context.Context, f store.EventFilter) ([]store.DailyTypeCount, error)
	CountEventsByUser(ctx context.Context, userID string) (int64, error)
	LatestEventByUser(ctx context.Context, userID string) (*store.Event, error)
}

// Aggregator computes per-event-type summaries and per-user profiles,
// with a best-effort cache in front of event summaries.
type Aggregator struct {
	store    AggregateStore
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewAggregator builds an aggregator. cache may be nil to disable caching
// entirely; now may be nil.
func NewAggregator(s AggregateStore, c cache.Cache, cacheTTL time.Duration, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{store: s, cache: c, cacheTTL: cacheTTL, now: now}
}

// Summary is the cached per-event-type aggregate.
type Summary struct {
	Event       string           `json:"event"`
	Count       int64            `json:"count"`
	UniqueUsers int64            `json:"uniqueUsers"`
	DeviceData  map[string]int64 `json:"deviceData"`
}

// UserStats is the per-user profile derived from the user's event history.
type UserStats struct {
	UserID        string            `json:"userId"`
	TotalEvents   int64             `json:"totalEvents"`
	DeviceDetails map[string]string `json:"deviceDetails"`
	IPAddress     string            `json:"ipAddress"`
}

// AccountSummary is the uncached per-application overview.
type AccountSummary struct {
	TotalEvents   int64             `json:"totalEvents"`
	TodayEvents   int64             `json:"todayEvents"`
	MonthlyEvents int64             `json:"monthlyEvents"`
	EventTypes    []store.TypeCount `json:"eventTypes"`
}

// authorizeApp checks that the account owns the application. On failure no
// cache or store data beyond the ownership row itself has been touched.
func (a *Aggregator) authorizeApp(ctx context.Context, accountID, appID uuid.UUID) error {
	if _, err := a.store.ApplicationByID(ctx, appID, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppAccess
		}
		return err
	}
	return nil
}

func summaryCacheKey(eventType string, appID uuid.UUID, start, end *time.Time) string {
	bound := func(t *time.Time) string {
		if t == nil {
			return "all"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return "event_summary:" + eventType + ":" + appID.String() + ":" + bound(start) + ":" + bound(end)
}

// EventSummary returns the count, distinct-user count and device breakdown
// for one event type within an optional date range. Results are served from
// the cache when possible and written back with the configured TTL; every
// cache failure degrades to a direct store query.
func (a *Aggregator) EventSummary(ctx context.Context, accountID, appID uuid.UUID, eventType string, start, end *time.Time) (*Summary, error) {
	if err := a.authorizeApp(ctx, accountID, appID); err != nil {
		return nil, err
	}

	key := summaryCacheKey(eventType, appID, start, end)
	if a.cache != nil {
		b, err := a.cache.Get(ctx, key)
		switch {
		case err == nil:
			var s Summary
			if err := json.Unmarshal(b, &s); err == nil {
				return &s, nil
			}
			log.Printf("cache: unreadable summary payload for %s, recomputing", key)
		case !errors.Is(err, cache.ErrMiss):
			log.Printf("cache: get %s failed, continuing without cache: %v", key, err)
		}
	}

	filter := store.EventFilter{AppID: appID, Type: eventType, Start: start, End: end}

	count, err := a.store.CountEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	uniqueUsers, err := a.store.CountDistinctUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	devices, err := a.store.DeviceCounts(ctx, filter)
	if err != nil {
		return nil, err
	}

	deviceData := make(map[string]int64, len(devices))
	for _, d := range devices {
		name := d.Device
		if name == "" {
			name = "unknown"
		}
		deviceData[name] += d.Count
	}

	s := &Summary{
		Event:       eventType,
		Count:       count,
		UniqueUsers: uniqueUsers,
		DeviceData:  deviceData,
	}

	if a.cache != nil {
		if b, err := json.Marshal(s); err == nil {
			if err := a.cache.Set(ctx, key, b, a.cacheTTL); err != nil {
				log.Printf("cache: set %s failed: %v", key, err)
			}
		}
	}

	return s, nil
}

// UserStats returns the event count and latest device/IP details for one
// end user. A user with zero events yields ErrNoUserData.
func (a *Aggregator) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	total, err := a.store.CountEventsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, ErrNoUserData
	}

	latest, err := a.store.LatestEventByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	details := map[string]string{
		"browser": "Unknown",
		"os":      "Unknown",
	}
	if len(latest.Metadata) > 0 {
		meta, err := parseMetadata(latest.Metadata)
		if err != nil {
			log.Printf("analytics: parsing metadata for user %s: %v", userID, err)
		} else {
			if b, ok := meta["browser"].(string); ok && b != "" {
				details["browser"] = b
			}
			if o, ok := meta["os"].(string); ok && o != "" {
				details["os"] = o
			}
		}
	} else if latest.Device != "" {
		details["device"] = latest.Device
	}

	return &UserStats{
		UserID:        userID,
		TotalEvents:   total,
		DeviceDetails: details,
		IPAddress:     latest.IPAddress,
	}, nil
}

// parseMetadata tolerates both a structured JSON object and a
// double-encoded serialized string.
func parseMetadata(b []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return m, nil
}

// AccountSummaryFor returns the per-application overview. Always computed
// fresh, never cached.
func (a *Aggregator) AccountSummaryFor(ctx context.Context, accountID, appID uuid.UUID) (*AccountSummary, error) {
	if err := a.authorizeApp(ctx, accountID, appID); err != nil {
		return nil, err
	}

	now := a.now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthAgo := now.AddDate(0, 0, -30)
	startOfMonthAgo := time.Date(monthAgo.Year(), monthAgo.Month(), monthAgo.Day(), 0, 0, 0, 0, monthAgo.Location())

	total, err := a.store.CountEvents(ctx, store.EventFilter{AppID: appID})
	if err != nil {
		return nil, err
	}
	today, err := a.store.CountEvents(ctx, store.EventFilter{AppID: appID, Start: &startOfToday})
	if err != nil {
		return nil, err
	}
	monthly, err := a.store.CountEvents(ctx, store.EventFilter{AppID: appID, Start: &startOfMonthAgo})
	if err != nil {
		return nil, err
	}
	types, err := a.store.TypeCounts(ctx, appID)
	if err != nil {
		return nil, err
	}

	return &AccountSummary{
		TotalEvents:   total,
		TodayEvents:   today,
		MonthlyEvents: monthly,
		EventTypes:    types,
	}, nil
}

// EventAnalytics returns per-day, per-type counts for an application,
// optionally narrowed to one event type and a date range.
func (a *Aggregator) EventAnalytics(ctx context.Context, accountID, appID uuid.UUID, eventType string, start, end *time.Time) ([]store.DailyTypeCount, error) {
	if err := a.authorizeApp(ctx, accountID, appID); err != nil {
		return nil, err
	}
	return a.store.DailyTypeCounts(ctx, store.EventFilter{
		AppID: appID,
		Type:  eventType,
		Start: start,
		End:   end,
	})
}
