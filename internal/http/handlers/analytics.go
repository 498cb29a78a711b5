package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/analytics"
)

// CollectEvent ingests one behavioral event, scoped to the application the
// API key resolved to. Exactly one row per accepted call.
func CollectEvent(ingestor *analytics.Ingestor) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		key, ok := MustAPIKey(ctx)
		if !ok {
			return
		}

		var payload analytics.EventPayload
		if err := json.Unmarshal(ctx.PostBody(), &payload); err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return
		}

		if err := ingestor.Collect(ctx, key.AppID, payload); err != nil {
			respondAnalyticsErr(ctx, err)
			return
		}

		eventsTotal.WithLabelValues(key.AppID.String(), payload.Event).Inc()

		respondMessage(ctx, fasthttp.StatusCreated, "Event recorded successfully")
	}
}

// EventSummary serves the cached per-event-type aggregate.
func EventSummary(agg *analytics.Aggregator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}

		eventType := string(ctx.QueryArgs().Peek("event"))
		if eventType == "" {
			respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"event" is required`)
			return
		}
		appID, ok := parseAppID(ctx, "app_id")
		if !ok {
			return
		}
		start, end, ok := parseDateRange(ctx)
		if !ok {
			return
		}

		summary, err := agg.EventSummary(ctx, acct.ID, appID, eventType, start, end)
		if err != nil {
			respondAnalyticsErr(ctx, err)
			return
		}
		respondData(ctx, fasthttp.StatusOK, summary)
	}
}

// UserStats serves the per-user profile.
func UserStats(agg *analytics.Aggregator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustAccount(ctx); !ok {
			return
		}

		userID := string(ctx.QueryArgs().Peek("userId"))
		if userID == "" {
			respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"userId" is required`)
			return
		}

		stats, err := agg.UserStats(ctx, userID)
		if err != nil {
			respondAnalyticsErr(ctx, err)
			return
		}
		respondData(ctx, fasthttp.StatusOK, stats)
	}
}

// AccountSummaryHandler serves the uncached per-application overview.
func AccountSummaryHandler(agg *analytics.Aggregator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		appID, ok := parseAppID(ctx, "appId")
		if !ok {
			return
		}

		summary, err := agg.AccountSummaryFor(ctx, acct.ID, appID)
		if err != nil {
			respondAnalyticsErr(ctx, err)
			return
		}
		respondData(ctx, fasthttp.StatusOK, summary)
	}
}

// EventAnalytics serves per-day, per-type event counts.
func EventAnalytics(agg *analytics.Aggregator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		appID, ok := parseAppID(ctx, "appId")
		if !ok {
			return
		}
		eventType := string(ctx.QueryArgs().Peek("eventType"))
		start, end, ok := parseDateRange(ctx)
		if !ok {
			return
		}

		rows, err := agg.EventAnalytics(ctx, acct.ID, appID, eventType, start, end)
		if err != nil {
			respondAnalyticsErr(ctx, err)
			return
		}
		respondData(ctx, fasthttp.StatusOK, rows)
	}
}

func respondAnalyticsErr(ctx *fasthttp.RequestCtx, err error) {
	var verr *analytics.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", verr.Errors...)
	case errors.Is(err, analytics.ErrAppAccess):
		respondError(ctx, fasthttp.StatusForbidden, "You do not have access to this app")
	case errors.Is(err, analytics.ErrNoUserData):
		respondError(ctx, fasthttp.StatusNotFound, "No data found for this user")
	default:
		log.Printf("analytics error: %v", err)
		respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
	}
}

func parseAppID(ctx *fasthttp.RequestCtx, param string) (uuid.UUID, bool) {
	raw := string(ctx.QueryArgs().Peek(param))
	if raw == "" {
		respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"`+param+`" is required`)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"`+param+`" must be a valid uuid`)
		return uuid.Nil, false
	}
	return id, true
}

// parseDateRange reads optional startDate/endDate query parameters,
// accepting full RFC 3339 timestamps or plain dates.
func parseDateRange(ctx *fasthttp.RequestCtx) (start, end *time.Time, ok bool) {
	parse := func(param string) (*time.Time, bool) {
		raw := string(ctx.QueryArgs().Peek(param))
		if raw == "" {
			return nil, true
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return &t, true
			}
		}
		respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"`+param+`" must be a valid ISO date`)
		return nil, false
	}

	if start, ok = parse("startDate"); !ok {
		return nil, nil, false
	}
	if end, ok = parse("endDate"); !ok {
		return nil, nil, false
	}
	return start, end, true
}
