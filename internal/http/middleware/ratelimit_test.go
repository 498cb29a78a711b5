package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/ratelimit"
)

type fakeLimiter struct {
	decision ratelimit.Decision
	err      error

	keys []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	f.keys = append(f.keys, key)
	return f.decision, f.err
}

func runLimited(f *fakeLimiter, apiKey string) (*fasthttp.RequestCtx, bool) {
	called := false
	h := RateLimit(f)(func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetStatusCode(fasthttp.StatusCreated)
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	if apiKey != "" {
		ctx.Request.Header.Set("X-API-Key", apiKey)
	}
	h(&ctx)
	return &ctx, called
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	t.Parallel()

	f := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 100, Remaining: 99}}
	ctx, called := runLimited(f, "ak_test")

	if !called {
		t.Fatalf("expected request to pass through")
	}
	if got := string(ctx.Response.Header.Peek("RateLimit-Remaining")); got != "99" {
		t.Fatalf("expected remaining header 99, got %q", got)
	}
	if len(f.keys) != 1 || f.keys[0] != "ak_test" {
		t.Fatalf("expected limiter keyed by API key, got %v", f.keys)
	}
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	t.Parallel()

	f := &fakeLimiter{decision: ratelimit.Decision{
		Allowed: false,
		Limit:   100,
		ResetAt: time.Now().Add(30 * time.Second),
	}}
	ctx, called := runLimited(f, "ak_test")

	if called {
		t.Fatalf("expected request to be rejected")
	}
	if ctx.Response.StatusCode() != fasthttp.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", ctx.Response.StatusCode())
	}
	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Success || env.Message != "Too many requests, please try again later" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if got := string(ctx.Response.Header.Peek("Retry-After")); got == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRateLimitFailsOpenOnLimiterOutage(t *testing.T) {
	t.Parallel()

	f := &fakeLimiter{err: errors.New("connection refused")}
	ctx, called := runLimited(f, "ak_test")

	if !called {
		t.Fatalf("expected limiter outage to be absorbed")
	}
	if ctx.Response.StatusCode() != fasthttp.StatusCreated {
		t.Fatalf("expected handler status, got %d", ctx.Response.StatusCode())
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	t.Parallel()

	f := &fakeLimiter{decision: ratelimit.Decision{Allowed: true, Limit: 100, Remaining: 99}}
	if _, called := runLimited(f, ""); !called {
		t.Fatalf("expected request to pass through")
	}
	if len(f.keys) != 1 || f.keys[0] == "" {
		t.Fatalf("expected an IP-derived key, got %v", f.keys)
	}
}
