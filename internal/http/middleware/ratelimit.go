package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/ratelimit"
)

// RateLimit throttles requests per API key, falling back to the client IP
// when no key header is present. A limiter outage fails open: the request
// proceeds as if allowed, same posture as the summary cache.
func RateLimit(limiter ratelimit.Limiter) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			key := string(ctx.Request.Header.Peek("X-API-Key"))
			if key == "" {
				key = ctx.RemoteIP().String()
			}

			decision, err := limiter.Allow(ctx, key)
			if err != nil {
				log.Printf("ratelimit: allow failed, continuing: %v", err)
				next(ctx)
				return
			}

			if decision.Limit > 0 {
				ctx.Response.Header.Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
				ctx.Response.Header.Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			}
			if !decision.ResetAt.IsZero() {
				ctx.Response.Header.Set("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			}

			if !decision.Allowed {
				if !decision.ResetAt.IsZero() {
					retryAfter := int64(time.Until(decision.ResetAt).Seconds())
					if retryAfter < 0 {
						retryAfter = 0
					}
					ctx.Response.Header.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				}
				ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
				ctx.SetContentType("application/json")
				ctx.SetBodyString(`{"success":false,"message":"Too many requests, please try again later"}`)
				return
			}

			next(ctx)
		}
	}
}
