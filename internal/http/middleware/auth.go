package middleware

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/keys"
	"github.com/priyanshu24071/event-analytics/internal/store"

	httpctx "github.com/priyanshu24071/event-analytics/internal/http/ctx"
)

// TokenVerifier resolves a bearer token to an account.
type TokenVerifier interface {
	ResolveToken(ctx context.Context, token string) (*store.Account, error)
}

// KeyResolver resolves a raw API key to its key record.
type KeyResolver interface {
	Resolve(ctx context.Context, raw string) (*store.AccessKey, error)
}

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"success":false,"message":"` + msg + `"}`)
}

// BearerAuth validates Authorization: Bearer tokens and stashes the
// resolved account on the request context.
func BearerAuth(verifier TokenVerifier) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			auth := ctx.Request.Header.Peek("Authorization")
			if len(auth) == 0 {
				unauthorized(ctx, "Not authenticated")
				return
			}

			const prefix = "Bearer "
			if !bytes.HasPrefix(auth, []byte(prefix)) {
				unauthorized(ctx, "Invalid Authorization header")
				return
			}

			token := strings.TrimSpace(string(auth[len(prefix):]))
			if token == "" {
				unauthorized(ctx, "Not authenticated")
				return
			}

			acct, err := verifier.ResolveToken(ctx, token)
			if err != nil {
				unauthorized(ctx, "Invalid or expired token")
				return
			}

			httpctx.SetAccount(ctx, acct)
			next(ctx)
		}
	}
}

// APIKeyAuth validates the X-API-Key header used by event collectors and
// stashes the resolved key (and therefore application) on the context.
// Revoked, expired and unknown keys are rejected identically.
func APIKeyAuth(resolver KeyResolver) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := string(ctx.Request.Header.Peek("X-API-Key"))
			if raw == "" {
				unauthorized(ctx, "API key is required")
				return
			}

			key, err := resolver.Resolve(ctx, raw)
			if err != nil {
				if errors.Is(err, keys.ErrInvalidKey) {
					unauthorized(ctx, "Invalid or expired API key")
					return
				}
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetContentType("application/json")
				ctx.SetBodyString(`{"success":false,"message":"Internal server error"}`)
				return
			}

			httpctx.SetAPIKey(ctx, key)
			next(ctx)
		}
	}
}
