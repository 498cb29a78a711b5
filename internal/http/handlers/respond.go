package handlers

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/store"

	httpctx "github.com/priyanshu24071/event-analytics/internal/http/ctx"
)

type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func respondData(ctx *fasthttp.RequestCtx, code int, data any) {
	writeJSON(ctx, code, envelope{Success: true, Data: data})
}

func respondMessage(ctx *fasthttp.RequestCtx, code int, msg string) {
	writeJSON(ctx, code, envelope{Success: true, Message: msg})
}

func respondError(ctx *fasthttp.RequestCtx, code int, msg string, errs ...string) {
	writeJSON(ctx, code, envelope{Success: false, Message: msg, Errors: errs})
}

func writeJSON(ctx *fasthttp.RequestCtx, code int, v any) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"success":false,"message":"Internal server error"}`)
		return
	}
	ctx.SetBody(body)
}

// MustAccount returns the authenticated account from context, or sends 401
// and returns (nil, false).
func MustAccount(ctx *fasthttp.RequestCtx) (*store.Account, bool) {
	acct, ok := httpctx.AccountFromCtx(ctx)
	if !ok || acct == nil {
		respondError(ctx, fasthttp.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return acct, true
}

// MustAPIKey returns the resolved API key from context, or sends 401 and
// returns (nil, false).
func MustAPIKey(ctx *fasthttp.RequestCtx) (*store.AccessKey, bool) {
	key, ok := httpctx.APIKeyFromCtx(ctx)
	if !ok || key == nil {
		respondError(ctx, fasthttp.StatusUnauthorized, "API key is required")
		return nil, false
	}
	return key, true
}
