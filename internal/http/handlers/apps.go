package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/keys"
	"github.com/priyanshu24071/event-analytics/internal/store"
)

// AppStore is the slice of the record store the application handlers need.
type AppStore interface {
	CreateApplication(ctx context.Context, a *store.Application) error
	ApplicationsByAccount(ctx context.Context, accountID uuid.UUID) ([]store.Application, error)
	ApplicationByID(ctx context.Context, appID, accountID uuid.UUID) (*store.Application, error)
	UpdateApplication(ctx context.Context, a *store.Application) error
	DeleteApplication(ctx context.Context, appID uuid.UUID) error
	ActiveKeyByApp(ctx context.Context, appID uuid.UUID, now time.Time) (*store.AccessKey, error)
}

var appTypes = map[string]bool{
	"website": true,
	"mobile":  true,
	"desktop": true,
}

type appResponse struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Domain    string       `json:"domain,omitempty"`
	Type      string       `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
	APIKey    *keyResponse `json:"apiKey,omitempty"`
}

type keyResponse struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func appToResponse(a *store.Application, k *store.AccessKey) appResponse {
	resp := appResponse{
		ID:        a.ID,
		Name:      a.Name,
		Domain:    a.Domain,
		Type:      a.Type,
		CreatedAt: a.CreatedAt,
	}
	if k != nil {
		resp.APIKey = &keyResponse{Key: k.Key, ExpiresAt: k.ExpiresAt}
	}
	return resp
}

// mustOwnedApp resolves the {id} path parameter to an application owned by
// the account, or sends the appropriate error response.
func mustOwnedApp(ctx *fasthttp.RequestCtx, s AppStore, acct *store.Account) (*store.Application, bool) {
	idVal, _ := ctx.UserValue("id").(string)
	appID, err := uuid.Parse(idVal)
	if err != nil {
		respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"id" must be a valid uuid`)
		return nil, false
	}
	app, err := s.ApplicationByID(ctx, appID, acct.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(ctx, fasthttp.StatusNotFound, "App not found or you do not have access")
			return nil, false
		}
		log.Printf("app lookup error: %v", err)
		respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return app, true
}

// ListApps returns every application the account owns, each with its
// active unexpired key when one exists.
func ListApps(s AppStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}

		apps, err := s.ApplicationsByAccount(ctx, acct.ID)
		if err != nil {
			log.Printf("listing apps: %v", err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}

		now := time.Now()
		resp := make([]appResponse, 0, len(apps))
		for i := range apps {
			key, err := s.ActiveKeyByApp(ctx, apps[i].ID, now)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				log.Printf("looking up key for app %s: %v", apps[i].ID, err)
				respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
				return
			}
			resp = append(resp, appToResponse(&apps[i], key))
		}
		respondData(ctx, fasthttp.StatusOK, resp)
	}
}

// GetApp returns one application with its active key.
func GetApp(s AppStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		app, ok := mustOwnedApp(ctx, s, acct)
		if !ok {
			return
		}

		key, err := s.ActiveKeyByApp(ctx, app.ID, time.Now())
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Printf("looking up key for app %s: %v", app.ID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondData(ctx, fasthttp.StatusOK, appToResponse(app, key))
	}
}

type updateAppRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
}

// UpdateApp applies a partial update: absent fields keep their values.
func UpdateApp(s AppStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		app, ok := mustOwnedApp(ctx, s, acct)
		if !ok {
			return
		}

		var req updateAppRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Type != "" && !appTypes[req.Type] {
			respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"type" must be one of website, mobile, desktop`)
			return
		}

		if req.Name != "" {
			app.Name = req.Name
		}
		if req.Domain != "" {
			app.Domain = req.Domain
		}
		if req.Type != "" {
			app.Type = req.Type
		}

		if err := s.UpdateApplication(ctx, app); err != nil {
			log.Printf("updating app %s: %v", app.ID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondData(ctx, fasthttp.StatusOK, appToResponse(app, nil))
	}
}

// DeleteApp revokes every key and deletes the application atomically.
func DeleteApp(s AppStore) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		app, ok := mustOwnedApp(ctx, s, acct)
		if !ok {
			return
		}

		if err := s.DeleteApplication(ctx, app.ID); err != nil {
			log.Printf("deleting app %s: %v", app.ID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondMessage(ctx, fasthttp.StatusOK, "App deleted successfully")
	}
}

// IssueAPIKey mints a new active key for the application. Any previously
// active key is deactivated by the lifecycle manager.
func IssueAPIKey(s AppStore, mgr *keys.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		app, ok := mustOwnedApp(ctx, s, acct)
		if !ok {
			return
		}

		key, err := mgr.Issue(ctx, app.ID)
		if err != nil {
			log.Printf("issuing key for app %s: %v", app.ID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondData(ctx, fasthttp.StatusCreated, keyResponse{Key: key.Key, ExpiresAt: key.ExpiresAt})
	}
}
