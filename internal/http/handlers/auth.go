package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/mail"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/auth"
	"github.com/priyanshu24071/event-analytics/internal/keys"
	"github.com/priyanshu24071/event-analytics/internal/store"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Signup creates an account and returns a bearer token.
func Signup(svc *auth.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req signupRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return
		}
		var errs []string
		if req.Name == "" {
			errs = append(errs, `"name" is required`)
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			errs = append(errs, `"email" must be a valid email`)
		}
		if len(req.Password) < 8 {
			errs = append(errs, `"password" must be at least 8 characters`)
		}
		if len(errs) > 0 {
			respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", errs...)
			return
		}

		_, token, err := svc.Signup(ctx, req.Name, req.Email, req.Password)
		if err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Failed to create account (email may already exist)")
			return
		}
		respondData(ctx, fasthttp.StatusCreated, tokenResponse{Token: token})
	}
}

// Login verifies credentials and returns a fresh bearer token.
func Login(svc *auth.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req loginRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return
		}

		_, token, err := svc.Login(ctx, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				respondError(ctx, fasthttp.StatusUnauthorized, "Invalid email or password")
				return
			}
			log.Printf("login error: %v", err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondData(ctx, fasthttp.StatusOK, tokenResponse{Token: token})
	}
}

type registerAppRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
}

type registerAppResponse struct {
	AppID  uuid.UUID `json:"appId"`
	APIKey string    `json:"apiKey"`
}

// RegisterApp creates an application and issues its first API key.
func RegisterApp(s AppStore, mgr *keys.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}

		var req registerAppRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return
		}
		var errs []string
		if req.Name == "" {
			errs = append(errs, `"name" is required`)
		}
		if !appTypes[req.Type] {
			errs = append(errs, `"type" must be one of website, mobile, desktop`)
		}
		if len(errs) > 0 {
			respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", errs...)
			return
		}

		app := &store.Application{
			AccountID: acct.ID,
			Name:      req.Name,
			Domain:    req.Domain,
			Type:      req.Type,
		}
		if err := s.CreateApplication(ctx, app); err != nil {
			log.Printf("creating app: %v", err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}

		key, err := mgr.Issue(ctx, app.ID)
		if err != nil {
			log.Printf("issuing first key for app %s: %v", app.ID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}

		respondData(ctx, fasthttp.StatusCreated, registerAppResponse{AppID: app.ID, APIKey: key.Key})
	}
}

// GetAPIKey returns the application's active key.
func GetAPIKey(s AppStore, mgr *keys.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		appID, ok := parseAppID(ctx, "appId")
		if !ok {
			return
		}
		if _, err := s.ApplicationByID(ctx, appID, acct.ID); err != nil {
			respondAppLookupErr(ctx, err)
			return
		}

		key, err := mgr.Active(ctx, appID)
		if err != nil {
			if errors.Is(err, keys.ErrInvalidKey) {
				respondError(ctx, fasthttp.StatusNotFound, "No active API key found")
				return
			}
			log.Printf("fetching key for app %s: %v", appID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondData(ctx, fasthttp.StatusOK, keyResponse{Key: key.Key, ExpiresAt: key.ExpiresAt})
	}
}

type keyActionRequest struct {
	AppID string `json:"appId"`
}

func ownedAppFromBody(ctx *fasthttp.RequestCtx, s AppStore, acct *store.Account) (uuid.UUID, bool) {
	var req keyActionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
		return uuid.Nil, false
	}
	appID, err := uuid.Parse(req.AppID)
	if err != nil {
		respondError(ctx, fasthttp.StatusBadRequest, "Validation Error", `"appId" must be a valid uuid`)
		return uuid.Nil, false
	}
	if _, err := s.ApplicationByID(ctx, appID, acct.ID); err != nil {
		respondAppLookupErr(ctx, err)
		return uuid.Nil, false
	}
	return appID, true
}

// RevokeKey deactivates every key for the application. Revoking an
// application with no keys still reports success.
func RevokeKey(s AppStore, mgr *keys.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		appID, ok := ownedAppFromBody(ctx, s, acct)
		if !ok {
			return
		}

		if err := mgr.Revoke(ctx, appID); err != nil {
			log.Printf("revoking keys for app %s: %v", appID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondMessage(ctx, fasthttp.StatusOK, "API key revoked successfully")
	}
}

// RegenerateKey rotates the application's key: revoke everything, issue one.
func RegenerateKey(s AppStore, mgr *keys.Manager) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		appID, ok := ownedAppFromBody(ctx, s, acct)
		if !ok {
			return
		}

		key, err := mgr.Rotate(ctx, appID)
		if err != nil {
			log.Printf("rotating key for app %s: %v", appID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondData(ctx, fasthttp.StatusCreated, keyResponse{Key: key.Key, ExpiresAt: key.ExpiresAt})
	}
}

func respondAppLookupErr(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(ctx, fasthttp.StatusNotFound, "App not found or you do not have access")
		return
	}
	log.Printf("app lookup error: %v", err)
	respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
}
