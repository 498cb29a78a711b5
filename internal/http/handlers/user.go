package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/auth"
)

type profileResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the authenticated account's profile.
func Profile() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}
		respondData(ctx, fasthttp.StatusOK, profileResponse{
			ID:        acct.ID,
			Name:      acct.Name,
			Email:     acct.Email,
			CreatedAt: acct.CreatedAt,
		})
	}
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile changes the account's display name.
func UpdateProfile(svc *auth.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		acct, ok := MustAccount(ctx)
		if !ok {
			return
		}

		var req updateProfileRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			respondError(ctx, fasthttp.StatusBadRequest, "Invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			respondError(ctx, fasthttp.StatusBadRequest, "Name is required")
			return
		}

		if err := svc.UpdateName(ctx, acct.ID, req.Name); err != nil {
			log.Printf("updating profile %s: %v", acct.ID, err)
			respondError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}
		respondMessage(ctx, fasthttp.StatusOK, "Profile updated successfully")
	}
}
