package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/store"

	httpctx "github.com/priyanshu24071/event-analytics/internal/http/ctx"
)

type fakeAppStore struct {
	apps map[uuid.UUID]*store.Application

	activeKey    *store.AccessKey
	activeKeyErr error
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{apps: make(map[uuid.UUID]*store.Application)}
}

func (f *fakeAppStore) CreateApplication(_ context.Context, a *store.Application) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	f.apps[a.ID] = &cp
	return nil
}

func (f *fakeAppStore) ApplicationsByAccount(_ context.Context, accountID uuid.UUID) ([]store.Application, error) {
	var apps []store.Application
	for _, a := range f.apps {
		if a.AccountID == accountID {
			apps = append(apps, *a)
		}
	}
	return apps, nil
}

func (f *fakeAppStore) ApplicationByID(_ context.Context, appID, accountID uuid.UUID) (*store.Application, error) {
	a, ok := f.apps[appID]
	if !ok || a.AccountID != accountID {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppStore) UpdateApplication(_ context.Context, a *store.Application) error {
	cp := *a
	f.apps[a.ID] = &cp
	return nil
}

func (f *fakeAppStore) DeleteApplication(_ context.Context, appID uuid.UUID) error {
	delete(f.apps, appID)
	return nil
}

func (f *fakeAppStore) ActiveKeyByApp(_ context.Context, _ uuid.UUID, _ time.Time) (*store.AccessKey, error) {
	if f.activeKeyErr != nil {
		return nil, f.activeKeyErr
	}
	if f.activeKey == nil {
		return nil, store.ErrNotFound
	}
	cp := *f.activeKey
	return &cp, nil
}

func seedApp(f *fakeAppStore) (*store.Account, *store.Application) {
	acct := &store.Account{ID: uuid.New()}
	app := &store.Application{ID: uuid.New(), AccountID: acct.ID, Name: "My Site", Type: "website"}
	f.apps[app.ID] = app
	return acct, app
}

func appRequestCtx(acct *store.Account, app *store.Application) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.SetUserValue("id", app.ID.String())
	httpctx.SetAccount(&ctx, acct)
	return &ctx
}

func TestGetAppWithoutActiveKey(t *testing.T) {
	f := newFakeAppStore()
	acct, app := seedApp(f)

	ctx := appRequestCtx(acct, app)
	GetApp(f)(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	env := decodeEnvelope(t, ctx)
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data: %v", env.Data)
	}
	if _, present := data["apiKey"]; present {
		t.Fatalf("expected apiKey to be omitted for a key-less app, got %v", data["apiKey"])
	}
}

func TestGetAppKeyLookupFailure(t *testing.T) {
	f := newFakeAppStore()
	acct, app := seedApp(f)
	f.activeKeyErr = errors.New("db down")

	ctx := appRequestCtx(acct, app)
	GetApp(f)(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusInternalServerError {
		t.Fatalf("expected key lookup failure to surface as 500, got %d", ctx.Response.StatusCode())
	}
	if env := decodeEnvelope(t, ctx); env.Success {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestListAppsKeyLookupFailure(t *testing.T) {
	f := newFakeAppStore()
	acct, _ := seedApp(f)
	f.activeKeyErr = errors.New("db down")

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	httpctx.SetAccount(&ctx, acct)
	ListApps(f)(&ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusInternalServerError {
		t.Fatalf("expected key lookup failure to surface as 500, got %d", ctx.Response.StatusCode())
	}
}

func TestListAppsIncludesActiveKey(t *testing.T) {
	f := newFakeAppStore()
	acct, app := seedApp(f)
	f.activeKey = &store.AccessKey{AppID: app.ID, Key: "ak_live", Active: true, ExpiresAt: time.Now().Add(time.Hour)}

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	httpctx.SetAccount(&ctx, acct)
	ListApps(f)(&ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	env := decodeEnvelope(t, &ctx)
	list, ok := env.Data.([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("unexpected data: %v", env.Data)
	}
	item := list[0].(map[string]any)
	key, ok := item["apiKey"].(map[string]any)
	if !ok || key["key"] != "ak_live" {
		t.Fatalf("expected active key in listing, got %v", item["apiKey"])
	}
}
