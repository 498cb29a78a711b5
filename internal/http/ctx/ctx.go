package ctx

import (
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/store"
)

const (
	AccountKey = "account"
	APIKeyKey  = "apiKey"
)

func SetAccount(ctx *fasthttp.RequestCtx, acct *store.Account) {
	ctx.SetUserValue(AccountKey, acct)
}

func AccountFromCtx(ctx *fasthttp.RequestCtx) (*store.Account, bool) {
	v := ctx.UserValue(AccountKey)
	if v == nil {
		return nil, false
	}
	acct, ok := v.(*store.Account)
	return acct, ok
}

func SetAPIKey(ctx *fasthttp.RequestCtx, key *store.AccessKey) {
	ctx.SetUserValue(APIKeyKey, key)
}

func APIKeyFromCtx(ctx *fasthttp.RequestCtx) (*store.AccessKey, bool) {
	v := ctx.UserValue(APIKeyKey)
	if v == nil {
		return nil, false
	}
	k, ok := v.(*store.AccessKey)
	return k, ok
}
