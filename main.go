package main

import (
	"log"
	"time"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"github.com/priyanshu24071/event-analytics/internal/analytics"
	"github.com/priyanshu24071/event-analytics/internal/auth"
	"github.com/priyanshu24071/event-analytics/internal/cache"
	"github.com/priyanshu24071/event-analytics/internal/config"
	"github.com/priyanshu24071/event-analytics/internal/http/handlers"
	appmw "github.com/priyanshu24071/event-analytics/internal/http/middleware"
	"github.com/priyanshu24071/event-analytics/internal/keys"
	"github.com/priyanshu24071/event-analytics/internal/ratelimit"
	"github.com/priyanshu24071/event-analytics/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	st, err := store.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	summaryCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	collectLimiter := ratelimit.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RateLimitRequests, cfg.RateLimitWindow, nil)

	authSvc := auth.NewService(st, cfg.SessionTTL, nil)
	keyMgr := keys.NewManager(st, time.Duration(cfg.KeyExpiryDays)*24*time.Hour, nil)
	ingestor := analytics.NewIngestor(st)
	aggregator := analytics.NewAggregator(st, summaryCache, cfg.SummaryCacheTTL, nil)

	handlers.InitPrometheusMetrics()

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	bearer := appmw.BearerAuth(authSvc)
	apiKey := appmw.APIKeyAuth(keyMgr)
	limited := appmw.RateLimit(collectLimiter)

	r.POST("/api/auth/signup", handlers.Signup(authSvc))
	r.POST("/api/auth/login", handlers.Login(authSvc))
	r.POST("/api/auth/register", bearer(handlers.RegisterApp(st, keyMgr)))
	r.GET("/api/auth/api-key", bearer(handlers.GetAPIKey(st, keyMgr)))
	r.POST("/api/auth/revoke", bearer(handlers.RevokeKey(st, keyMgr)))
	r.POST("/api/auth/regenerate", bearer(handlers.RegenerateKey(st, keyMgr)))

	r.GET("/api/apps", bearer(handlers.ListApps(st)))
	r.GET("/api/apps/{id}", bearer(handlers.GetApp(st)))
	r.PUT("/api/apps/{id}", bearer(handlers.UpdateApp(st)))
	r.DELETE("/api/apps/{id}", bearer(handlers.DeleteApp(st)))
	r.POST("/api/apps/{id}/api-key", bearer(handlers.IssueAPIKey(st, keyMgr)))
	r.GET("/api/apps/{id}/metrics", bearer(handlers.AppMetrics(st)))

	r.POST("/api/analytics/collect", apiKey(limited(handlers.CollectEvent(ingestor))))
	r.GET("/api/analytics/events", bearer(handlers.EventAnalytics(aggregator)))
	r.GET("/api/analytics/summary", bearer(handlers.AccountSummaryHandler(aggregator)))
	r.GET("/api/analytics/event-summary", bearer(handlers.EventSummary(aggregator)))
	r.GET("/api/analytics/user-stats", bearer(handlers.UserStats(aggregator)))

	r.GET("/api/user/profile", bearer(handlers.Profile()))
	r.PUT("/api/user/profile", bearer(handlers.UpdateProfile(authSvc)))

	handler := appmw.RequestLogger(r.Handler)

	log.Printf("event-analytics listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
