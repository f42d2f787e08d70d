package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"user-management/internal/core/auth"
	"user-management/internal/core/config"
	"user-management/internal/core/server"
	mdw "user-management/internal/transport/http/middleware"
	resp "user-management/internal/transport/http/response"
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Log      *zap.Logger
	Cfg      *config.Config
	JWT      *auth.JWTer
	Health   Pinger
	Registry *Registry
}

// LoginGuards /login 前置的按 IP 限流，未开启时为空
func LoginGuards(api config.API) []gin.HandlerFunc {
	if api.LoginRateLimitPerIP <= 0 {
		return nil
	}
	return []gin.HandlerFunc{
		mdw.RateLimitPerIP(rate.Limit(api.LoginRateLimitPerIP), max(1, api.LoginRateLimitBurst)),
	}
}

func NewAPIEngine(d Deps) *gin.Engine {
	api := d.Cfg.API
	r := server.NewRouter(d.Log, server.Options{
		AllowedOrigin: d.Cfg.App.CORS.AllowedOrigin,
		SkipPaths:     []string{"/health", "/metrics"},
		Fields:        mdw.AccessFields,
	})

	r.Use(
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
	)
	if api.RateLimitRPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(api.RateLimitRPS), max(1, api.RateLimitBurst)))
	}
	if api.MaxConcurrent > 0 {
		r.Use(mdw.ConcurrencyLimit(api.MaxConcurrent))
	}
	if api.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(api.MaxBodyBytes))
	}
	if api.RequestTimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(api.RequestTimeoutSec) * time.Second))
	}

	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health.Ping(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, resp.Error(http.StatusServiceUnavailable, err.Error()))
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api")
	protected := public.Group("")
	protected.Use(mdw.AuthJWT(d.JWT, d.Cfg.Auth.RequireToken))

	if d.Registry != nil {
		d.Registry.Mount(public, protected)
	}
	return r
}
