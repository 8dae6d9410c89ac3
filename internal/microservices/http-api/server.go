// Package httpapi assembles the ratings HTTP surface.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"ratings/internal/display"
	"ratings/internal/metrics"
	"ratings/internal/microservices/http-api/handler"
	"ratings/internal/microservices/http-api/middleware"
	"ratings/internal/microservices/http-api/service"
)

// Deps is everything the router needs. Registry may be nil to disable /metrics.
type Deps struct {
	Ratings      service.RatingService
	Tokens       service.TokenService
	Permissions  service.PermissionChecker
	Votes        handler.VoteSettings
	DefaultStyle display.Style
	VoteLimiter  *middleware.IPRateLimiter
	Registry     *prometheus.Registry
	Health       func() error
	Logger       *slog.Logger

	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the peer address is the
	// client address.
	TrustedProxies []string
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	proxies := d.TrustedProxies
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(d.Logger))
	if d.Registry != nil {
		r.Use(metrics.NewHTTPMetrics(d.Registry).Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Registry)))
	}

	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(); err != nil {
				d.Logger.WarnContext(c.Request.Context(), "health_check_failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	voteLimit := middleware.RateLimit(d.VoteLimiter)

	api := r.Group("/api", middleware.OptionalAuth(d.Tokens))
	handler.NewRatingHandler(d.Ratings, d.Votes, d.Logger).RegisterRoutes(api, voteLimit)

	ajax := r.Group("/ajax", middleware.OptionalAuth(d.Tokens))
	handler.NewAjaxHandler(d.Ratings, d.Permissions, d.Votes, d.DefaultStyle, d.Logger).RegisterRoutes(ajax, voteLimit)

	return r, nil
}
