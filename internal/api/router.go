package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/guestbook/internal/app"
	"github.com/charlesng35/guestbook/internal/handlers"
	"github.com/charlesng35/guestbook/internal/middleware"
	"github.com/charlesng35/guestbook/internal/monitoring"
	"github.com/charlesng35/guestbook/web"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Config     *app.Config
	Dispatcher handlers.Dispatcher
	Sessions   middleware.SessionIssuer
	Health     *monitoring.HealthManager
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session issuer must be provided")
	}

	page, err := handlers.NewGuestbookHandler(deps.Dispatcher)
	if err != nil {
		return nil, err
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("load static assets: %w", err)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	metricsPath := cfg.Monitoring.Prometheus.Endpoint
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger("/health", metricsPath, "/static"))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, cfg, deps.Health)

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	r.StaticFS("/static", http.FS(static))

	// Only the page itself needs a visitor session.
	pages := r.Group("/")
	pages.Use(middleware.Session(deps.Sessions, cfg.Session.CookieName))
	pages.GET("", page.Page)
	pages.POST("", page.Page)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
