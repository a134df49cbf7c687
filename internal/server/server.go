// Package server exposes the dashboard over HTTP: the rendered page, live
// updates over a websocket, a passthrough to the upstream API and the usual
// health and metrics endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hatewatch-dashboard/internal/config"
	"hatewatch-dashboard/internal/refresh"
	"hatewatch-dashboard/internal/view"
)

// Dashboard is the coordinator surface the handlers drive.
type Dashboard interface {
	Snapshot() refresh.Snapshot
	Refresh() uint64
	SetCountry(country string) (uint64, bool)
}

type Options struct {
	HTTP        config.Server
	UpstreamURL string
	Renderer    *view.Renderer
	Hub         *Hub                // optional; /ws is not registered without it
	Gatherer    prometheus.Gatherer // optional; defaults to the global registry
}

type Server struct {
	dash   Dashboard
	render *view.Renderer
	hub    *Hub
	proxy  *upstreamProxy

	engine  *gin.Engine
	handler http.Handler
	server  *http.Server
}

func New(dash Dashboard, opts Options) (*Server, error) {
	if opts.Renderer == nil {
		return nil, fmt.Errorf("server: renderer is required")
	}
	proxy, err := newUpstreamProxy(opts.UpstreamURL, opts.HTTP.ProxyTimeout)
	if err != nil {
		return nil, err
	}
	s := &Server{
		dash:   dash,
		render: opts.Renderer,
		hub:    opts.Hub,
		proxy:  proxy,
	}
	s.engine = s.routes(opts.Gatherer)

	// /api/* bypasses gin so the proxy writes straight to the connection
	mux := http.NewServeMux()
	mux.Handle("/api/", s.proxy)
	mux.Handle("/", s.engine)
	s.handler = mux

	s.server = &http.Server{
		Addr:         opts.HTTP.ListenAddress,
		Handler:      s.handler,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Serve() error                       { return s.server.ListenAndServe() }
func (s *Server) Shutdown(ctx context.Context) error { return s.server.Shutdown(ctx) }

func (s *Server) routes(g prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// websocket upgrades bypass compression
	pages := r.Group("/", gzip.Gzip(gzip.DefaultCompression))
	pages.GET("/", s.page)
	pages.GET("/partials/content", s.content)
	pages.GET("/state", s.state)
	r.POST("/refresh", s.refresh)
	r.POST("/country", s.country)

	if s.hub != nil {
		r.GET("/ws", func(c *gin.Context) { s.hub.ServeWS(c.Writer, c.Request) })
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	metricsHandler := promhttp.Handler()
	if g != nil {
		metricsHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).Truncate(time.Microsecond).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("http: request")
			return
		}
		entry.Debug("http: request")
	}
}
