// Package server exposes route analyses over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hervehildenbrand/saferoute/pkg/feed"
	"github.com/hervehildenbrand/saferoute/pkg/metrics"
	"github.com/hervehildenbrand/saferoute/pkg/registry"
	"github.com/hervehildenbrand/saferoute/pkg/risk"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

// Deps are the components the HTTP API is built on.
// Metrics, Gatherer and Hub are optional.
type Deps struct {
	Session  *risk.Session
	Registry *registry.Registry
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Hub      *feed.Hub
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	router *gin.Engine
	logger *slog.Logger
}

// New builds the router for deps.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		router: gin.New(),
		logger: slog.Default().With("component", "server"),
	}
	s.router.Use(gin.Recovery(), s.observe())
	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	if s.deps.Hub != nil {
		s.deps.Hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// observe logs each request and records its metrics.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		if s.deps.Metrics != nil {
			s.deps.Metrics.ObserveRequest(route, c.Request.Method, status, elapsed.Seconds())
		}
		s.logger.Debug("request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	}
}
