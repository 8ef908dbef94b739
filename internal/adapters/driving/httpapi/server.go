// Package httpapi serves the document Q&A API over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "docqa"

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// ErrMissingPorts is returned when a required service is not provided.
var ErrMissingPorts = errors.New("httpapi: document and query services are required")

// Ports aggregates the driving ports the API calls into.
type Ports struct {
	Documents driving.DocumentService
	Query     driving.QueryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Documents == nil || p.Query == nil {
		return ErrMissingPorts
	}
	return nil
}

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// CORSOrigins lists allowed origins. Empty allows all.
	CORSOrigins []string

	// Version is reported by the health endpoint.
	Version string

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	cfg  Config
	echo *echo.Echo
	h    *handlers
}

// NewServer creates a server with all routes registered.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Logger.SetOutput(logger.Writer())

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
	}))

	s := &Server{
		cfg:  cfg,
		echo: e,
		h:    &handlers{documents: ports.Documents, query: ports.Query, version: cfg.Version},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.echo.GET("/", s.h.health)
	s.echo.POST("/upload", s.h.upload)
	s.echo.POST("/query", s.h.ask)
	s.echo.POST("/query/stream", s.h.askStream)
	s.echo.POST("/summarize", s.h.summarize)
	s.echo.GET("/documents", s.h.listDocuments)
	s.echo.GET("/document/:id/stats", s.h.documentStats)
	s.echo.DELETE("/document/:id", s.h.deleteDocument)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening on %s", s.cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// requestLogger logs one line per request through the project logger.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("%s %s -> %d (%v) [%s]: %v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			logger.Info("%s %s -> %d (%v) [%s]", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}
