// Package api assembles the HTTP server: the middleware pipeline, the URL
// tree and the handlers that live at its root.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/errors"
	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/server"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/pipeline"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/routing"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
)

// Server is the assembled HTTP application.
type Server struct {
	portal   *portal.Portal
	cfg      *config.Config
	log      infralogger.Logger
	engine   *gin.Engine
	pipeline *pipeline.Pipeline
	urls     *routing.Table
}

// NewServer builds the engine. An unknown middleware name or a conflicting
// route name fails here, before anything is served.
func NewServer(p *portal.Portal) (*Server, error) {
	s := &Server{
		portal: p,
		cfg:    p.Config,
		log:    p.Logger,
		engine: gin.New(),
	}

	pl, err := pipeline.Build(s.cfg.Middleware, pipeline.DefaultRegistry(), pipeline.Deps{
		Config:    s.cfg,
		Logger:    s.log,
		Telemetry: p.Telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("build middleware pipeline: %w", err)
	}
	s.pipeline = pl

	s.urls = s.urlTable()
	if err := s.urls.Validate(); err != nil {
		return nil, fmt.Errorf("url table: %w", err)
	}

	s.pipeline.Apply(s.engine)
	s.urls.Mount(s.engine)
	s.engine.NoRoute(notFound)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// URLs returns the declared URL tree.
func (s *Server) URLs() *routing.Table {
	return s.urls
}

// Tasks lists the registered background tasks.
func (s *Server) Tasks() []tasks.Task {
	return s.portal.Registry.Tasks()
}

// Pipeline returns the installed middleware pipeline.
func (s *Server) Pipeline() *pipeline.Pipeline {
	return s.pipeline
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := server.New(s.cfg.Server, s.engine)
	return server.Run(ctx, srv, s.log, s.cfg.Server.ShutdownTimeout)
}

func notFound(c *gin.Context) {
	infraerrors.Abort(c, infraerrors.New(http.StatusNotFound, infraerrors.CodeNotFound, "not found"))
}
