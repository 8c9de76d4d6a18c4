package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/errors"
	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/routing"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
)

type tokenRequest struct {
	Subject    string         `binding:"required" json:"subject"`
	Claims     map[string]any `json:"claims"`
	TTLMinutes int            `binding:"gte=0"    json:"ttl_minutes"`
}

const adminDeadLetters = 10

// adminTable is the operator view, behind basic auth.
func (s *Server) adminTable() *routing.Table {
	return &routing.Table{
		Namespace: "admin",
		Middleware: []gin.HandlerFunc{
			gin.BasicAuth(gin.Accounts{s.cfg.Admin.Username: s.cfg.Admin.Password}),
		},
		Entries: []routing.Entry{
			routing.Path("", s.adminIndex, "index"),
			routing.Path("tokens", s.adminIssueToken, "tokens", http.MethodPost),
		},
	}
}

func (s *Server) adminIndex(c *gin.Context) {
	var routes []gin.H
	_ = s.urls.Walk(func(r routing.Route) error {
		routes = append(routes, gin.H{"name": r.Name, "path": r.Path, "methods": r.Methods})
		return nil
	})

	installed := make([]string, 0, len(s.portal.Apps))
	for _, a := range s.portal.Apps {
		installed = append(installed, a.Name())
	}

	deadLetters := []tasks.DeadLetterEntry{}
	if s.portal.Broker != nil {
		recent, err := s.portal.Broker.DeadLetters(c.Request.Context(), adminDeadLetters)
		if err != nil {
			s.log.Warn("Failed to read dead letters", infralogger.Error(err))
		} else {
			deadLetters = recent
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"service":        s.cfg.ServiceName,
		"environment":    s.cfg.Environment,
		"debug":          s.cfg.Debug,
		"installed_apps": installed,
		"middleware":     s.pipeline.Names(),
		"tasks":          s.portal.Registry.Names(),
		"tasks_eager":    s.portal.Dispatcher.Eager(),
		"broker_circuit": s.portal.Dispatcher.BrokerState(),
		"dead_letters":   deadLetters,
		"routes":         routes,
	})
}

// adminIssueToken mints a bearer token for API clients.
func (s *Server) adminIssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		infraerrors.Abort(c, infraerrors.Wrap(err, http.StatusBadRequest, infraerrors.CodeInvalidRequest, err.Error()))
		return
	}

	claims := make(map[string]any, len(req.Claims)+1)
	for k, v := range req.Claims {
		claims[k] = v
	}
	claims["sub"] = req.Subject

	signed, err := s.portal.Issuer.Issue(claims, req.TTLMinutes)
	if err != nil {
		s.log.Error("Failed to issue token", infralogger.Error(err))
		infraerrors.Abort(c, infraerrors.Wrap(err, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "failed to issue token"))
		return
	}

	ttl := req.TTLMinutes
	if ttl <= 0 {
		ttl = s.cfg.Token.TTLMinutes
	}
	c.JSON(http.StatusCreated, gin.H{"token": signed, "token_type": "Bearer", "expires_in": ttl * 60})
}
