package analytics

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/circuitbreaker"
	infraerrors "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/errors"
	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/token"
)

type eventRequest struct {
	Event      string         `binding:"required,max=128" json:"event"`
	Properties map[string]any `json:"properties"`
}

func (a *App) listTasks(c *gin.Context) {
	tasks := a.Tasks()
	out := make([]gin.H, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, gin.H{"name": t.Name, "description": t.Description})
	}

	c.JSON(http.StatusOK, gin.H{
		"app":   Name,
		"eager": a.dispatcher.Eager(),
		"tasks": out,
	})
}

func (a *App) postEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		infraerrors.Abort(c, infraerrors.Wrap(err, http.StatusBadRequest, "INVALID_EVENT", err.Error()))
		return
	}

	payload := map[string]any{
		"event":      req.Event,
		"properties": req.Properties,
	}
	if claims, ok := token.ClaimsFrom(c); ok {
		if sub, isString := claims["sub"].(string); isString {
			payload["subject"] = sub
		}
	}

	id, err := a.dispatcher.Enqueue(c.Request.Context(), RecordEventTask, payload)
	if err != nil {
		infralogger.FromContext(c.Request.Context()).Error("Failed to enqueue analytics event",
			infralogger.String("event", req.Event),
			infralogger.Error(err),
		)
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			infraerrors.Abort(c, infraerrors.Wrap(err, http.StatusServiceUnavailable, infraerrors.CodeUnavailable, "task broker unavailable"))
			return
		}
		infraerrors.Abort(c, infraerrors.Wrap(err, http.StatusInternalServerError, "ENQUEUE_FAILED", "failed to record event"))
		return
	}

	a.events.WithLabelValues(req.Event).Inc()

	status := "queued"
	if a.dispatcher.Eager() {
		status = "recorded"
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": id, "status": status})
}
