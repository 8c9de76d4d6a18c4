package pipeline_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/pipeline"
)

// panickingLogger fails on every write.
type panickingLogger struct {
	logger.Logger
}

func (panickingLogger) Info(string, ...logger.Field) { panic("log sink is down") }

// recordingLogger keeps the messages it was given.
type recordingLogger struct {
	logger.Logger
	paths []string
}

func (r *recordingLogger) Info(_ string, fields ...logger.Field) {
	for _, f := range fields {
		if f.Key == "path" {
			r.paths = append(r.paths, f.String)
		}
	}
}

func TestLogging_RecordsBeforeDispatch(t *testing.T) {
	t.Parallel()

	rec := &recordingLogger{Logger: logger.NewNop()}
	router := gin.New()
	pipeline.New(pipeline.NewLogging(rec)).Apply(router)

	var loggedFirst bool
	router.GET("/api/v1/", func(c *gin.Context) {
		loggedFirst = len(rec.paths) == 1
		c.String(http.StatusOK, "ok")
	})

	serve(router, http.MethodGet, "/api/v1/")

	assert.True(t, loggedFirst)
	assert.Equal(t, []string{"/api/v1/"}, rec.paths)
}

func TestLogging_SurvivesFailingSink(t *testing.T) {
	t.Parallel()

	router := gin.New()
	pipeline.New(pipeline.NewLogging(panickingLogger{Logger: logger.NewNop()})).Apply(router)
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "still here") })

	w := serve(router, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "still here", w.Body.String())
}
