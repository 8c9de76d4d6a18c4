package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/api"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/pipeline"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/portal"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, mutate func(*config.Config)) *api.Server {
	t.Helper()

	cfg := config.TestProfile()
	if mutate != nil {
		mutate(cfg)
	}

	p, err := portal.New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	s, err := api.NewServer(p)
	require.NoError(t, err)
	return s
}

func do(s *api.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func get(s *api.Server, path string) *httptest.ResponseRecorder {
	return do(s, httptest.NewRequest(http.MethodGet, path, http.NoBody))
}

func TestV1Index(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	w := get(s, "/api/v1/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "API is working!", w.Body.String())
	assert.Regexp(t, `^\d+\.\d{3}s$`, w.Header().Get(pipeline.HeaderResponseTime))
}

func TestV1Add(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	w := get(s, "/api/v1/add")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(pipeline.HeaderRequestID))
}

func TestNotFoundStillTimed(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	w := get(s, "/api/v2/")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotEmpty(t, w.Header().Get(pipeline.HeaderResponseTime))
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	w := get(s, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])

	assert.Equal(t, http.StatusOK, get(s, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(s, "/health/ready").Code)

	get(s, "/api/v1/")
	w = get(s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `portal_http_requests_total{method="GET",route="/api/v1/",status="200"}`)
}

func TestURLs_Reverse(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	for name, want := range map[string]string{
		"api:v1:index":           "/api/v1/",
		"api:v1:add":             "/api/v1/add",
		"api:v1:analytics:index": "/api/v1/analytics/",
		"health":                 "/health",
	} {
		got, err := s.URLs().Reverse(name, nil)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := s.URLs().Reverse("admin:index", nil)
	assert.Error(t, err, "admin is not mounted without a password")
}

func TestUnknownMiddlewareFailsStartup(t *testing.T) {
	t.Parallel()

	cfg := config.TestProfile()
	cfg.Middleware = append(cfg.Middleware, "csrf")

	p, err := portal.New(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)

	_, err = api.NewServer(p)
	assert.ErrorIs(t, err, pipeline.ErrUnknownStage)
}

func TestAdmin(t *testing.T) {
	t.Parallel()
	s := newServer(t, func(c *config.Config) {
		c.Admin.Password = "s3cret"
	})

	assert.Equal(t, http.StatusUnauthorized, get(s, "/admin/").Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/", http.NoBody)
	req.SetBasicAuth("admin", "s3cret")
	w := do(s, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Environment string   `json:"environment"`
		Middleware  []string `json:"middleware"`
		Tasks       []string `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test", body.Environment)
	assert.Equal(t, config.TestProfile().Middleware, body.Middleware)
	assert.Equal(t, []string{"analytics.record_event", "analytics.report"}, body.Tasks)
}

func TestAdmin_ShowsRecentDeadLetters(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.TestProfile()
	cfg.Tasks.Eager = false
	cfg.Admin.Password = "s3cret"

	p, err := portal.New(context.Background(), cfg, logger.NewNop(), portal.WithRedisClient(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	s, err := api.NewServer(p)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, p.Broker.DeadLetter(ctx, tasks.Message{ID: "t-1", Task: "analytics.record_event"}, errors.New("first")))
	require.NoError(t, p.Broker.DeadLetter(ctx, tasks.Message{ID: "t-2", Task: "analytics.report"}, errors.New("second")))

	req := httptest.NewRequest(http.MethodGet, "/admin/", http.NoBody)
	req.SetBasicAuth("admin", "s3cret")
	w := do(s, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		BrokerCircuit string                  `json:"broker_circuit"`
		DeadLetters   []tasks.DeadLetterEntry `json:"dead_letters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "closed", body.BrokerCircuit)
	require.Len(t, body.DeadLetters, 2)
	assert.Equal(t, "t-2", body.DeadLetters[0].TaskID)
	assert.Equal(t, "analytics.report", body.DeadLetters[0].Task)
	assert.Equal(t, "second", body.DeadLetters[0].Error)
	assert.Equal(t, "t-1", body.DeadLetters[1].TaskID)
}

func TestAdminTokenThenAnalyticsEvent(t *testing.T) {
	t.Parallel()
	s := newServer(t, func(c *config.Config) {
		c.Admin.Password = "s3cret"
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/tokens", strings.NewReader(`{"subject":"client-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("admin", "s3cret")
	w := do(s, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
	require.NotEmpty(t, issued.Token)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/analytics/events", strings.NewReader(`{"event":"page_view"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	w = do(s, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestStaticOnlyInDebug(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte("body{}"), 0o600))

	debug := newServer(t, func(c *config.Config) {
		c.Debug = true
		c.Static.Root = dir
	})
	w := get(debug, "/static/site.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	quiet := newServer(t, func(c *config.Config) {
		c.Static.Root = dir
	})
	assert.Equal(t, http.StatusNotFound, get(quiet, "/static/site.css").Code)
}
