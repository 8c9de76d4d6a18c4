package pipeline

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
)

const (
	// HeaderResponseTime carries the elapsed handling time in seconds.
	HeaderResponseTime = "X-Response-Time"
	// StartTimeKey is the context key holding the timing stage's start mark.
	StartTimeKey = "pipeline.start_time"
)

// Timing measures time spent in the stages after it and the handler, and
// reports it in the X-Response-Time header.
type Timing struct {
	now func() time.Time
}

// TimingOption configures a Timing stage.
type TimingOption func(*Timing)

// WithTimingClock replaces time.Now.
func WithTimingClock(now func() time.Time) TimingOption {
	return func(t *Timing) {
		t.now = now
	}
}

// NewTiming creates the timing stage.
func NewTiming(opts ...TimingOption) *Timing {
	t := &Timing{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Stage.
func (t *Timing) Name() string { return config.StageTiming }

// Handler implements Stage.
func (t *Timing) Handler() gin.HandlerFunc {
	return FromHooks(t.Name(), t).Handler()
}

// Before records the start mark.
func (t *Timing) Before(c *gin.Context) {
	c.Set(StartTimeKey, t.now())
}

// After sets the header. A missing start mark counts as zero elapsed time.
func (t *Timing) After(c *gin.Context) {
	now := t.now()
	start := now
	if v, ok := c.Get(StartTimeKey); ok {
		if ts, ok := v.(time.Time); ok {
			start = ts
		}
	}

	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	c.Writer.Header().Set(HeaderResponseTime, FormatElapsed(elapsed))
}

// FormatElapsed renders a duration as seconds with three decimals, e.g. "0.042s".
func FormatElapsed(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64) + "s"
}
