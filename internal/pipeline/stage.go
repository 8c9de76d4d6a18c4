// Package pipeline builds the ordered chain of request/response stages that
// wraps every routed handler.
//
// Stages run in configured order before dispatch and in exact reverse order
// after it. A stage is either a gin.HandlerFunc that calls c.Next() itself,
// or a pair of Before/After hooks adapted with FromHooks.
package pipeline

import (
	"github.com/gin-gonic/gin"
)

// Stage is one named unit of the pipeline.
type Stage interface {
	Name() string
	Handler() gin.HandlerFunc
}

// Hooks is the two-hook form of a stage.
type Hooks interface {
	// Before runs on the way in.
	Before(c *gin.Context)
	// After runs on the way out, before response headers are committed.
	After(c *gin.Context)
}

// Func adapts a plain handler into a Stage.
func Func(name string, h gin.HandlerFunc) Stage {
	return funcStage{name: name, handler: h}
}

type funcStage struct {
	name    string
	handler gin.HandlerFunc
}

func (s funcStage) Name() string             { return s.name }
func (s funcStage) Handler() gin.HandlerFunc { return s.handler }

// FromHooks adapts Hooks into a Stage. After runs exactly once: when the
// inner chain first commits the response, or when the chain returns if
// nothing was written. Either way headers set in After reach the client.
func FromHooks(name string, hooks Hooks) Stage {
	return funcStage{
		name: name,
		handler: func(c *gin.Context) {
			hooks.Before(c)

			w := &afterWriter{ResponseWriter: c.Writer}
			w.after = func() { hooks.After(c) }
			c.Writer = w

			c.Next()

			w.runAfter()
			c.Writer = w.ResponseWriter
		},
	}
}

// afterWriter runs a callback right before the first byte or status line is
// committed to the wrapped writer.
type afterWriter struct {
	gin.ResponseWriter
	after func()
	done  bool
}

func (w *afterWriter) runAfter() {
	if w.done {
		return
	}
	w.done = true
	w.after()
}

func (w *afterWriter) WriteHeaderNow() {
	w.runAfter()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *afterWriter) Write(data []byte) (int, error) {
	w.runAfter()
	return w.ResponseWriter.Write(data)
}

func (w *afterWriter) WriteString(s string) (int, error) {
	w.runAfter()
	return w.ResponseWriter.WriteString(s)
}

func (w *afterWriter) Flush() {
	w.runAfter()
	w.ResponseWriter.Flush()
}
