package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

type ctxKey struct{}

// defaultHolder wraps the interface so atomic.Value always stores one type.
type defaultHolder struct{ l Logger }

var (
	defaultLog   atomic.Value
	fallbackOnce sync.Once
	fallbackLog  Logger
)

// SetDefault installs the process logger returned by FromContext when a
// context carries none. Passing nil restores the stderr fallback.
func SetDefault(l Logger) {
	defaultLog.Store(defaultHolder{l: l})
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithFields enriches the logger already in ctx, so request scoped fields
// such as request_id follow work handed off to tasks.
func WithFields(ctx context.Context, fields ...Field) context.Context {
	return WithContext(ctx, FromContext(ctx).With(fields...))
}

// FromContext returns the logger stored in ctx, then the default logger,
// then a warn-level stderr logger. It never returns nil.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}
	if h, ok := defaultLog.Load().(defaultHolder); ok && h.l != nil {
		return h.l
	}
	return fallbackLogger()
}

func fallbackLogger() Logger {
	fallbackOnce.Do(func() {
		l, err := New(Config{Level: "warn", OutputPaths: []string{"stderr"}})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create fallback logger: %v\n", err)
			l = NewNop()
		}
		fallbackLog = l
	})
	return fallbackLog
}
