package analytics

import (
	"context"
	"errors"
	"sort"

	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/retry"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
)

var errMissingEvent = errors.New("analytics event name is required")

type eventPayload struct {
	Event      string         `json:"event"`
	Subject    string         `json:"subject"`
	Properties map[string]any `json:"properties"`
}

// recordEvent adds the event to the report tally and logs it. Events are
// not stored.
func (a *App) recordEvent(ctx context.Context, payload map[string]any) error {
	var p eventPayload
	if err := tasks.Decode(payload, &p); err != nil {
		return retry.Permanent(err)
	}
	if p.Event == "" {
		return retry.Permanent(errMissingEvent)
	}

	if err := a.tally.Add(ctx, p.Event); err != nil {
		return err
	}

	fields := []infralogger.Field{infralogger.String("event", p.Event)}
	if p.Subject != "" {
		fields = append(fields, infralogger.String("subject", p.Subject))
	}
	if len(p.Properties) > 0 {
		fields = append(fields, infralogger.Any("properties", p.Properties))
	}
	infralogger.FromContext(ctx).Info("Analytics event recorded", fields...)
	return nil
}

// report logs the events recorded since the previous report and resets
// the tally.
func (a *App) report(ctx context.Context, _ map[string]any) error {
	counts, err := a.tally.Drain(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	infralogger.FromContext(ctx).Info("Analytics report",
		infralogger.Int("total", sum(counts)),
		infralogger.Strings("events", names),
		infralogger.Any("counts", counts),
	)
	return nil
}

// Pending returns the number of events recorded since the last report.
func (a *App) Pending(ctx context.Context) (int, error) {
	return a.tally.Total(ctx)
}
