// Package analytics records client events through the task queue.
package analytics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Django-Rwanda/django-rwanda-portal/internal/apps"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/routing"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/telemetry"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/token"
)

// Name is the app label used in INSTALLED_APPS and route namespaces.
const Name = "analytics"

const (
	// RecordEventTask is the qualified name of the event recording task.
	RecordEventTask = Name + ".record_event"
	// ReportTask summarizes recorded events on ReportSchedule.
	ReportTask = Name + ".report"
	// ReportSchedule runs the report at the top of every hour.
	ReportSchedule = "0 * * * *"
)

// App is the analytics application.
type App struct {
	dispatcher *tasks.Dispatcher
	issuer     *token.Issuer
	events     *prometheus.CounterVec
	tally      tally
}

// New builds the app from shared dependencies.
func New(deps apps.Deps) apps.App {
	provider := deps.Telemetry
	if provider == nil {
		provider = telemetry.NewProvider(Name)
	}

	var t tally = newMemoryTally()
	if deps.Redis != nil {
		t = newRedisTally(deps.Redis, deps.Config.Tasks.Prefix)
	}

	return &App{
		dispatcher: deps.Dispatcher,
		issuer:     deps.Issuer,
		events: provider.Factory().NewCounterVec(prometheus.CounterOpts{
			Namespace: provider.Namespace(),
			Subsystem: Name,
			Name:      "events_total",
			Help:      "Analytics events accepted by name",
		}, []string{"event"}),
		tally: t,
	}
}

// Name implements apps.App.
func (a *App) Name() string { return Name }

// Routes implements apps.App.
func (a *App) Routes() *routing.Table {
	return &routing.Table{
		Namespace: Name,
		Entries: []routing.Entry{
			routing.Path("", a.listTasks, "index"),
			routing.Path("events", a.postEvent, "events", http.MethodPost).With(token.Middleware(a.issuer)),
		},
	}
}

// Tasks implements apps.App.
func (a *App) Tasks() []tasks.Task {
	return []tasks.Task{
		{
			Name:        RecordEventTask,
			Description: "Count and log a client analytics event",
			Handler:     a.recordEvent,
		},
		{
			Name:        ReportTask,
			Description: "Log a summary of events recorded since the last report",
			Handler:     a.report,
			Schedule:    ReportSchedule,
		},
	}
}

// Events exposes the counter of accepted events.
func (a *App) Events() *prometheus.CounterVec {
	return a.events
}
