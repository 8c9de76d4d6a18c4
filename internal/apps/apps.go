// Package apps loads the installed applications named in configuration.
// Each app contributes a routing table and background tasks.
package apps

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/routing"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/telemetry"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/token"
)

// ErrUnknownApp is returned when INSTALLED_APPS names an app nobody built.
var ErrUnknownApp = errors.New("unknown installed app")

// App is an installed application.
type App interface {
	Name() string
	// Routes is mounted under the app's name; nil means no URLs.
	Routes() *routing.Table
	Tasks() []tasks.Task
}

// Deps are shared collaborators handed to every app.
type Deps struct {
	Config     *config.Config
	Logger     logger.Logger
	Dispatcher *tasks.Dispatcher
	Issuer     *token.Issuer
	Telemetry  *telemetry.Provider
	// Redis is the broker connection; nil when tasks run eagerly.
	Redis *redis.Client
}

// Constructor builds an app.
type Constructor func(Deps) App

// Catalog maps app names to constructors.
type Catalog map[string]Constructor

// Load builds the installed apps in order.
func Load(installed []string, catalog Catalog, deps Deps) ([]App, error) {
	out := make([]App, 0, len(installed))
	for _, name := range installed {
		ctor, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownApp, name)
		}
		out = append(out, ctor(deps))
	}
	return out, nil
}

// Providers adapts apps for tasks.Registry.Autodiscover.
func Providers(installed []App) []tasks.Provider {
	out := make([]tasks.Provider, len(installed))
	for i, a := range installed {
		out[i] = a
	}
	return out
}
