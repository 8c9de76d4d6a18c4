package pipeline

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/telemetry"
)

var (
	// ErrUnknownStage is returned when a configured stage has no factory.
	ErrUnknownStage = errors.New("unknown pipeline stage")
	// ErrDuplicateStage is returned when a stage is listed twice.
	ErrDuplicateStage = errors.New("duplicate pipeline stage")
)

// Pipeline is an ordered list of stages. The first stage is outermost.
type Pipeline struct {
	stages []Stage
}

// New creates a pipeline from stages in order.
func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Names returns the stage names in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Handlers returns the gin handlers in order.
func (p *Pipeline) Handlers() []gin.HandlerFunc {
	handlers := make([]gin.HandlerFunc, len(p.stages))
	for i, s := range p.stages {
		handlers[i] = s.Handler()
	}
	return handlers
}

// Apply installs the pipeline on a router or group.
func (p *Pipeline) Apply(r gin.IRoutes) {
	r.Use(p.Handlers()...)
}

// Deps are what stage factories can draw on.
type Deps struct {
	Config    *config.Config
	Logger    logger.Logger
	Telemetry *telemetry.Provider
}

// Factory builds one stage.
type Factory func(Deps) Stage

// Registry maps stage names to factories.
type Registry map[string]Factory

// DefaultRegistry knows every built-in stage.
func DefaultRegistry() Registry {
	return Registry{
		config.StageRecovery:  func(d Deps) Stage { return Recovery(d.Logger) },
		config.StageRequestID: func(d Deps) Stage { return RequestID(d.Logger) },
		config.StageLogging:   func(d Deps) Stage { return NewLogging(d.Logger) },
		config.StageTiming:    func(Deps) Stage { return NewTiming() },
		config.StageMetrics:   func(d Deps) Stage { return Metrics(d.Telemetry) },
		config.StageRateLimit: func(d Deps) Stage { return NewRateLimiter(d.Config.RateLimit) },
		config.StageCORS:      func(d Deps) Stage { return CORS(d.Config.CORS) },
	}
}

// Build resolves names against the registry. Any unknown or repeated name
// fails the whole build.
func Build(names []string, registry Registry, deps Deps) (*Pipeline, error) {
	seen := make(map[string]struct{}, len(names))
	stages := make([]Stage, 0, len(names))

	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, name)
		}
		seen[name] = struct{}{}
		stages = append(stages, factory(deps))
	}

	return New(stages...), nil
}
