// Package portal wires the collaborators shared by the HTTP server and the
// task worker from one resolved configuration.
package portal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/circuitbreaker"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/health"
	infralogger "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/logger"
	infraredis "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/redis"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/apps"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/apps/analytics"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/config"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/tasks"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/telemetry"
	"github.com/Django-Rwanda/django-rwanda-portal/internal/token"
)

const (
	brokerFailureThreshold = 5
	brokerOpenTimeout      = 30 * time.Second
)

// ErrEagerMode is returned when a worker or a standalone scheduler is
// requested while tasks run inline.
var ErrEagerMode = errors.New("tasks run eagerly inside the serve process")

// Catalog lists every app that INSTALLED_APPS may name.
func Catalog() apps.Catalog {
	return apps.Catalog{
		analytics.Name: analytics.New,
	}
}

// Portal holds the wired collaborators.
type Portal struct {
	Config     *config.Config
	Logger     infralogger.Logger
	Telemetry  *telemetry.Provider
	Redis      *redis.Client
	Broker     *tasks.Broker
	Registry   *tasks.Registry
	Dispatcher *tasks.Dispatcher
	Issuer     *token.Issuer
	Apps       []apps.App
	Health     *health.Checker

	ownsRedis bool
}

// Option configures New.
type Option func(*Portal)

// WithRedisClient supplies the broker connection instead of dialing
// cfg.Redis. The caller keeps ownership of the client.
func WithRedisClient(client *redis.Client) Option {
	return func(p *Portal) {
		p.Redis = client
	}
}

// New builds the portal. Redis is only contacted when tasks are not eager.
func New(ctx context.Context, cfg *config.Config, log infralogger.Logger, opts ...Option) (*Portal, error) {
	p := &Portal{
		Config:    cfg,
		Logger:    log,
		Telemetry: telemetry.NewProvider(cfg.ServiceName),
		Registry:  tasks.NewRegistry(),
		Issuer:    token.NewIssuer(cfg.SecretKey, token.WithDefaultTTL(cfg.Token.TTLMinutes)),
		Health:    health.NewChecker(),
	}
	for _, opt := range opts {
		opt(p)
	}

	dispatcherOpts := []tasks.Option{
		tasks.WithRetry(tasks.RetryPolicy(cfg.Tasks.MaxRetries, 0)),
	}

	if !cfg.Tasks.Eager {
		if p.Redis == nil {
			client, err := infraredis.NewClient(ctx, cfg.Redis)
			if err != nil {
				return nil, fmt.Errorf("connect task broker: %w", err)
			}
			p.Redis = client
			p.ownsRedis = true
		}
		p.Broker = tasks.NewBroker(p.Redis, cfg.Tasks.Prefix, cfg.Tasks.MaxStreamLen)
		p.Health.Register(health.RedisCheck(p.Redis))
		dispatcherOpts = append(dispatcherOpts,
			tasks.WithBroker(p.Broker),
			tasks.WithBreaker(circuitbreaker.New(circuitbreaker.Config{
				FailureThreshold: brokerFailureThreshold,
				Timeout:          brokerOpenTimeout,
				OnStateChange: func(from, to circuitbreaker.State) {
					log.Warn("Task broker circuit changed",
						infralogger.String("from", from.String()),
						infralogger.String("to", to.String()),
					)
				},
			})),
		)
	}

	p.Dispatcher = tasks.NewDispatcher(p.Registry, log, dispatcherOpts...)

	installed, err := apps.Load(cfg.InstalledApps, Catalog(), apps.Deps{
		Config:     cfg,
		Logger:     log,
		Dispatcher: p.Dispatcher,
		Issuer:     p.Issuer,
		Telemetry:  p.Telemetry,
		Redis:      p.Redis,
	})
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Apps = installed

	if err := p.Registry.Autodiscover(cfg.InstalledApps, apps.Providers(installed)...); err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}

// NewWorker builds a stream consumer. consumer may be empty.
func (p *Portal) NewWorker(consumer string) (*tasks.Worker, error) {
	if p.Broker == nil {
		return nil, ErrEagerMode
	}

	cfg := p.Config.Tasks
	return tasks.NewWorker(p.Broker, p.Registry, tasks.WorkerConfig{
		Group:        cfg.ConsumerGroup,
		Consumer:     consumer,
		Block:        cfg.BlockTimeout,
		ClaimMinIdle: cfg.ClaimMinIdle,
		Retry:        tasks.RetryPolicy(cfg.MaxRetries, 0),
	}, p.Logger), nil
}

// NewScheduler builds the periodic task scheduler. Due tasks go through the
// dispatcher, so in eager mode they run in the scheduler process.
func (p *Portal) NewScheduler() *tasks.Scheduler {
	return tasks.NewScheduler(p.Registry, p.Dispatcher, p.Logger)
}

// Close releases the Redis connection if New opened it.
func (p *Portal) Close() error {
	if p.ownsRedis && p.Redis != nil {
		return p.Redis.Close()
	}
	return nil
}
