// Package engine holds the reservation rules: room availability over date
// ranges, the reservation lifecycle and the registry guards around it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"infinityhotel/internal/events"
	"infinityhotel/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine applies reservation rules on top of a repository. Mutations run one
// at a time so every availability check sees the state it writes against.
type Engine struct {
	repo   repository.Repository
	bus    *events.Bus
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string

	mu sync.RWMutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithEvents publishes lifecycle events on bus after each committed change.
func WithEvents(bus *events.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// New creates an engine over repo.
func New(repo repository.Repository, logger *zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		logger: logger.With().Str("component", "engine").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ping checks the storage backend.
func (e *Engine) Ping(ctx context.Context) error {
	return e.repo.Ping(ctx)
}

// notFound maps repository.ErrNotFound to the engine error for the entity and
// wraps anything else as a storage failure.
func notFound(err error, mapped error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return mapped
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func (e *Engine) publish(t events.Type, ev events.Event) {
	ev.Type = t
	ev.OccurredAt = e.now()
	e.bus.Publish(ev)
}
