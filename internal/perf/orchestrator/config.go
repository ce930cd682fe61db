package orchestrator

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	Iterations int
	NoCleanup  bool
}

type Option func(*Orchestrator)

func WithSinks(sinks ...Sink) Option {
	return func(o *Orchestrator) {
		o.sinks = append(o.sinks, sinks...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func WithIDs(newID func() uuid.UUID) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

func WithRunID(id uuid.UUID) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}
