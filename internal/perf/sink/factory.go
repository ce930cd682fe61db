package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/sink/es"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/sink/pg"
)

// Publisher is a result store fed during a run and by backfills.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, r *result.Result) error
	PublishAll(ctx context.Context, results []*result.Result) error
	Close() error
}

// Open connects every configured sink. On error the sinks opened so far are
// closed.
func Open(ctx context.Context, cfg *Config) ([]Publisher, error) {
	var opened []Publisher
	for _, t := range cfg.Types {
		p, err := open(ctx, t, cfg)
		if err != nil {
			_ = CloseAll(opened)
			return nil, fmt.Errorf("open %s sink: %w", t, err)
		}
		slog.Info("Result sink enabled", "sink", p.Name())
		opened = append(opened, p)
	}
	return opened, nil
}

// OpenAvailable connects every configured sink it can reach. Sinks that fail
// to open are logged and left out so a run never depends on them.
func OpenAvailable(ctx context.Context, cfg *Config) []Publisher {
	var opened []Publisher
	for _, t := range cfg.Types {
		p, err := open(ctx, t, cfg)
		if err != nil {
			slog.Warn("Result sink unavailable, continuing without it", "sink", t, "error", err)
			continue
		}
		slog.Info("Result sink enabled", "sink", p.Name())
		opened = append(opened, p)
	}
	return opened
}

func open(ctx context.Context, t Type, cfg *Config) (Publisher, error) {
	switch t {
	case PG:
		return pg.NewSink(ctx, *cfg.Pg)
	case ES:
		return es.NewSink(ctx, *cfg.Es)
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", t)
	}
}

// PublishAll backfills every sink, continuing past failing ones.
func PublishAll(ctx context.Context, publishers []Publisher, results []*result.Result) error {
	var errs []error
	for _, p := range publishers {
		if err := p.PublishAll(ctx, results); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func CloseAll(publishers []Publisher) error {
	var errs []error
	for _, p := range publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
