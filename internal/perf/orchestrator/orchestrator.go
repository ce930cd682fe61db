package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/matrix"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/google/uuid"
)

// ReportWriter persists the complete result collection. It is called after
// every change, so each call must produce complete documents.
type ReportWriter interface {
	Write(results []*result.Result) error
}

// Sink receives each work item result once it is finished. Sink failures are
// logged and never affect the run.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r *result.Result) error
}

// Orchestrator executes a plan strictly sequentially: one setup window at a
// time, one iteration at a time.
type Orchestrator struct {
	adapters adapter.Registry
	writer   ReportWriter
	sinks    []Sink
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	newID    func() uuid.UUID
	runID    uuid.UUID

	results []*result.Result
}

func New(adapters adapter.Registry, writer ReportWriter, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapters: adapters,
		writer:   writer,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == uuid.Nil {
		o.runID = o.newID()
	}
	return o
}

func (o *Orchestrator) RunID() uuid.UUID {
	return o.runID
}

// Run executes every group of the plan. Failures of setup, iterations or
// cleanup are recorded on the results and never stop the run. Only
// configuration errors, a failing report writer or context cancellation end
// it early.
func (o *Orchestrator) Run(ctx context.Context, plan *matrix.Plan) ([]*result.Result, error) {
	if o.cfg.Iterations < 1 {
		return nil, apperr.NewConfig("iterations", fmt.Sprintf("must be positive, got %d", o.cfg.Iterations))
	}
	if err := o.adapters.Require(plan.Languages()); err != nil {
		return nil, err
	}

	o.logger.Info("Starting run", "run_id", o.runID, "groups", len(plan.Groups), "work_items", plan.WorkItemCount(),
		"iterations", o.cfg.Iterations)

	for _, g := range plan.Groups {
		if err := ctx.Err(); err != nil {
			return o.results, err
		}
		if err := o.runGroup(ctx, g); err != nil {
			return o.results, err
		}
	}

	o.logger.Info("Run finished", "run_id", o.runID, "results", len(o.results))
	return o.results, nil
}

func (o *Orchestrator) runGroup(ctx context.Context, g matrix.Group) error {
	a, err := o.adapters.Lookup(g.Language)
	if err != nil {
		return err
	}
	log := o.logger.With(
		"service", g.Service,
		"language", g.Language,
		"language_version", g.LanguageVersion,
		"project", g.Project,
		"package_versions", g.PackageVersions,
	)

	// Cleanup is owed from here on, on every exit path including panics.
	if !o.cfg.NoCleanup {
		defer o.cleanup(context.WithoutCancel(ctx), a, g, log)
	}

	log.Info("Setup", "state", StateSettingUp)
	var setup adapter.SetupOutput
	setupErr := guard(func() error {
		var err error
		setup, err = a.Setup(ctx, g.Project, g.LanguageVersion, g.PackageVersions)
		return err
	})
	state := StateReady
	if setupErr != nil {
		state = StateSetupFailed
		log.Error("Setup failed", "state", state, "error", setupErr)
	} else {
		log.Info("Setup complete", "state", state, "context", setup.Context)
	}

	for _, item := range g.Items {
		if err := o.runItem(ctx, a, item, setup, setupErr, log); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runItem(ctx context.Context, a adapter.Adapter, item matrix.WorkItem,
	setup adapter.SetupOutput, setupErr error, log *slog.Logger) error {
	res := &result.Result{
		ID:                  o.newID(),
		RunID:               o.runID,
		Service:             item.Service,
		Test:                item.Test,
		Start:               o.now(),
		Language:            item.Language,
		LanguageVersion:     item.LanguageVersion,
		Project:             item.Project,
		LanguageTestName:    item.LanguageTestName,
		Arguments:           item.Arguments,
		PrimaryPackage:      item.PrimaryPackage,
		PackageVersions:     item.PackageVersions,
		SetupStandardOutput: setup.StandardOutput,
		SetupStandardError:  setup.StandardError,
		Iterations:          []result.IterationResult{},
	}
	if setupErr != nil {
		res.SetupException = setupErr.Error()
	}

	o.results = append(o.results, res)
	if err := o.write(); err != nil {
		return err
	}

	if setupErr == nil {
		log := log.With("test", item.Test, "arguments", item.Arguments)
		for i := 0; i < o.cfg.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Info("Run", "state", StateIterating, "iteration", i+1, "iterations", o.cfg.Iterations)

			it := o.iterate(ctx, a, item, setup.Context)
			if it.Exception != "" {
				log.Error("Iteration failed", "iteration", i+1, "error", it.Exception)
			} else {
				log.Info("Iteration complete", "iteration", i+1, "ops_per_second", it.OperationsPerSecond)
			}

			res.Iterations = append(res.Iterations, it)
			if err := o.write(); err != nil {
				return err
			}
		}
	}

	end := o.now()
	res.End = &end
	if err := o.write(); err != nil {
		return err
	}
	o.publish(ctx, res)
	return nil
}

// iterate runs one timed iteration. Adapter errors and panics become a failed
// iteration, and non-finite throughput is normalized.
func (o *Orchestrator) iterate(ctx context.Context, a adapter.Adapter, item matrix.WorkItem, setupContext string) result.IterationResult {
	var it result.IterationResult
	err := guard(func() error {
		var err error
		it, err = a.Run(ctx, item.Project, item.LanguageVersion, item.PackageVersions,
			item.LanguageTestName, item.Arguments, setupContext)
		return err
	})
	if err != nil {
		return result.Failed(err)
	}
	it.Normalize()
	return it
}

func (o *Orchestrator) cleanup(ctx context.Context, a adapter.Adapter, g matrix.Group, log *slog.Logger) {
	log.Info("Cleanup", "state", StateCleaning)
	err := guard(func() error {
		return a.Cleanup(ctx, g.Project)
	})
	if err != nil {
		log.Error("Cleanup failed", "error", err)
		return
	}
	log.Debug("Cleanup complete", "state", StateDone)
}

func (o *Orchestrator) write() error {
	if err := o.writer.Write(o.results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, res *result.Result) {
	for _, s := range o.sinks {
		if err := s.Publish(ctx, res); err != nil {
			o.logger.Warn("Publishing result failed", "sink", s.Name(), "result_id", res.ID, "error", err)
		}
	}
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
