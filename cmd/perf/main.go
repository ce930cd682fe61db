package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/perf-automation/internal/api/router"
	"github.com/DjordjeVuckovic/perf-automation/internal/api/server"
	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter/process"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/matrix"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/options"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/orchestrator"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/report"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/sink"
	"github.com/DjordjeVuckovic/perf-automation/pkg/config/env"
	pkgserver "github.com/DjordjeVuckovic/perf-automation/pkg/server"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("Invalid arguments", "error", err)
		os.Exit(2)
	}
	if cfg.Options.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if cfg.EnvPath != "" {
		if err := env.LoadDotEnv(cfg.EnvPath); err != nil {
			slog.Error("Failed to load environment file", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case modeRun:
		err = runBenchmarks(ctx, cfg.Options, os.Stdout)
	case modeServe:
		err = serveResults(cfg)
	case modePublish:
		err = publishResults(ctx, cfg)
	default:
		err = apperr.NewConfig("mode", fmt.Sprintf("unknown mode %q", cfg.Mode))
	}

	if err != nil {
		if apperr.IsConfig(err) {
			slog.Error("Invalid configuration", "error", err)
		} else {
			slog.Error("Failed", "mode", cfg.Mode, "error", err)
		}
		stop()
		os.Exit(1)
	}
}

// runBenchmarks executes the full matrix. Individual setup and iteration
// failures are recorded in the results and do not fail the command.
func runBenchmarks(ctx context.Context, opts options.RunOptions, stdout io.Writer) error {
	envCfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	input, err := config.LoadInput(opts.InputFile)
	if err != nil {
		return err
	}

	plan, err := matrix.Expand(input, opts)
	if err != nil {
		return err
	}

	if err := printPlan(stdout, opts, plan); err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}

	adapters := adapter.NewRegistry(envCfg, process.NewRunner(slog.Default()))
	if err := adapters.Require(plan.Languages()); err != nil {
		return err
	}

	sinkCfg, err := sink.LoadEnv()
	if err != nil {
		return err
	}
	publishers := sink.OpenAvailable(ctx, sinkCfg)
	defer func() {
		if err := sink.CloseAll(publishers); err != nil {
			slog.Warn("Failed to close sinks", "error", err)
		}
	}()

	paths := report.UniquePaths(opts.OutputFilePrefix, ".json", ".csv")
	writer := report.NewWriter(paths[0], paths[1])
	if err := writer.Create(); err != nil {
		return err
	}
	slog.Info("Writing results", "json", writer.JSONPath(), "csv", writer.CSVPath())

	sinks := make([]orchestrator.Sink, 0, len(publishers))
	for _, p := range publishers {
		sinks = append(sinks, p)
	}

	o := orchestrator.New(adapters, writer, orchestrator.Config{
		Iterations: opts.Iterations,
		NoCleanup:  opts.NoCleanup,
	}, orchestrator.WithSinks(sinks...),
		orchestrator.WithLogger(slog.Default().With("output", writer.JSONPath())))

	results, runErr := o.Run(ctx, plan)
	report.WriteTable(result.Summarize(results), stdout)
	return runErr
}

func printPlan(w io.Writer, opts options.RunOptions, plan *matrix.Plan) error {
	optsYAML, err := yaml.Marshal(opts)
	if err != nil {
		return fmt.Errorf("print options: %w", err)
	}
	planYAML, err := yaml.Marshal(plan.Selected)
	if err != nil {
		return fmt.Errorf("print test plan: %w", err)
	}

	fmt.Fprintf(w, "=== Options ===\n%s\n", optsYAML)
	fmt.Fprintf(w, "=== Test Plan ===\n%s\n", planYAML)
	fmt.Fprintf(w, "%d setup windows, %d work items, %d iterations each\n",
		len(plan.Groups), plan.WorkItemCount(), opts.Iterations)
	return nil
}

func serveResults(cfg cliConfig) error {
	if cfg.ResultsPath == "" {
		return apperr.NewConfig("results", "serve mode requires -results")
	}

	sCfg, err := server.LoadConfig()
	if err != nil {
		return apperr.NewConfigWrap("server", "invalid server settings", err)
	}

	s := server.New(sCfg, pkgserver.NewFileHealthChecker(cfg.ResultsPath)).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health")

	router.NewResultsRouter(s.Echo, report.NewFileReader(cfg.ResultsPath)).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started")
	}()

	slog.Info("Serving results", "path", cfg.ResultsPath, "port", sCfg.Port)
	return s.Start()
}

func publishResults(ctx context.Context, cfg cliConfig) error {
	if cfg.ResultsPath == "" {
		return apperr.NewConfig("results", "publish mode requires -results")
	}

	results, err := report.ReadResults(cfg.ResultsPath)
	if err != nil {
		return err
	}

	sinkCfg, err := sink.LoadEnv()
	if err != nil {
		return err
	}
	if len(sinkCfg.Types) == 0 {
		return apperr.NewConfig("PERF_SINKS", "publish mode requires at least one sink")
	}

	publishers, err := sink.Open(ctx, sinkCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.CloseAll(publishers); err != nil {
			slog.Warn("Failed to close sinks", "error", err)
		}
	}()

	if err := sink.PublishAll(ctx, publishers, results); err != nil {
		return err
	}
	slog.Info("Results published", "count", len(results), "sinks", len(publishers))
	return nil
}
