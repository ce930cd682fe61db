package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/matrix"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/options"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/report"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter records every lifecycle call. Behaviour is scripted per call.
type fakeAdapter struct {
	calls      []string
	runs       int
	setupErr   error
	setupPanic bool
	runFn      func(n int) (result.IterationResult, error)
	cleanupErr error
}

func (f *fakeAdapter) Setup(_ context.Context, project, languageVersion string, pv config.PackageVersionSet) (adapter.SetupOutput, error) {
	f.calls = append(f.calls, fmt.Sprintf("setup %s %s", project, languageVersion))
	if f.setupPanic {
		panic("build tool crashed")
	}
	if f.setupErr != nil {
		return adapter.SetupOutput{StandardOutput: "partial build log"}, f.setupErr
	}
	return adapter.SetupOutput{StandardOutput: "built", Context: "artifact.jar"}, nil
}

func (f *fakeAdapter) Run(_ context.Context, project, _ string, _ config.PackageVersionSet,
	testName, arguments, setupContext string) (result.IterationResult, error) {
	f.runs++
	f.calls = append(f.calls, fmt.Sprintf("run %s %s [%s] %s", project, testName, arguments, setupContext))
	if f.runFn != nil {
		return f.runFn(f.runs)
	}
	return result.IterationResult{OperationsPerSecond: float64(100 * f.runs)}, nil
}

func (f *fakeAdapter) Cleanup(_ context.Context, project string) error {
	f.calls = append(f.calls, "cleanup "+project)
	return f.cleanupErr
}

type memWriter struct {
	writes    int
	failAfter int
	snapshots [][]byte
}

func (w *memWriter) Write(results []*result.Result) error {
	w.writes++
	if w.failAfter > 0 && w.writes > w.failAfter {
		return errors.New("disk full")
	}
	data, err := report.MarshalResults(results)
	if err != nil {
		return err
	}
	w.snapshots = append(w.snapshots, data)
	return nil
}

type recordingSink struct {
	published []*result.Result
	err       error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, r *result.Result) error {
	s.published = append(s.published, r)
	return s.err
}

func singleGroupPlan(items ...string) *matrix.Plan {
	g := matrix.Group{
		Service:         "svc",
		Language:        config.Java,
		LanguageVersion: "17",
		Project:         "svc-perf",
		PrimaryPackage:  "svc-core",
		PackageVersions: config.PackageVersionSet{"svc-core": config.Source},
	}
	for _, args := range items {
		g.Items = append(g.Items, matrix.WorkItem{
			Service:          g.Service,
			Test:             "download",
			Language:         g.Language,
			LanguageVersion:  g.LanguageVersion,
			Project:          g.Project,
			PrimaryPackage:   g.PrimaryPackage,
			PackageVersions:  g.PackageVersions,
			LanguageTestName: "downloadblob",
			Arguments:        args,
		})
	}
	return &matrix.Plan{Groups: []matrix.Group{g}}
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRun_HappyPath(t *testing.T) {
	fa := &fakeAdapter{}
	w := &memWriter{}
	sink := &recordingSink{}
	o := New(adapter.Registry{config.Java: fa}, w, Config{Iterations: 2}, WithSinks(sink), WithClock(fixedClock()))

	results, err := o.Run(context.Background(), singleGroupPlan("--size 1", "--size 1 --sync"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{
		"setup svc-perf 17",
		"run svc-perf downloadblob [--size 1] artifact.jar",
		"run svc-perf downloadblob [--size 1] artifact.jar",
		"run svc-perf downloadblob [--size 1 --sync] artifact.jar",
		"run svc-perf downloadblob [--size 1 --sync] artifact.jar",
		"cleanup svc-perf",
	}, fa.calls)

	for _, r := range results {
		assert.Len(t, r.Iterations, 2)
		assert.Empty(t, r.SetupException)
		assert.Equal(t, "built", r.SetupStandardOutput)
		require.NotNil(t, r.End)
		assert.True(t, r.End.After(r.Start))
		assert.Equal(t, o.RunID(), r.RunID)
	}
	assert.Equal(t, 200.0, results[0].Iterations[1].OperationsPerSecond)

	// register + one per iteration + completion, per work item
	assert.Equal(t, 2*(1+2+1), w.writes)
	assert.Equal(t, results, sink.published)
}

func TestRun_InjectedIdentifiers(t *testing.T) {
	runID := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	var n byte
	nextID := func() uuid.UUID {
		n++
		return uuid.UUID{15: n}
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	o := New(adapter.Registry{config.Java: &fakeAdapter{}}, &memWriter{}, Config{Iterations: 1},
		WithRunID(runID), WithIDs(nextID), WithLogger(logger))
	assert.Equal(t, runID, o.RunID())

	results, err := o.Run(context.Background(), singleGroupPlan("--size 1", "--size 2"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uuid.UUID{15: 1}, results[0].ID)
	assert.Equal(t, uuid.UUID{15: 2}, results[1].ID)
	for _, r := range results {
		assert.Equal(t, runID, r.RunID)
	}
	assert.Contains(t, logs.String(), "run_id="+runID.String())
}

func TestRun_SetupFailureSkipsIterationsButCleansUp(t *testing.T) {
	fa := &fakeAdapter{setupErr: errors.New("mvn exited with code 1")}
	w := &memWriter{}
	sink := &recordingSink{}
	o := New(adapter.Registry{config.Java: fa}, w, Config{Iterations: 3}, WithSinks(sink))

	results, err := o.Run(context.Background(), singleGroupPlan("--size 1", "--size 2"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Empty(t, r.Iterations)
		assert.Contains(t, r.SetupException, "mvn exited with code 1")
		assert.Equal(t, "partial build log", r.SetupStandardOutput)
		assert.NotNil(t, r.End)
	}
	assert.Zero(t, fa.runs)
	assert.Equal(t, []string{"setup svc-perf 17", "cleanup svc-perf"}, fa.calls)
	assert.Len(t, sink.published, 2)
}

func TestRun_SetupPanicIsASetupFailure(t *testing.T) {
	fa := &fakeAdapter{setupPanic: true}
	o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: 1})

	results, err := o.Run(context.Background(), singleGroupPlan("--size 1"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].SetupException, "build tool crashed")
	assert.Equal(t, []string{"setup svc-perf 17", "cleanup svc-perf"}, fa.calls)
}

func TestRun_IterationFailureDoesNotStopLaterIterations(t *testing.T) {
	fa := &fakeAdapter{runFn: func(n int) (result.IterationResult, error) {
		switch n {
		case 2:
			return result.IterationResult{}, errors.New("exec: \"java\": executable file not found")
		case 3:
			panic("adapter bug")
		case 4:
			return result.IterationResult{OperationsPerSecond: math.Inf(1)}, nil
		}
		return result.IterationResult{OperationsPerSecond: 10}, nil
	}}
	o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: 5})

	results, err := o.Run(context.Background(), singleGroupPlan("--size 1"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	its := results[0].Iterations
	require.Len(t, its, 5)
	assert.Equal(t, 10.0, its[0].OperationsPerSecond)
	assert.Equal(t, result.FailedOperationsPerSecond, its[1].OperationsPerSecond)
	assert.Contains(t, its[1].Exception, "executable file not found")
	assert.Equal(t, result.FailedOperationsPerSecond, its[2].OperationsPerSecond)
	assert.Contains(t, its[2].Exception, "adapter bug")
	assert.Equal(t, result.FailedOperationsPerSecond, its[3].OperationsPerSecond)
	assert.Empty(t, its[3].Exception)
	assert.Equal(t, 10.0, its[4].OperationsPerSecond)

	best, ok := results[0].OperationsPerSecondMax()
	require.True(t, ok)
	assert.Equal(t, 10.0, best)
}

func TestRun_CleanupFailureIsNotEscalated(t *testing.T) {
	fa := &fakeAdapter{cleanupErr: errors.New("pom.xml.bak missing")}
	plan := singleGroupPlan("--size 1")
	second := plan.Groups[0]
	second.LanguageVersion = "21"
	plan.Groups = append(plan.Groups, second)

	o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: 1})
	results, err := o.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{
		"setup svc-perf 17",
		"run svc-perf downloadblob [--size 1] artifact.jar",
		"cleanup svc-perf",
		"setup svc-perf 21",
		"run svc-perf downloadblob [--size 1] artifact.jar",
		"cleanup svc-perf",
	}, fa.calls)
}

func TestRun_NoCleanup(t *testing.T) {
	fa := &fakeAdapter{setupErr: errors.New("boom")}
	o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: 1, NoCleanup: true})

	_, err := o.Run(context.Background(), singleGroupPlan("--size 1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"setup svc-perf 17"}, fa.calls)
}

func TestRun_MissingAdapterFailsBeforeAnyCall(t *testing.T) {
	fa := &fakeAdapter{}
	plan := singleGroupPlan("--size 1")
	other := plan.Groups[0]
	other.Language = config.Cpp
	plan.Groups = append(plan.Groups, other)

	w := &memWriter{}
	o := New(adapter.Registry{config.Java: fa}, w, Config{Iterations: 1})
	results, err := o.Run(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, apperr.IsConfig(err))
	assert.Nil(t, results)
	assert.Empty(t, fa.calls)
	assert.Zero(t, w.writes)
}

func TestRun_InvalidIterations(t *testing.T) {
	fa := &fakeAdapter{}
	o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: 0})
	_, err := o.Run(context.Background(), singleGroupPlan("--size 1"))
	require.Error(t, err)
	assert.True(t, apperr.IsConfig(err))
	assert.Empty(t, fa.calls)
}

func TestRun_WriterFailureAbortsAfterCleanup(t *testing.T) {
	fa := &fakeAdapter{}
	w := &memWriter{failAfter: 2}
	o := New(adapter.Registry{config.Java: fa}, w, Config{Iterations: 3})

	_, err := o.Run(context.Background(), singleGroupPlan("--size 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "cleanup svc-perf", fa.calls[len(fa.calls)-1])
	assert.Equal(t, 2, fa.runs)
}

func TestRun_SinkFailureIsIgnored(t *testing.T) {
	sink := &recordingSink{err: errors.New("connection refused")}
	o := New(adapter.Registry{config.Java: &fakeAdapter{}}, &memWriter{}, Config{Iterations: 1}, WithSinks(sink))

	results, err := o.Run(context.Background(), singleGroupPlan("--size 1", "--size 2"))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, sink.published, 2)
}

func TestRun_CancelledContextStillCleansUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fa := &fakeAdapter{}
	fa.runFn = func(n int) (result.IterationResult, error) {
		cancel()
		return result.IterationResult{OperationsPerSecond: 1}, nil
	}
	o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: 3})

	results, err := o.Run(ctx, singleGroupPlan("--size 1"))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Iterations, 1)
	assert.Equal(t, "cleanup svc-perf", fa.calls[len(fa.calls)-1])
}

func TestRun_IterationCountNeverExceedsConfigured(t *testing.T) {
	for _, iterations := range []int{1, 2, 5} {
		fa := &fakeAdapter{}
		o := New(adapter.Registry{config.Java: fa}, &memWriter{}, Config{Iterations: iterations})
		results, err := o.Run(context.Background(), singleGroupPlan("a", "b", "c"))
		require.NoError(t, err)
		for _, r := range results {
			assert.Len(t, r.Iterations, iterations)
		}
	}
}

func TestRun_EndToEnd(t *testing.T) {
	in, err := config.ParseInput([]byte(`
languages:
  java:
    default_versions: ["17"]
services:
  - service: svc
    languages:
      java:
        project: svc-perf
        primary_package: svc-core
        package_versions:
          - svc-core: source
          - svc-core: 1.2.3
    tests:
      - test: download
        arguments: ["--size 1"]
        test_names:
          java: downloadblob
`))
	require.NoError(t, err)

	opts := options.Default()
	opts.NoAsync = true
	opts.Iterations = 2

	plan, err := matrix.Expand(in, opts)
	require.NoError(t, err)

	dir := t.TempDir()
	paths := report.UniquePaths(filepath.Join(dir, "results"), ".json", ".csv")
	w := report.NewWriter(paths[0], paths[1])
	require.NoError(t, w.Create())

	fa := &fakeAdapter{}
	o := New(adapter.Registry{config.Java: fa}, w, Config{Iterations: opts.Iterations})
	results, err := o.Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Len(t, r.Iterations, 2)
	}

	summaries := result.Summarize(results)
	require.Len(t, summaries, 1)
	assert.Equal(t, "1.2.3", summaries[0].LastVersion)
	assert.Equal(t, 200.0, *summaries[0].Source)
	assert.Equal(t, 400.0, *summaries[0].Last)

	persisted, err := report.ReadResults(w.JSONPath())
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	csvData, err := os.ReadFile(w.CSVPath())
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "java,17,svc,download,--size 1 --sync,200.00,1.2.3,400.00")
}

func TestRun_BothModesSuppressedNeverReachesAdapter(t *testing.T) {
	in, err := config.ParseInput([]byte(`
languages:
  java:
    default_versions: ["17"]
services:
  - service: svc
    languages:
      java:
        project: svc-perf
        primary_package: svc-core
        package_versions:
          - svc-core: source
    tests:
      - test: download
        arguments: ["--size 1"]
        test_names:
          java: downloadblob
`))
	require.NoError(t, err)

	opts := options.Default()
	opts.NoAsync, opts.NoSync = true, true

	plan, err := matrix.Expand(in, opts)
	require.Error(t, err)
	assert.Nil(t, plan)
}

func TestRun_PersistsAfterEveryIteration(t *testing.T) {
	w := &memWriter{}
	o := New(adapter.Registry{config.Java: &fakeAdapter{}}, w, Config{Iterations: 2})
	_, err := o.Run(context.Background(), singleGroupPlan("--size 1"))
	require.NoError(t, err)

	require.Len(t, w.snapshots, 4)
	counts := make([]int, 0, len(w.snapshots))
	for _, snap := range w.snapshots {
		path := filepath.Join(t.TempDir(), "snap.json")
		require.NoError(t, os.WriteFile(path, snap, 0644))
		rs, err := report.ReadResults(path)
		require.NoError(t, err)
		require.Len(t, rs, 1)
		counts = append(counts, len(rs[0].Iterations))
	}
	assert.Equal(t, []int{0, 1, 2, 2}, counts)
}
