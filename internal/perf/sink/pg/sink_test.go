package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	pkgtesting "github.com/DjordjeVuckovic/perf-automation/pkg/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(ops ...float64) *result.Result {
	end := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	res := &result.Result{
		ID:               uuid.New(),
		RunID:            uuid.New(),
		Service:          "storage-blob",
		Test:             "download",
		Start:            time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		End:              &end,
		Language:         config.Net,
		LanguageVersion:  "net8.0",
		Project:          "Azure.Storage.Blobs.Perf",
		LanguageTestName: "DownloadBlob",
		Arguments:        "--size 1024 --sync",
		PrimaryPackage:   "Azure.Storage.Blobs",
		PackageVersions:  config.PackageVersionSet{"Azure.Storage.Blobs": "12.19.0"},
		Iterations:       []result.IterationResult{},
	}
	for _, v := range ops {
		res.Iterations = append(res.Iterations, result.IterationResult{OperationsPerSecond: v})
	}
	return res
}

func TestRowArgs(t *testing.T) {
	res := sampleResult(10, 30, 20)

	args, err := rowArgs(res)
	require.NoError(t, err)
	require.Len(t, args, 17)

	assert.Equal(t, res.ID, args[0])
	assert.Equal(t, "net", args[4])
	assert.Equal(t, "12.19.0", args[10])
	assert.JSONEq(t, `{"Azure.Storage.Blobs":"12.19.0"}`, string(args[11].([]byte)))
	require.NotNil(t, args[15])
	assert.Equal(t, 30.0, *args[15].(*float64))
}

func TestRowArgs_NoIterations(t *testing.T) {
	res := sampleResult()
	res.SetupException = "dotnet publish exited with code 1"

	args, err := rowArgs(res)
	require.NoError(t, err)
	assert.Nil(t, args[15])
	assert.Equal(t, "dotnet publish exited with code 1", args[14])
	assert.Equal(t, "[]", string(args[16].([]byte)))
}

func TestSink_Integration(t *testing.T) {
	ctx := context.Background()
	pg := pkgtesting.NewPGContainerWithCleanup(ctx, t)

	s, err := NewSink(ctx, PoolConfig{ConnStr: pg.ConnString})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.pool.GetConn().Ping(ctx))
	require.NoError(t, s.EnsureSchema(ctx), "schema creation must be repeatable")

	first := sampleResult(100)
	require.NoError(t, s.Publish(ctx, first))

	first.Iterations = append(first.Iterations, result.IterationResult{OperationsPerSecond: 250})
	second := sampleResult(result.FailedOperationsPerSecond)
	require.NoError(t, s.PublishAll(ctx, []*result.Result{first, second}))

	var count int
	require.NoError(t, s.pool.GetConn().QueryRow(ctx, "SELECT count(*) FROM perf_results").Scan(&count))
	assert.Equal(t, 2, count)

	var best float64
	require.NoError(t, s.pool.GetConn().
		QueryRow(ctx, "SELECT ops_per_second_max FROM perf_results WHERE id = $1", first.ID).
		Scan(&best))
	assert.Equal(t, 250.0, best)
}
