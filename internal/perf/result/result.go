package result

import (
	"math"
	"time"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/google/uuid"
)

// FailedOperationsPerSecond marks an iteration that produced no usable
// measurement. It is finite so that it survives JSON encoding.
const FailedOperationsPerSecond = -math.MaxFloat64

type IterationResult struct {
	OperationsPerSecond float64           `json:"operations_per_second"`
	StandardOutput      string            `json:"standard_output,omitempty"`
	StandardError       string            `json:"standard_error,omitempty"`
	PackageVersions     map[string]string `json:"package_versions,omitempty"`
	Exception           string            `json:"exception,omitempty"`
}

// Failed builds the iteration recorded when an adapter run errors out.
func Failed(err error) IterationResult {
	return IterationResult{
		OperationsPerSecond: FailedOperationsPerSecond,
		Exception:           err.Error(),
	}
}

// Normalize replaces non-finite throughput with FailedOperationsPerSecond.
func (r *IterationResult) Normalize() {
	if math.IsNaN(r.OperationsPerSecond) || math.IsInf(r.OperationsPerSecond, 0) {
		r.OperationsPerSecond = FailedOperationsPerSecond
	}
}

// Result is the execution record of one work item.
type Result struct {
	ID                  uuid.UUID                `json:"id"`
	RunID               uuid.UUID                `json:"run_id"`
	Service             string                   `json:"service"`
	Test                string                   `json:"test"`
	Start               time.Time                `json:"start"`
	End                 *time.Time               `json:"end,omitempty"`
	Language            config.Language          `json:"language"`
	LanguageVersion     string                   `json:"language_version"`
	Project             string                   `json:"project"`
	LanguageTestName    string                   `json:"language_test_name"`
	Arguments           string                   `json:"arguments"`
	PrimaryPackage      string                   `json:"primary_package"`
	PackageVersions     config.PackageVersionSet `json:"package_versions"`
	SetupStandardOutput string                   `json:"setup_standard_output,omitempty"`
	SetupStandardError  string                   `json:"setup_standard_error,omitempty"`
	SetupException      string                   `json:"setup_exception,omitempty"`
	Iterations          []IterationResult        `json:"iterations"`
}

// OperationsPerSecondMax returns the best throughput across iterations. The
// maximum, not the mean, is the reported figure.
func (r *Result) OperationsPerSecondMax() (float64, bool) {
	if len(r.Iterations) == 0 {
		return 0, false
	}
	best := r.Iterations[0].OperationsPerSecond
	for _, it := range r.Iterations[1:] {
		if it.OperationsPerSecond > best {
			best = it.OperationsPerSecond
		}
	}
	return best, true
}

func (r *Result) PrimaryPackageVersion() string {
	return r.PackageVersions[r.PrimaryPackage]
}

func (r *Result) SetupFailed() bool {
	return r.SetupException != ""
}
