package es

import (
	"time"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

// ResultDocument is the flattened, aggregation-friendly form of a result.
// Raw process output stays in the JSON report.
type ResultDocument struct {
	ID                     string            `json:"id"`
	RunID                  string            `json:"run_id"`
	Service                string            `json:"service"`
	Test                   string            `json:"test"`
	Language               string            `json:"language"`
	LanguageVersion        string            `json:"language_version"`
	Project                string            `json:"project"`
	LanguageTestName       string            `json:"language_test_name"`
	Arguments              string            `json:"arguments"`
	PrimaryPackage         string            `json:"primary_package"`
	PrimaryPackageVersion  string            `json:"primary_package_version"`
	PackageVersions        map[string]string `json:"package_versions"`
	Start                  time.Time         `json:"start"`
	End                    *time.Time        `json:"end,omitempty"`
	SetupFailed            bool              `json:"setup_failed"`
	SetupException         string            `json:"setup_exception,omitempty"`
	Iterations             int               `json:"iterations"`
	FailedIterations       int               `json:"failed_iterations"`
	OperationsPerSecond    []float64         `json:"operations_per_second"`
	OperationsPerSecondMax *float64          `json:"operations_per_second_max,omitempty"`
	Stats                  *result.Stats     `json:"stats,omitempty"`
	IndexedAt              time.Time         `json:"indexed_at"`
}

func toDocument(res *result.Result, now time.Time) ResultDocument {
	doc := ResultDocument{
		ID:                    res.ID.String(),
		RunID:                 res.RunID.String(),
		Service:               res.Service,
		Test:                  res.Test,
		Language:              string(res.Language),
		LanguageVersion:       res.LanguageVersion,
		Project:               res.Project,
		LanguageTestName:      res.LanguageTestName,
		Arguments:             res.Arguments,
		PrimaryPackage:        res.PrimaryPackage,
		PrimaryPackageVersion: res.PrimaryPackageVersion(),
		PackageVersions:       res.PackageVersions,
		Start:                 res.Start,
		End:                   res.End,
		SetupFailed:           res.SetupFailed(),
		SetupException:        res.SetupException,
		Iterations:            len(res.Iterations),
		OperationsPerSecond:   make([]float64, 0, len(res.Iterations)),
		IndexedAt:             now,
	}
	for _, it := range res.Iterations {
		if it.OperationsPerSecond >= 0 {
			doc.OperationsPerSecond = append(doc.OperationsPerSecond, it.OperationsPerSecond)
		}
	}

	stats := res.Stats()
	doc.FailedIterations = stats.Failed
	if !stats.IsZero() {
		doc.OperationsPerSecondMax = &stats.Max
		doc.Stats = &stats
	}
	return doc
}

func buildMapping() types.TypeMapping {
	return types.TypeMapping{
		Properties: map[string]types.Property{
			"id":                        types.NewKeywordProperty(),
			"run_id":                    types.NewKeywordProperty(),
			"service":                   types.NewKeywordProperty(),
			"test":                      types.NewKeywordProperty(),
			"language":                  types.NewKeywordProperty(),
			"language_version":          types.NewKeywordProperty(),
			"project":                   types.NewKeywordProperty(),
			"language_test_name":        types.NewKeywordProperty(),
			"arguments":                 types.NewKeywordProperty(),
			"primary_package":           types.NewKeywordProperty(),
			"primary_package_version":   types.NewKeywordProperty(),
			"package_versions":          types.NewFlattenedProperty(),
			"start":                     types.NewDateProperty(),
			"end":                       types.NewDateProperty(),
			"setup_failed":              types.NewBooleanProperty(),
			"setup_exception":           types.NewTextProperty(),
			"iterations":                types.NewIntegerNumberProperty(),
			"failed_iterations":         types.NewIntegerNumberProperty(),
			"operations_per_second":     types.NewDoubleNumberProperty(),
			"operations_per_second_max": types.NewDoubleNumberProperty(),
			"stats": &types.ObjectProperty{
				Properties: map[string]types.Property{
					"min":          types.NewDoubleNumberProperty(),
					"max":          types.NewDoubleNumberProperty(),
					"mean":         types.NewDoubleNumberProperty(),
					"median":       types.NewDoubleNumberProperty(),
					"stddev":       types.NewDoubleNumberProperty(),
					"sample_count": types.NewIntegerNumberProperty(),
					"failed":       types.NewIntegerNumberProperty(),
				},
			},
			"indexed_at": types.NewDateProperty(),
		},
	}
}
