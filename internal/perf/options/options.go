package options

import (
	"fmt"
	"regexp"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
)

const (
	DefaultConfigFile       = "config.yml"
	DefaultInputFile        = "tests.yml"
	DefaultOutputFilePrefix = "results/results"
	DefaultIterations       = 1
)

// RunOptions is the validated set of run-time switches for one benchmark run.
type RunOptions struct {
	Arguments        string            `yaml:"arguments,omitempty"`
	ConfigFile       string            `yaml:"config_file"`
	Debug            bool              `yaml:"debug"`
	DryRun           bool              `yaml:"dry_run"`
	InputFile        string            `yaml:"input_file"`
	Insecure         bool              `yaml:"insecure"`
	Iterations       int               `yaml:"iterations"`
	Languages        []config.Language `yaml:"languages,omitempty"`
	LanguageVersions string            `yaml:"language_versions,omitempty"`
	NoAsync          bool              `yaml:"no_async"`
	NoCleanup        bool              `yaml:"no_cleanup"`
	NoSync           bool              `yaml:"no_sync"`
	OutputFilePrefix string            `yaml:"output_file_prefix"`
	PackageVersions  string            `yaml:"package_versions,omitempty"`
	Services         string            `yaml:"services,omitempty"`
	TestProxies      []string          `yaml:"test_proxies,omitempty"`
	TestProxy        string            `yaml:"test_proxy,omitempty"`
	Tests            string            `yaml:"tests,omitempty"`
}

func Default() RunOptions {
	return RunOptions{
		ConfigFile:       DefaultConfigFile,
		InputFile:        DefaultInputFile,
		OutputFilePrefix: DefaultOutputFilePrefix,
		Iterations:       DefaultIterations,
	}
}

func (o RunOptions) Validate() error {
	if o.Iterations < 1 {
		return apperr.NewConfig("iterations", fmt.Sprintf("must be positive, got %d", o.Iterations))
	}
	if o.NoSync && o.NoAsync {
		return apperr.NewConfig("", "cannot set both --no-sync and --no-async")
	}
	filters := []struct {
		field, expr string
	}{
		{"arguments", o.Arguments},
		{"language-versions", o.LanguageVersions},
		{"package-versions", o.PackageVersions},
		{"services", o.Services},
		{"tests", o.Tests},
	}
	for _, f := range filters {
		if f.expr == "" {
			continue
		}
		if _, err := regexp.Compile(f.expr); err != nil {
			return apperr.NewConfigWrap(f.field, "invalid regex", err)
		}
	}
	return nil
}

// LanguageSelected reports whether l passes the language set filter. An empty
// set selects every language.
func (o RunOptions) LanguageSelected(l config.Language) bool {
	if len(o.Languages) == 0 {
		return true
	}
	for _, sel := range o.Languages {
		if sel == l {
			return true
		}
	}
	return false
}
