package adapter

import (
	"context"
	"fmt"
	"sort"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter/process"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
)

// SetupOutput is what a successful build hands back: captured diagnostics and
// an opaque token passed verbatim to every Run of the same setup window.
type SetupOutput struct {
	StandardOutput string
	StandardError  string
	Context        string
}

// Adapter builds, runs and cleans up benchmark projects for one language.
//
// Run should report an ordinary benchmark failure as an IterationResult with
// negative throughput and reserve errors for infrastructure failures. Cleanup
// must be safe to call when Setup failed or never ran.
type Adapter interface {
	Setup(ctx context.Context, project, languageVersion string, packageVersions config.PackageVersionSet) (SetupOutput, error)
	Run(ctx context.Context, project, languageVersion string, packageVersions config.PackageVersionSet,
		testName, arguments, setupContext string) (result.IterationResult, error)
	Cleanup(ctx context.Context, project string) error
}

type Registry map[config.Language]Adapter

// NewRegistry creates the built-in adapter for every language with a working
// directory configured.
func NewRegistry(cfg *config.Config, runner *process.Runner) Registry {
	r := make(Registry)
	for lang, dir := range cfg.WorkingDirectories {
		switch lang {
		case config.Java:
			r[lang] = NewJava(dir, runner)
		case config.Net:
			r[lang] = NewNet(dir, runner)
		case config.Python:
			r[lang] = NewPython(dir, runner)
		}
	}
	return r
}

func (r Registry) Lookup(l config.Language) (Adapter, error) {
	a, ok := r[l]
	if !ok {
		return nil, apperr.NewConfig("languages", fmt.Sprintf("no adapter registered for %s", l))
	}
	return a, nil
}

// Require checks that every language has an adapter before any work starts.
func (r Registry) Require(langs []config.Language) error {
	for _, l := range langs {
		if _, err := r.Lookup(l); err != nil {
			return err
		}
	}
	return nil
}

// sortedPackages returns package names in a stable order.
func sortedPackages(pv config.PackageVersionSet) []string {
	names := make([]string, 0, len(pv))
	for name := range pv {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
