package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter/process"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
)

// Net publishes a .NET perf project and runs the published assembly.
type Net struct {
	dir    string
	runner *process.Runner
}

func NewNet(workingDirectory string, runner *process.Runner) *Net {
	return &Net{dir: workingDirectory, runner: runner}
}

// The test framework locates the repository root from the "artifacts" folder,
// so publishing must happen below it.
func (n *Net) publishDirectory() string {
	return filepath.Join(n.dir, "artifacts", "perf")
}

func (n *Net) Setup(ctx context.Context, project, languageVersion string, packageVersions config.PackageVersionSet) (SetupOutput, error) {
	projectFile := filepath.Join(n.dir, project)
	if err := backup(projectFile, true); err != nil {
		return SetupOutput{}, err
	}

	data, err := os.ReadFile(projectFile)
	if err != nil {
		return SetupOutput{}, fmt.Errorf("read %s: %w", projectFile, err)
	}

	contents, buildArgs, err := overridePackageReferences(string(data), packageVersions)
	if err != nil {
		return SetupOutput{}, fmt.Errorf("project file %s: %w", projectFile, err)
	}
	if err := os.WriteFile(projectFile, []byte(contents), 0644); err != nil {
		return SetupOutput{}, fmt.Errorf("write %s: %w", projectFile, err)
	}

	if err := removeAll(n.publishDirectory()); err != nil {
		return SetupOutput{}, err
	}

	args := []string{"publish", "-c", "release", "-f", languageVersion, "-o", n.publishDirectory()}
	args = append(args, buildArgs...)
	args = append(args, project)

	res, err := n.runner.Run(ctx, process.Command{Name: "dotnet", Args: args, Dir: n.dir})
	out := SetupOutput{StandardOutput: res.StandardOutput, StandardError: res.StandardError}
	if err != nil {
		return out, fmt.Errorf("dotnet publish: %w", err)
	}
	return out, nil
}

// overridePackageReferences rewrites package or project references to pinned
// package references. A source package forces project references for every
// transitive client library.
func overridePackageReferences(contents string, packageVersions config.PackageVersionSet) (string, []string, error) {
	var buildArgs []string

	for _, name := range sortedPackages(packageVersions) {
		version := packageVersions[name]
		if version == config.Source {
			buildArgs = []string{"-p:UseProjectReferenceToAzureClients=true"}
			continue
		}

		quoted := regexp.QuoteMeta(name)
		packageRef := regexp.MustCompile(`(?is)<PackageReference [^>]*` + quoted + `[^<]*/>`)
		projectRef := regexp.MustCompile(`(?is)<ProjectReference [^>]*` + quoted + `\.csproj[^<]*/>`)

		var re *regexp.Regexp
		switch {
		case packageRef.MatchString(contents):
			re = packageRef
		case projectRef.MatchString(contents):
			re = projectRef
		default:
			return "", nil, fmt.Errorf("no existing package or project reference to %s", name)
		}

		replacement := fmt.Sprintf(`<PackageReference Include="%s" VersionOverride="%s" />`, name, version)
		contents = re.ReplaceAllLiteralString(contents, replacement)
	}

	return contents, buildArgs, nil
}

func informationalVersionRe(pkg string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(pkg) + `:.*?Informational: (\S*)`)
}

func (n *Net) Run(ctx context.Context, project, _ string, packageVersions config.PackageVersionSet,
	testName, arguments, _ string) (result.IterationResult, error) {
	dll := strings.TrimSuffix(filepath.Base(project), filepath.Ext(project)) + ".dll"
	args, err := process.SplitArguments(arguments)
	if err != nil {
		return result.IterationResult{}, err
	}

	res, err := n.runner.Run(ctx, process.Command{
		Name:           "dotnet",
		Args:           append([]string{filepath.Join(n.publishDirectory(), dll), testName}, args...),
		Dir:            n.dir,
		IgnoreExitCode: true,
	})
	if err != nil {
		return result.IterationResult{}, err
	}

	// Azure.Storage.Blobs:
	//   Referenced: 12.8.0.0
	//   Loaded: 12.8.0.0
	//   Informational: 12.8.0+430f2eba747d6de99a43f4f8bd63cd28e673f979
	runtimeVersions := make(map[string]string, len(packageVersions))
	for _, pkg := range sortedPackages(packageVersions) {
		if m := informationalVersionRe(pkg).FindStringSubmatch(res.StandardOutput); m != nil {
			runtimeVersions[pkg] = m[1]
		} else {
			runtimeVersions[pkg] = ""
		}
	}

	return result.IterationResult{
		OperationsPerSecond: ParseOpsPerSecond(res.StandardOutput),
		StandardOutput:      res.StandardOutput,
		StandardError:       res.StandardError,
		PackageVersions:     runtimeVersions,
	}, nil
}

func (n *Net) Cleanup(_ context.Context, project string) error {
	if err := removeAll(n.publishDirectory()); err != nil {
		return err
	}
	return restore(filepath.Join(n.dir, project))
}
