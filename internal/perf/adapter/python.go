package adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter/process"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
)

const pythonEnv = "env-perf"

// Python installs the packages under test into a project-local virtualenv and
// runs perfstress from it.
type Python struct {
	dir    string
	runner *process.Runner
}

func NewPython(workingDirectory string, runner *process.Runner) *Python {
	return &Python{dir: workingDirectory, runner: runner}
}

var pythonMinorVersionRe = regexp.MustCompile(`^\d+\.\d+`)

func envBin() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

// systemPython picks "python" on Windows and "pythonX.Y" elsewhere.
func systemPython(languageVersion string) string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python" + pythonMinorVersionRe.FindString(languageVersion)
}

func (p *Python) projectDirectory(project string) string {
	return filepath.Join(p.dir, project)
}

func (p *Python) envTool(project, tool string) string {
	return filepath.Join(p.projectDirectory(project), pythonEnv, envBin(), tool)
}

// transcript accumulates the output of several commands run as one step.
type transcript struct {
	stdout, stderr strings.Builder
}

func (t *transcript) add(res process.Result) {
	t.stdout.WriteString(res.StandardOutput)
	t.stderr.WriteString(res.StandardError)
}

func (p *Python) Setup(ctx context.Context, project, languageVersion string, packageVersions config.PackageVersionSet) (SetupOutput, error) {
	projectDir := p.projectDirectory(project)
	if err := removeAll(filepath.Join(projectDir, pythonEnv)); err != nil {
		return SetupOutput{}, err
	}

	pip := p.envTool(project, "pip")
	commands := []process.Command{
		{Name: systemPython(languageVersion), Args: []string{"-m", "venv", pythonEnv}, Dir: projectDir},
		{Name: pip, Args: []string{"install", "-r", "dev_requirements.txt"}, Dir: projectDir},
	}
	for _, name := range sortedPackages(packageVersions) {
		version := packageVersions[name]
		if version == config.Source {
			commands = append(commands, process.Command{Name: pip, Args: []string{"install", "-e", "."}, Dir: projectDir})
		} else {
			commands = append(commands, process.Command{Name: pip, Args: []string{"install", name + "==" + version}, Dir: projectDir})
		}
	}

	var t transcript
	for _, c := range commands {
		res, err := p.runner.Run(ctx, c)
		t.add(res)
		if err != nil {
			return SetupOutput{StandardOutput: t.stdout.String(), StandardError: t.stderr.String()},
				fmt.Errorf("python setup: %w", err)
		}
	}

	return SetupOutput{StandardOutput: t.stdout.String(), StandardError: t.stderr.String()}, nil
}

func (p *Python) Run(ctx context.Context, project, _ string, packageVersions config.PackageVersionSet,
	testName, arguments, _ string) (result.IterationResult, error) {
	args, err := process.SplitArguments(arguments)
	if err != nil {
		return result.IterationResult{}, err
	}

	var t transcript
	freeze, err := p.runner.Run(ctx, process.Command{
		Name: p.envTool(project, "pip"),
		Args: []string{"freeze"},
		Dir:  p.projectDirectory(project),
	})
	t.add(freeze)
	if err != nil {
		return result.IterationResult{}, err
	}

	// azure-core==1.12.0
	// -e git+https://github.com/...#egg=azure_storage_blob&subdirectory=sdk/storage/azure-storage-blob
	runtimeVersions := make(map[string]string, len(packageVersions))
	for _, pkg := range sortedPackages(packageVersions) {
		re := regexp.MustCompile(`(?m)^.*` + regexp.QuoteMeta(pkg) + `.*$`)
		runtimeVersions[pkg] = strings.TrimSpace(re.FindString(freeze.StandardOutput))
	}

	res, err := p.runner.Run(ctx, process.Command{
		Name:           p.envTool(project, "perfstress"),
		Args:           append([]string{testName}, args...),
		Dir:            filepath.Join(p.projectDirectory(project), "tests"),
		IgnoreExitCode: true,
	})
	t.add(res)
	if err != nil {
		return result.IterationResult{}, err
	}

	// perfstress reports its summary line on stderr.
	return result.IterationResult{
		OperationsPerSecond: ParseOpsPerSecond(res.StandardError),
		StandardOutput:      t.stdout.String(),
		StandardError:       t.stderr.String(),
		PackageVersions:     runtimeVersions,
	}, nil
}

func (p *Python) Cleanup(_ context.Context, project string) error {
	return removeAll(filepath.Join(p.projectDirectory(project), pythonEnv))
}
