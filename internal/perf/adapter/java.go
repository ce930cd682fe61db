package adapter

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/adapter/process"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
)

// Java builds perf projects with maven and runs the shaded jar.
type Java struct {
	dir    string
	runner *process.Runner
}

func NewJava(workingDirectory string, runner *process.Runner) *Java {
	return &Java{dir: workingDirectory, runner: runner}
}

// Prevents "Java heap space" failures when compiling large perf modules.
var javaBuildEnv = map[string]string{"MAVEN_OPTS": "-Xmx1024m"}

var jarRe = regexp.MustCompile(`(?i)Building jar: (.*with-dependencies\.jar)`)

func (j *Java) perfCoreProjectFile() string {
	return filepath.Join(j.dir, "common", "perf-test-core", "pom.xml")
}

func (j *Java) projectFile(project string) string {
	return filepath.Join(j.dir, project, "pom.xml")
}

func (j *Java) Setup(ctx context.Context, project, _ string, packageVersions config.PackageVersionSet) (SetupOutput, error) {
	for _, pom := range []string{j.perfCoreProjectFile(), j.projectFile(project)} {
		if err := updatePomVersions(pom, packageVersions); err != nil {
			return SetupOutput{}, err
		}
	}

	res, err := j.runner.Run(ctx, process.Command{
		Name: "mvn",
		Args: []string{"clean", "package", "-T1C", "-am", "-Denforcer.skip=true", "-DskipTests=true",
			"-Dmaven.javadoc.skip=true", "--pl", project},
		Dir: j.dir,
		Env: javaBuildEnv,
	})
	out := SetupOutput{StandardOutput: res.StandardOutput, StandardError: res.StandardError}
	if err != nil {
		return out, fmt.Errorf("maven build: %w", err)
	}

	out.Context = lastSubmatch(jarRe, res.StandardOutput)
	if out.Context == "" {
		return out, errors.New("maven build did not report a jar-with-dependencies")
	}
	return out, nil
}

func (j *Java) Run(ctx context.Context, _, _ string, _ config.PackageVersionSet,
	testName, arguments, jar string) (result.IterationResult, error) {
	args, err := process.SplitArguments(arguments)
	if err != nil {
		return result.IterationResult{}, err
	}

	res, err := j.runner.Run(ctx, process.Command{
		Name:           "java",
		Args:           append([]string{"-jar", jar, "--", testName}, args...),
		Dir:            j.dir,
		IgnoreExitCode: true,
	})
	if err != nil {
		return result.IterationResult{}, err
	}

	return result.IterationResult{
		OperationsPerSecond: ParseOpsPerSecond(res.StandardOutput),
		StandardOutput:      res.StandardOutput,
		StandardError:       res.StandardError,
	}, nil
}

func (j *Java) Cleanup(_ context.Context, project string) error {
	return errors.Join(
		restore(j.perfCoreProjectFile()),
		restore(j.projectFile(project)),
	)
}

// updatePomVersions pins dependency versions in a pom file after backing it
// up. Only the project's own <dependencies> block is rewritten; managed
// dependencies, plugins and exclusions keep their versions. Packages built
// from source and dependencies the pom does not declare are left untouched.
func updatePomVersions(pom string, packageVersions config.PackageVersionSet) error {
	if err := backup(pom, false); err != nil {
		return err
	}
	data, err := os.ReadFile(pom)
	if err != nil {
		return fmt.Errorf("read %s: %w", pom, err)
	}
	start, end, found, err := projectDependencies(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", pom, err)
	}
	if !found {
		return nil
	}

	deps := string(data[start:end])
	for _, name := range sortedPackages(packageVersions) {
		version := packageVersions[name]
		if version == config.Source {
			continue
		}
		re := regexp.MustCompile(`(<artifactId>` + regexp.QuoteMeta(name) + `</artifactId>\s*<version>)[^<]*(</version>)`)
		deps = re.ReplaceAllString(deps, "${1}"+version+"${2}")
	}

	contents := string(data[:start]) + deps + string(data[end:])
	if err := os.WriteFile(pom, []byte(contents), 0644); err != nil {
		return fmt.Errorf("write %s: %w", pom, err)
	}
	return nil
}

// projectDependencies returns the byte range of the content of the
// <dependencies> element that is a direct child of <project>.
func projectDependencies(data []byte) (start, end int, found bool, err error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var path []string
	for {
		offset := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return 0, 0, false, nil
		}
		if err != nil {
			return 0, 0, false, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			path = append(path, el.Name.Local)
			if len(path) == 2 && path[0] == "project" && path[1] == "dependencies" {
				start = int(dec.InputOffset())
			}
		case xml.EndElement:
			if len(path) == 2 && path[0] == "project" && path[1] == "dependencies" {
				return start, offset, true, nil
			}
			path = path[:len(path)-1]
		}
	}
}
