package main

import (
	"flag"
	"strings"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/options"
)

const (
	modeRun     = "run"
	modeServe   = "serve"
	modePublish = "publish"
)

type cliConfig struct {
	Mode        string
	ResultsPath string
	EnvPath     string
	Options     options.RunOptions
}

// listValue collects a repeatable flag whose values may also be separated
// by sep.
type listValue struct {
	values *[]string
	sep    string
}

func (l listValue) String() string {
	if l.values == nil {
		return ""
	}
	return strings.Join(*l.values, l.sep)
}

func (l listValue) Set(s string) error {
	for _, v := range strings.Split(s, l.sep) {
		if v = strings.TrimSpace(v); v != "" {
			*l.values = append(*l.values, v)
		}
	}
	return nil
}

func parseFlags(args []string) (cliConfig, error) {
	cfg := cliConfig{Options: options.Default()}
	o := &cfg.Options
	var languages []string

	fs := flag.NewFlagSet("perf", flag.ContinueOnError)

	fs.StringVar(&cfg.Mode, "mode", modeRun, "Mode: run, serve (results API) or publish (backfill sinks from a results file)")
	fs.StringVar(&cfg.ResultsPath, "results", "", "Results JSON file (serve and publish modes)")
	fs.StringVar(&cfg.EnvPath, "env-file", ".env", "Optional .env file with sink and server settings")

	fs.StringVar(&o.ConfigFile, "config-file", o.ConfigFile, "Path to the environment config YAML")
	fs.StringVar(&o.InputFile, "input-file", o.InputFile, "Path to the test matrix YAML")
	fs.StringVar(&o.OutputFilePrefix, "output-file-prefix", o.OutputFilePrefix, "Prefix for the JSON and CSV result files")
	fs.IntVar(&o.Iterations, "iterations", o.Iterations, "Number of measured iterations per work item")
	fs.Var(listValue{values: &languages, sep: ","}, "languages", "Languages to run, comma-separated or repeated (default all)")
	fs.StringVar(&o.LanguageVersions, "language-versions", "", "Regex of language versions to run")
	fs.StringVar(&o.Services, "services", "", "Regex of services to run")
	fs.StringVar(&o.Tests, "tests", "", "Regex of tests to run")
	fs.StringVar(&o.Arguments, "arguments", "", "Regex of test arguments to run")
	fs.StringVar(&o.PackageVersions, "package-versions", "", "Regex of primary package versions to run")
	fs.BoolVar(&o.NoSync, "no-sync", false, "Skip the synchronous variant of every test")
	fs.BoolVar(&o.NoAsync, "no-async", false, "Skip the asynchronous variant of every test")
	fs.BoolVar(&o.NoCleanup, "no-cleanup", false, "Leave build artifacts and modified project files in place")
	fs.BoolVar(&o.DryRun, "dry-run", false, "Print the options and test plan without running anything")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.Insecure, "insecure", false, "Pass --insecure to every test")
	fs.Var(listValue{values: &o.TestProxies, sep: ";"}, "test-proxies", "Test proxy URLs, semicolon-separated or repeated")
	fs.StringVar(&o.TestProxy, "test-proxy", "", "Single test proxy URL")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if len(languages) > 0 {
		langs, err := config.ParseLanguages(languages...)
		if err != nil {
			return cfg, apperr.NewConfigWrap("languages", "invalid language", err)
		}
		o.Languages = langs
	}
	return cfg, nil
}
