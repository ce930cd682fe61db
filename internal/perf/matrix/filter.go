package matrix

import (
	"regexp"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/options"
)

// pattern is a case-insensitive filter. A nil pattern matches everything.
type pattern struct {
	re *regexp.Regexp
}

func compile(field, expr string) (pattern, error) {
	if expr == "" {
		return pattern{}, nil
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return pattern{}, apperr.NewConfigWrap(field, "invalid regex", err)
	}
	return pattern{re: re}, nil
}

func (p pattern) empty() bool {
	return p.re == nil
}

func (p pattern) match(s string) bool {
	return p.re == nil || p.re.MatchString(s)
}

type filters struct {
	services         pattern
	tests            pattern
	arguments        pattern
	languageVersions pattern
	packageVersions  pattern
}

func newFilters(opts options.RunOptions) (filters, error) {
	var f filters
	var err error
	if f.services, err = compile("services", opts.Services); err != nil {
		return f, err
	}
	if f.tests, err = compile("tests", opts.Tests); err != nil {
		return f, err
	}
	if f.arguments, err = compile("arguments", opts.Arguments); err != nil {
		return f, err
	}
	if f.languageVersions, err = compile("language-versions", opts.LanguageVersions); err != nil {
		return f, err
	}
	if f.packageVersions, err = compile("package-versions", opts.PackageVersions); err != nil {
		return f, err
	}
	return f, nil
}
