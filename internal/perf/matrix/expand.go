package matrix

import (
	"log/slog"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/options"
)

// Expand filters the matrix with the run options and resolves it into setup
// groups of work items. The result follows configuration order on every axis.
// Misconfigured options fail here, before any work item exists.
func Expand(in *config.Input, opts options.RunOptions) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := newFilters(opts)
	if err != nil {
		return nil, err
	}

	selected := selectInput(in, opts, f)
	plan := &Plan{Selected: selected}

	for _, service := range selected.Services {
		for _, sl := range service.Languages {
			langInfo := selected.Languages[sl.Language]
			versions := append(append([]string{}, langInfo.DefaultVersions...), langInfo.OptionalVersions...)

			for _, version := range versions {
				for _, pv := range sl.PackageVersions {
					g := Group{
						Service:         service.Service,
						Language:        sl.Language,
						LanguageVersion: version,
						Project:         sl.Project,
						PrimaryPackage:  sl.PrimaryPackage,
						PackageVersions: pv,
					}
					items, err := workItems(g, service.Tests, sl.AdditionalArguments, opts)
					if err != nil {
						return nil, err
					}
					if len(items) == 0 {
						slog.Debug("no tests for language, skipping setup",
							"service", service.Service, "language", sl.Language, "version", version)
						continue
					}
					g.Items = items
					plan.Groups = append(plan.Groups, g)
				}
			}
		}
	}

	return plan, nil
}

func workItems(g Group, tests []config.TestInfo, extra config.NamedArguments, opts options.RunOptions) ([]WorkItem, error) {
	var items []WorkItem
	for _, t := range tests {
		testName, ok := t.TestNames[g.Language]
		if !ok {
			continue
		}
		args, err := expandArguments(t.Arguments, opts.NoSync, opts.NoAsync)
		if err != nil {
			return nil, err
		}
		for _, a := range args {
			items = append(items, WorkItem{
				Service:          g.Service,
				Test:             t.Test,
				Language:         g.Language,
				LanguageVersion:  g.LanguageVersion,
				Project:          g.Project,
				PrimaryPackage:   g.PrimaryPackage,
				PackageVersions:  g.PackageVersions,
				LanguageTestName: testName,
				Arguments:        withExtraArguments(a, extra, opts),
			})
		}
	}
	return items, nil
}

// selectInput applies every filter axis and drops tests, languages and
// services that end up empty.
func selectInput(in *config.Input, opts options.RunOptions, f filters) *config.Input {
	out := &config.Input{Languages: make(map[config.Language]config.LanguageInfo)}

	for lang, info := range in.Languages {
		if !opts.LanguageSelected(lang) {
			continue
		}
		var sel config.LanguageInfo
		for _, v := range info.DefaultVersions {
			if f.languageVersions.match(v) {
				sel.DefaultVersions = append(sel.DefaultVersions, v)
			}
		}
		// Optional versions run only when asked for explicitly.
		if !f.languageVersions.empty() {
			for _, v := range info.OptionalVersions {
				if f.languageVersions.match(v) {
					sel.OptionalVersions = append(sel.OptionalVersions, v)
				}
			}
		}
		out.Languages[lang] = sel
	}

	for _, s := range in.Services {
		if !f.services.match(s.Service) {
			continue
		}

		var tests []config.TestInfo
		for _, t := range s.Tests {
			if !f.tests.match(t.Test) {
				continue
			}
			var args []string
			for _, a := range t.Arguments {
				if f.arguments.match(a) {
					args = append(args, a)
				}
			}
			names := make(map[config.Language]string)
			for lang, name := range t.TestNames {
				if opts.LanguageSelected(lang) {
					names[lang] = name
				}
			}
			if len(args) == 0 || len(names) == 0 {
				continue
			}
			tests = append(tests, config.TestInfo{Test: t.Test, Arguments: args, TestNames: names})
		}
		if len(tests) == 0 {
			continue
		}

		var langs config.ServiceLanguages
		for _, sl := range s.Languages {
			if !opts.LanguageSelected(sl.Language) {
				continue
			}
			info := sl.ServiceLanguageInfo
			info.PackageVersions = nil
			for _, pv := range sl.PackageVersions {
				if f.packageVersions.match(pv[sl.PrimaryPackage]) {
					info.PackageVersions = append(info.PackageVersions, pv)
				}
			}
			langs = append(langs, config.ServiceLanguage{Language: sl.Language, ServiceLanguageInfo: info})
		}

		out.Services = append(out.Services, config.ServiceInfo{Service: s.Service, Languages: langs, Tests: tests})
	}

	return out
}
