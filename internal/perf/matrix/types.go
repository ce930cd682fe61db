package matrix

import "github.com/DjordjeVuckovic/perf-automation/internal/perf/config"

// WorkItem is one fully resolved benchmark invocation.
type WorkItem struct {
	Service          string
	Test             string
	Language         config.Language
	LanguageVersion  string
	Project          string
	PrimaryPackage   string
	PackageVersions  config.PackageVersionSet
	LanguageTestName string
	Arguments        string
}

// Group is one setup window: every work item in Items shares the same built
// artifact, so the adapter is set up once before them and cleaned up once after.
type Group struct {
	Service         string
	Language        config.Language
	LanguageVersion string
	Project         string
	PrimaryPackage  string
	PackageVersions config.PackageVersionSet
	Items           []WorkItem
}

type Plan struct {
	// Selected is the filtered matrix, kept for printing the test plan.
	Selected *config.Input
	Groups   []Group
}

func (p *Plan) WorkItemCount() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Items)
	}
	return n
}

// Languages lists the distinct languages the plan will execute, in plan order.
func (p *Plan) Languages() []config.Language {
	seen := make(map[config.Language]bool)
	var langs []config.Language
	for _, g := range p.Groups {
		if !seen[g.Language] {
			seen[g.Language] = true
			langs = append(langs, g.Language)
		}
	}
	return langs
}
