package result

import "github.com/DjordjeVuckovic/perf-automation/internal/perf/config"

// Summary compares local source against the last released version for one
// (language, version, service, test, arguments) group.
type Summary struct {
	Language        config.Language `json:"language"`
	LanguageVersion string          `json:"language_version"`
	Service         string          `json:"service"`
	Test            string          `json:"test"`
	Arguments       string          `json:"arguments"`
	Source          *float64        `json:"source,omitempty"`
	LastVersion     string          `json:"last_version,omitempty"`
	Last            *float64        `json:"last,omitempty"`
}

type summaryKey struct {
	language        config.Language
	languageVersion string
	service         string
	test            string
	arguments       string
}

// Summarize groups results in first-seen order. Within a group the source
// build provides Source and the last non-source result provides Last.
func Summarize(results []*Result) []Summary {
	index := make(map[summaryKey]int)
	var summaries []Summary

	for _, r := range results {
		key := summaryKey{r.Language, r.LanguageVersion, r.Service, r.Test, r.Arguments}
		i, ok := index[key]
		if !ok {
			i = len(summaries)
			index[key] = i
			summaries = append(summaries, Summary{
				Language:        r.Language,
				LanguageVersion: r.LanguageVersion,
				Service:         r.Service,
				Test:            r.Test,
				Arguments:       r.Arguments,
			})
		}

		s := &summaries[i]
		best, measured := r.OperationsPerSecondMax()
		version := r.PrimaryPackageVersion()
		if version == config.Source {
			s.Source = nil
			if measured {
				s.Source = &best
			}
		} else {
			s.LastVersion = version
			s.Last = nil
			if measured {
				s.Last = &best
			}
		}
	}

	return summaries
}
