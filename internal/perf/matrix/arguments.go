package matrix

import (
	"strings"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/options"
)

const syncFlag = " --sync"

// expandArguments turns each configured argument string into its async and/or
// sync invocation.
func expandArguments(args []string, noSync, noAsync bool) ([]string, error) {
	if noSync && noAsync {
		return nil, apperr.NewConfig("", "cannot set both --no-sync and --no-async")
	}
	out := make([]string, 0, 2*len(args))
	for _, a := range args {
		if !noAsync {
			out = append(out, a)
		}
		if !noSync {
			out = append(out, a+syncFlag)
		}
	}
	return out, nil
}

// withExtraArguments appends the service language's fixed arguments and the
// run-wide proxy and TLS switches to one invocation.
func withExtraArguments(arguments string, extra config.NamedArguments, opts options.RunOptions) string {
	var b strings.Builder
	b.WriteString(arguments)

	for _, a := range extra {
		if strings.Contains(arguments, "--"+a.Name+" ") {
			continue
		}
		b.WriteString(" --" + a.Name + " " + a.Value)
	}

	if opts.Insecure {
		b.WriteString(" --insecure")
	}
	if len(opts.TestProxies) > 0 {
		b.WriteString(" --test-proxies " + strings.Join(opts.TestProxies, ";"))
	}
	if opts.TestProxy != "" {
		b.WriteString(" --test-proxy " + opts.TestProxy)
	}

	return b.String()
}
