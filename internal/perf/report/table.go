package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/dustin/go-humanize"
)

func WriteTable(summaries []result.Summary, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== Results Summary ===\n\n")

	header := []string{"Language", "Version", "Service", "Test", "Arguments", "Source", "Last Version", "Last"}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))

	for _, s := range summaries {
		lastVersion := s.LastVersion
		if lastVersion == "" {
			lastVersion = "-"
		}
		row := []string{
			s.Language.String(),
			s.LanguageVersion,
			s.Service,
			s.Test,
			s.Arguments,
			fmtOps(s.Source),
			lastVersion,
			fmtOps(s.Last),
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	fmt.Fprintln(tw)
	tw.Flush()
}

func fmtOps(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v < 0 {
		return failedCell
	}
	return humanize.CommafWithDigits(*v, 2)
}
