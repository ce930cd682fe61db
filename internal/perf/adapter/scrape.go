package adapter

import (
	"regexp"
	"strconv"
	"strings"
)

// NoMeasurement is the throughput reported when a run printed no result line.
const NoMeasurement = -1.0

// Matches the perf framework summary line, e.g.
// "Completed 157,630 operations in a weighted-average of 1.01s (156,225.73 ops/s, 0.000 s/op)".
var opsPerSecondRe = regexp.MustCompile(`(?i)\(([\d,.]+) ops/s`)

// ParseOpsPerSecond returns the throughput from the last summary line in out.
func ParseOpsPerSecond(out string) float64 {
	matches := opsPerSecondRe.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return NoMeasurement
	}
	raw := strings.ReplaceAll(matches[len(matches)-1][1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return NoMeasurement
	}
	return v
}

// lastSubmatch returns the first group of the last match of re in s.
func lastSubmatch(re *regexp.Regexp, s string) string {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return ""
	}
	return matches[len(matches)-1][1]
}
