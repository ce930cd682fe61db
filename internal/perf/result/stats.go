package result

import (
	"math"
	"sort"
)

// Stats describes the spread of measured throughput across iterations.
// Failed iterations are counted but excluded from every other figure.
type Stats struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Stddev      float64 `json:"stddev"`
	SampleCount int     `json:"sample_count"`
	Failed      int     `json:"failed"`
}

func ComputeStats(iterations []IterationResult) Stats {
	var stats Stats
	samples := make([]float64, 0, len(iterations))
	for _, it := range iterations {
		if it.OperationsPerSecond < 0 {
			stats.Failed++
			continue
		}
		samples = append(samples, it.OperationsPerSecond)
	}
	if len(samples) == 0 {
		return stats
	}

	sort.Float64s(samples)
	stats.Min = samples[0]
	stats.Max = samples[len(samples)-1]
	stats.Median = median(samples)
	stats.SampleCount = len(samples)

	var sum float64
	for _, v := range samples {
		sum += v
	}
	stats.Mean = sum / float64(len(samples))

	if len(samples) > 1 {
		var sumSquares float64
		for _, v := range samples {
			diff := v - stats.Mean
			sumSquares += diff * diff
		}
		stats.Stddev = math.Sqrt(sumSquares / float64(len(samples)-1))
	}
	return stats
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func (s Stats) IsZero() bool {
	return s.SampleCount == 0
}

func (r *Result) Stats() Stats {
	return ComputeStats(r.Iterations)
}
