package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mdsim/internal/md"
)

// SeriesSummary condenses one per-step series into its headline statistics.
type SeriesSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func summarize(xs []float64) SeriesSummary {
	if len(xs) == 0 {
		return SeriesSummary{}
	}
	s := SeriesSummary{
		Mean: stat.Mean(xs, nil),
		Min:  xs[0],
		Max:  xs[0],
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	for _, x := range xs {
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
	}
	return s
}

// RunSummary is the statistical digest of a finished run.
type RunSummary struct {
	Steps     int                `json:"steps"`
	Kinetic   SeriesSummary      `json:"kinetic"`
	Potential SeriesSummary      `json:"potential"`
	Total     SeriesSummary      `json:"total"`
	Drift     float64            `json:"energy_drift"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Summarize digests a run result into per-series statistics.
func Summarize(res *md.Result) RunSummary {
	total := make([]float64, len(res.Kinetic))
	for i := range res.Kinetic {
		total[i] = res.Kinetic[i] + res.Potential[i]
	}
	return RunSummary{
		Steps:     res.StepsTaken,
		Kinetic:   summarize(res.Kinetic),
		Potential: summarize(res.Potential),
		Total:     summarize(total),
		Drift:     res.EnergyDrift,
		Metrics:   res.Metrics,
	}
}
