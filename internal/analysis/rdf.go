// Package analysis provides post-run structure and dynamics tools: radial
// distribution functions, mean squared displacement over stored trajectories,
// and frequency analysis of energy series.
package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/system"
)

// RDF is a radial distribution function sampled on uniform bins.
type RDF struct {
	RMax float64
	Bins []float64
}

// BinCenters returns the midpoint radius of every bin.
func (r *RDF) BinCenters() []float64 {
	dr := r.RMax / float64(len(r.Bins))
	centers := make([]float64, len(r.Bins))
	for i := range centers {
		centers[i] = (float64(i) + 0.5) * dr
	}
	return centers
}

// ComputeRDF histograms all min-image pair distances up to rmax and
// normalizes against the ideal-gas expectation, so an uncorrelated system
// gives g(r) near 1. Requires a fully periodic cell for the density.
func ComputeRDF(sys *system.System, bins int, rmax float64) (*RDF, error) {
	if bins <= 0 || rmax <= 0 {
		return nil, fmt.Errorf("rdf needs positive bins and rmax, got %d, %f", bins, rmax)
	}
	if !sys.Cell.FullyPeriodic() {
		return nil, fmt.Errorf("rdf requires a fully periodic cell")
	}
	if 2*rmax > sys.Cell.MinWidth() {
		return nil, fmt.Errorf("rmax %f exceeds half the cell width", rmax)
	}

	n := sys.N()
	counts := make([]float64, bins)
	dr := rmax / float64(bins)
	rmax2 := rmax * rmax

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r2 := sys.Cell.Distance2(sys.Pos[i], sys.Pos[j])
			if r2 >= rmax2 {
				continue
			}
			bin := int(math.Sqrt(r2) / dr)
			if bin >= bins {
				bin = bins - 1
			}
			counts[bin] += 2
		}
	}

	density := float64(n) / sys.Cell.Volume()
	g := make([]float64, bins)
	for b := range counts {
		rlo := float64(b) * dr
		rhi := rlo + dr
		shell := 4.0 / 3.0 * math.Pi * (rhi*rhi*rhi - rlo*rlo*rlo)
		ideal := density * shell * float64(n)
		if ideal > 0 {
			g[b] = counts[b] / ideal
		}
	}
	return &RDF{RMax: rmax, Bins: g}, nil
}
