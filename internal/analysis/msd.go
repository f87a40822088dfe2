package analysis

import (
	"fmt"

	"github.com/san-kum/mdsim/internal/storage"
)

// MeanSquaredDisplacement computes the per-frame MSD of a stored trajectory
// relative to the first frame. Frames record wrapped coordinates, so the
// result is only meaningful while displacements stay under half the cell;
// for diffusive estimates keep the frame cadence short.
func MeanSquaredDisplacement(frames []storage.Frame) ([]float64, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames")
	}
	ref := frames[0].Positions
	out := make([]float64, len(frames))
	for fi, frame := range frames {
		if len(frame.Positions) != len(ref) {
			return nil, fmt.Errorf("frame %d has %d particles, want %d", fi, len(frame.Positions), len(ref))
		}
		sum := 0.0
		for i, p := range frame.Positions {
			for ax := 0; ax < 3; ax++ {
				d := p[ax] - ref[i][ax]
				sum += d * d
			}
		}
		out[fi] = sum / float64(len(ref))
	}
	return out, nil
}
