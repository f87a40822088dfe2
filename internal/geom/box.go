package geom

import (
	"fmt"
	"math"
)

// Cell is a periodic simulation cell. Orthorhombic cells (including cubic
// ones) may declare individual axes unbounded by an infinite side length;
// triclinic cells must be fully periodic and are stored in reduced form
// (a along x, b in the xy plane).
type Cell struct {
	lengths   Vec3
	a, b, c   Vec3
	triclinic bool
}

// NewCubic returns a cubic cell with side length l on every axis.
func NewCubic(l float64) (*Cell, error) {
	return NewOrthorhombic(Vec3{l, l, l})
}

// NewOrthorhombic returns a rectangular cell. An infinite side length marks
// that axis as unbounded (no wrapping, no minimum-image folding).
func NewOrthorhombic(lengths Vec3) (*Cell, error) {
	for ax, l := range lengths {
		if l <= 0 || math.IsNaN(l) {
			return nil, fmt.Errorf("cell side %d must be positive, got %f", ax, l)
		}
	}
	return &Cell{
		lengths: lengths,
		a:       Vec3{lengths[0], 0, 0},
		b:       Vec3{0, lengths[1], 0},
		c:       Vec3{0, 0, lengths[2]},
	}, nil
}

// NewTriclinic returns a cell spanned by the vectors a, b, c in reduced form:
// a along x, b in the xy plane with positive y, c with positive z.
func NewTriclinic(a, b, c Vec3) (*Cell, error) {
	if a[1] != 0 || a[2] != 0 || b[2] != 0 {
		return nil, fmt.Errorf("triclinic cell must be in reduced form (a along x, b in xy plane)")
	}
	if a[0] <= 0 || b[1] <= 0 || c[2] <= 0 {
		return nil, fmt.Errorf("triclinic cell diagonal must be positive, got (%f, %f, %f)", a[0], b[1], c[2])
	}
	for _, v := range []Vec3{a, b, c} {
		if !v.IsValid() {
			return nil, fmt.Errorf("triclinic cell vectors must be finite")
		}
	}
	// The sequential minimum-image fold in Displacement requires reduced
	// tilt factors.
	if math.Abs(b[0]) > a[0]/2 || math.Abs(c[0]) > a[0]/2 || math.Abs(c[1]) > b[1]/2 {
		return nil, fmt.Errorf("triclinic tilt factors exceed half the box length: |%f| <= %f, |%f| <= %f, |%f| <= %f required",
			b[0], a[0]/2, c[0], a[0]/2, c[1], b[1]/2)
	}
	return &Cell{
		lengths:   Vec3{a[0], b[1], c[2]},
		a:         a,
		b:         b,
		c:         c,
		triclinic: true,
	}, nil
}

// Periodic reports whether the given axis (0..2) wraps.
func (c *Cell) Periodic(axis int) bool {
	return !math.IsInf(c.lengths[axis], 1)
}

// FullyPeriodic reports whether all three axes wrap.
func (c *Cell) FullyPeriodic() bool {
	return c.Periodic(0) && c.Periodic(1) && c.Periodic(2)
}

// Lengths returns the diagonal side lengths of the cell.
func (c *Cell) Lengths() Vec3 { return c.lengths }

// Triclinic reports whether the cell carries tilt.
func (c *Cell) Triclinic() bool { return c.triclinic }

// Volume returns the cell volume; infinite if any axis is unbounded.
func (c *Cell) Volume() float64 {
	return c.a.Dot(c.b.Cross(c.c))
}

// MinWidth returns the smallest perpendicular width across the cell's
// periodic axes. Interaction cutoffs must stay below half this value for the
// minimum-image convention to be unambiguous.
func (c *Cell) MinWidth() float64 {
	if !c.triclinic {
		w := math.Inf(1)
		for ax := 0; ax < 3; ax++ {
			if c.Periodic(ax) && c.lengths[ax] < w {
				w = c.lengths[ax]
			}
		}
		return w
	}
	vol := c.Volume()
	w := vol / c.b.Cross(c.c).Norm()
	if h := vol / c.c.Cross(c.a).Norm(); h < w {
		w = h
	}
	if h := vol / c.a.Cross(c.b).Norm(); h < w {
		w = h
	}
	return w
}

// Displacement returns the minimum-image vector from q to p.
func (c *Cell) Displacement(p, q Vec3) Vec3 {
	dr := p.Sub(q)
	if !c.triclinic {
		for ax := 0; ax < 3; ax++ {
			if l := c.lengths[ax]; !math.IsInf(l, 1) {
				dr[ax] -= l * math.Round(dr[ax]/l)
			}
		}
		return dr
	}
	// Reduced triclinic: fold along c, then b, then a. Valid for the reduced
	// tilt factors the constructor admits.
	dr = dr.Sub(c.c.Scale(math.Round(dr[2] / c.c[2])))
	dr = dr.Sub(c.b.Scale(math.Round(dr[1] / c.b[1])))
	dr = dr.Sub(c.a.Scale(math.Round(dr[0] / c.a[0])))
	return dr
}

// Wrap folds p into the primary cell image. Unbounded axes pass through.
func (c *Cell) Wrap(p Vec3) Vec3 {
	if !c.triclinic {
		for ax := 0; ax < 3; ax++ {
			if l := c.lengths[ax]; !math.IsInf(l, 1) {
				p[ax] -= l * math.Floor(p[ax]/l)
			}
		}
		return p
	}
	// Fold on the fractional coordinates; the raw components still carry
	// tilt contributions from the later axes.
	s := c.Fractional(p)
	for ax := 0; ax < 3; ax++ {
		s[ax] -= math.Floor(s[ax])
	}
	return c.FromFractional(s)
}

// Fractional maps a point to coordinates in the cell basis, so that the
// primary image corresponds to [0, 1) on every periodic axis. Only defined
// for fully periodic cells.
func (c *Cell) Fractional(p Vec3) Vec3 {
	if !c.triclinic {
		return Vec3{p[0] / c.lengths[0], p[1] / c.lengths[1], p[2] / c.lengths[2]}
	}
	s2 := p[2] / c.c[2]
	s1 := (p[1] - s2*c.c[1]) / c.b[1]
	s0 := (p[0] - s1*c.b[0] - s2*c.c[0]) / c.a[0]
	return Vec3{s0, s1, s2}
}

// FromFractional maps cell-basis coordinates back to a Cartesian point. It
// is the inverse of Fractional.
func (c *Cell) FromFractional(s Vec3) Vec3 {
	if !c.triclinic {
		return Vec3{s[0] * c.lengths[0], s[1] * c.lengths[1], s[2] * c.lengths[2]}
	}
	return c.a.Scale(s[0]).Add(c.b.Scale(s[1])).Add(c.c.Scale(s[2]))
}

// PerpWidths returns the perpendicular width of the cell along each basis
// direction. For orthorhombic cells these are the side lengths.
func (c *Cell) PerpWidths() Vec3 {
	if !c.triclinic {
		return c.lengths
	}
	vol := c.Volume()
	return Vec3{
		vol / c.b.Cross(c.c).Norm(),
		vol / c.c.Cross(c.a).Norm(),
		vol / c.a.Cross(c.b).Norm(),
	}
}

// Distance2 returns the squared minimum-image distance between p and q.
func (c *Cell) Distance2(p, q Vec3) float64 {
	return c.Displacement(p, q).Norm2()
}
