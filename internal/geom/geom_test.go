package geom

import (
	"math"
	"testing"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	sum := a.Add(b)
	if sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add failed: got %v", sum)
	}

	diff := b.Sub(a)
	if diff != (Vec3{3, 3, 3}) {
		t.Errorf("Sub failed: got %v", diff)
	}

	scaled := a.Scale(2)
	if scaled != (Vec3{2, 4, 6}) {
		t.Errorf("Scale failed: got %v", scaled)
	}

	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}

	cross := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	if cross != (Vec3{0, 0, 1}) {
		t.Errorf("Cross failed: got %v", cross)
	}
}

func TestVec3_Norm(t *testing.T) {
	tests := []struct {
		v        Vec3
		expected float64
	}{
		{Vec3{3, 4, 0}, 5.0},
		{Vec3{1, 0, 0}, 1.0},
		{Vec3{0, 0, 0}, 0.0},
		{Vec3{1, 1, 1}, math.Sqrt(3)},
	}

	for _, tt := range tests {
		if got := tt.v.Norm(); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("Norm(%v) = %v, want %v", tt.v, got, tt.expected)
		}
	}
}

func TestVec3_Unit(t *testing.T) {
	u := Vec3{0, 3, 0}.Unit()
	if u != (Vec3{0, 1, 0}) {
		t.Errorf("Unit failed: got %v", u)
	}
	if z := (Vec3{}).Unit(); z != (Vec3{}) {
		t.Errorf("Unit of zero vector should be zero, got %v", z)
	}
}

func TestCell_MinimumImage(t *testing.T) {
	cell, err := NewCubic(10)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		p, q Vec3
		want Vec3
	}{
		{"direct", Vec3{1, 1, 1}, Vec3{2, 1, 1}, Vec3{-1, 0, 0}},
		{"across boundary", Vec3{9.5, 0, 0}, Vec3{0.5, 0, 0}, Vec3{-1, 0, 0}},
		{"multi axis", Vec3{9.9, 9.9, 9.9}, Vec3{0.1, 0.1, 0.1}, Vec3{-0.2, -0.2, -0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cell.Displacement(tt.p, tt.q)
			if got.Sub(tt.want).Norm() > 1e-12 {
				t.Errorf("Displacement(%v, %v) = %v, want %v", tt.p, tt.q, got, tt.want)
			}
		})
	}

	// At exactly half the box either image is valid; only the magnitude is
	// well defined.
	dr := cell.Displacement(Vec3{5, 0, 0}, Vec3{0, 0, 0})
	if math.Abs(dr.Norm()-5) > 1e-12 {
		t.Errorf("half-box displacement magnitude = %v, want 5", dr.Norm())
	}
}

func TestCell_Wrap(t *testing.T) {
	cell, _ := NewOrthorhombic(Vec3{10, 20, 30})

	p := cell.Wrap(Vec3{-1, 25, 65})
	want := Vec3{9, 5, 5}
	if p.Sub(want).Norm() > 1e-12 {
		t.Errorf("Wrap = %v, want %v", p, want)
	}

	// Already inside: unchanged.
	q := cell.Wrap(Vec3{3, 4, 5})
	if q != (Vec3{3, 4, 5}) {
		t.Errorf("Wrap moved interior point: %v", q)
	}
}

func TestCell_UnboundedAxis(t *testing.T) {
	cell, err := NewOrthorhombic(Vec3{10, 10, math.Inf(1)})
	if err != nil {
		t.Fatal(err)
	}

	if cell.Periodic(2) {
		t.Error("axis 2 should be unbounded")
	}
	if !cell.Periodic(0) {
		t.Error("axis 0 should be periodic")
	}
	if cell.FullyPeriodic() {
		t.Error("cell should not be fully periodic")
	}

	dr := cell.Displacement(Vec3{0, 0, 100}, Vec3{0, 0, 0})
	if dr[2] != 100 {
		t.Errorf("unbounded axis should not fold: got %v", dr[2])
	}

	p := cell.Wrap(Vec3{11, 0, 100})
	if p[0] != 1 || p[2] != 100 {
		t.Errorf("Wrap on unbounded axis: got %v", p)
	}
}

func TestCell_Triclinic(t *testing.T) {
	cell, err := NewTriclinic(Vec3{10, 0, 0}, Vec3{2, 10, 0}, Vec3{1, 1, 10})
	if err != nil {
		t.Fatal(err)
	}

	if !cell.Triclinic() {
		t.Error("expected triclinic cell")
	}
	if v := cell.Volume(); math.Abs(v-1000) > 1e-9 {
		t.Errorf("Volume = %v, want 1000", v)
	}

	// A displacement of one full lattice vector folds to zero.
	dr := cell.Displacement(Vec3{2, 10, 0}, Vec3{0, 0, 0})
	if dr.Norm() > 1e-12 {
		t.Errorf("lattice vector should fold to zero, got %v", dr)
	}

	// Folding never increases the distance.
	p := Vec3{9, 9, 9}
	q := Vec3{0.5, 0.5, 0.5}
	if cell.Displacement(p, q).Norm() > p.Sub(q).Norm() {
		t.Error("minimum image longer than direct displacement")
	}
}

func TestCell_TriclinicWrapStaysInPrimaryImage(t *testing.T) {
	// The c vector tilts in y, so folding on raw components instead of
	// fractional coordinates can push an interior point's b coordinate
	// negative.
	cell, err := NewTriclinic(Vec3{18, 0, 0}, Vec3{0, 18, 0}, Vec3{0, 8, 18})
	if err != nil {
		t.Fatal(err)
	}

	fracs := []Vec3{
		{0.5, 0.95, 0.6},
		{0.01, 0.01, 0.99},
		{0.99, 0.5, 0.01},
	}
	shifts := []Vec3{{0, 0, 0}, {1, -1, 2}, {-2, 3, -1}}
	for _, f := range fracs {
		for _, shift := range shifts {
			p := cell.FromFractional(f.Add(shift))
			s := cell.Fractional(cell.Wrap(p))
			for ax := 0; ax < 3; ax++ {
				if s[ax] < -1e-12 || s[ax] >= 1+1e-12 {
					t.Errorf("Wrap of frac %v + shift %v left axis %d at %v", f, shift, ax, s[ax])
				}
			}
			if d := s.Sub(f).Norm(); d > 1e-9 {
				t.Errorf("Wrap of frac %v + shift %v gave frac %v", f, shift, s)
			}
		}
	}
}

func TestCell_TriclinicRejectsBadForm(t *testing.T) {
	if _, err := NewTriclinic(Vec3{10, 1, 0}, Vec3{0, 10, 0}, Vec3{0, 0, 10}); err == nil {
		t.Error("expected error for non-reduced a vector")
	}
	if _, err := NewTriclinic(Vec3{10, 0, 0}, Vec3{0, 10, 0}, Vec3{0, 0, -1}); err == nil {
		t.Error("expected error for negative diagonal")
	}
	// Tilts past half the box break the sequential minimum-image fold.
	if _, err := NewTriclinic(Vec3{10, 0, 0}, Vec3{6, 10, 0}, Vec3{0, 0, 10}); err == nil {
		t.Error("expected error for over-tilted b vector")
	}
	if _, err := NewTriclinic(Vec3{10, 0, 0}, Vec3{0, 10, 0}, Vec3{0, 6, 10}); err == nil {
		t.Error("expected error for over-tilted c vector")
	}
}

func TestCell_MinWidth(t *testing.T) {
	cell, _ := NewOrthorhombic(Vec3{10, 4, 8})
	if w := cell.MinWidth(); w != 4 {
		t.Errorf("MinWidth = %v, want 4", w)
	}

	open, _ := NewOrthorhombic(Vec3{10, math.Inf(1), math.Inf(1)})
	if w := open.MinWidth(); w != 10 {
		t.Errorf("MinWidth with unbounded axes = %v, want 10", w)
	}
}

func TestCell_RejectsNonPositive(t *testing.T) {
	if _, err := NewCubic(0); err == nil {
		t.Error("expected error for zero side")
	}
	if _, err := NewOrthorhombic(Vec3{-1, 1, 1}); err == nil {
		t.Error("expected error for negative side")
	}
}

func TestCell_FractionalRoundTrip(t *testing.T) {
	cells := []*Cell{}
	if c, err := NewOrthorhombic(Vec3{10, 4, 8}); err == nil {
		cells = append(cells, c)
	}
	if c, err := NewTriclinic(Vec3{10, 0, 0}, Vec3{3, 9, 0}, Vec3{1, 2, 8}); err == nil {
		cells = append(cells, c)
	}
	points := []Vec3{{0.5, 1.5, 2.5}, {7, 3.9, 0.1}, {2, 2, 2}}
	for _, cell := range cells {
		for _, p := range points {
			got := cell.FromFractional(cell.Fractional(p))
			if got.Sub(p).Norm() > 1e-12 {
				t.Errorf("round trip of %v gave %v", p, got)
			}
		}
	}
}
