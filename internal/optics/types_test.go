package optics

import (
	"math"
	"testing"
)

func TestDriftMat(t *testing.T) {
	m := DriftMat(10)
	v := m.Apply(Vec{Height: 1, Angle: 0.5})

	if v.Height != 6 {
		t.Errorf("height after drift = %v, want 6", v.Height)
	}
	if v.Angle != 0.5 {
		t.Errorf("angle after drift = %v, want 0.5", v.Angle)
	}
}

func TestLensMat(t *testing.T) {
	m := LensMat(5)
	v := m.Apply(Vec{Height: 1, Angle: 0})

	if v.Height != 1 {
		t.Errorf("lens changed height: got %v", v.Height)
	}
	if math.Abs(v.Angle-(-0.2)) > 1e-12 {
		t.Errorf("angle after lens = %v, want -0.2", v.Angle)
	}
}

func TestMatMulOrder(t *testing.T) {
	// Drift then lens must equal the composed matrix applied once.
	drift := DriftMat(3)
	lens := LensMat(2)
	v := Vec{Height: 1, Angle: 0.1}

	stepped := lens.Apply(drift.Apply(v))
	composed := lens.Mul(drift).Apply(v)

	if math.Abs(stepped.Height-composed.Height) > 1e-12 ||
		math.Abs(stepped.Angle-composed.Angle) > 1e-12 {
		t.Errorf("composed = %+v, stepped = %+v", composed, stepped)
	}
}

func TestMatMulAssociative(t *testing.T) {
	a := DriftMat(2)
	b := LensMat(4)
	c := DriftMat(7)

	left := c.Mul(b).Mul(a)
	right := c.Mul(b.Mul(a))

	diff := math.Abs(left.A-right.A) + math.Abs(left.B-right.B) +
		math.Abs(left.C-right.C) + math.Abs(left.D-right.D)
	if diff > 1e-12 {
		t.Errorf("matrix composition not associative: %+v vs %+v", left, right)
	}
}

func TestTransferCompose(t *testing.T) {
	kick := Transfer{M: Identity(), Shift: Vec{Angle: 0.02}}
	drift := Transfer{M: DriftMat(10)}
	v := Vec{Height: 1, Angle: 0}

	stepped := drift.Apply(kick.Apply(v))
	composed := drift.Compose(kick).Apply(v)

	if math.Abs(stepped.Height-composed.Height) > 1e-12 ||
		math.Abs(stepped.Angle-composed.Angle) > 1e-12 {
		t.Errorf("composed = %+v, stepped = %+v", composed, stepped)
	}
	// The kick must have drifted into a height change.
	if math.Abs(stepped.Height-1.2) > 1e-12 {
		t.Errorf("height = %v, want 1.2", stepped.Height)
	}
}

func TestTransferComposeAssociative(t *testing.T) {
	a := Transfer{M: DriftMat(5)}
	b := Transfer{M: Identity(), Shift: Vec{Angle: 0.01}}
	c := Transfer{M: LensMat(8)}
	v := Vec{Height: -1, Angle: 0.003}

	left := c.Compose(b).Compose(a).Apply(v)
	right := c.Compose(b.Compose(a)).Apply(v)

	if math.Abs(left.Height-right.Height) > 1e-12 ||
		math.Abs(left.Angle-right.Angle) > 1e-12 {
		t.Errorf("affine composition not associative: %+v vs %+v", left, right)
	}
}

func TestVecIsValid(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec
		valid bool
	}{
		{"zero", Vec{}, true},
		{"normal", Vec{Height: 1, Angle: -0.2}, true},
		{"nan height", Vec{Height: math.NaN()}, false},
		{"inf angle", Vec{Angle: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}
