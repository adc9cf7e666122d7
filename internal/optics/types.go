package optics

import "math"

// Vec is a paraxial ray state: transverse height and slope angle (radians)
// at some axial position.
type Vec struct {
	Height float64
	Angle  float64
}

func (v Vec) IsValid() bool {
	return !math.IsNaN(v.Height) && !math.IsInf(v.Height, 0) &&
		!math.IsNaN(v.Angle) && !math.IsInf(v.Angle, 0)
}

// Mat is a 2x2 ray transfer matrix [[A,B],[C,D]].
type Mat struct {
	A, B float64
	C, D float64
}

func Identity() Mat {
	return Mat{A: 1, D: 1}
}

// DriftMat propagates a ray through field-free space of the given length.
func DriftMat(length float64) Mat {
	return Mat{A: 1, B: length, D: 1}
}

// LensMat is the thin-lens transfer for a signed focal length. The caller
// guarantees focal != 0.
func LensMat(focal float64) Mat {
	return Mat{A: 1, C: -1 / focal, D: 1}
}

// Mul returns m*n, the matrix applying n first and m second.
func (m Mat) Mul(n Mat) Mat {
	return Mat{
		A: m.A*n.A + m.B*n.C,
		B: m.A*n.B + m.B*n.D,
		C: m.C*n.A + m.D*n.C,
		D: m.C*n.B + m.D*n.D,
	}
}

func (m Mat) Apply(v Vec) Vec {
	return Vec{
		Height: m.A*v.Height + m.B*v.Angle,
		Angle:  m.C*v.Height + m.D*v.Angle,
	}
}

// Transfer is an affine ray map: v -> M*v + Shift. Pure matrix elements have
// a zero Shift; deflectors and laterally offset lenses carry an angle kick,
// and composing transfers keeps the chain exact.
type Transfer struct {
	M     Mat
	Shift Vec
}

func IdentityTransfer() Transfer {
	return Transfer{M: Identity()}
}

func (t Transfer) Apply(v Vec) Vec {
	out := t.M.Apply(v)
	out.Height += t.Shift.Height
	out.Angle += t.Shift.Angle
	return out
}

// Compose returns the transfer equivalent to applying u first and t second:
// (t.M*u.M, t.M*u.Shift + t.Shift).
func (t Transfer) Compose(u Transfer) Transfer {
	s := t.M.Apply(u.Shift)
	return Transfer{
		M: t.M.Mul(u.M),
		Shift: Vec{
			Height: s.Height + t.Shift.Height,
			Angle:  s.Angle + t.Shift.Angle,
		},
	}
}
