package optics

import "math"

// Kind tags the element variants. The set is closed: the transfer operator
// and the tracer switch exhaustively over it.
type Kind int

const (
	KindDrift Kind = iota
	KindLens
	KindAperture
	KindDeflector
)

func (k Kind) String() string {
	switch k {
	case KindDrift:
		return "drift"
	case KindLens:
		return "lens"
	case KindAperture:
		return "aperture"
	case KindDeflector:
		return "deflector"
	}
	return "unknown"
}

// Element is one station of the optical column. Position is the axial
// coordinate of its entrance plane; positions grow from source to screen.
// Which parameter fields are meaningful depends on Kind.
type Element struct {
	Kind     Kind
	Label    string
	Position float64

	// Length is the axial span of a drift.
	Length float64
	// Focal is the signed thin-lens focal length; positive converges.
	Focal float64
	// Radius clips rays: required for an aperture, optional (0 = off) on a
	// lens bore.
	Radius float64
	// Offset displaces a lens off the optical axis.
	Offset float64
	// Angle is the kick a deflector adds to every ray, in radians.
	Angle float64
}

func Drift(label string, position, length float64) Element {
	return Element{Kind: KindDrift, Label: label, Position: position, Length: length}
}

func Lens(label string, position, focal float64) Element {
	return Element{Kind: KindLens, Label: label, Position: position, Focal: focal}
}

// LensAt builds a lens with a clipping bore radius and a lateral offset.
func LensAt(label string, position, focal, radius, offset float64) Element {
	return Element{Kind: KindLens, Label: label, Position: position, Focal: focal, Radius: radius, Offset: offset}
}

func Aperture(label string, position, radius float64) Element {
	return Element{Kind: KindAperture, Label: label, Position: position, Radius: radius}
}

func Deflector(label string, position, angle float64) Element {
	return Element{Kind: KindDeflector, Label: label, Position: position, Angle: angle}
}

// TransferOf returns the paraxial transfer across the element, entrance
// plane to exit plane. Build rejects zero focal lengths, so the lens arm
// never divides by zero here.
func TransferOf(e Element) Transfer {
	switch e.Kind {
	case KindDrift:
		return Transfer{M: DriftMat(e.Length)}
	case KindLens:
		t := Transfer{M: LensMat(e.Focal)}
		if e.Offset != 0 {
			t.Shift.Angle = e.Offset / e.Focal
		}
		return t
	case KindDeflector:
		return Transfer{M: Identity(), Shift: Vec{Angle: e.Angle}}
	}
	return Transfer{M: Identity()}
}

// Exit is the axial position where the element hands the ray onward. Only
// drifts occupy a span; everything else is a plane.
func (e Element) Exit() float64 {
	if e.Kind == KindDrift {
		return e.Position + e.Length
	}
	return e.Position
}

// Blocks reports whether a ray at transverse height h is stopped at this
// element's plane. The test is boundary-inclusive: a ray exactly on the rim
// passes.
func (e Element) Blocks(h float64) bool {
	switch e.Kind {
	case KindAperture:
		return math.Abs(h) > e.Radius
	case KindLens:
		return e.Radius > 0 && math.Abs(h) > e.Radius
	}
	return false
}
