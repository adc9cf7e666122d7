package optics

import (
	"fmt"
	"math"
)

// Ray is one entrance ray: a labeled start state at the source plane.
type Ray struct {
	Label string
	State Vec
}

// Bundle specifies the entrance rays as a grid of transverse offsets times
// launch angles. A side left empty defaults to the axis value {0}; a bundle
// with both sides empty is invalid and rejected by Build.
type Bundle struct {
	Heights []float64
	Angles  []float64
}

func (b Bundle) Empty() bool {
	return len(b.Heights) == 0 && len(b.Angles) == 0
}

// Rays materializes the bundle as labeled start states, heights outer,
// angles inner. Returns nil for an empty bundle.
func (b Bundle) Rays() []Ray {
	if b.Empty() {
		return nil
	}
	heights := b.Heights
	if len(heights) == 0 {
		heights = []float64{0}
	}
	angles := b.Angles
	if len(angles) == 0 {
		angles = []float64{0}
	}
	rays := make([]Ray, 0, len(heights)*len(angles))
	for _, h := range heights {
		for _, a := range angles {
			rays = append(rays, Ray{
				Label: fmt.Sprintf("R%d", len(rays)),
				State: Vec{Height: h, Angle: a},
			})
		}
	}
	return rays
}

func (b Bundle) clone() Bundle {
	c := Bundle{}
	if b.Heights != nil {
		c.Heights = append([]float64(nil), b.Heights...)
	}
	if b.Angles != nil {
		c.Angles = append([]float64(nil), b.Angles...)
	}
	return c
}

// FanAngles spreads n launch angles evenly over [minDeg, maxDeg] degrees and
// converts to radians. n == 1 collapses to minDeg.
func FanAngles(minDeg, maxDeg float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = minDeg * math.Pi / 180
		return out
	}
	step := (maxDeg - minDeg) / float64(n-1)
	for i := range out {
		out[i] = (minDeg + float64(i)*step) * math.Pi / 180
	}
	return out
}

// SpanHeights spreads n source points evenly over a source of the given
// transverse size centered on offset. Size zero or a single point collapses
// to the offset itself.
func SpanHeights(offset, size float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 || size == 0 {
		return []float64{offset}
	}
	out := make([]float64, n)
	step := size / float64(n-1)
	for i := range out {
		out[i] = offset - size/2 + float64(i)*step
	}
	return out
}
