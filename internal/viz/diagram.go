package viz

import (
	"math"

	"github.com/okvist/raylab/internal/analysis"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/trace"
)

// Diagram renders a traced column on a braille canvas: dotted optical
// axis, element columns, ray polylines (dotted past a stop), crossover
// blobs, focal-plane ticks and the screen. Returned as a newline-joined
// character block width x height.
func Diagram(sys optics.System, res *trace.Result, fs analysis.FeatureSet, width, height int) string {
	c := NewCanvas(width, height)
	cw, ch := c.PixelSize()

	minZ := sys.Source
	spanZ := sys.End() - minZ
	if spanZ <= 0 {
		spanZ = 1
	}

	yMax := 0.0
	for _, p := range res.Paths {
		for _, pt := range p.Points {
			if a := math.Abs(pt.Height); a > yMax {
				yMax = a
			}
		}
	}
	for _, e := range sys.Elements {
		if e.Radius > yMax {
			yMax = e.Radius
		}
	}
	if yMax == 0 {
		yMax = 1
	}
	yMax *= 1.1

	half := ch / 2
	xmap := func(z float64) int {
		return int((z - minZ) / spanZ * float64(cw-1))
	}
	ymap := func(h float64) int {
		y := half - int(math.Round(h/yMax*float64(half-1)))
		if y < 0 {
			y = 0
		}
		if y >= ch {
			y = ch - 1
		}
		return y
	}

	for x := 0; x < cw; x += 4 {
		c.Set(x, half)
	}

	for _, e := range sys.Elements {
		x := xmap(e.Position)
		switch e.Kind {
		case optics.KindLens:
			top, bot := 0, ch-1
			if e.Radius > 0 {
				top, bot = ymap(e.Radius), ymap(-e.Radius)
			}
			c.VLine(x, top, bot, 2)
		case optics.KindAperture:
			c.VLine(x, 0, ymap(e.Radius), 1)
			c.VLine(x, ymap(-e.Radius), ch-1, 1)
		case optics.KindDeflector:
			c.VLine(x, half-5, half+5, 1)
		case optics.KindDrift:
			c.Set(x, half+2)
			c.Set(xmap(e.Exit()), half+2)
		}
	}

	if sys.Screen != nil {
		c.VLine(xmap(sys.Screen.Position), 0, ch-1, 1)
	}

	for _, p := range res.Paths {
		for i := 1; i < len(p.Points); i++ {
			p0, p1 := p.Points[i-1], p.Points[i]
			x0, y0 := xmap(p0.Z), ymap(p0.Height)
			x1, y1 := xmap(p1.Z), ymap(p1.Height)
			if p0.Blocked {
				c.DottedLine(x0, y0, x1, y1)
			} else {
				c.Line(x0, y0, x1, y1)
			}
		}
	}

	for _, cr := range fs.Crossovers {
		c.Mark(xmap(cr.Z), half)
	}
	for _, fp := range fs.FocalPlanes {
		c.VLine(xmap(fp.Z), half-4, half+4, 2)
	}

	return c.String()
}

// EnvelopeSeries samples the unblocked beam width (max minus min ray
// height) across the traced span, sized for an asciigraph strip.
func EnvelopeSeries(res *trace.Result, samples int) []float64 {
	if len(res.Boundaries) == 0 || samples < 2 {
		return nil
	}
	z0 := res.Boundaries[0].Z
	z1 := res.Boundaries[len(res.Boundaries)-1].Z

	out := make([]float64, samples)
	for i := range out {
		z := z0 + (z1-z0)*float64(i)/float64(samples-1)
		lo, hi := math.Inf(1), math.Inf(-1)
		for r := range res.Paths {
			h, ok := res.HeightAt(r, z)
			if !ok {
				continue
			}
			lo = math.Min(lo, h)
			hi = math.Max(hi, h)
		}
		if hi >= lo {
			out[i] = hi - lo
		}
	}
	return out
}
