package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/okvist/raylab/internal/analysis"
	"github.com/okvist/raylab/internal/optics"
	"github.com/okvist/raylab/internal/trace"
)

const (
	colorBack      = "#0a0a0a"
	colorAxis      = "#333333"
	colorRay       = "#00ff00"
	colorRayCut    = "#007700"
	colorElement   = "#8787ff"
	colorScreen    = "#c0c0c0"
	colorCrossover = "#ff5f5f"
	colorFocal     = "#ffd700"
)

// DiagramSVG renders a traced column as a standalone SVG document: one
// polyline per ray with the portion past a stop dashed, element glyphs
// (lens as a double-headed line, aperture as two bars, deflector as a
// triangle), the optical axis, the screen, crossover dots and focal-plane
// ticks.
func DiagramSVG(sys optics.System, res *trace.Result, fs analysis.FeatureSet, width, height int) string {
	minZ, maxZ := sys.Source, sys.End()
	spanZ := maxZ - minZ
	if spanZ == 0 {
		spanZ = 1
	}
	pad := spanZ * 0.05
	minZ -= pad
	spanZ += 2 * pad

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
	yMax *= 1.15

	w := float64(width)
	h := float64(height)
	xmap := func(z float64) float64 { return (z - minZ) / spanZ * w }
	ymap := func(y float64) float64 { return h/2 - y/yMax*h/2 }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, colorBack))

	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>
`, xmap(sys.Source), ymap(0), xmap(sys.End()), ymap(0), colorAxis))

	for _, e := range sys.Elements {
		x := xmap(e.Position)

		switch e.Kind {
		case optics.KindLens:
			gh := e.Radius
			if gh == 0 {
				gh = yMax * 0.7
			}
			top := ymap(gh)
			bot := ymap(-gh)
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5"/>
<path d="M%.1f,%.1f l-4,8 l8,0 z" fill="%s"/>
<path d="M%.1f,%.1f l-4,-8 l8,0 z" fill="%s"/>
`, x, top, x, bot, colorElement, x, top, colorElement, x, bot, colorElement))

		case optics.KindAperture:
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0.0" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="3"/>
<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="3"/>
`, x, x, ymap(e.Radius), colorElement, x, ymap(-e.Radius), x, h, colorElement))

		case optics.KindDeflector:
			sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f l-6,-5 l0,10 z" fill="%s"/>
`, x, ymap(0), colorElement))

		case optics.KindDrift:
			top := ymap(yMax * 0.25)
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="%s" stroke-width="0.5"/>
`, x, top, xmap(e.Exit())-x, ymap(-yMax*0.25)-top, colorElement))
		}

		if e.Label != "" {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="12" fill="%s" font-size="9" text-anchor="middle" font-family="monospace">%s</text>
`, x, colorElement, e.Label))
		}
	}

	if sys.Screen != nil {
		x := xmap(sys.Screen.Position)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0.0" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>
`, x, x, h, colorScreen))
	}

	sb.WriteString(fmt.Sprintf(`<g fill="none" stroke="%s" stroke-width="1.5">
`, colorRay))
	for _, p := range res.Paths {
		cut := len(p.Points)
		for i, pt := range p.Points {
			if pt.Blocked {
				cut = i
				break
			}
		}

		solid := p.Points
		if cut < len(p.Points) {
			solid = p.Points[:cut+1]
		}
		sb.WriteString(`<polyline points="`)
		writePoints(&sb, solid, xmap, ymap)
		sb.WriteString("\"/>\n")

		if cut < len(p.Points)-1 {
			sb.WriteString(fmt.Sprintf(`<polyline stroke="%s" stroke-dasharray="4 3" points="`, colorRayCut))
			writePoints(&sb, p.Points[cut:], xmap, ymap)
			sb.WriteString("\"/>\n")
		}
	}
	sb.WriteString("</g>\n")

	for _, c := range fs.Crossovers {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, xmap(c.Z), ymap(0), colorCrossover))
	}

	for _, fp := range fs.FocalPlanes {
		x := xmap(fp.Z)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5"/>
`, x, ymap(0)-8, x, ymap(0)+8, colorFocal))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePoints(sb *strings.Builder, pts []trace.Point, xmap, ymap func(float64) float64) {
	for i, pt := range pts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(sb, "%.1f,%.1f", xmap(pt.Z), ymap(pt.Height))
	}
}

// WriteDiagram renders the diagram and writes it to path.
func WriteDiagram(path string, sys optics.System, res *trace.Result, fs analysis.FeatureSet, width, height int) error {
	return os.WriteFile(path, []byte(DiagramSVG(sys, res, fs, width, height)), 0644)
}
