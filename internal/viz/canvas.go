package viz

import "strings"

// Braille cells pack a 2x4 dot grid into one rune starting at U+2800.
// Dot bit layout:
//
//	0x01 0x08
//	0x02 0x10
//	0x04 0x20
//	0x40 0x80
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel buffer. Coordinates are sub-pixels: the
// drawable area is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// PixelSize returns the drawable area in sub-pixels.
func (c *Canvas) PixelSize() (w, h int) {
	return c.Width * 2, c.Height * 4
}

// Set turns on the sub-pixel at (x, y). Out-of-range coordinates are
// ignored so callers can draw clipped shapes without guarding.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// Line draws a solid line with Bresenham stepping.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	c.line(x0, y0, x1, y1, 1)
}

// DottedLine draws every other pixel of the line.
func (c *Canvas) DottedLine(x0, y0, x1, y1 int) {
	c.line(x0, y0, x1, y1, 2)
}

func (c *Canvas) line(x0, y0, x1, y1, step int) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy

	for i := 0; ; i++ {
		if i%step == 0 {
			c.Set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// VLine draws a vertical run of sub-pixels, one every step rows.
func (c *Canvas) VLine(x, y0, y1, step int) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y += step {
		c.Set(x, y)
	}
}

// Mark stamps a 3x3 blob centered on (x, y).
func (c *Canvas) Mark(x, y int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
