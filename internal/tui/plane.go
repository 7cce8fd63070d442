package tui

import (
	"math"
	"strings"
)

// Plane is a character canvas of the complex s-plane. Poles are drawn as
// 'x' and zeros as 'o'; the imaginary axis is a vertical line through
// Re = 0 when it falls inside the view.
type Plane struct {
	width  int
	height int
	canvas [][]rune

	reMin, reMax float64
	imMax        float64
}

func NewPlane(width, height int) *Plane {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &Plane{width: width, height: height, canvas: canvas}
}

// Fit chooses the view so every root is visible with a margin. The origin
// is always included.
func (p *Plane) Fit(roots ...[]complex128) {
	p.reMin, p.reMax, p.imMax = -1, 0.5, 1
	for _, set := range roots {
		for _, r := range set {
			p.reMin = math.Min(p.reMin, real(r)*1.2)
			p.reMax = math.Max(p.reMax, real(r)*1.2)
			p.imMax = math.Max(p.imMax, math.Abs(imag(r))*1.2)
		}
	}
}

func (p *Plane) clear() {
	for y := range p.canvas {
		for x := range p.canvas[y] {
			p.canvas[y][x] = ' '
		}
	}
}

func (p *Plane) project(z complex128) (int, int) {
	x := (real(z) - p.reMin) / (p.reMax - p.reMin) * float64(p.width-1)
	y := (p.imMax - imag(z)) / (2 * p.imMax) * float64(p.height-1)
	return int(math.Round(x)), int(math.Round(y))
}

// Render draws the axes and the roots and returns the canvas rows.
func (p *Plane) Render(poles, zeros []complex128) []string {
	p.clear()

	ox, oy := p.project(0)
	drawLine(p.canvas, p.width, p.height, 0, oy, p.width-1, oy, '─')
	if ox >= 0 && ox < p.width {
		drawLine(p.canvas, p.width, p.height, ox, 0, ox, p.height-1, '│')
		set(p.canvas, ox, oy, '┼', p.width, p.height)
	}
	for _, z := range zeros {
		x, y := p.project(z)
		set(p.canvas, x, y, 'o', p.width, p.height)
	}
	for _, z := range poles {
		x, y := p.project(z)
		set(p.canvas, x, y, 'x', p.width, p.height)
	}

	rows := make([]string, p.height)
	for i, row := range p.canvas {
		rows[i] = strings.TrimRight(string(row), " ")
	}
	return rows
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func drawLine(canvas [][]rune, w, h, x1, y1, x2, y2 int, c rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		set(canvas, x1, y1, c, w, h)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
