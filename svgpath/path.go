// Implements the geometry of SVG paths: a path is a list of
// operations in user space, built from the `d` attribute
// or from the basic shapes, and sent to a rasterx.Adder for drawing.
package svgpath

import (
	"fmt"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Point is a point in user space.
type Point struct{ X, Y float64 }

// toFixed applies `m` to `p` and rounds the result to the
// 26.6 fixed point precision used by rasterx.
func (p Point) toFixed(m rasterx.Matrix2D) fixed.Point26_6 {
	x, y := m.Transform(p.X, p.Y)
	return fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))}
}

// Operation is one of MoveTo, LineTo, QuadTo, CubicTo or Close.
type Operation interface {
	// sends the operation to `q`, with `m` applied to its points
	addTo(q rasterx.Adder, m rasterx.Matrix2D)
	// writes the path data syntax of the operation
	writeTo(sb *strings.Builder)
}

type (
	MoveTo  Point
	LineTo  Point
	QuadTo  [2]Point // control, end
	CubicTo [3]Point // control, control, end
	Close   struct{}
)

func (op MoveTo) addTo(q rasterx.Adder, m rasterx.Matrix2D) {
	q.Stop(false) // ends the current sub path, if any
	q.Start(Point(op).toFixed(m))
}

func (op LineTo) addTo(q rasterx.Adder, m rasterx.Matrix2D) {
	q.Line(Point(op).toFixed(m))
}

func (op QuadTo) addTo(q rasterx.Adder, m rasterx.Matrix2D) {
	q.QuadBezier(op[0].toFixed(m), op[1].toFixed(m))
}

func (op CubicTo) addTo(q rasterx.Adder, m rasterx.Matrix2D) {
	q.CubeBezier(op[0].toFixed(m), op[1].toFixed(m), op[2].toFixed(m))
}

func (Close) addTo(q rasterx.Adder, _ rasterx.Matrix2D) { q.Stop(true) }

func writePoints(sb *strings.Builder, cmd byte, points ...Point) {
	sb.WriteByte(cmd)
	for i, pt := range points {
		if i != 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%.3f,%.3f", pt.X, pt.Y)
	}
}

func (op MoveTo) writeTo(sb *strings.Builder)  { writePoints(sb, 'M', Point(op)) }
func (op LineTo) writeTo(sb *strings.Builder)  { writePoints(sb, 'L', Point(op)) }
func (op QuadTo) writeTo(sb *strings.Builder)  { writePoints(sb, 'Q', op[:]...) }
func (op CubicTo) writeTo(sb *strings.Builder) { writePoints(sb, 'C', op[:]...) }
func (Close) writeTo(sb *strings.Builder)      { sb.WriteByte('Z') }

// Path is a sequence of operations, in user space.
type Path []Operation

// AddTo sends the path to `q`, with `m` applied to every point.
// Points are rounded to the rasterx precision after the transform.
func (p Path) AddTo(q rasterx.Adder, m rasterx.Matrix2D) {
	for _, op := range p {
		op.addTo(q, m)
	}
	q.Stop(false)
}

// IsEmpty returns true if the path has no segment.
func (p Path) IsEmpty() bool {
	for _, op := range p {
		switch op.(type) {
		case LineTo, QuadTo, CubicTo:
			return false
		}
	}
	return true
}

// String returns the path in SVG path data syntax, with absolute commands.
func (p Path) String() string {
	var sb strings.Builder
	for i, op := range p {
		if i != 0 {
			sb.WriteByte(' ')
		}
		op.writeTo(&sb)
	}
	return sb.String()
}

// Clear empties the path, keeping its capacity.
func (p *Path) Clear() { *p = (*p)[:0] }

// Start starts a new sub path at (x, y).
func (p *Path) Start(x, y float64) { *p = append(*p, MoveTo{x, y}) }

func (p *Path) Line(x, y float64) { *p = append(*p, LineTo{x, y}) }

func (p *Path) QuadBezier(cx, cy, x, y float64) {
	*p = append(*p, QuadTo{{cx, cy}, {x, y}})
}

func (p *Path) CubeBezier(c1x, c1y, c2x, c2y, x, y float64) {
	*p = append(*p, CubicTo{{c1x, c1y}, {c2x, c2y}, {x, y}})
}

// Stop closes the current sub path if `closeLoop` is true.
func (p *Path) Stop(closeLoop bool) {
	if closeLoop {
		*p = append(*p, Close{})
	}
}
