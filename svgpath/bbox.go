package svgpath

import (
	"math"

	"github.com/srwiley/rasterx"
)

// compute the bounding box of a path, needed for objectBoundingBox units
// (masks, clip paths, filters and gradients)

type line [2][2]float64

func (l line) criticalPoints() (tX, tY []float64) { return nil, nil }

func (l line) evaluateCurve(t float64) (x, y float64) {
	return bezierLine(l[0][0], l[1][0], t), bezierLine(l[0][1], l[1][1], t)
}

func bezierLine(p0, p1, t float64) float64 {
	return (p1-p0)*t + p0
}

type quadBezier [3][2]float64

// quadratic polinomial
// x = At^2 + Bt + C
// where
// A = p0 + p2 - 2p1
// B = 2(p1 - p0)
// C = p0
func bezierQuad(p0, p1, p2, t float64) float64 {
	return (p0+p2-2*p1)*t*t + 2*(p1-p0)*t + p0
}

// derivative as at + b where a,b :
func quadraticDerivative(p0, p1, p2 float64) (a, b float64) {
	return 2 * (p2 - p1 - (p1 - p0)), 2 * (p1 - p0)
}

// handle the case where a = 0
func linearRoots(a, b float64) []float64 {
	if a == 0 {
		return nil
	}
	return []float64{-b / a}
}

func (cu quadBezier) criticalPoints() (tX, tY []float64) {
	aX, bX := quadraticDerivative(cu[0][0], cu[1][0], cu[2][0])
	aY, bY := quadraticDerivative(cu[0][1], cu[1][1], cu[2][1])
	return linearRoots(aX, bX), linearRoots(aY, bY)
}

func (cu quadBezier) evaluateCurve(t float64) (x, y float64) {
	return bezierQuad(cu[0][0], cu[1][0], cu[2][0], t), bezierQuad(cu[0][1], cu[1][1], cu[2][1], t)
}

type cubicBezier [4][2]float64

func (cu cubicBezier) criticalPoints() (tX, tY []float64) {
	aX, bX, cX := cubicDerivative(cu[0][0], cu[1][0], cu[2][0], cu[3][0])
	aY, bY, cY := cubicDerivative(cu[0][1], cu[1][1], cu[2][1], cu[3][1])
	return quadraticRoots(aX, bX, cX), quadraticRoots(aY, bY, cY)
}

func (cu cubicBezier) evaluateCurve(t float64) (x, y float64) {
	return bezierSpline(cu[0][0], cu[1][0], cu[2][0], cu[3][0], t), bezierSpline(cu[0][1], cu[1][1], cu[2][1], cu[3][1], t)
}

// cubic polinomial
// x = At^3 + Bt^2 + Ct + D
// where A,B,C,D:
// A = p3 -3 * p2 + 3 * p1 - p0
// B = 3 * p2 - 6 * p1 +3 * p0
// C = 3 * p1 - 3 * p0
// D = p0
func bezierSpline(p0, p1, p2, p3, t float64) float64 {
	return (p3-3*p2+3*p1-p0)*t*t*t +
		(3*p2-6*p1+3*p0)*t*t +
		(3*p1-3*p0)*t +
		(p0)
}

// X' = (3*p3-9*p2+9*p1-3*p0)t^2 + (6*p2-12*p1+6*p0)t + (3*p1-3*p0)
// taken as aX^2 + bX + c
func cubicDerivative(p0, p1, p2, p3 float64) (a, b, c float64) {
	return 3*p3 - 9*p2 + 9*p1 - 3*p0, 6*p2 - 12*p1 + 6*p0, 3*p1 - 3*p0
}

func quadraticRoots(a, b, c float64) []float64 {
	if a == 0 {
		// bX + c : a simple line
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	d := b*b - 4*a*c
	if d < 0 {
		return nil
	}
	if d == 0 {
		return []float64{-b / (2 * a)}
	}
	sq := math.Sqrt(d)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

type bezier interface {
	// compute the t zeroing the derivative
	criticalPoints() (tX, tY []float64)
	// compute the point a time t
	evaluateCurve(t float64) (x, y float64)
}

// Rect is an axis aligned rectangle, in user units.
type Rect struct{ X, Y, W, H float64 }

// bboxAccumulator grows a bounding box curve by curve.
type bboxAccumulator struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newAccumulator() bboxAccumulator {
	return bboxAccumulator{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
		empty: true,
	}
}

func (acc *bboxAccumulator) addPoint(x, y float64) {
	acc.minX = math.Min(x, acc.minX)
	acc.minY = math.Min(y, acc.minY)
	acc.maxX = math.Max(x, acc.maxX)
	acc.maxY = math.Max(y, acc.maxY)
	acc.empty = false
}

func (acc *bboxAccumulator) addCurve(curve bezier) {
	resX, resY := curve.criticalPoints()
	// add begin and end point
	for _, t := range append(append(resX, 0, 1), resY...) {
		if !(0 <= t && t <= 1) { // filter invalid value
			continue
		}
		acc.addPoint(curve.evaluateCurve(t))
	}
}

// Bounds returns the bounding box of the path, after applying `m`.
// Since Bezier curves are stable under affine transforms, the
// control points are transformed first and the box is computed
// on the resulting curves.
// An empty path returns false.
func (p Path) Bounds(m rasterx.Matrix2D) (Rect, bool) {
	acc := newAccumulator()
	tr := func(a Point) [2]float64 {
		x, y := m.Transform(a.X, a.Y)
		return [2]float64{x, y}
	}
	var current, first [2]float64
	for _, op := range p {
		switch op := op.(type) {
		case MoveTo:
			current = tr(Point(op))
			first = current
			acc.addPoint(current[0], current[1])
		case LineTo:
			next := tr(Point(op))
			acc.addCurve(line{current, next})
			current = next
		case QuadTo:
			b, c := tr(op[0]), tr(op[1])
			acc.addCurve(quadBezier{current, b, c})
			current = c
		case CubicTo:
			b, c, d := tr(op[0]), tr(op[1]), tr(op[2])
			acc.addCurve(cubicBezier{current, b, c, d})
			current = d
		case Close:
			current = first
		}
	}
	if acc.empty {
		return Rect{}, false
	}
	return Rect{X: acc.minX, Y: acc.minY, W: acc.maxX - acc.minX, H: acc.maxY - acc.minY}, true
}

// Union returns the smallest rectangle containing `r` and `other`.
func (r Rect) Union(other Rect) Rect {
	minX, minY := math.Min(r.X, other.X), math.Min(r.Y, other.Y)
	maxX, maxY := math.Max(r.X+r.W, other.X+other.W), math.Max(r.Y+r.H, other.Y+other.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Transform returns the bounding box of `r` transformed by `m`.
func (r Rect) Transform(m rasterx.Matrix2D) Rect {
	acc := newAccumulator()
	for _, pt := range [4][2]float64{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X, r.Y + r.H}, {r.X + r.W, r.Y + r.H}} {
		acc.addPoint(m.Transform(pt[0], pt[1]))
	}
	return Rect{X: acc.minX, Y: acc.minY, W: acc.maxX - acc.minX, H: acc.maxY - acc.minY}
}

// IsValid returns true for a non degenerate rectangle.
func (r Rect) IsValid() bool { return r.W > 0 && r.H > 0 }

// BBoxTransform maps the unit square to `r`: it is the transform
// used for objectBoundingBox units.
func (r Rect) BBoxTransform() rasterx.Matrix2D {
	return rasterx.Identity.Translate(r.X, r.Y).Scale(r.W, r.H)
}
