package svgpath

import (
	"math"
	"testing"

	"github.com/srwiley/rasterx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/fixed"
)

func assertRect(t *testing.T, expected, got Rect) {
	t.Helper()
	const eps = 5e-2 // cubic approximations
	assert.InDelta(t, expected.X, got.X, eps)
	assert.InDelta(t, expected.Y, got.Y, eps)
	assert.InDelta(t, expected.W, got.W, eps)
	assert.InDelta(t, expected.H, got.H, eps)
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("M10 10 h 20 v20 H10 z")
	require.NoError(t, err)
	assert.Equal(t, "M10.000,10.000 L30.000,10.000 L30.000,30.000 L10.000,30.000 Z", p.String())

	// implicit commands after a move are lines
	p, err = ParsePath("m0,0 10,0 0,10")
	require.NoError(t, err)
	require.Len(t, p, 3)
	assert.IsType(t, LineTo{}, p[2])

	p, err = ParsePath("M0 0 Q 5 10 10 0 T 20 0 C 20 5 25 5 25 0 S 30 -5 30 0")
	require.NoError(t, err)
	bbox, ok := p.Bounds(rasterx.Identity)
	assert.True(t, ok)
	assert.InDelta(t, 0, bbox.X, 5e-2)
	assert.InDelta(t, 30, bbox.W, 5e-2)
}

func TestParsePathErrors(t *testing.T) {
	// the valid prefix is kept
	p, err := ParsePath("M0 0 L10 10 X 5")
	assert.Error(t, err)
	assert.Len(t, p, 2)

	_, err = ParsePath("M0 0 L10")
	assert.Error(t, err)
}

func TestParsePathArc(t *testing.T) {
	p, err := ParsePath("M0 50 A50 50 0 0 1 100 50")
	require.NoError(t, err)
	bbox, ok := p.Bounds(rasterx.Identity)
	require.True(t, ok)
	assertRect(t, Rect{X: 0, Y: 0, W: 100, H: 50}, bbox)

	// the other half, with the large arc
	p, err = ParsePath("M0 50 A50 50 0 1 0 100 50")
	require.NoError(t, err)
	bbox, _ = p.Bounds(rasterx.Identity)
	assertRect(t, Rect{X: 0, Y: 50, W: 100, H: 50}, bbox)

	// radii too small are scaled up
	p, err = ParsePath("M0 0 a1 1 0 0 1 20 0")
	require.NoError(t, err)
	bbox, _ = p.Bounds(rasterx.Identity)
	assertRect(t, Rect{X: 0, Y: -10, W: 20, H: 10}, bbox)

	// zero radius gives a line, same end point is omitted
	p, err = ParsePath("M0 0 A0 5 0 0 1 10 0 A5 5 0 0 1 10 0")
	require.NoError(t, err)
	assert.Equal(t, "M0.000,0.000 L10.000,0.000", p.String())
}

func TestRoundRect(t *testing.T) {
	var p Path
	p.AddRoundRect(0, 0, 20, 10, 15, 2)
	bbox, ok := p.Bounds(rasterx.Identity)
	require.True(t, ok)
	assertRect(t, Rect{W: 20, H: 10}, bbox)
	assert.IsType(t, CubicTo{}, p[2])

	p.Clear()
	p.AddRoundRect(0, 0, 20, 10, 0, 2)
	assert.Equal(t, "M0.000,0.000 L20.000,0.000 L20.000,10.000 L0.000,10.000 Z", p.String())
}

func TestParseTransform(t *testing.T) {
	for _, test := range []struct {
		in       string
		expected rasterx.Matrix2D
	}{
		{"translate(10)", rasterx.Identity.Translate(10, 0)},
		{"translate(10, 20) scale(2)", rasterx.Identity.Translate(10, 20).Scale(2, 2)},
		{"matrix(1 2 3 4 5 6)", rasterx.Matrix2D{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}},
		{"rotate(90)", rasterx.Identity.Rotate(math.Pi / 2)},
		{"scale(2,3),skewX(0)", rasterx.Identity.Scale(2, 3)},
	} {
		m, err := ParseTransform(test.in)
		assert.NoError(t, err, test.in)
		assert.InDeltaSlice(t,
			[]float64{test.expected.A, test.expected.B, test.expected.C, test.expected.D, test.expected.E, test.expected.F},
			[]float64{m.A, m.B, m.C, m.D, m.E, m.F}, 1e-9, test.in)
	}

	for _, in := range []string{"translate(1, 2, 3)", "foo(1)", "scale", "rotate(1 2)"} {
		_, err := ParseTransform(in)
		assert.Error(t, err, in)
	}
}

func TestBounds(t *testing.T) {
	var p Path
	_, ok := p.Bounds(rasterx.Identity)
	assert.False(t, ok)
	assert.True(t, p.IsEmpty())

	p.AddRect(10, 20, 30, 60)
	assert.False(t, p.IsEmpty())
	bbox, ok := p.Bounds(rasterx.Identity)
	assert.True(t, ok)
	assertRect(t, Rect{X: 10, Y: 20, W: 20, H: 40}, bbox)

	bbox, _ = p.Bounds(rasterx.Identity.Scale(2, 0.5))
	assertRect(t, Rect{X: 20, Y: 10, W: 40, H: 20}, bbox)

	var circle Path
	circle.AddEllipse(50, 50, 10, 20)
	bbox, _ = circle.Bounds(rasterx.Identity)
	assertRect(t, Rect{X: 40, Y: 30, W: 20, H: 40}, bbox)
}

func TestRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.Equal(t, Rect{X: 0, Y: 0, W: 25, H: 15}, r.Union(Rect{X: 20, Y: 5, W: 5, H: 10}))

	rotated := r.Transform(rasterx.Identity.Rotate(math.Pi / 4))
	assert.InDelta(t, 10*math.Sqrt2, rotated.W, 1e-9)

	assert.False(t, Rect{W: 0, H: 1}.IsValid())
	assert.True(t, r.IsValid())

	m := Rect{X: 5, Y: 10, W: 20, H: 40}.BBoxTransform()
	x, y := m.Transform(0.5, 0.5)
	assert.Equal(t, 15., x)
	assert.Equal(t, 30., y)
}

func TestSubPixelPoints(t *testing.T) {
	// user space coordinates keep their precision until the
	// device transform is applied
	var p Path
	p.AddRect(0, 0, 0.1, 0.01)
	bbox, ok := p.Bounds(rasterx.Identity)
	require.True(t, ok)
	assert.InDelta(t, 0.1, bbox.W, 1e-12)
	assert.InDelta(t, 0.01, bbox.H, 1e-12)

	bbox, _ = p.Bounds(rasterx.Identity.Scale(1000, 1000))
	assert.InDelta(t, 100, bbox.W, 1e-9)
	assert.InDelta(t, 10, bbox.H, 1e-9)

	var a adderRecorder
	p.AddTo(&a, rasterx.Identity.Scale(1000, 1000))
	require.Len(t, a.points, 4)
	assert.Equal(t, fixed.Point26_6{X: 100 * 64, Y: 10 * 64}, a.points[2])
}

// adderRecorder stores the points sent to it.
type adderRecorder struct{ points []fixed.Point26_6 }

func (a *adderRecorder) Start(p fixed.Point26_6) { a.points = append(a.points, p) }
func (a *adderRecorder) Line(p fixed.Point26_6)  { a.points = append(a.points, p) }
func (a *adderRecorder) QuadBezier(b, c fixed.Point26_6) {
	a.points = append(a.points, b, c)
}

func (a *adderRecorder) CubeBezier(b, c, d fixed.Point26_6) {
	a.points = append(a.points, b, c, d)
}
func (a *adderRecorder) Stop(bool) {}
