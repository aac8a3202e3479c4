package svgscene

import (
	"image/color"

	"github.com/srwiley/rasterx"
)

// Paint is either a Color, a *LinearGradient or a *RadialGradient.
// Gradients are paint servers: they are shared between the paths
// referencing them.
type Paint interface {
	isPaint()
}

// Color is a plain color paint.
type Color color.NRGBA

func (Color) isPaint()           {}
func (*LinearGradient) isPaint() {}
func (*RadialGradient) isPaint() {}

// SpreadMethod is the type for spread parameters
type SpreadMethod uint8

// SVG spread parameter constants
const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

// GradStop is a stop of a gradient, with its color and opacity.
type GradStop struct {
	StopColor color.NRGBA
	Offset    float64
	Opacity   float64
}

// BaseGradient holds the attributes shared by linear and radial gradients.
type BaseGradient struct {
	ID        string
	Units     Units
	Transform rasterx.Matrix2D
	Spread    SpreadMethod
	Stops     []GradStop // at least two
}

// LinearGradient is a linearGradient paint server.
// Coordinates are fractions of the bounding box with ObjectBoundingBox units.
type LinearGradient struct {
	BaseGradient
	X1, Y1, X2, Y2 float64
}

// RadialGradient is a radialGradient paint server.
type RadialGradient struct {
	BaseGradient
	Cx, Cy, R, Fx, Fy float64
}

// FillRule selects the inside of a path.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

// Fill describes how a path is filled.
type Fill struct {
	Paint   Paint
	Opacity float64
	Rule    FillRule
}

// LineJoin type to specify how segments join.
type LineJoin uint8

// LineJoin constants determine how stroke segments bridge the gap at a join
const (
	MiterJoin LineJoin = iota
	MiterClipJoin
	RoundJoin
	BevelJoin
	ArcJoin
	ArcClipJoin
)

func (s LineJoin) String() string {
	switch s {
	case RoundJoin:
		return "Round"
	case BevelJoin:
		return "Bevel"
	case MiterJoin:
		return "Miter"
	case MiterClipJoin:
		return "MiterClip"
	case ArcJoin:
		return "Arc"
	case ArcClipJoin:
		return "ArcClip"
	default:
		return "<unknown LineJoin>"
	}
}

// LineCap defines how to draw caps on the ends of lines
type LineCap uint8

const (
	ButtCap LineCap = iota
	RoundCap
	SquareCap
)

func (c LineCap) String() string {
	switch c {
	case ButtCap:
		return "ButtCap"
	case SquareCap:
		return "SquareCap"
	case RoundCap:
		return "RoundCap"
	default:
		return "<unknown LineCap>"
	}
}

// Stroke describes how a path is stroked.
type Stroke struct {
	Paint      Paint
	Opacity    float64
	Width      float64 // > 0
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	Dash       []float64 // nil for a solid line
	DashOffset float64
}
