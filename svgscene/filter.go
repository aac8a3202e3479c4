package svgscene

import (
	"image/color"
	"math"
	"strings"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
)

// Filter is a filter element.
// Filters are shared and built once per conversion.
type Filter struct {
	// ID is the id of the source element
	ID string

	// Units is the coordinate system of Rect (filterUnits).
	Units Units

	// PrimitiveUnits is the coordinate system of the
	// primitives parameters (primitiveUnits).
	PrimitiveUnits Units

	// Rect is the filter region.
	Rect Rect

	// Primitives are applied in order, each one
	// consuming the result of the previous one. It is never empty.
	Primitives []Primitive
}

// Primitive is one of GaussianBlur, Offset, Flood or ColorMatrix.
type Primitive interface {
	isPrimitive()
}

func (GaussianBlur) isPrimitive() {}
func (Offset) isPrimitive()       {}
func (Flood) isPrimitive()        {}
func (ColorMatrix) isPrimitive()  {}

// GaussianBlur is a feGaussianBlur element.
type GaussianBlur struct {
	StdDevX, StdDevY float64
}

// Offset is a feOffset element.
type Offset struct {
	Dx, Dy float64
}

// Flood is a feFlood element. The opacity is
// included in the color.
type Flood struct {
	Color color.NRGBA
}

// ColorMatrixKind is the type of a feColorMatrix element.
type ColorMatrixKind uint8

const (
	// Matrix applies a 5x4 matrix, stored in row major order
	Matrix ColorMatrixKind = iota
	// Saturate uses a single value in [0, 1]
	Saturate
)

// ColorMatrix is a feColorMatrix element. Hue rotations
// and luminanceToAlpha are converted to the equivalent matrix.
type ColorMatrix struct {
	Kind   ColorMatrixKind
	Values []float64 // 20 values for Matrix, one for Saturate
}

// ResolveFilter converts the filter element `node`.
// It returns false if `node` is not a filter, has an invalid region,
// or has no valid primitive.
func (c *Converter) ResolveFilter(node *svgtree.Node) (*Filter, bool) {
	if node.Tag != "filter" {
		svglog.Logger().Warn("filter attribute must reference a filter element", "element", node.String())
		return nil, false
	}
	return resolve(c.cache, c.cache.filters, node, func() (*Filter, bool) { return c.convertFilter(node) })
}

func (c *Converter) convertFilter(node *svgtree.Node) (*Filter, bool) {
	st := c.rootState()
	units := parseUnits(node, "filterUnits", ObjectBoundingBox)
	rect := c.convertRect(node, units, &st)
	if !rect.IsValid() {
		svglog.Logger().Warn("filter has an invalid region, skipped", "element", node.String())
		return nil, false
	}
	out := &Filter{
		ID:             node.ID,
		Units:          units,
		PrimitiveUnits: parseUnits(node, "primitiveUnits", UserSpaceOnUse),
		Rect:           rect,
	}
	for _, child := range node.Children {
		prim, ok := c.convertPrimitive(child)
		if !ok {
			continue
		}
		out.Primitives = append(out.Primitives, prim)
	}
	if len(out.Primitives) == 0 {
		svglog.Logger().Warn("filter has no valid primitive, skipped", "element", node.String())
		return nil, false
	}
	return out, true
}

func (c *Converter) convertPrimitive(node *svgtree.Node) (Primitive, bool) {
	switch node.Tag {
	case "feGaussianBlur":
		nums, err := svgtree.ParseNumbers(node.Attrs["stdDeviation"])
		if err != nil || len(nums) == 0 || len(nums) > 2 {
			nums = []float64{0}
		}
		sx, sy := nums[0], nums[0]
		if len(nums) == 2 {
			sy = nums[1]
		}
		if sx < 0 || sy < 0 {
			sx, sy = 0, 0
		}
		return GaussianBlur{StdDevX: sx, StdDevY: sy}, true
	case "feOffset":
		return Offset{Dx: node.Number("dx", 0), Dy: node.Number("dy", 0)}, true
	case "feFlood":
		col := color.NRGBA{A: 0xFF}
		if v, ok := node.Attr("flood-color"); ok {
			parsed, err := c.resolveColor(node, v)
			if err != nil {
				svglog.Logger().Warn("invalid flood-color", "element", node.String(), "value", v)
			} else {
				col = parsed
			}
		}
		op := opacityAttr(node.Attr("flood-opacity"))
		col.A = uint8(math.Round(float64(col.A) * op))
		return Flood{Color: col}, true
	case "feColorMatrix":
		return convertColorMatrix(node), true
	default:
		svglog.Logger().Warn("unsupported filter primitive, skipped", "element", node.String())
		return nil, false
	}
}

var identityMatrix = []float64{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

// convertColorMatrix falls back to the identity for invalid values.
func convertColorMatrix(node *svgtree.Node) ColorMatrix {
	values, err := svgtree.ParseNumbers(node.Attrs["values"])
	_, hasValues := node.Attr("values")
	switch strings.TrimSpace(node.Attrs["type"]) {
	case "saturate":
		v := 1.
		if hasValues && err == nil && len(values) == 1 {
			v = math.Max(values[0], 0)
		}
		return ColorMatrix{Kind: Saturate, Values: []float64{v}}
	case "hueRotate":
		var angle float64
		if hasValues && err == nil && len(values) == 1 {
			angle = values[0]
		}
		return ColorMatrix{Kind: Matrix, Values: hueRotateMatrix(angle)}
	case "luminanceToAlpha":
		return ColorMatrix{Kind: Matrix, Values: []float64{
			0, 0, 0, 0, 0,
			0, 0, 0, 0, 0,
			0, 0, 0, 0, 0,
			0.2125, 0.7154, 0.0721, 0, 0,
		}}
	default: // matrix
		if err == nil && len(values) == 20 {
			return ColorMatrix{Kind: Matrix, Values: values}
		}
		return ColorMatrix{Kind: Matrix, Values: identityMatrix}
	}
}

func hueRotateMatrix(degrees float64) []float64 {
	rad := degrees * math.Pi / 180
	a1, a2 := math.Cos(rad), math.Sin(rad)
	return []float64{
		0.213 + 0.787*a1 - 0.213*a2,
		0.715 - 0.715*a1 - 0.715*a2,
		0.072 - 0.072*a1 + 0.928*a2,
		0, 0,
		0.213 - 0.213*a1 + 0.143*a2,
		0.715 + 0.285*a1 + 0.140*a2,
		0.072 - 0.072*a1 - 0.283*a2,
		0, 0,
		0.213 - 0.213*a1 - 0.787*a2,
		0.715 - 0.715*a1 + 0.715*a2,
		0.072 + 0.928*a1 + 0.072*a2,
		0, 0,
		0, 0, 0, 1, 0,
	}
}
