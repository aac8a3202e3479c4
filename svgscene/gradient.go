package svgscene

import (
	"image/color"
	"math"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
)

// ResolvePaint converts the paint server `node`.
// Gradients with a single stop are resolved to a plain Color.
// It returns false for unsupported servers and for gradients without stops.
func (c *Converter) ResolvePaint(node *svgtree.Node) (Paint, bool) {
	if node.Tag != "linearGradient" && node.Tag != "radialGradient" {
		svglog.Logger().Warn("unsupported paint server", "element", node.String())
		return nil, false
	}
	return resolve(c.cache, c.cache.paints, node, func() (Paint, bool) { return c.convertGradient(node) })
}

// hrefChain returns `node` followed by the gradients it references
// through href, stopping on cycles.
func hrefChain(node *svgtree.Node) []*svgtree.Node {
	var (
		out  []*svgtree.Node
		seen = map[*svgtree.Node]bool{}
	)
	for cur := node; cur != nil && !seen[cur]; cur = cur.Link("href") {
		if cur.Tag != "linearGradient" && cur.Tag != "radialGradient" {
			break
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return out
}

// gradientAttr returns the first definition of `name`
// along the href chain
func gradientAttr(chain []*svgtree.Node, name string) *svgtree.Node {
	for _, n := range chain {
		if _, ok := n.Attr(name); ok {
			return n
		}
	}
	return nil
}

func (c *Converter) convertGradient(node *svgtree.Node) (Paint, bool) {
	chain := hrefChain(node)
	st := c.rootState()

	var stops []GradStop
	for _, n := range chain {
		if stops = c.convertStops(n); len(stops) != 0 {
			break
		}
	}
	switch len(stops) {
	case 0:
		svglog.Logger().Warn("gradient without stops", "element", node.String())
		return nil, false
	case 1:
		col := stops[0].StopColor
		col.A = uint8(math.Round(float64(col.A) * stops[0].Opacity))
		return Color(col), true
	}

	base := BaseGradient{ID: node.ID, Stops: stops}
	base.Units = ObjectBoundingBox
	if n := gradientAttr(chain, "gradientUnits"); n != nil {
		base.Units = parseUnits(n, "gradientUnits", ObjectBoundingBox)
	}
	tsNode := gradientAttr(chain, "gradientTransform")
	if tsNode == nil {
		tsNode = node
	}
	base.Transform = parseTransformAttr(tsNode, "gradientTransform")
	if n := gradientAttr(chain, "spreadMethod"); n != nil {
		switch n.Attrs["spreadMethod"] {
		case "reflect":
			base.Spread = ReflectSpread
		case "repeat":
			base.Spread = RepeatSpread
		}
	}

	// coordinates are read on the first gradient of the chain defining them
	length := func(name string, def svgtree.Length, ax axis) float64 {
		n := gradientAttr(chain, name)
		if n == nil {
			n = node
		}
		return c.convertLength(n, name, base.Units, &st, def, ax)
	}

	if node.Tag == "linearGradient" {
		return &LinearGradient{
			BaseGradient: base,
			X1:           length("x1", svgtree.Percent(0), axisX),
			Y1:           length("y1", svgtree.Percent(0), axisY),
			X2:           length("x2", svgtree.Percent(100), axisX),
			Y2:           length("y2", svgtree.Percent(0), axisY),
		}, true
	}

	grad := &RadialGradient{
		BaseGradient: base,
		Cx:           length("cx", svgtree.Percent(50), axisX),
		Cy:           length("cy", svgtree.Percent(50), axisY),
		R:            length("r", svgtree.Percent(50), axisDiagonal),
	}
	if !(grad.R > 0) {
		// a zero radius paints the last stop color
		last := stops[len(stops)-1]
		col := last.StopColor
		col.A = uint8(math.Round(float64(col.A) * last.Opacity))
		return Color(col), true
	}
	// the focal point defaults to the center
	grad.Fx, grad.Fy = grad.Cx, grad.Cy
	if gradientAttr(chain, "fx") != nil {
		grad.Fx = length("fx", svgtree.Percent(50), axisX)
	}
	if gradientAttr(chain, "fy") != nil {
		grad.Fy = length("fy", svgtree.Percent(50), axisY)
	}
	return grad, true
}

// convertStops reads the stop children of `node`, enforcing
// increasing offsets in [0, 1].
func (c *Converter) convertStops(node *svgtree.Node) []GradStop {
	var (
		out  []GradStop
		prev float64
	)
	for _, child := range node.Children {
		if child.Tag != "stop" {
			continue
		}
		stop := GradStop{StopColor: color.NRGBA{A: 0xFF}, Opacity: 1}
		offset := child.Number("offset", 0)
		offset = math.Max(prev, math.Min(1, math.Max(0, offset)))
		stop.Offset, prev = offset, offset
		if v, ok := child.Attr("stop-color"); ok {
			col, err := c.resolveColor(child, v)
			if err != nil {
				svglog.Logger().Warn("invalid stop-color", "element", child.String(), "value", v)
			} else {
				stop.StopColor = col
			}
		}
		stop.Opacity = opacityAttr(child.Attr("stop-opacity"))
		out = append(out, stop)
	}
	return out
}
