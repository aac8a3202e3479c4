package svgscene

import (
	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgpath"
	"github.com/benoitkugler/svgcomp/svgtree"
)

// convertShape builds the path of a basic shape or path element,
// with its fill and stroke. It returns nil for empty geometry
// or if there is nothing to paint.
func (c *Converter) convertShape(node *svgtree.Node, st *state) *Path {
	data := c.shapeData(node, st)
	if len(data) < 2 {
		return nil
	}
	path := &Path{
		ID:      node.ID,
		Data:    data,
		Fill:    c.resolveFill(node, st),
		Stroke:  c.resolveStroke(node, st),
		Visible: isVisible(c, node),
	}
	if path.Fill == nil && path.Stroke == nil {
		return nil
	}
	return path
}

func (c *Converter) length(node *svgtree.Node, name string, st *state, ax axis) float64 {
	return c.resolveLength(node.Length(name, svgtree.Px(0)), st, ax)
}

func (c *Converter) shapeData(node *svgtree.Node, st *state) svgpath.Path {
	var p svgpath.Path
	switch node.Tag {
	case "path":
		d, err := svgpath.ParsePath(node.Attrs["d"])
		if err != nil {
			// render up to the error
			svglog.Logger().Warn("invalid path data", "element", node.String(), "error", err)
		}
		p = d
	case "rect":
		x, y := c.length(node, "x", st, axisX), c.length(node, "y", st, axisY)
		w, h := c.length(node, "width", st, axisX), c.length(node, "height", st, axisY)
		if w <= 0 || h <= 0 {
			return nil
		}
		rx, hasRx := node.Attr("rx")
		ry, hasRy := node.Attr("ry")
		var radX, radY float64
		if hasRx {
			radX = c.length(node, "rx", st, axisX)
		}
		if hasRy {
			radY = c.length(node, "ry", st, axisY)
		}
		// a missing (or invalid) radius takes the value of the other one
		if !hasRx || rx == "auto" || radX < 0 {
			radX = radY
		}
		if !hasRy || ry == "auto" || radY < 0 {
			radY = radX
		}
		p.AddRoundRect(x, y, x+w, y+h, radX, radY)
	case "circle":
		r := c.length(node, "r", st, axisDiagonal)
		if r <= 0 {
			return nil
		}
		p.AddEllipse(c.length(node, "cx", st, axisX), c.length(node, "cy", st, axisY), r, r)
	case "ellipse":
		rx, ry := c.length(node, "rx", st, axisX), c.length(node, "ry", st, axisY)
		if _, ok := node.Attr("rx"); !ok {
			rx = ry
		}
		if _, ok := node.Attr("ry"); !ok {
			ry = rx
		}
		if rx <= 0 || ry <= 0 {
			return nil
		}
		p.AddEllipse(c.length(node, "cx", st, axisX), c.length(node, "cy", st, axisY), rx, ry)
	case "line":
		p.AddPolyline([]float64{
			c.length(node, "x1", st, axisX), c.length(node, "y1", st, axisY),
			c.length(node, "x2", st, axisX), c.length(node, "y2", st, axisY),
		}, false)
	case "polyline", "polygon":
		points, err := svgtree.ParseNumbers(node.Attrs["points"])
		if err != nil {
			svglog.Logger().Warn("invalid points", "element", node.String(), "error", err)
		}
		if len(points)%2 == 1 { // odd number of coordinates: drop the last one
			points = points[:len(points)-1]
		}
		p.AddPolyline(points, node.Tag == "polygon")
	}
	return p
}
