package svgscene

import (
	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
)

// Mask is a mask element.
// Masks are shared between the groups referencing them,
// and are built once per conversion.
type Mask struct {
	// ID is the id of the source element
	ID string

	// Units is the coordinate system of Rect (maskUnits).
	Units Units

	// ContentUnits is the coordinate system of Root (maskContentUnits).
	ContentUnits Units

	// Rect is the masking region. With ObjectBoundingBox units,
	// its coordinates are fractions of the bounding box
	// of the referencing element.
	Rect Rect

	// Mask is an optional additional mask, applied after this one.
	Mask *Mask

	// Root holds the content of the mask. It always has children.
	Root *Group
}

// ResolveMask converts the mask element `node`.
// It returns false if `node` is not a mask, has an invalid size,
// references an invalid mask, is part of a reference cycle,
// or has no content.
func (c *Converter) ResolveMask(node *svgtree.Node) (*Mask, bool) {
	if node.Tag != "mask" {
		svglog.Logger().Warn("mask attribute must reference a mask element", "element", node.String())
		return nil, false
	}
	return resolve(c.cache, c.cache.masks, node, func() (*Mask, bool) { return c.convertMask(node) })
}

// defaultRect is -10%, -10%, 120%, 120%
var defaultRect = [4]svgtree.Length{
	svgtree.Percent(-10), svgtree.Percent(-10), svgtree.Percent(120), svgtree.Percent(120),
}

// convertRect reads x, y, width and height of a definition
func (c *Converter) convertRect(node *svgtree.Node, units Units, st *state) Rect {
	return Rect{
		X: c.convertLength(node, "x", units, st, defaultRect[0], axisX),
		Y: c.convertLength(node, "y", units, st, defaultRect[1], axisY),
		W: c.convertLength(node, "width", units, st, defaultRect[2], axisX),
		H: c.convertLength(node, "height", units, st, defaultRect[3], axisY),
	}
}

func (c *Converter) convertMask(node *svgtree.Node) (*Mask, bool) {
	st := c.rootState()

	units := parseUnits(node, "maskUnits", ObjectBoundingBox)
	contentUnits := parseUnits(node, "maskContentUnits", UserSpaceOnUse)

	rect := c.convertRect(node, units, &st)
	if !rect.IsValid() {
		svglog.Logger().Warn("mask has an invalid size, skipped", "element", node.String())
		return nil, false
	}

	out := &Mask{
		ID:           node.ID,
		Units:        units,
		ContentUnits: contentUnits,
		Rect:         rect,
		Root:         NewGroup(),
	}

	// the linked mask must be valid
	if _, has := node.Attr("mask"); has {
		link := node.Link("mask")
		if link == nil {
			svglog.Logger().Warn("mask references an unknown mask, skipped", "element", node.String())
			return nil, false
		}
		linked, ok := c.ResolveMask(link)
		if !ok {
			return nil, false
		}
		out.Mask = linked
	}

	c.convertChildren(node, &st, out.Root)

	if !out.Root.HasChildren() {
		svglog.Logger().Warn("mask has no content, skipped", "element", node.String())
		return nil, false
	}
	return out, true
}
