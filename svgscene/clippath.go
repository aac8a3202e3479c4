package svgscene

import (
	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
	"github.com/srwiley/rasterx"
)

// ClipPath is a clipPath element.
// Like masks, clip paths are shared and built once per conversion.
type ClipPath struct {
	// ID is the id of the source element
	ID string

	// Units is the coordinate system of the content (clipPathUnits).
	Units Units

	// Transform is applied to the content, after the
	// bounding box transform if any.
	Transform rasterx.Matrix2D

	// ClipPath is an optional additional clip path, intersected with this one.
	ClipPath *ClipPath

	// Root holds the clipping shapes, filled with an opaque color
	// using the clip-rule. An empty Root clips everything.
	Root *Group
}

// ResolveClipPath converts the clipPath element `node`.
// It returns false if `node` is not a clipPath, references an
// invalid clip path, or is part of a reference cycle.
func (c *Converter) ResolveClipPath(node *svgtree.Node) (*ClipPath, bool) {
	if node.Tag != "clipPath" {
		svglog.Logger().Warn("clip-path attribute must reference a clipPath element", "element", node.String())
		return nil, false
	}
	return resolve(c.cache, c.cache.clipPaths, node, func() (*ClipPath, bool) { return c.convertClipPath(node) })
}

func (c *Converter) convertClipPath(node *svgtree.Node) (*ClipPath, bool) {
	st := c.rootState()
	st.inClip = true

	out := &ClipPath{
		ID:        node.ID,
		Units:     parseUnits(node, "clipPathUnits", UserSpaceOnUse),
		Transform: parseTransformAttr(node, "transform"),
		Root:      NewGroup(),
	}

	// the linked clip path must be valid
	if _, has := node.Attr("clip-path"); has {
		link := node.Link("clip-path")
		if link == nil {
			svglog.Logger().Warn("clip path references an unknown clip path, skipped", "element", node.String())
			return nil, false
		}
		linked, ok := c.ResolveClipPath(link)
		if !ok {
			return nil, false
		}
		out.ClipPath = linked
	}

	c.convertChildren(node, &st, out.Root)
	return out, true
}
