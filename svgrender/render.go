package svgrender

import (
	"errors"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgraster"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/srwiley/rasterx"
)

// renderer holds what is shared by the recursive calls of one render.
type renderer struct {
	state  *RenderState
	layers *layerManager
}

// renderNodeToCanvas renders `node` on `canvas`, mapping `viewBox`
// to a viewport of `size` pixels. `parentTs` maps the coordinate system
// of the parent of `node` to the document user space.
func renderNodeToCanvas(node svgscene.Node, parentTs rasterx.Matrix2D, viewBox svgscene.ViewBox, size ScreenSize,
	maxLayers int, state *RenderState, canvas *svgraster.Canvas,
) {
	r := renderer{
		state:  state,
		layers: newLayerManager(size.W, size.H, maxLayers),
	}
	ts := svgscene.ViewBoxTransform(viewBox.Rect, viewBox.Aspect, float64(size.W), float64(size.H))
	r.renderNode(node, ts.Mult(parentTs), canvas)
}

// renderNode draws `node` on `target`; `ts` maps the coordinate
// system of the parent of `node` to pixels.
func (r *renderer) renderNode(node svgscene.Node, ts rasterx.Matrix2D, target *svgraster.Canvas) {
	if !r.state.Ok() {
		return
	}
	switch node := node.(type) {
	case *svgscene.Path:
		target.DrawPath(node, ts.Mult(node.Transform))
	case *svgscene.Image:
		target.DrawImage(node, ts.Mult(node.Transform))
	case *svgscene.Group:
		r.renderGroup(node, ts, target)
	}
}

func (r *renderer) renderChildren(g *svgscene.Group, ts rasterx.Matrix2D, target *svgraster.Canvas) {
	for _, child := range g.Children {
		if !r.state.Ok() {
			return
		}
		r.renderNode(child, ts, target)
	}
}

// renderGroup draws the children of `g` in order. Groups with
// compositing effects are first rendered on a separate layer,
// on which the effects are applied, in this order:
// filters, clip path, mask and opacity.
func (r *renderer) renderGroup(g *svgscene.Group, ts rasterx.Matrix2D, target *svgraster.Canvas) {
	ts = ts.Mult(g.Transform)
	if !g.RequiresIsolation() {
		r.renderChildren(g, ts, target)
		return
	}

	layer, err := r.layers.acquire()
	if err != nil {
		r.state.Fatal(err)
		return
	}
	defer r.layers.release(layer)

	r.renderChildren(g, ts, layer)

	bbox, hasBBox := g.ContentBBox()
	for _, filter := range g.Filters {
		if !r.state.Ok() {
			return
		}
		err := applyFilter(filter, bbox, hasBBox, ts, layer)
		if errors.Is(err, errFilterResource) {
			r.state.Fatal(err)
		} else if err != nil {
			svglog.Logger().Warn("filter skipped", "filter", filter.ID, "error", err)
		}
	}
	if g.ClipPath != nil {
		r.applyClipPath(g.ClipPath, bbox, hasBBox, ts, layer)
	}
	if g.Mask != nil {
		r.applyMask(g.Mask, bbox, hasBBox, ts, layer)
	}
	if !r.state.Ok() {
		return // the layer is released without being composited
	}
	layer.MultiplyAlpha(g.Opacity)
	target.Composite(layer)
}
