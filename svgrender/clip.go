package svgrender

import (
	"github.com/benoitkugler/svgcomp/svgraster"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/srwiley/rasterx"
)

// applyClipPath keeps the part of `layer` covered by the clip path.
// `bbox` is the bounding box of the clipped element, used with
// objectBoundingBox units.
func (r *renderer) applyClipPath(cp *svgscene.ClipPath, bbox svgscene.Rect, hasBBox bool,
	ts rasterx.Matrix2D, layer *svgraster.Canvas,
) {
	stencil, err := r.layers.acquire()
	if err != nil {
		r.state.Fatal(err)
		return
	}
	defer r.layers.release(stencil)

	r.drawClipPath(cp, bbox, hasBBox, ts, stencil)
	layer.IntersectAlpha(stencil)
}

// drawClipPath renders the clip shapes, opaque, on `stencil`.
// Chained clip paths are intersected.
func (r *renderer) drawClipPath(cp *svgscene.ClipPath, bbox svgscene.Rect, hasBBox bool,
	ts rasterx.Matrix2D, stencil *svgraster.Canvas,
) {
	cts := ts
	if cp.Units == svgscene.ObjectBoundingBox {
		if !hasBBox || !bbox.IsValid() {
			return // nothing to clip to: the stencil stays empty
		}
		cts = cts.Mult(bbox.BBoxTransform())
	}
	cts = cts.Mult(cp.Transform)

	r.renderChildren(cp.Root, cts, stencil)

	if cp.ClipPath != nil {
		r.applyClipPath(cp.ClipPath, bbox, hasBBox, ts, stencil)
	}
}
