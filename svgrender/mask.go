package svgrender

import (
	"image"
	"math"

	"github.com/benoitkugler/svgcomp/svgpath"
	"github.com/benoitkugler/svgcomp/svgraster"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/srwiley/rasterx"
)

// resolveUnits maps `rect` to user space, using `bbox`
// for objectBoundingBox units.
func resolveUnits(rect svgscene.Rect, units svgscene.Units, bbox svgscene.Rect) svgscene.Rect {
	if units == svgscene.UserSpaceOnUse {
		return rect
	}
	return svgscene.Rect{
		X: bbox.X + rect.X*bbox.W,
		Y: bbox.Y + rect.Y*bbox.H,
		W: rect.W * bbox.W,
		H: rect.H * bbox.H,
	}
}

// applyMask multiplies `layer` by the luminance of the mask content,
// restricted to the mask rectangle. Chained masks multiply further.
func (r *renderer) applyMask(mask *svgscene.Mask, bbox svgscene.Rect, hasBBox bool,
	ts rasterx.Matrix2D, layer *svgraster.Canvas,
) {
	needsBBox := mask.Units == svgscene.ObjectBoundingBox || mask.ContentUnits == svgscene.ObjectBoundingBox
	if needsBBox && (!hasBBox || !bbox.IsValid()) {
		layer.Clear()
		return
	}

	maskLayer, err := r.layers.acquire()
	if err != nil {
		r.state.Fatal(err)
		return
	}
	defer r.layers.release(maskLayer)

	cts := ts
	if mask.ContentUnits == svgscene.ObjectBoundingBox {
		cts = ts.Mult(bbox.BBoxTransform())
	}
	r.renderNode(mask.Root, cts, maskLayer)
	if !r.state.Ok() {
		return
	}

	rect := resolveUnits(mask.Rect, mask.Units, bbox)
	if !r.clipToRect(maskLayer, rect, ts) {
		layer.Clear() // the mask region is outside of the viewport
		return
	}

	if mask.Mask != nil {
		r.applyMask(mask.Mask, bbox, hasBBox, ts, layer)
	}
	layer.ApplyLuminanceMask(maskLayer)
}

// pixelRect returns the smallest pixel rectangle containing `rect`
func pixelRect(rect svgscene.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(rect.X)), int(math.Floor(rect.Y)),
		int(math.Ceil(rect.X+rect.W)), int(math.Ceil(rect.Y+rect.H)),
	)
}

// clipToRect clears the pixels of `layer` outside of `rect`, given in user space.
// It returns false if `rect` does not intersect the layer.
func (r *renderer) clipToRect(layer *svgraster.Canvas, rect svgscene.Rect, ts rasterx.Matrix2D) bool {
	device := pixelRect(rect.Transform(ts))
	if device.Intersect(layer.Img.Bounds()).Empty() {
		return false
	}
	if ts.B == 0 && ts.C == 0 {
		// axis aligned: the transformed rectangle is exact
		layer.ClearOutside(device)
		return true
	}

	stencil, err := r.layers.acquire()
	if err != nil {
		r.state.Fatal(err)
		return true
	}
	defer r.layers.release(stencil)

	var path svgpath.Path
	path.AddRect(rect.X, rect.Y, rect.X+rect.W, rect.Y+rect.H)
	stencil.FillStencil(path, ts, svgscene.NonZero)
	layer.IntersectAlpha(stencil)
	return true
}
