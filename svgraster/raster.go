// Implements the raster backend used to composite SVG scenes,
// by wrapping rasterx for paths and x/image/draw for images.
//
// A Canvas is a premultiplied RGBA surface. Besides drawing, it
// provides the per pixel operations needed by the compositor:
// source-over compositing of another canvas, uniform alpha scaling,
// luminance masking and stencil intersection.
package svgraster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/svgcomp/svgpath"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// MaxDimension is the maximum width or height of a canvas, in pixels.
const MaxDimension = 1 << 14

// ErrInvalidSize is returned when creating a canvas with an empty
// or too large size.
var ErrInvalidSize = errors.New("invalid canvas size")

// Canvas is a drawing surface.
type Canvas struct {
	Img *image.RGBA

	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
}

// NewCanvas returns a transparent canvas of the given size,
// or ErrInvalidSize.
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return NewCanvasFor(image.NewRGBA(image.Rect(0, 0, width, height))), nil
}

// NewCanvasFor returns a canvas drawing on `img`,
// whose bounds must start at (0, 0).
func NewCanvasFor(img *image.RGBA) *Canvas {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	return &Canvas{
		Img:    img,
		dasher: rasterx.NewDasher(w, h, scanner),
		filler: rasterx.NewFiller(w, h, scanner),
	}
}

// Width returns the width in pixels.
func (c *Canvas) Width() int { return c.Img.Bounds().Dx() }

// Height returns the height in pixels.
func (c *Canvas) Height() int { return c.Img.Bounds().Dy() }

// Clear makes every pixel transparent.
func (c *Canvas) Clear() {
	clear(c.Img.Pix)
}

// Fill paints every pixel with `col`.
func (c *Canvas) Fill(col color.Color) {
	draw.Draw(c.Img, c.Img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

func toRasterxGradient(grad svgscene.BaseGradient, points [5]float64, isRadial bool) rasterx.Gradient {
	stops := make([]rasterx.GradStop, len(grad.Stops))
	for i, s := range grad.Stops {
		stops[i] = rasterx.GradStop{StopColor: s.StopColor, Offset: s.Offset, Opacity: s.Opacity}
	}
	units := rasterx.ObjectBoundingBox
	if grad.Units == svgscene.UserSpaceOnUse {
		units = rasterx.UserSpaceOnUse
	}
	return rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Matrix:   grad.Transform,
		Spread:   rasterx.SpreadMethod(grad.Spread),
		Units:    units,
		IsRadial: isRadial,
	}
}

// setColorFromPaint resolves the paint of the current path.
// `ts` maps user space to device space.
func setColorFromPaint(paint svgscene.Paint, opacity float64, ts rasterx.Matrix2D, scanner rasterx.Scanner) {
	var grad rasterx.Gradient
	switch paint := paint.(type) {
	case svgscene.Color:
		scanner.SetColor(rasterx.ApplyOpacity(color.NRGBA(paint), opacity))
		return
	case *svgscene.LinearGradient:
		grad = toRasterxGradient(paint.BaseGradient, [5]float64{paint.X1, paint.Y1, paint.X2, paint.Y2}, false)
	case *svgscene.RadialGradient:
		grad = toRasterxGradient(paint.BaseGradient, [5]float64{paint.Cx, paint.Cy, paint.Fx, paint.Fy, paint.R}, true)
	default:
		return
	}
	if grad.Units == rasterx.ObjectBoundingBox {
		fRect := scanner.GetPathExtent()
		mnx, mny := float64(fRect.Min.X)/64, float64(fRect.Min.Y)/64
		mxx, mxy := float64(fRect.Max.X)/64, float64(fRect.Max.Y)/64
		grad.Bounds.X, grad.Bounds.Y = mnx, mny
		grad.Bounds.W, grad.Bounds.H = mxx-mnx, mxy-mny
	} else {
		// gradient coordinates are in user space
		grad.Matrix = ts.Mult(grad.Matrix)
	}
	scanner.SetColor(grad.GetColorFunction(opacity))
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		svgscene.RoundJoin:     rasterx.Round,
		svgscene.BevelJoin:     rasterx.Bevel,
		svgscene.MiterJoin:     rasterx.Miter,
		svgscene.MiterClipJoin: rasterx.MiterClip,
		svgscene.ArcJoin:       rasterx.Arc,
		svgscene.ArcClipJoin:   rasterx.ArcClip,
	}

	capToFunc = [...]rasterx.CapFunc{
		svgscene.ButtCap:   rasterx.ButtCap,
		svgscene.SquareCap: rasterx.SquareCap,
		svgscene.RoundCap:  rasterx.RoundCap,
	}
)

func fToFixed(f float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(f * 64))
}

// lineScale is the scale factor applied to stroke widths by `ts`
func lineScale(ts rasterx.Matrix2D) float64 {
	return math.Sqrt(math.Abs(ts.A*ts.D - ts.B*ts.C))
}

// DrawPath fills then strokes `path`, whose coordinates are
// mapped to pixels by `ts` (the path own transform is not applied).
func (c *Canvas) DrawPath(path *svgscene.Path, ts rasterx.Matrix2D) {
	if !path.Visible {
		return
	}
	if fill := path.Fill; fill != nil {
		c.filler.Clear()
		c.filler.SetWinding(fill.Rule == svgscene.NonZero)
		path.Data.AddTo(c.filler, ts)
		setColorFromPaint(fill.Paint, fill.Opacity, ts, c.filler.Scanner)
		c.filler.Draw()
	}
	if stroke := path.Stroke; stroke != nil {
		scale := lineScale(ts)
		var dashes []float64
		if len(stroke.Dash) != 0 {
			dashes = make([]float64, len(stroke.Dash))
			for i, d := range stroke.Dash {
				dashes[i] = d * scale
			}
		}
		c.dasher.Clear()
		c.dasher.SetWinding(true)
		c.dasher.SetStroke(
			fToFixed(stroke.Width*scale), fToFixed(stroke.MiterLimit),
			capToFunc[stroke.Cap], capToFunc[stroke.Cap], rasterx.RoundGap,
			joinToJoin[stroke.Join], dashes, stroke.DashOffset*scale,
		)
		path.Data.AddTo(c.dasher, ts)
		setColorFromPaint(stroke.Paint, stroke.Opacity, ts, c.dasher.Scanner)
		c.dasher.Draw()
	}
}

// FillStencil fills `path` with opaque black, using the given fill rule.
// It is used to build clip masks.
func (c *Canvas) FillStencil(path svgpath.Path, ts rasterx.Matrix2D, rule svgscene.FillRule) {
	c.filler.Clear()
	c.filler.SetWinding(rule == svgscene.NonZero)
	path.AddTo(c.filler, ts)
	c.filler.SetColor(color.NRGBA{A: 0xFF})
	c.filler.Draw()
}

// toAff3 converts a rasterx matrix to the x/image convention
func toAff3(m rasterx.Matrix2D) f64.Aff3 {
	return f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
}

// DrawImage draws `img` in its view rectangle, honoring its aspect ratio.
// `ts` maps user space to device space.
func (c *Canvas) DrawImage(img *svgscene.Image, ts rasterx.Matrix2D) {
	if !img.Visible || img.Data == nil {
		return
	}
	src := img.Data.Bounds()
	view := img.View
	imgRect := svgscene.Rect{W: float64(src.Dx()), H: float64(src.Dy())}
	m := ts.Translate(view.X, view.Y).
		Mult(svgscene.ViewBoxTransform(imgRect, img.Aspect, view.W, view.H)).
		Translate(-float64(src.Min.X), -float64(src.Min.Y))

	// restrict drawing to the view, which matters for slice
	clip := view.Transform(ts)
	dstRect := image.Rect(int(math.Floor(clip.X)), int(math.Floor(clip.Y)),
		int(math.Ceil(clip.X+clip.W)), int(math.Ceil(clip.Y+clip.H))).Intersect(c.Img.Bounds())
	if dstRect.Empty() {
		return
	}
	dst := c.Img.SubImage(dstRect).(*image.RGBA)

	var interp draw.Transformer = draw.CatmullRom
	if img.Rendering == svgscene.OptimizeSpeed {
		interp = draw.NearestNeighbor
	}
	interp.Transform(dst, toAff3(m), img.Data, src, draw.Over, nil)
}

// Composite draws `src` over the canvas (source-over),
// both canvas having the same size.
func (c *Canvas) Composite(src *Canvas) {
	draw.Draw(c.Img, c.Img.Bounds(), src.Img, image.Point{}, draw.Over)
}
