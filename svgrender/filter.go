package svgrender

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/benoitkugler/svgcomp/internal/utils"
	"github.com/benoitkugler/svgcomp/svgraster"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/disintegration/imaging"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

var (
	// errInvalidFilter is a soft failure: the filter is skipped.
	errInvalidFilter = errors.New("invalid filter")
	// errFilterResource aborts the render.
	errFilterResource = errors.New("filter region is too large")
)

// filterContext holds the parameters shared by the primitives of a filter.
type filterContext struct {
	ts     rasterx.Matrix2D // user space to pixels
	bbox   svgscene.Rect
	units  svgscene.Units // primitive units
	scaleX float64        // user space to pixel scale, on each axis
	scaleY float64
}

// applyFilter runs the primitives of `filter` on `layer`.
// Pixels outside of the filter region are cleared.
func applyFilter(filter *svgscene.Filter, bbox svgscene.Rect, hasBBox bool,
	ts rasterx.Matrix2D, layer *svgraster.Canvas,
) error {
	if filter.Units == svgscene.ObjectBoundingBox && (!hasBBox || !bbox.IsValid()) {
		return fmt.Errorf("%w: %s requires a bounding box", errInvalidFilter, filter.ID)
	}
	rect := resolveUnits(filter.Rect, filter.Units, bbox)
	device := pixelRect(rect.Transform(ts))
	if device.Dx() > svgraster.MaxDimension || device.Dy() > svgraster.MaxDimension {
		return fmt.Errorf("%w (%dx%d)", errFilterResource, device.Dx(), device.Dy())
	}
	region := device.Intersect(layer.Img.Bounds())
	if region.Empty() {
		layer.Clear()
		return nil
	}

	fc := filterContext{
		ts:     ts,
		bbox:   bbox,
		units:  filter.PrimitiveUnits,
		scaleX: math.Hypot(ts.A, ts.B),
		scaleY: math.Hypot(ts.C, ts.D),
	}
	if fc.units == svgscene.ObjectBoundingBox && (!hasBBox || !bbox.IsValid()) {
		return fmt.Errorf("%w: %s requires a bounding box", errInvalidFilter, filter.ID)
	}

	// the primitives work on a copy of the region, with origin (0, 0)
	work := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(work, work.Bounds(), layer.Img, region.Min, draw.Src)

	for _, prim := range filter.Primitives {
		var err error
		work, err = fc.apply(prim, work)
		if err != nil {
			return err // the layer is left untouched
		}
	}

	layer.ClearOutside(region)
	draw.Draw(layer.Img, region, work, image.Point{}, draw.Src)
	return nil
}

// primitiveScale returns the size in pixels of the primitive lengths (x, y)
func (fc *filterContext) primitiveScale(x, y float64) (float64, float64) {
	if fc.units == svgscene.ObjectBoundingBox {
		x, y = x*fc.bbox.W, y*fc.bbox.H
	}
	return x * fc.scaleX, y * fc.scaleY
}

func (fc *filterContext) apply(prim svgscene.Primitive, img *image.RGBA) (*image.RGBA, error) {
	switch prim := prim.(type) {
	case svgscene.GaussianBlur:
		return fc.gaussianBlur(prim, img), nil
	case svgscene.Offset:
		return fc.offset(prim, img), nil
	case svgscene.Flood:
		draw.Draw(img, img.Bounds(), image.NewUniform(prim.Color), image.Point{}, draw.Src)
		return img, nil
	case svgscene.ColorMatrix:
		return colorMatrix(prim, img)
	default:
		return nil, fmt.Errorf("%w: unsupported primitive %T", errInvalidFilter, prim)
	}
}

func (fc *filterContext) gaussianBlur(prim svgscene.GaussianBlur, img *image.RGBA) *image.RGBA {
	sx, sy := fc.primitiveScale(prim.StdDevX, prim.StdDevY)
	// the blur is isotropic: use the largest deviation
	sigma := utils.Max(sx, sy)
	if sigma <= 0 {
		return img
	}
	// bild kernel has a variance of 2*radius
	out := blur.Gaussian(img, sigma*sigma/2)
	return toOrigin(out)
}

func (fc *filterContext) offset(prim svgscene.Offset, img *image.RGBA) *image.RGBA {
	dx, dy := prim.Dx, prim.Dy
	if fc.units == svgscene.ObjectBoundingBox {
		dx, dy = dx*fc.bbox.W, dy*fc.bbox.H
	}
	// only the linear part of the transform applies to a vector
	pdx := fc.ts.A*dx + fc.ts.C*dy
	pdy := fc.ts.B*dx + fc.ts.D*dy
	shift := image.Pt(int(math.Round(pdx)), int(math.Round(pdy)))
	if shift == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, img.Bounds().Add(shift), img, image.Point{}, draw.Src)
	return out
}

// colorMatrix works on non premultiplied colors.
func colorMatrix(prim svgscene.ColorMatrix, img *image.RGBA) (*image.RGBA, error) {
	switch prim.Kind {
	case svgscene.Saturate:
		if len(prim.Values) != 1 {
			return nil, fmt.Errorf("%w: saturate expects one value", errInvalidFilter)
		}
		// imaging uses a percentage: -100 gives a grayscale image
		percentage := utils.Clamp((prim.Values[0]-1)*100, -100, 100)
		out := image.NewRGBA(img.Bounds())
		draw.Draw(out, out.Bounds(), imaging.AdjustSaturation(img, percentage), image.Point{}, draw.Src)
		return out, nil
	case svgscene.Matrix:
		if len(prim.Values) != 20 {
			return nil, fmt.Errorf("%w: matrix expects 20 values", errInvalidFilter)
		}
		nrgba := imaging.Clone(img)
		m := prim.Values
		pix := nrgba.Pix
		for i := 0; i+3 < len(pix); i += 4 {
			r, g, b, a := float64(pix[i])/255, float64(pix[i+1])/255, float64(pix[i+2])/255, float64(pix[i+3])/255
			for c := 0; c < 4; c++ {
				row := m[5*c : 5*c+5]
				v := row[0]*r + row[1]*g + row[2]*b + row[3]*a + row[4]
				pix[i+c] = uint8(math.Round(utils.Clamp(v, 0, 1) * 255))
			}
		}
		out := image.NewRGBA(img.Bounds())
		draw.Draw(out, out.Bounds(), nrgba, image.Point{}, draw.Src)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown color matrix", errInvalidFilter)
	}
}

// toOrigin returns an image with bounds starting at (0, 0)
func toOrigin(img *image.RGBA) *image.RGBA {
	if img.Bounds().Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
