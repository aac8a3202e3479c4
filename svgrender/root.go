package svgrender

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/benoitkugler/svgcomp/svgraster"
	"github.com/benoitkugler/svgcomp/svgscene"
)

// ErrInvalidSize is returned when the output image would be empty or too large.
var ErrInvalidSize = errors.New("invalid image size")

// ScreenSize is a size in pixels.
type ScreenSize struct {
	W, H int
}

// ToScreenSize rounds up `size`.
func ToScreenSize(size svgscene.Size) ScreenSize {
	return ScreenSize{W: int(math.Ceil(size.W)), H: int(math.Ceil(size.H))}
}

func (s ScreenSize) isValid() bool {
	return s.W > 0 && s.H > 0 && s.W <= svgraster.MaxDimension && s.H <= svgraster.MaxDimension
}

// FitMode selects how the image size is computed from the document size.
type FitMode uint8

const (
	// FitOriginal keeps the document size.
	FitOriginal FitMode = iota
	// FitWidth scales the document to the given width.
	FitWidth
	// FitHeight scales the document to the given height.
	FitHeight
	// FitSize scales the document to fit in the given size,
	// keeping its aspect ratio.
	FitSize
	// FitZoom scales the document by a factor.
	FitZoom
)

func (f FitMode) String() string {
	switch f {
	case FitOriginal:
		return "original"
	case FitWidth:
		return "width"
	case FitHeight:
		return "height"
	case FitSize:
		return "size"
	case FitZoom:
		return "zoom"
	default:
		return fmt.Sprintf("<unknown FitMode %d>", f)
	}
}

// FitTo is a fit policy. The zero value keeps the original size.
type FitTo struct {
	Mode          FitMode
	Width, Height int     // for FitWidth, FitHeight and FitSize
	Zoom          float64 // for FitZoom
}

// Fit applies the policy to `size`. The result may be invalid
// (empty or too large).
func (f FitTo) Fit(size ScreenSize) ScreenSize {
	w, h := float64(size.W), float64(size.H)
	if w <= 0 || h <= 0 {
		return ScreenSize{}
	}
	switch f.Mode {
	case FitWidth:
		return ScreenSize{W: f.Width, H: int(math.Ceil(float64(f.Width) * h / w))}
	case FitHeight:
		return ScreenSize{W: int(math.Ceil(float64(f.Height) * w / h)), H: f.Height}
	case FitSize:
		scale := math.Min(float64(f.Width)/w, float64(f.Height)/h)
		return ScreenSize{W: int(math.Ceil(w * scale)), H: int(math.Ceil(h * scale))}
	case FitZoom:
		fw, fh := math.Ceil(w*f.Zoom), math.Ceil(h*f.Zoom)
		if fw > math.MaxInt32 || fh > math.MaxInt32 || math.IsNaN(fw) || math.IsNaN(fh) {
			return ScreenSize{W: -1, H: -1}
		}
		return ScreenSize{W: int(fw), H: int(fh)}
	default:
		return size
	}
}

// CreateRootImage allocates the output image for a document of
// intrinsic `size`, according to the fit policy. The image is filled
// with `background`, if not nil.
// It returns the canvas and its size, or ErrInvalidSize.
func CreateRootImage(size ScreenSize, fit FitTo, background color.Color) (*svgraster.Canvas, ScreenSize, error) {
	imgSize := fit.Fit(size)
	if !imgSize.isValid() {
		return nil, ScreenSize{}, fmt.Errorf("%w: %dx%d fitted to %dx%d", ErrInvalidSize, size.W, size.H, imgSize.W, imgSize.H)
	}
	canvas, err := svgraster.NewCanvas(imgSize.W, imgSize.H)
	if err != nil {
		return nil, ScreenSize{}, fmt.Errorf("%w: %s", ErrInvalidSize, err)
	}
	if background != nil {
		canvas.Fill(background)
	}
	return canvas, imgSize, nil
}
