package svgraster

import (
	"image"
	"math"
)

// pixel operations on premultiplied RGBA buffers

// luminance coefficients for linear RGB
const (
	coeffR = 0.2125
	coeffG = 0.7154
	coeffB = 0.0721
)

// mul255 returns round(a * b / 255)
func mul255(a, b uint8) uint8 {
	t := uint32(a)*uint32(b) + 128
	return uint8((t + t>>8) >> 8)
}

// MultiplyAlpha scales every pixel by `opacity`, in [0, 1].
func (c *Canvas) MultiplyAlpha(opacity float64) {
	if opacity >= 1 {
		return
	}
	if opacity <= 0 {
		c.Clear()
		return
	}
	a := uint8(math.Round(opacity * 255))
	pix := c.Img.Pix
	for i := range pix {
		pix[i] = mul255(pix[i], a)
	}
}

// Luminance returns the luminance of the premultiplied pixel
// starting at pix[0], which includes its alpha.
func Luminance(pix []uint8) uint8 {
	l := coeffR*float64(pix[0]) + coeffG*float64(pix[1]) + coeffB*float64(pix[2])
	return uint8(math.Round(math.Min(l, 255)))
}

// ApplyLuminanceMask multiplies every pixel by the luminance
// of the corresponding pixel in `mask`, which must have the same size.
// A white opaque mask is thus a no-op, and a black or transparent
// one clears the canvas.
func (c *Canvas) ApplyLuminanceMask(mask *Canvas) {
	dst, src := c.Img.Pix, mask.Img.Pix
	for i := 0; i+3 < len(dst) && i+3 < len(src); i += 4 {
		l := Luminance(src[i : i+4])
		if l == 0xFF {
			continue
		}
		dst[i] = mul255(dst[i], l)
		dst[i+1] = mul255(dst[i+1], l)
		dst[i+2] = mul255(dst[i+2], l)
		dst[i+3] = mul255(dst[i+3], l)
	}
}

// IntersectAlpha multiplies every pixel by the alpha of the
// corresponding pixel in `stencil` (destination-in), which must have the same size.
func (c *Canvas) IntersectAlpha(stencil *Canvas) {
	dst, src := c.Img.Pix, stencil.Img.Pix
	for i := 0; i+3 < len(dst) && i+3 < len(src); i += 4 {
		a := src[i+3]
		if a == 0xFF {
			continue
		}
		dst[i] = mul255(dst[i], a)
		dst[i+1] = mul255(dst[i+1], a)
		dst[i+2] = mul255(dst[i+2], a)
		dst[i+3] = mul255(dst[i+3], a)
	}
}

// ClearOutside makes transparent the pixels outside of `r`.
func (c *Canvas) ClearOutside(r image.Rectangle) {
	b := c.Img.Bounds()
	r = r.Intersect(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := c.Img.Pix[c.Img.PixOffset(b.Min.X, y):c.Img.PixOffset(b.Min.X, y)+4*b.Dx()]
		if y < r.Min.Y || y >= r.Max.Y {
			clear(row)
			continue
		}
		clear(row[:4*(r.Min.X-b.Min.X)])
		clear(row[4*(r.Max.X-b.Min.X):])
	}
}

// ClearInside makes transparent the pixels inside of `r`.
func (c *Canvas) ClearInside(r image.Rectangle) {
	r = r.Intersect(c.Img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		clear(c.Img.Pix[c.Img.PixOffset(r.Min.X, y):c.Img.PixOffset(r.Max.X, y)])
	}
}

// IsTransparent returns true if every pixel is fully transparent.
func (c *Canvas) IsTransparent() bool {
	for i := 3; i < len(c.Img.Pix); i += 4 {
		if c.Img.Pix[i] != 0 {
			return false
		}
	}
	return true
}
