package svgscene

import (
	"math"
	"strings"

	"github.com/srwiley/rasterx"
)

// Align is the alignment part of preserveAspectRatio.
type Align uint8

const (
	AlignXMidYMid Align = iota // default
	AlignNone
	AlignXMinYMin
	AlignXMidYMin
	AlignXMaxYMin
	AlignXMinYMid
	AlignXMaxYMid
	AlignXMinYMax
	AlignXMidYMax
	AlignXMaxYMax
)

var alignNames = map[string]Align{
	"none":     AlignNone,
	"xMinYMin": AlignXMinYMin,
	"xMidYMin": AlignXMidYMin,
	"xMaxYMin": AlignXMaxYMin,
	"xMinYMid": AlignXMinYMid,
	"xMidYMid": AlignXMidYMid,
	"xMaxYMid": AlignXMaxYMid,
	"xMinYMax": AlignXMinYMax,
	"xMidYMax": AlignXMidYMax,
	"xMaxYMax": AlignXMaxYMax,
}

// AspectRatio is the preserveAspectRatio attribute.
// The zero value is the SVG default: "xMidYMid meet".
type AspectRatio struct {
	Align Align
	Slice bool
}

// ParseAspectRatio parses a preserveAspectRatio value.
// Invalid values return the default.
func ParseAspectRatio(v string) AspectRatio {
	fields := strings.Fields(v)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	var out AspectRatio
	if len(fields) == 0 {
		return out
	}
	align, ok := alignNames[fields[0]]
	if !ok {
		return out
	}
	out.Align = align
	if len(fields) > 1 && fields[1] == "slice" {
		out.Slice = true
	}
	return out
}

// factors returns the fraction of the free space
// placed before the content, on each axis
func (a Align) factors() (fx, fy float64) {
	switch a {
	case AlignXMinYMin:
		return 0, 0
	case AlignXMidYMin:
		return 0.5, 0
	case AlignXMaxYMin:
		return 1, 0
	case AlignXMinYMid:
		return 0, 0.5
	case AlignXMaxYMid:
		return 1, 0.5
	case AlignXMinYMax:
		return 0, 1
	case AlignXMidYMax:
		return 0.5, 1
	case AlignXMaxYMax:
		return 1, 1
	default:
		return 0.5, 0.5
	}
}

// ViewBoxTransform returns the transform mapping `view` into a
// viewport of size (width, height) with origin (0,0).
func ViewBoxTransform(view Rect, aspect AspectRatio, width, height float64) rasterx.Matrix2D {
	if !view.IsValid() {
		return rasterx.Identity
	}
	sx, sy := width/view.W, height/view.H
	if aspect.Align == AlignNone {
		return rasterx.Identity.Scale(sx, sy).Translate(-view.X, -view.Y)
	}
	s := math.Min(sx, sy)
	if aspect.Slice {
		s = math.Max(sx, sy)
	}
	fx, fy := aspect.Align.factors()
	tx := (width - view.W*s) * fx
	ty := (height - view.H*s) * fy
	return rasterx.Identity.Translate(tx, ty).Scale(s, s).Translate(-view.X, -view.Y)
}
