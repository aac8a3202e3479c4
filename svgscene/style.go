package svgscene

import (
	"errors"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgcomp/internal/utils"
	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
	"golang.org/x/image/colornames"
)

var errInvalidColor = errors.New("invalid color")

// ParseColor parses an SVG color string in all forms
// including all SVG1.1 names, obtained from the colornames package.
// "currentColor" is not handled here.
func ParseColor(colorStr string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(colorStr))
	if v == "" {
		return color.NRGBA{}, errInvalidColor
	}
	if v == "transparent" {
		return color.NRGBA{}, nil
	}
	if cn, ok := colornames.Map[v]; ok {
		return color.NRGBA{cn.R, cn.G, cn.B, 0xFF}, nil
	}
	if v[0] == '#' {
		r, g, b, err := parseColorNum(v[1:])
		return color.NRGBA{r, g, b, 0xFF}, err
	}
	var args string
	switch {
	case strings.HasPrefix(v, "rgba(") && strings.HasSuffix(v, ")"):
		args = v[5 : len(v)-1]
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		args = v[4 : len(v)-1]
	default:
		return color.NRGBA{}, errInvalidColor
	}
	vals := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(vals) != 3 && len(vals) != 4 {
		return color.NRGBA{}, errInvalidColor
	}
	var cvals [3]uint8
	for i := range cvals {
		c, err := parseColorValue(vals[i])
		if err != nil {
			return color.NRGBA{}, err
		}
		cvals[i] = c
	}
	out := color.NRGBA{cvals[0], cvals[1], cvals[2], 0xFF}
	if len(vals) == 4 {
		a, err := parseOpacity(vals[3])
		if err != nil {
			return color.NRGBA{}, err
		}
		out.A = uint8(math.Round(a * 0xFF))
	}
	return out, nil
}

// parseColorNum reads the hex part of #FBD9BD or #FBD
func parseColorNum(colorStr string) (r, g, b uint8, err error) {
	switch len(colorStr) {
	case 6:
	case 3:
		// duplicate characters in case of 3 digit hex number
		colorStr = string([]byte{colorStr[0], colorStr[0],
			colorStr[1], colorStr[1], colorStr[2], colorStr[2]})
	default:
		return 0, 0, 0, errInvalidColor
	}
	for _, v := range []struct {
		c *uint8
		s string
	}{
		{&r, colorStr[0:2]},
		{&g, colorStr[2:4]},
		{&b, colorStr[4:6]},
	} {
		t, err := strconv.ParseUint(v.s, 16, 8)
		if err != nil {
			return 0, 0, 0, errInvalidColor
		}
		*v.c = uint8(t)
	}
	return r, g, b, nil
}

func parseColorValue(v string) (uint8, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		n, err := svgtree.ParseNumber(v[:len(v)-1])
		if err != nil {
			return 0, err
		}
		return uint8(math.Round(utils.Clamp(n, 0, 100) * 0xFF / 100)), nil
	}
	n, err := svgtree.ParseNumber(v)
	if err != nil {
		return 0, err
	}
	return uint8(utils.Clamp(math.Round(n), 0, 255)), nil
}

// parseOpacity accepts numbers and percentages, and clamps the result to [0, 1]
func parseOpacity(v string) (float64, error) {
	l, err := svgtree.ParseLength(v)
	if err != nil {
		return 0, err
	}
	f := l.Value
	if l.Unit == svgtree.UnitPercent {
		f /= 100
	} else if l.Unit != svgtree.UnitNone {
		return 0, errInvalidNumber
	}
	return utils.Clamp(f, 0, 1), nil
}

var errInvalidNumber = errors.New("invalid number")

// opacityAttr returns the opacity stored in `name`, or 1.
func opacityAttr(value string, ok bool) float64 {
	if !ok {
		return 1
	}
	op, err := parseOpacity(value)
	if err != nil {
		return 1
	}
	return op
}

// resolveColor handles the currentColor keyword, which uses the inherited `color`.
func (c *Converter) resolveColor(node *svgtree.Node, v string) (color.NRGBA, error) {
	if strings.TrimSpace(v) == "currentColor" {
		cur, ok := c.inherited(node, "color")
		if !ok || cur == "currentColor" {
			return color.NRGBA{A: 0xFF}, nil
		}
		return ParseColor(cur)
	}
	return ParseColor(v)
}

// resolvePaintAttr parses the value of fill or stroke.
// It returns nil for "none" and for references that could not be resolved
// without fallback.
func (c *Converter) resolvePaintAttr(node *svgtree.Node, v string) Paint {
	v = strings.TrimSpace(v)
	if v == "none" {
		return nil
	}
	if strings.HasPrefix(v, "url(") {
		end := strings.IndexByte(v, ')')
		if end < 0 {
			svglog.Logger().Warn("invalid paint reference", "element", node.String(), "value", v)
			return nil
		}
		fallback := strings.TrimSpace(v[end+1:])
		id, _ := svgtree.ParseIRI(v[:end+1])
		if server := node.Document().ByID(id); server != nil {
			if paint, ok := c.ResolvePaint(server); ok {
				return paint
			}
		} else {
			svglog.Logger().Warn("paint server not found", "element", node.String(), "id", id)
		}
		if fallback == "" || fallback == "none" {
			return nil
		}
		v = fallback
	}
	col, err := c.resolveColor(node, v)
	if err != nil {
		svglog.Logger().Warn("invalid color", "element", node.String(), "value", v)
		return nil
	}
	return Color(col)
}

func (c *Converter) resolveFill(node *svgtree.Node, st *state) *Fill {
	rule := NonZero
	if st.inClip {
		if v, _ := c.inherited(node, "clip-rule"); v == "evenodd" {
			rule = EvenOdd
		}
		// clip content is always filled with an opaque color
		return &Fill{Paint: Color{A: 0xFF}, Opacity: 1, Rule: rule}
	}
	var paint Paint = Color{A: 0xFF} // black by default
	if v, ok := c.inherited(node, "fill"); ok {
		paint = c.resolvePaintAttr(node, v)
	}
	if paint == nil {
		return nil
	}
	if v, _ := c.inherited(node, "fill-rule"); v == "evenodd" {
		rule = EvenOdd
	}
	return &Fill{
		Paint:   paint,
		Opacity: opacityAttr(c.inherited(node, "fill-opacity")),
		Rule:    rule,
	}
}

func (c *Converter) resolveStroke(node *svgtree.Node, st *state) *Stroke {
	if st.inClip {
		return nil
	}
	v, ok := c.inherited(node, "stroke")
	if !ok {
		return nil
	}
	paint := c.resolvePaintAttr(node, v)
	if paint == nil {
		return nil
	}
	out := Stroke{
		Paint:      paint,
		Opacity:    opacityAttr(c.inherited(node, "stroke-opacity")),
		Width:      1,
		MiterLimit: 4,
	}
	if v, ok := c.inherited(node, "stroke-width"); ok {
		if l, err := svgtree.ParseLength(v); err == nil {
			out.Width = c.resolveLength(l, st, axisDiagonal)
		}
	}
	if out.Width <= 0 {
		return nil
	}
	switch v, _ := c.inherited(node, "stroke-linecap"); v {
	case "round":
		out.Cap = RoundCap
	case "square":
		out.Cap = SquareCap
	}
	switch v, _ := c.inherited(node, "stroke-linejoin"); v {
	case "miter-clip":
		out.Join = MiterClipJoin
	case "round":
		out.Join = RoundJoin
	case "bevel":
		out.Join = BevelJoin
	case "arcs":
		out.Join = ArcJoin
	}
	if v, ok := c.inherited(node, "stroke-miterlimit"); ok {
		if ml, err := svgtree.ParseNumber(v); err == nil && ml >= 1 {
			out.MiterLimit = ml
		}
	}
	if v, ok := c.inherited(node, "stroke-dasharray"); ok && v != "none" {
		out.Dash = c.parseDashes(v, st)
	}
	if v, ok := c.inherited(node, "stroke-dashoffset"); ok {
		if l, err := svgtree.ParseLength(v); err == nil {
			out.DashOffset = c.resolveLength(l, st, axisDiagonal)
		}
	}
	return &out
}

// parseDashes returns nil (a solid line) for invalid arrays
// or arrays summing to zero.
func (c *Converter) parseDashes(v string, st *state) []float64 {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	var (
		out []float64
		sum float64
	)
	for _, f := range fields {
		l, err := svgtree.ParseLength(f)
		if err != nil {
			return nil
		}
		d := c.resolveLength(l, st, axisDiagonal)
		if d < 0 {
			return nil
		}
		sum += d
		out = append(out, d)
	}
	if sum == 0 {
		return nil
	}
	if len(out)%2 == 1 {
		out = append(out, out...)
	}
	return out
}
