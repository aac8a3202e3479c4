package svgpath

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	"github.com/tdewolff/parse/v2/strconv"
)

var errParamMismatch = errors.New("param mismatch")

// number of arguments expected by each command
var cmdLens = map[byte]int{
	'M': 2, 'Z': 0, 'L': 2, 'H': 1, 'V': 1,
	'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7,
}

func skipCommaWhitespace(path []byte) int {
	i := 0
	for i < len(path) && (path[i] == ' ' || path[i] == ',' || path[i] == '\n' || path[i] == '\r' || path[i] == '\t') {
		i++
	}
	return i
}

func isNumberStart(c byte) bool {
	return c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+'
}

// ParsePath compiles the `d` attribute of a path element.
// On error, the commands successfully parsed so far are returned,
// so that the caller may render them, as required by the SVG error handling rules.
func ParsePath(d string) (Path, error) {
	path := []byte(d)
	var (
		p        Path
		f        [7]float64
		x, y     float64 // current point
		sx, sy   float64 // start of the sub path
		cx, cy   float64 // last control point, for S and T
		prevCmd  = byte('z')
		hasStart bool
	)
	for i := skipCommaWhitespace(path); i < len(path); i += skipCommaWhitespace(path[i:]) {
		cmd := prevCmd
		if cmd == 'z' || cmd == 'Z' || !isNumberStart(path[i]) {
			cmd = path[i]
			i++
			i += skipCommaWhitespace(path[i:])
		}
		CMD := cmd
		if 'a' <= cmd && cmd <= 'z' {
			CMD -= 'a' - 'A'
		}
		nbArgs, ok := cmdLens[CMD]
		if !ok {
			return p, fmt.Errorf("bad path: unknown command '%c' at position %d", cmd, i)
		}
		if !hasStart && CMD != 'M' {
			return p, fmt.Errorf("bad path: must start with a moveto, got '%c'", cmd)
		}
		for j := 0; j < nbArgs; j++ {
			if CMD == 'A' && (j == 3 || j == 4) {
				// flags may be written without separators
				if i < len(path) && (path[i] == '0' || path[i] == '1') {
					f[j] = float64(path[i] - '0')
					i++
				} else {
					return p, fmt.Errorf("bad path: arc flags should be 0 or 1 at position %d", i)
				}
			} else {
				num, n := strconv.ParseFloat(path[i:])
				if n == 0 {
					return p, fmt.Errorf("bad path: %d numbers should follow command '%c' at position %d", nbArgs, cmd, i)
				}
				f[j] = num
				i += n
			}
			i += skipCommaWhitespace(path[i:])
		}

		relative := cmd != CMD
		var ox, oy float64
		if relative {
			ox, oy = x, y
		}
		switch CMD {
		case 'M':
			x, y = f[0]+ox, f[1]+oy
			sx, sy = x, y
			p.Start(x, y)
			hasStart = true
			// subsequent pairs are implicit linetos
			if relative {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'Z':
			p.Stop(true)
			x, y = sx, sy
		case 'L':
			x, y = f[0]+ox, f[1]+oy
			p.Line(x, y)
		case 'H':
			x = f[0] + ox
			p.Line(x, y)
		case 'V':
			y = f[0] + oy
			p.Line(x, y)
		case 'C':
			c1x, c1y := f[0]+ox, f[1]+oy
			cx, cy = f[2]+ox, f[3]+oy
			x, y = f[4]+ox, f[5]+oy
			p.CubeBezier(c1x, c1y, cx, cy, x, y)
		case 'S':
			c1x, c1y := x, y
			if prev := prevCmd | 0x20; prev == 'c' || prev == 's' {
				c1x, c1y = 2*x-cx, 2*y-cy
			}
			cx, cy = f[0]+ox, f[1]+oy
			x, y = f[2]+ox, f[3]+oy
			p.CubeBezier(c1x, c1y, cx, cy, x, y)
		case 'Q':
			cx, cy = f[0]+ox, f[1]+oy
			x, y = f[2]+ox, f[3]+oy
			p.QuadBezier(cx, cy, x, y)
		case 'T':
			if prev := prevCmd | 0x20; prev == 'q' || prev == 't' {
				cx, cy = 2*x-cx, 2*y-cy
			} else {
				cx, cy = x, y
			}
			x, y = f[0]+ox, f[1]+oy
			p.QuadBezier(cx, cy, x, y)
		case 'A':
			endX, endY := f[5]+ox, f[6]+oy
			switch {
			case endX == x && endY == y: // omitted
			case f[0] == 0 || f[1] == 0:
				p.Line(endX, endY)
			default:
				p.arcTo(x, y, f[0], f[1], f[2], f[3] != 0, f[4] != 0, endX, endY)
			}
			x, y = endX, endY
		}
		prevCmd = cmd
	}
	return p, nil
}

// ParseTransform parses the `transform` attribute syntax,
// returning the matrix mapping the element coordinates to
// its parent coordinates.
func ParseTransform(v string) (rasterx.Matrix2D, error) {
	m1 := rasterx.Identity
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimSpace(strings.TrimLeft(t, ", \t\n"))
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		points, err := parseNumbers(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

func parseNumbers(v string) ([]float64, error) {
	b := []byte(v)
	var out []float64
	for i := skipCommaWhitespace(b); i < len(b); i += skipCommaWhitespace(b[i:]) {
		f, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			return nil, errParamMismatch
		}
		out = append(out, f)
		i += n
	}
	return out, nil
}

func readTransformAttr(m1 rasterx.Matrix2D, k string, points []float64) (rasterx.Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(rasterx.Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}
