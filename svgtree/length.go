package svgtree

import (
	"errors"
	"strings"

	"github.com/tdewolff/parse/v2/strconv"
)

var errInvalidNumber = errors.New("invalid number")

// Unit is the unit of a Length.
type Unit uint8

const (
	UnitNone Unit = iota
	UnitPx
	UnitPercent
	UnitEm
	UnitIn
	UnitCm
	UnitMm
	UnitPt
	UnitPc
)

// fontSize is the fixed em size, since text is not supported.
const fontSize = 16.

// Length is a number with an optional unit.
type Length struct {
	Value float64
	Unit  Unit
}

// Percent returns a length expressed in percentage.
func Percent(v float64) Length { return Length{Value: v, Unit: UnitPercent} }

// Px returns a length in user units.
func Px(v float64) Length { return Length{Value: v} }

var unitSuffixes = [...]struct {
	suffix string
	unit   Unit
}{
	{"px", UnitPx}, {"%", UnitPercent}, {"em", UnitEm}, {"in", UnitIn},
	{"cm", UnitCm}, {"mm", UnitMm}, {"pt", UnitPt}, {"pc", UnitPc},
}

// ParseLength parses a number with an optional unit suffix.
func ParseLength(v string) (Length, error) {
	v = strings.TrimSpace(v)
	f, n := strconv.ParseFloat([]byte(v))
	if n == 0 {
		return Length{}, errInvalidNumber
	}
	rest := strings.TrimSpace(v[n:])
	if rest == "" {
		return Length{Value: f}, nil
	}
	for _, s := range unitSuffixes {
		if rest == s.suffix {
			return Length{Value: f, Unit: s.unit}, nil
		}
	}
	return Length{}, errInvalidNumber
}

// ParseNumber parses a plain number.
func ParseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	f, n := strconv.ParseFloat([]byte(v))
	if n == 0 || n != len(v) {
		return 0, errInvalidNumber
	}
	return f, nil
}

// ParseNumbers parses a list of numbers separated by commas and/or spaces.
func ParseNumbers(v string) ([]float64, error) {
	b := []byte(v)
	var out []float64
	for i := skipSeparators(b, 0); i < len(b); i = skipSeparators(b, i) {
		f, n := strconv.ParseFloat(b[i:])
		if n == 0 {
			return out, errInvalidNumber
		}
		out = append(out, f)
		i += n
	}
	return out, nil
}

func skipSeparators(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == ',' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return i
}

// Resolve converts the length to user units; percentages
// are taken relative to `ref`.
func (l Length) Resolve(ref float64) float64 {
	switch l.Unit {
	case UnitPercent:
		return l.Value / 100 * ref
	case UnitEm:
		return l.Value * fontSize
	case UnitIn:
		return l.Value * 96
	case UnitCm:
		return l.Value * 96 / 2.54
	case UnitMm:
		return l.Value * 96 / 25.4
	case UnitPt:
		return l.Value * 4 / 3
	case UnitPc:
		return l.Value * 16
	default:
		return l.Value
	}
}

// Length returns the attribute `name` parsed as a length,
// or `def` if missing or invalid.
func (n *Node) Length(name string, def Length) Length {
	v, ok := n.Attrs[name]
	if !ok {
		return def
	}
	l, err := ParseLength(v)
	if err != nil {
		return def
	}
	return l
}

// Number returns the attribute `name` parsed as a number,
// or `def` if missing or invalid. Percentages are accepted
// and returned as fractions.
func (n *Node) Number(name string, def float64) float64 {
	v, ok := n.Attrs[name]
	if !ok {
		return def
	}
	l, err := ParseLength(v)
	if err != nil {
		return def
	}
	if l.Unit == UnitPercent {
		return l.Value / 100
	}
	return l.Value
}
