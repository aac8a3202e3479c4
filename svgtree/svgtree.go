// Provides a light representation of SVG documents:
// an element tree with resolved style attributes,
// an id index and helpers to follow references.
// It carries no rendering knowledge: see svgscene for the
// conversion into a drawable scene graph.
package svgtree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benoitkugler/svgcomp/svglog"
	"golang.org/x/net/html/charset"
)

// ErrorMode is the for setting how the parser reacts to unparsed elements
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unsupported elements silently
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode logs a warning for unsupported elements
	WarnErrorMode
	// StrictErrorMode returns an error for unsupported elements
	StrictErrorMode
)

const svgNamespace = "http://www.w3.org/2000/svg"

var errNoSVGRoot = errors.New("invalid svg document: missing svg root element")

// Node is an element of the source document.
// The pointer itself is the identity of the element:
// it is what definitions are cached on.
type Node struct {
	Tag      string
	ID       string
	Attrs    map[string]string
	Children []*Node
	Parent   *Node

	doc *Document
}

// Document is a parsed SVG file.
type Document struct {
	Root *Node

	ids map[string]*Node
}

// ByID returns the element with the given id, or nil.
func (d *Document) ByID(id string) *Node { return d.ids[id] }

// known lists the elements kept in the tree.
// Other elements (and their subtree) are dropped according to the error mode.
var known = map[string]bool{
	"svg": true, "g": true, "defs": true, "symbol": true, "a": true, "switch": true,
	"path": true, "rect": true, "circle": true, "ellipse": true,
	"line": true, "polyline": true, "polygon": true, "image": true, "use": true,
	"mask": true, "clipPath": true,
	"linearGradient": true, "radialGradient": true, "stop": true,
	"filter": true, "feGaussianBlur": true, "feOffset": true, "feFlood": true, "feColorMatrix": true,
	"title": true, "desc": true, "metadata": true, "style": true,
	"text": true, "tspan": true,
}

// Parse reads an SVG document from `stream`.
// errMode determines if unknown elements are ignored, logged or
// reported as an error.
func Parse(stream io.Reader, errMode ErrorMode) (*Document, error) {
	doc := &Document{ids: make(map[string]*Node)}
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		stack   []*Node
		skipped int // depth inside an element we don't keep
	)
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch se := t.(type) {
		case xml.StartElement:
			if skipped > 0 {
				skipped++
				continue
			}
			if se.Name.Space != "" && se.Name.Space != svgNamespace {
				skipped = 1 // foreign namespace (editor metadata, ...)
				continue
			}
			if !known[se.Name.Local] {
				if err := handleError(errMode, "cannot process svg element "+se.Name.Local); err != nil {
					return nil, err
				}
				skipped = 1
				continue
			}
			node := newNode(doc, se)
			if len(stack) == 0 {
				if doc.Root != nil || node.Tag != "svg" {
					return nil, errNoSVGRoot
				}
				doc.Root = node
			} else {
				parent := stack[len(stack)-1]
				node.Parent = parent
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if skipped > 0 {
				skipped--
				continue
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if doc.Root == nil {
		return nil, errNoSVGRoot
	}
	return doc, nil
}

// ParseFile reads the SVG document from the named file.
func ParseFile(filename string, errMode ErrorMode) (*Document, error) {
	fin, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return Parse(fin, errMode)
}

func handleError(mode ErrorMode, msg string) error {
	switch mode {
	case StrictErrorMode:
		return errors.New(msg)
	case WarnErrorMode:
		svglog.Logger().Warn(msg)
	}
	return nil
}

func newNode(doc *Document, se xml.StartElement) *Node {
	node := &Node{Tag: se.Name.Local, Attrs: make(map[string]string, len(se.Attr)), doc: doc}
	var style string
	for _, attr := range se.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		switch attr.Name.Local {
		case "style":
			style = attr.Value
		case "id":
			node.ID = strings.TrimSpace(attr.Value)
		default:
			node.Attrs[attr.Name.Local] = strings.TrimSpace(attr.Value)
		}
	}
	// style declarations take precedence over presentation attributes
	for _, pair := range strings.Split(style, ";") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		if k == "" {
			continue
		}
		node.Attrs[k] = strings.TrimSpace(kv[1])
	}
	if node.ID != "" {
		if _, dup := doc.ids[node.ID]; !dup { // first one wins
			doc.ids[node.ID] = node
		}
	}
	return node
}

// String returns a short description of the element, used in logs.
func (n *Node) String() string {
	if n.ID != "" {
		return fmt.Sprintf("<%s id=%q>", n.Tag, n.ID)
	}
	return fmt.Sprintf("<%s>", n.Tag)
}

// Document returns the document the node belongs to.
func (n *Node) Document() *Document { return n.doc }

// Attr returns the value of the (non inherited) attribute `name`.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// Inherited looks for `name` on the node and its ancestors,
// honoring the "inherit" keyword.
func (n *Node) Inherited(name string) (string, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if v, ok := cur.Attrs[name]; ok && v != "inherit" {
			return v, true
		}
	}
	return "", false
}

// HasAncestor returns true if `other` is `n` or one of its parents.
func (n *Node) HasAncestor(other *Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Link resolves the element referenced by the attribute `name`,
// written as url(#id) or #id. It returns nil if the attribute is missing
// or points nowhere.
func (n *Node) Link(name string) *Node {
	v, ok := n.Attrs[name]
	if !ok {
		return nil
	}
	id, ok := ParseIRI(v)
	if !ok {
		return nil
	}
	return n.doc.ByID(id)
}

// ParseIRI extracts the fragment id from `url(#id)` or `#id`.
func ParseIRI(v string) (id string, ok bool) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "url(") {
		end := strings.IndexByte(v, ')')
		if end < 0 {
			return "", false
		}
		v = strings.Trim(strings.TrimSpace(v[4:end]), `'"`)
	}
	if !strings.HasPrefix(v, "#") || len(v) == 1 {
		return "", false
	}
	return v[1:], true
}
