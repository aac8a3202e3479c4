// Implements the scene graph consumed by the renderer:
// a tree of groups and drawable leaves, with every SVG attribute
// already resolved, plus the shared definitions (masks, clip paths,
// filters and paint servers) groups refer to.
//
// The scene is built from a svgtree.Document by a Converter, which
// resolves cross references through a per-document Cache.
package svgscene

import (
	"image"

	"github.com/benoitkugler/svgcomp/svgpath"
	"github.com/srwiley/rasterx"
)

// Rect is an axis aligned rectangle, in user units.
type Rect = svgpath.Rect

// Size is the intrinsic size of a document.
type Size struct{ W, H float64 }

// Units selects the coordinate system of a definition.
type Units uint8

const (
	// UserSpaceOnUse uses the coordinate system of the referencing element.
	UserSpaceOnUse Units = iota
	// ObjectBoundingBox uses fractions of the referencing element bounding box.
	ObjectBoundingBox
)

func (u Units) String() string {
	if u == ObjectBoundingBox {
		return "objectBoundingBox"
	}
	return "userSpaceOnUse"
}

// Node is one of *Group, *Path or *Image.
// The set of node kinds is closed: renderers are expected to
// type switch on it.
type Node interface {
	// BBox returns the bounding box of the node, in the coordinate
	// system of its parent (that is, including its own transform).
	// Strokes are not taken into account.
	// It returns false if the node has no geometry.
	BBox() (Rect, bool)

	isNode()
}

func (*Group) isNode() {}
func (*Path) isNode()  {}
func (*Image) isNode() {}

// NodeID returns the id of the source element the node was built from,
// or an empty string.
func NodeID(n Node) string {
	switch n := n.(type) {
	case *Group:
		return n.ID
	case *Path:
		return n.ID
	case *Image:
		return n.ID
	}
	return ""
}

// NodeTransform returns the transform of the node, relative
// to its parent.
func NodeTransform(n Node) rasterx.Matrix2D {
	switch n := n.(type) {
	case *Group:
		return n.Transform
	case *Path:
		return n.Transform
	case *Image:
		return n.Transform
	}
	return rasterx.Identity
}

// Group is a container node. It owns its children, and is the only
// kind of node carrying compositing effects (opacity, clip path, mask and filters).
// Masks, clip paths and filters are shared: several groups may point to
// the same definition.
type Group struct {
	ID        string
	Transform rasterx.Matrix2D
	Opacity   float64 // in [0, 1]

	ClipPath *ClipPath // optional
	Mask     *Mask     // optional
	Filters  []*Filter

	Children []Node
}

// NewGroup returns an empty, fully opaque group.
func NewGroup() *Group {
	return &Group{Transform: rasterx.Identity, Opacity: 1}
}

// RequiresIsolation returns true if the group content has to be
// rendered on a separate layer before being composited:
// that is, when its effects must apply to the group as a whole.
func (g *Group) RequiresIsolation() bool {
	return g.Opacity < 1 || g.Mask != nil || g.ClipPath != nil || len(g.Filters) != 0
}

// HasChildren returns true if the group contains at least one node.
func (g *Group) HasChildren() bool { return len(g.Children) != 0 }

// ContentBBox returns the union of the children bounding boxes, in
// the group coordinate system (without the group transform).
func (g *Group) ContentBBox() (Rect, bool) {
	var (
		out Rect
		ok  bool
	)
	for _, child := range g.Children {
		bbox, has := child.BBox()
		if !has {
			continue
		}
		if !ok {
			out, ok = bbox, true
		} else {
			out = out.Union(bbox)
		}
	}
	return out, ok
}

func (g *Group) BBox() (Rect, bool) {
	bbox, ok := g.ContentBBox()
	if !ok {
		return Rect{}, false
	}
	return bbox.Transform(g.Transform), true
}

// Path is a filled and/or stroked shape.
type Path struct {
	ID        string
	Transform rasterx.Matrix2D
	Data      svgpath.Path
	Fill      *Fill   // nil for no fill
	Stroke    *Stroke // nil for no stroke
	Visible   bool    // false for visibility="hidden"
}

func (p *Path) BBox() (Rect, bool) {
	return p.Data.Bounds(p.Transform)
}

// ImageRendering is a hint for image scaling.
type ImageRendering uint8

const (
	OptimizeQuality ImageRendering = iota
	OptimizeSpeed                  // nearest neighbor
)

// Image is a raster image placed in the View rectangle.
type Image struct {
	ID        string
	Transform rasterx.Matrix2D
	View      Rect
	Aspect    AspectRatio
	Rendering ImageRendering
	Data      image.Image
	Visible   bool
}

func (img *Image) BBox() (Rect, bool) {
	if !img.View.IsValid() {
		return Rect{}, false
	}
	return img.View.Transform(img.Transform), true
}

// ViewBox defines how the user space is mapped on a viewport.
type ViewBox struct {
	Rect   Rect
	Aspect AspectRatio
}

// Tree is a converted document.
type Tree struct {
	Size    Size // intrinsic size, in user units
	ViewBox ViewBox
	Root    *Group
}

// NodeByID returns the first node, in rendering order, built from the
// element with the given id, or nil.
func (t *Tree) NodeByID(id string) Node {
	if id == "" {
		return nil
	}
	return findByID(t.Root, id)
}

func findByID(node Node, id string) Node {
	if NodeID(node) == id {
		return node
	}
	if g, ok := node.(*Group); ok {
		for _, child := range g.Children {
			if found := findByID(child, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// ParentTransform returns the product of the transforms of the ancestors
// of `node`, which maps the coordinate system of its parent to the
// document user space. The transform of `node` itself is not included.
// It returns false if `node` does not belong to the tree.
func (t *Tree) ParentTransform(node Node) (rasterx.Matrix2D, bool) {
	if node == Node(t.Root) {
		return rasterx.Identity, true
	}
	return parentTransform(t.Root, node, t.Root.Transform)
}

// parentTransform searches `node` in the children of `g`, whose
// absolute transform is `ts`.
func parentTransform(g *Group, node Node, ts rasterx.Matrix2D) (rasterx.Matrix2D, bool) {
	for _, child := range g.Children {
		if child == node {
			return ts, true
		}
		if sub, ok := child.(*Group); ok {
			if m, found := parentTransform(sub, node, ts.Mult(sub.Transform)); found {
				return m, true
			}
		}
	}
	return rasterx.Identity, false
}

// AbsBBox returns the bounding box of `node` in the document user space.
// It returns false if `node` has no geometry or does not belong to the tree.
func (t *Tree) AbsBBox(node Node) (Rect, bool) {
	ts, ok := t.ParentTransform(node)
	if !ok {
		return Rect{}, false
	}
	bbox, ok := node.BBox()
	if !ok {
		return Rect{}, false
	}
	return bbox.Transform(ts), true
}
