package svgscene

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgpath"
	"github.com/benoitkugler/svgcomp/svgtree"
	"github.com/srwiley/rasterx"
)

// ErrInvalidSize is returned when the document size
// can't be determined or is not positive.
var ErrInvalidSize = errors.New("invalid svg document: width and height must be positive")

// Options tunes the conversion of a document.
type Options struct {
	// DefaultSize is used when the root element has
	// neither width, height nor viewBox.
	DefaultSize Size

	// ResourcesDir is the directory used to resolve
	// relative paths of images.
	ResourcesDir string

	// ImageLoader decodes the images referenced by image elements.
	// If nil, DefaultImageLoader is used.
	ImageLoader ImageLoader

	// ErrorMode is used when parsing the document,
	// and to report unsupported elements (such as text).
	ErrorMode svgtree.ErrorMode
}

// DefaultOptions returns the options used when none are provided.
func DefaultOptions() Options {
	return Options{
		DefaultSize: Size{W: 100, H: 100},
		ErrorMode:   svgtree.WarnErrorMode,
	}
}

// Parse reads and converts a document.
func Parse(stream io.Reader, opts Options) (*Tree, error) {
	doc, err := svgtree.Parse(stream, opts.ErrorMode)
	if err != nil {
		return nil, err
	}
	return Convert(doc, opts)
}

// ParseFile reads and converts the named document.
func ParseFile(filename string, opts Options) (*Tree, error) {
	doc, err := svgtree.ParseFile(filename, opts.ErrorMode)
	if err != nil {
		return nil, err
	}
	return Convert(doc, opts)
}

// Convert builds the scene graph of the given document,
// using a fresh Cache.
func Convert(doc *svgtree.Document, opts Options) (*Tree, error) {
	return NewConverter(doc, opts).Convert()
}

// axis selects the reference used to resolve percentages
type axis uint8

const (
	axisX axis = iota
	axisY
	axisDiagonal
)

// state is the context of the element being converted.
type state struct {
	viewBox Rect // used to resolve percentages
	inClip  bool // converting the content of a clipPath
}

// useLink is an instantiated use element
type useLink struct {
	use, target *svgtree.Node
}

// Converter turns a svgtree.Document into a Tree.
// The shared definitions are resolved at most once, through
// the Cache of the converter.
//
// A Converter is not safe for concurrent use.
type Converter struct {
	doc   *svgtree.Document
	opts  Options
	cache *Cache

	root state    // state of the root element
	uses []useLink // use elements being instantiated
}

// NewConverter returns a converter for `doc`, with an empty cache.
func NewConverter(doc *svgtree.Document, opts Options) *Converter {
	if opts.ImageLoader == nil {
		opts.ImageLoader = DefaultImageLoader
	}
	if opts.DefaultSize.W <= 0 || opts.DefaultSize.H <= 0 {
		opts.DefaultSize = DefaultOptions().DefaultSize
	}
	return &Converter{doc: doc, opts: opts, cache: NewCache()}
}

// Cache returns the definitions resolved so far.
func (c *Converter) Cache() *Cache { return c.cache }

// Convert converts the whole document.
func (c *Converter) Convert() (*Tree, error) {
	svg := c.doc.Root
	size, viewBox, err := c.rootGeometry(svg)
	if err != nil {
		return nil, err
	}
	c.root = state{viewBox: viewBox.Rect}
	st := c.root

	tree := &Tree{Size: size, ViewBox: viewBox, Root: NewGroup()}
	c.applyEffects(svg, &st, tree.Root)
	c.convertChildren(svg, &st, tree.Root)
	return tree, nil
}

func (c *Converter) rootGeometry(svg *svgtree.Node) (Size, ViewBox, error) {
	var (
		vb     ViewBox
		hasBox bool
	)
	if v, ok := svg.Attr("viewBox"); ok {
		nums, err := svgtree.ParseNumbers(v)
		if err == nil && len(nums) == 4 && nums[2] > 0 && nums[3] > 0 {
			vb.Rect = Rect{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}
			hasBox = true
		} else {
			svglog.Logger().Warn("invalid viewBox, ignored", "value", v)
		}
	}
	vb.Aspect = ParseAspectRatio(svg.Attrs["preserveAspectRatio"])

	def := c.opts.DefaultSize
	if hasBox {
		def = Size{W: vb.Rect.W, H: vb.Rect.H}
	}
	// percentages are relative to the viewBox, if any
	width := svg.Length("width", svgtree.Percent(100)).Resolve(def.W)
	height := svg.Length("height", svgtree.Percent(100)).Resolve(def.H)
	if _, ok := svg.Attr("width"); !ok && hasBox {
		// keep the aspect ratio of the viewBox
		if _, ok := svg.Attr("height"); ok {
			width = height * vb.Rect.W / vb.Rect.H
		}
	}
	if _, ok := svg.Attr("height"); !ok && hasBox {
		if _, ok := svg.Attr("width"); ok {
			height = width * vb.Rect.H / vb.Rect.W
		}
	}
	if !(width > 0 && height > 0) {
		return Size{}, ViewBox{}, fmt.Errorf("%w (got %gx%g)", ErrInvalidSize, width, height)
	}
	if !hasBox {
		vb.Rect = Rect{W: width, H: height}
	}
	return Size{W: width, H: height}, vb, nil
}

// rootState returns the state of the root element, which is
// used for definitions. It is computed on demand so that definitions
// may be resolved without converting the whole document.
func (c *Converter) rootState() state {
	if c.root.viewBox.IsValid() {
		return c.root
	}
	_, vb, err := c.rootGeometry(c.doc.Root)
	if err != nil {
		vb.Rect = Rect{W: c.opts.DefaultSize.W, H: c.opts.DefaultSize.H}
	}
	c.root = state{viewBox: vb.Rect}
	return c.root
}

// resolveLength converts `l` to user units, using the viewBox of `st`
// for percentages.
func (c *Converter) resolveLength(l svgtree.Length, st *state, ax axis) float64 {
	vb := st.viewBox
	switch ax {
	case axisX:
		return l.Resolve(vb.W)
	case axisY:
		return l.Resolve(vb.H)
	default:
		return l.Resolve(math.Sqrt((vb.W*vb.W + vb.H*vb.H) / 2))
	}
}

// convertLength reads the attribute `name` of `node` according to `units`:
// with ObjectBoundingBox, the result is a fraction of the bounding box.
func (c *Converter) convertLength(node *svgtree.Node, name string, units Units, st *state, def svgtree.Length, ax axis) float64 {
	l := node.Length(name, def)
	if units == ObjectBoundingBox {
		if l.Unit == svgtree.UnitPercent {
			return l.Value / 100
		}
		return l.Value
	}
	return c.resolveLength(l, st, ax)
}

// inherited looks for an inheritable property. Elements instantiated
// by a use element inherit from the use element rather than from
// their parent in the document.
func (c *Converter) inherited(node *svgtree.Node, name string) (string, bool) {
	for cur := node; cur != nil; {
		if v, ok := cur.Attrs[name]; ok && v != "inherit" {
			return v, true
		}
		cur = c.parentOf(cur)
	}
	return "", false
}

func (c *Converter) parentOf(node *svgtree.Node) *svgtree.Node {
	for i := len(c.uses) - 1; i >= 0; i-- {
		if c.uses[i].target == node {
			return c.uses[i].use
		}
	}
	return node.Parent
}

func parseUnits(node *svgtree.Node, name string, def Units) Units {
	switch node.Attrs[name] {
	case "userSpaceOnUse":
		return UserSpaceOnUse
	case "objectBoundingBox":
		return ObjectBoundingBox
	default:
		return def
	}
}

func parseTransformAttr(node *svgtree.Node, name string) rasterx.Matrix2D {
	v, ok := node.Attr(name)
	if !ok {
		return rasterx.Identity
	}
	m, err := svgpath.ParseTransform(v)
	if err != nil {
		svglog.Logger().Warn("invalid transform, ignored", "element", node.String(), "value", v)
		return rasterx.Identity
	}
	return m
}

// isRendered returns false for display="none".
func isRendered(node *svgtree.Node) bool {
	return node.Attrs["display"] != "none"
}

func isVisible(c *Converter, node *svgtree.Node) bool {
	v, _ := c.inherited(node, "visibility")
	return v != "hidden" && v != "collapse"
}

func isShape(tag string) bool {
	switch tag {
	case "path", "rect", "circle", "ellipse", "line", "polyline", "polygon":
		return true
	}
	return false
}

// convertChildren appends the converted children of `node` to `parent`.
func (c *Converter) convertChildren(node *svgtree.Node, st *state, parent *Group) {
	for _, child := range node.Children {
		c.convertElement(child, st, parent)
	}
}

// convertElement converts a graphic element, appending the result to `parent`.
// Definitions and other non rendered elements are ignored.
func (c *Converter) convertElement(node *svgtree.Node, st *state, parent *Group) {
	if !isRendered(node) {
		return
	}
	if st.inClip {
		// only shapes and use elements referencing shapes contribute to clip paths
		switch {
		case isShape(node.Tag):
		case node.Tag == "use":
			if target := c.useTarget(node); target == nil || !isShape(target.Tag) {
				return
			}
		default:
			if node.Tag == "text" {
				c.reportUnsupported(node)
			}
			return
		}
	}

	switch node.Tag {
	case "g", "a":
		g := c.newGroup(node, st, parseTransformAttr(node, "transform"))
		c.convertChildren(node, st, g)
		appendGroup(parent, g)
	case "svg":
		c.convertNestedSVG(node, st, parent)
	case "switch":
		if child := switchChild(node); child != nil {
			g := c.newGroup(node, st, parseTransformAttr(node, "transform"))
			c.convertElement(child, st, g)
			appendGroup(parent, g)
		}
	case "use":
		c.convertUse(node, st, parent)
	case "image":
		if img := c.convertImage(node, st); img != nil {
			c.appendLeaf(node, st, parent, img, &img.Transform)
		}
	case "text":
		c.reportUnsupported(node)
	default:
		if !isShape(node.Tag) {
			return // defs, mask, clipPath, symbol, paint servers, ...
		}
		if path := c.convertShape(node, st); path != nil {
			c.appendLeaf(node, st, parent, path, &path.Transform)
		}
	}
}

func (c *Converter) reportUnsupported(node *svgtree.Node) {
	if c.opts.ErrorMode == svgtree.WarnErrorMode {
		svglog.Logger().Warn("unsupported element, skipped", "element", node.String())
	}
}

// appendGroup adds `g` to `parent`, unless it has nothing to draw.
// Groups with filters are kept, since filters may produce content
// out of an empty input.
func appendGroup(parent, g *Group) {
	if !g.HasChildren() && len(g.Filters) == 0 {
		return
	}
	parent.Children = append(parent.Children, g)
}

// appendLeaf adds a path or an image. Leaves with compositing effects
// are wrapped in a group carrying the effects and the transform.
func (c *Converter) appendLeaf(node *svgtree.Node, st *state, parent *Group, leaf Node, transform *rasterx.Matrix2D) {
	ts := parseTransformAttr(node, "transform")
	g := c.newGroup(node, st, ts)
	if !g.RequiresIsolation() {
		*transform = ts
		parent.Children = append(parent.Children, leaf)
		return
	}
	*transform = rasterx.Identity
	g.Children = append(g.Children, leaf)
	parent.Children = append(parent.Children, g)
}

// newGroup returns a group for `node`, with the given transform,
// and the compositing effects of the element.
func (c *Converter) newGroup(node *svgtree.Node, st *state, ts rasterx.Matrix2D) *Group {
	g := NewGroup()
	g.ID = node.ID
	g.Transform = ts
	c.applyEffects(node, st, g)
	return g
}

// applyEffects resolves opacity, clip-path, mask and filter.
// References failing to resolve are dropped.
func (c *Converter) applyEffects(node *svgtree.Node, st *state, g *Group) {
	if link := c.linkedElement(node, "clip-path"); link != nil {
		if cp, ok := c.ResolveClipPath(link); ok {
			g.ClipPath = cp
		} else {
			svglog.Logger().Warn("invalid clip-path reference, ignored", "element", node.String())
		}
	}
	if st.inClip {
		return // only clip-path is allowed inside clip paths
	}
	g.Opacity = opacityAttr(node.Attr("opacity"))
	if link := c.linkedElement(node, "mask"); link != nil {
		if mask, ok := c.ResolveMask(link); ok {
			g.Mask = mask
		} else {
			svglog.Logger().Warn("invalid mask reference, ignored", "element", node.String())
		}
	}
	if v, ok := node.Attr("filter"); ok && v != "none" {
		g.Filters = c.resolveFilterList(node, v)
	}
}

// linkedElement returns the element referenced by the attribute `name`,
// or nil if the attribute is missing, "none", or dangling (with a warning).
func (c *Converter) linkedElement(node *svgtree.Node, name string) *svgtree.Node {
	v, ok := node.Attr(name)
	if !ok || v == "none" {
		return nil
	}
	link := node.Link(name)
	if link == nil {
		svglog.Logger().Warn("reference to an unknown element, ignored", "element", node.String(), "attribute", name, "value", v)
	}
	return link
}

func (c *Converter) resolveFilterList(node *svgtree.Node, v string) []*Filter {
	var out []*Filter
	for _, ref := range strings.SplitAfter(v, ")") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		id, ok := svgtree.ParseIRI(ref)
		if !ok {
			svglog.Logger().Warn("filter functions are not supported, ignored", "element", node.String(), "value", ref)
			continue
		}
		link := c.doc.ByID(id)
		if link == nil {
			svglog.Logger().Warn("reference to an unknown filter, ignored", "element", node.String(), "id", id)
			continue
		}
		if f, ok := c.ResolveFilter(link); ok {
			out = append(out, f)
		} else {
			svglog.Logger().Warn("invalid filter reference, ignored", "element", node.String(), "id", id)
		}
	}
	return out
}

// switchChild returns the first direct child whose conditions are met.
func switchChild(node *svgtree.Node) *svgtree.Node {
	for _, child := range node.Children {
		if !isRendered(child) {
			continue
		}
		if _, ok := child.Attr("requiredExtensions"); ok {
			continue
		}
		if lang, ok := child.Attr("systemLanguage"); ok && !strings.Contains(lang, "en") {
			continue
		}
		return child
	}
	return nil
}

// useTarget returns the element referenced by a use element, or nil.
func (c *Converter) useTarget(node *svgtree.Node) *svgtree.Node {
	if target := node.Link("href"); target != nil {
		return target
	}
	return node.Link("xlink:href")
}

func (c *Converter) convertUse(node *svgtree.Node, st *state, parent *Group) {
	target := c.useTarget(node)
	if target == nil {
		svglog.Logger().Warn("use element without a valid target, skipped", "element", node.String())
		return
	}
	if node.HasAncestor(target) {
		svglog.Logger().Warn("use element referencing one of its ancestors, skipped", "element", node.String())
		return
	}
	for _, u := range c.uses {
		if u.target == target || u.use == node {
			svglog.Logger().Warn("recursive use element, skipped", "element", node.String())
			return
		}
	}

	x := c.resolveLength(node.Length("x", svgtree.Px(0)), st, axisX)
	y := c.resolveLength(node.Length("y", svgtree.Px(0)), st, axisY)
	ts := parseTransformAttr(node, "transform").Translate(x, y)
	g := c.newGroup(node, st, ts)

	c.uses = append(c.uses, useLink{use: node, target: target})
	defer func() { c.uses = c.uses[:len(c.uses)-1] }()

	switch target.Tag {
	case "symbol", "svg":
		// the use element establishes the viewport of the symbol
		width := c.resolveLength(node.Length("width", svgtree.Percent(100)), st, axisX)
		height := c.resolveLength(node.Length("height", svgtree.Percent(100)), st, axisY)
		inner := NewGroup()
		if vb, ok := parseViewBox(target); ok {
			aspect := ParseAspectRatio(target.Attrs["preserveAspectRatio"])
			inner.Transform = ViewBoxTransform(vb, aspect, width, height)
		}
		if target.Tag == "svg" {
			c.applyEffects(target, st, inner)
		}
		c.convertChildren(target, st, inner)
		appendGroup(g, inner)
	default:
		c.convertElement(target, st, g)
	}
	appendGroup(parent, g)
}

func parseViewBox(node *svgtree.Node) (Rect, bool) {
	v, ok := node.Attr("viewBox")
	if !ok {
		return Rect{}, false
	}
	nums, err := svgtree.ParseNumbers(v)
	if err != nil || len(nums) != 4 || nums[2] <= 0 || nums[3] <= 0 {
		return Rect{}, false
	}
	return Rect{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}, true
}

// convertNestedSVG handles an inner svg element as a group
// establishing a new viewport.
func (c *Converter) convertNestedSVG(node *svgtree.Node, st *state, parent *Group) {
	x := c.resolveLength(node.Length("x", svgtree.Px(0)), st, axisX)
	y := c.resolveLength(node.Length("y", svgtree.Px(0)), st, axisY)
	width := c.resolveLength(node.Length("width", svgtree.Percent(100)), st, axisX)
	height := c.resolveLength(node.Length("height", svgtree.Percent(100)), st, axisY)
	if width <= 0 || height <= 0 {
		return
	}
	g := c.newGroup(node, st, rasterx.Identity.Translate(x, y))
	inner := st
	if vb, ok := parseViewBox(node); ok {
		aspect := ParseAspectRatio(node.Attrs["preserveAspectRatio"])
		g.Transform = g.Transform.Mult(ViewBoxTransform(vb, aspect, width, height))
		innerState := *st
		innerState.viewBox = vb
		inner = &innerState
	}
	c.convertChildren(node, inner, g)
	appendGroup(parent, g)
}
