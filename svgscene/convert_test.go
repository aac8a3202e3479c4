package svgscene

import (
	"image/color"
	"strings"
	"testing"

	"github.com/benoitkugler/svgcomp/svgtree"
	"github.com/srwiley/rasterx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// convertString converts `src`, returning the converter
// to inspect its cache.
func convertString(t *testing.T, src string) (*Tree, *Converter) {
	t.Helper()
	doc, err := svgtree.Parse(strings.NewReader(src), svgtree.WarnErrorMode)
	require.NoError(t, err)
	c := NewConverter(doc, DefaultOptions())
	tree, err := c.Convert()
	require.NoError(t, err)
	return tree, c
}

func TestRootGeometry(t *testing.T) {
	tree, _ := convertString(t, `<svg width="200" height="100"></svg>`)
	assert.Equal(t, Size{W: 200, H: 100}, tree.Size)
	assert.Equal(t, Rect{W: 200, H: 100}, tree.ViewBox.Rect)

	tree, _ = convertString(t, `<svg viewBox="10 10 50 25"></svg>`)
	assert.Equal(t, Size{W: 50, H: 25}, tree.Size)
	assert.Equal(t, Rect{X: 10, Y: 10, W: 50, H: 25}, tree.ViewBox.Rect)

	// the aspect ratio of the viewBox is kept
	tree, _ = convertString(t, `<svg width="100" viewBox="0 0 50 25"></svg>`)
	assert.Equal(t, Size{W: 100, H: 50}, tree.Size)

	tree, _ = convertString(t, `<svg></svg>`)
	assert.Equal(t, DefaultOptions().DefaultSize, tree.Size)

	for _, src := range []string{
		`<svg width="0" height="10"></svg>`,
		`<svg width="-5" height="10"></svg>`,
	} {
		_, err := Parse(strings.NewReader(src), DefaultOptions())
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestIsolation(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<g id="plain"><rect width="10" height="10"/></g>
		<g id="transparent" opacity="0.5"><rect width="10" height="10"/></g>
		<rect id="leaf" width="10" height="10" opacity="0.5" transform="translate(5 5)"/>
		<rect id="direct" width="10" height="10" transform="translate(5 5)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 4)

	plain := tree.Root.Children[0].(*Group)
	assert.False(t, plain.RequiresIsolation())
	assert.True(t, tree.Root.Children[1].(*Group).RequiresIsolation())

	// leaves with effects are wrapped in a group
	wrapper := tree.Root.Children[2].(*Group)
	assert.True(t, wrapper.RequiresIsolation())
	assert.Equal(t, rasterx.Identity.Translate(5, 5), wrapper.Transform)
	require.Len(t, wrapper.Children, 1)
	assert.Equal(t, rasterx.Identity, wrapper.Children[0].(*Path).Transform)

	direct := tree.Root.Children[3].(*Path)
	assert.Equal(t, rasterx.Identity.Translate(5, 5), direct.Transform)
	bbox, ok := direct.BBox()
	assert.True(t, ok)
	assert.InDelta(t, 5, bbox.X, 1e-2)
	assert.Equal(t, "direct", NodeID(direct))
}

func TestMaskCacheIdentity(t *testing.T) {
	tree, c := convertString(t, `<svg width="100" height="100">
		<mask id="m"><rect width="100" height="100" fill="white"/></mask>
		<g mask="url(#m)"><rect width="10" height="10"/></g>
		<rect width="10" height="10" mask="url(#m)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 2)
	m1 := tree.Root.Children[0].(*Group).Mask
	m2 := tree.Root.Children[1].(*Group).Mask
	require.NotNil(t, m1)
	assert.Same(t, m1, m2)
	assert.Equal(t, "m", m1.ID)

	stats := c.Cache().Stats()
	assert.Equal(t, 1, stats.Conversions)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, c.Cache().Len())
}

func TestMaskDefaults(t *testing.T) {
	_, c := convertString(t, `<svg width="200" height="100">
		<mask id="m"><rect width="10" height="10" fill="white"/></mask>
		<mask id="user" maskUnits="userSpaceOnUse" maskContentUnits="objectBoundingBox" width="50%"><rect width="1" height="1"/></mask>
	</svg>`)
	doc := c.doc

	mask, ok := c.ResolveMask(doc.ByID("m"))
	require.True(t, ok)
	assert.Equal(t, ObjectBoundingBox, mask.Units)
	assert.Equal(t, UserSpaceOnUse, mask.ContentUnits)
	assert.InDelta(t, -0.1, mask.Rect.X, 1e-9)
	assert.InDelta(t, -0.1, mask.Rect.Y, 1e-9)
	assert.InDelta(t, 1.2, mask.Rect.W, 1e-9)
	assert.InDelta(t, 1.2, mask.Rect.H, 1e-9)
	assert.Nil(t, mask.Mask)
	assert.True(t, mask.Root.HasChildren())

	user, ok := c.ResolveMask(doc.ByID("user"))
	require.True(t, ok)
	assert.Equal(t, UserSpaceOnUse, user.Units)
	assert.Equal(t, ObjectBoundingBox, user.ContentUnits)
	assert.InDelta(t, -20, user.Rect.X, 1e-9)
	assert.InDelta(t, 100, user.Rect.W, 1e-9)
	assert.InDelta(t, 120, user.Rect.H, 1e-9)
}

func TestMaskInvalid(t *testing.T) {
	_, c := convertString(t, `<svg width="100" height="100">
		<mask id="empty"></mask>
		<mask id="hidden"><rect width="10" height="10" display="none"/></mask>
		<mask id="zero" width="0"><rect width="10" height="10"/></mask>
		<mask id="dangling" mask="url(#nope)"><rect width="10" height="10"/></mask>
		<mask id="chained" mask="url(#empty)"><rect width="10" height="10"/></mask>
		<mask id="nested"><g><g/></g><a><switch/></a></mask>
		<defs><g id="hollow"><g/></g></defs>
		<mask id="emptyUse"><use href="#hollow"/><svg width="10" height="10"/></mask>
		<rect id="notAMask" width="10" height="10"/>
	</svg>`)
	for _, id := range []string{"empty", "hidden", "zero", "dangling", "chained", "nested", "emptyUse", "notAMask"} {
		mask, ok := c.ResolveMask(c.doc.ByID(id))
		assert.False(t, ok, id)
		assert.Nil(t, mask, id)
	}
	assert.Equal(t, 0, c.Cache().Len())
}

func TestMaskInvalidIsDropped(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<mask id="empty"></mask>
		<rect width="10" height="10" mask="url(#empty)"/>
		<rect width="10" height="10" mask="url(#missing)"/>
	</svg>`)
	// without valid mask, no isolation is needed
	require.Len(t, tree.Root.Children, 2)
	assert.IsType(t, &Path{}, tree.Root.Children[0])
	assert.IsType(t, &Path{}, tree.Root.Children[1])
}

func TestMaskSelfReference(t *testing.T) {
	tree, c := convertString(t, `<svg width="100" height="100">
		<mask id="m"><rect width="10" height="10" fill="white" mask="url(#m)"/></mask>
		<rect width="10" height="10" mask="url(#m)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 1)
	g := tree.Root.Children[0].(*Group)
	require.NotNil(t, g.Mask)
	// the inner reference is a cycle: it is ignored
	require.Len(t, g.Mask.Root.Children, 1)
	assert.IsType(t, &Path{}, g.Mask.Root.Children[0])
	assert.Equal(t, 1, c.Cache().Stats().Cycles)
}

func TestMaskChainCycle(t *testing.T) {
	tree, c := convertString(t, `<svg width="100" height="100">
		<mask id="m1" mask="url(#m2)"><rect width="10" height="10" fill="white"/></mask>
		<mask id="m2" mask="url(#m1)"><rect width="10" height="10" fill="white"/></mask>
		<rect width="10" height="10" mask="url(#m1)"/>
		<rect width="10" height="10" mask="url(#m2)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 2)
	assert.IsType(t, &Path{}, tree.Root.Children[0])
	assert.IsType(t, &Path{}, tree.Root.Children[1])
	assert.Equal(t, 0, c.Cache().Len())
	assert.Equal(t, 2, c.Cache().Stats().Cycles)
}

func TestMaskChain(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<mask id="m1" mask="url(#m2)"><rect width="10" height="10" fill="white"/></mask>
		<mask id="m2"><rect width="10" height="10" fill="white"/></mask>
		<g mask="url(#m1)"><rect width="10" height="10"/></g>
		<g mask="url(#m2)"><rect width="10" height="10"/></g>
	</svg>`)
	m1 := tree.Root.Children[0].(*Group).Mask
	m2 := tree.Root.Children[1].(*Group).Mask
	require.NotNil(t, m1)
	assert.Same(t, m2, m1.Mask)
}

func TestClipPath(t *testing.T) {
	tree, c := convertString(t, `<svg width="100" height="100">
		<clipPath id="empty"/>
		<clipPath id="c" clipPathUnits="objectBoundingBox" transform="scale(2)" clip-rule="evenodd">
			<rect width="0.5" height="0.5" fill="red" stroke="blue" opacity="0.5"/>
			<g><rect width="1" height="1"/></g>
			<text>ignored</text>
		</clipPath>
		<g clip-path="url(#empty)"><rect width="10" height="10"/></g>
		<g clip-path="url(#c)" opacity="0.5"><rect width="10" height="10"/></g>
	</svg>`)
	require.Len(t, tree.Root.Children, 2)

	empty := tree.Root.Children[0].(*Group).ClipPath
	require.NotNil(t, empty) // an empty clip path is valid, and clips everything
	assert.False(t, empty.Root.HasChildren())

	cp := tree.Root.Children[1].(*Group).ClipPath
	require.NotNil(t, cp)
	assert.Equal(t, ObjectBoundingBox, cp.Units)
	assert.Equal(t, rasterx.Identity.Scale(2, 2), cp.Transform)
	require.Len(t, cp.Root.Children, 1)
	path := cp.Root.Children[0].(*Path)
	assert.Equal(t, &Fill{Paint: Color{A: 0xFF}, Opacity: 1, Rule: EvenOdd}, path.Fill)
	assert.Nil(t, path.Stroke)

	assert.Equal(t, 2, c.Cache().Len())
}

func TestClipPathCycle(t *testing.T) {
	tree, c := convertString(t, `<svg width="100" height="100">
		<clipPath id="c1" clip-path="url(#c2)"><rect width="10" height="10"/></clipPath>
		<clipPath id="c2" clip-path="url(#c1)"><rect width="10" height="10"/></clipPath>
		<clipPath id="self"><rect width="10" height="10" clip-path="url(#self)"/></clipPath>
		<rect width="10" height="10" clip-path="url(#c1)"/>
		<rect width="10" height="10" clip-path="url(#self)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 2)
	assert.IsType(t, &Path{}, tree.Root.Children[0])

	g := tree.Root.Children[1].(*Group)
	require.NotNil(t, g.ClipPath)
	assert.IsType(t, &Path{}, g.ClipPath.Root.Children[0])
	assert.Equal(t, 2, c.Cache().Stats().Cycles)
}

func TestFilter(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<filter id="f" primitiveUnits="objectBoundingBox">
			<feGaussianBlur stdDeviation="2 3"/>
			<feTurbulence/>
			<feOffset dx="1" dy="50%"/>
			<feFlood flood-color="red" flood-opacity="0.5"/>
			<feColorMatrix type="saturate" values="0.2"/>
			<feColorMatrix type="hueRotate"/>
			<feColorMatrix values="1 2 3"/>
		</filter>
		<filter id="none"><feTurbulence/></filter>
		<g filter="url(#f) url(#none) blur(2px)"><rect width="10" height="10"/></g>
		<rect width="10" height="10" filter="url(#none)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 2)
	g := tree.Root.Children[0].(*Group)
	require.Len(t, g.Filters, 1)
	f := g.Filters[0]
	assert.Equal(t, ObjectBoundingBox, f.Units)
	assert.Equal(t, ObjectBoundingBox, f.PrimitiveUnits)
	require.Len(t, f.Primitives, 6)
	assert.Equal(t, GaussianBlur{StdDevX: 2, StdDevY: 3}, f.Primitives[0])
	assert.Equal(t, Offset{Dx: 1, Dy: 0.5}, f.Primitives[1])
	assert.Equal(t, Flood{Color: color.NRGBA{R: 0xFF, A: 128}}, f.Primitives[2])
	assert.Equal(t, ColorMatrix{Kind: Saturate, Values: []float64{0.2}}, f.Primitives[3])

	// a zero rotation is the identity
	hue := f.Primitives[4].(ColorMatrix)
	assert.Equal(t, Matrix, hue.Kind)
	assert.InDeltaSlice(t, identityMatrix, hue.Values, 1e-9)
	assert.Equal(t, ColorMatrix{Kind: Matrix, Values: identityMatrix}, f.Primitives[5])

	// a filter without primitive is dropped
	assert.IsType(t, &Path{}, tree.Root.Children[1])
}

func TestGradients(t *testing.T) {
	tree, c := convertString(t, `<svg width="100" height="100">
		<linearGradient id="base" spreadMethod="reflect" gradientTransform="scale(2)">
			<stop offset="0" stop-color="red"/>
			<stop offset="0.5" stop-color="blue" stop-opacity="0.5"/>
			<stop offset="0.2" stop-color="green"/>
		</linearGradient>
		<linearGradient id="lin" href="#base" x1="10%"/>
		<radialGradient id="rad" xlink:href="#base" xmlns:xlink="http://www.w3.org/1999/xlink" gradientUnits="userSpaceOnUse" r="10" fx="5"/>
		<radialGradient id="zero" href="#base" r="0"/>
		<linearGradient id="single"><stop stop-color="blue" stop-opacity="0.5"/></linearGradient>
		<linearGradient id="loop1" href="#loop2"/>
		<linearGradient id="loop2" href="#loop1"/>
		<rect width="10" height="10" fill="url(#lin)"/>
		<rect width="10" height="10" fill="url(#rad)"/>
		<rect width="10" height="10" fill="url(#zero)"/>
		<rect width="10" height="10" fill="url(#single)"/>
		<rect width="10" height="10" fill="url(#loop1) green"/>
		<rect width="10" height="10" fill="url(#loop1)" stroke="url(#lin)"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 6)
	paints := make([]Paint, 5)
	for i := range paints {
		paints[i] = tree.Root.Children[i].(*Path).Fill.Paint
	}

	lin := paints[0].(*LinearGradient)
	assert.Equal(t, ReflectSpread, lin.Spread)
	assert.Equal(t, ObjectBoundingBox, lin.Units)
	assert.Equal(t, rasterx.Identity.Scale(2, 2), lin.Transform)
	assert.InDelta(t, 0.1, lin.X1, 1e-9)
	assert.Equal(t, 1., lin.X2)
	require.Len(t, lin.Stops, 3)
	assert.Equal(t, 0.5, lin.Stops[2].Offset) // offsets are increasing
	assert.Equal(t, 0.5, lin.Stops[1].Opacity)

	rad := paints[1].(*RadialGradient)
	assert.Equal(t, UserSpaceOnUse, rad.Units)
	assert.Equal(t, 10., rad.R)
	assert.Equal(t, 5., rad.Fx)
	assert.Equal(t, 50., rad.Fy) // the center
	assert.Equal(t, 50., rad.Cx)

	assert.Equal(t, Color{R: 0, G: 0x80, B: 0, A: 0xFF}, paints[2]) // last stop
	assert.Equal(t, Color{B: 0xFF, A: 128}, paints[3])
	assert.Equal(t, Color{G: 0x80, A: 0xFF}, paints[4]) // fallback

	last := tree.Root.Children[5].(*Path)
	assert.Nil(t, last.Fill)
	assert.Same(t, lin, last.Stroke.Paint)
	assert.GreaterOrEqual(t, c.Cache().Stats().Hits, 1)
}

func TestUse(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<defs>
			<rect id="r" width="10" height="10"/>
			<symbol id="s" viewBox="0 0 10 10"><rect width="10" height="10"/></symbol>
		</defs>
		<g fill="red"><use href="#r" x="5" y="6"/></g>
		<use href="#s" width="20" height="20"/>
		<g id="self"><use href="#self"/></g>
		<g id="a"><use href="#b"/></g>
		<g id="b"><use href="#a"/></g>
		<use href="#missing"/>
	</svg>`)
	// recursive uses are skipped, leaving empty groups which are dropped
	require.Len(t, tree.Root.Children, 2)

	g := tree.Root.Children[0].(*Group)
	use := g.Children[0].(*Group)
	assert.Equal(t, rasterx.Identity.Translate(5, 6), use.Transform)
	r := use.Children[0].(*Path)
	assert.Equal(t, Color{R: 0xFF, A: 0xFF}, r.Fill.Paint) // inherited from the use element

	symbol := tree.Root.Children[1].(*Group).Children[0].(*Group)
	assert.Equal(t, rasterx.Identity.Scale(2, 2), symbol.Transform)
}

func TestEmptyGroupsDropped(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<filter id="f"><feFlood flood-color="red"/></filter>
		<g id="empty"><g opacity="0.5"><g/></g></g>
		<g id="filtered" filter="url(#f)"/>
		<g id="full"><g/><rect width="10" height="10"/></g>
	</svg>`)
	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, "filtered", tree.Root.Children[0].(*Group).ID)
	full := tree.Root.Children[1].(*Group)
	assert.Equal(t, "full", full.ID)
	require.Len(t, full.Children, 1)
	assert.IsType(t, &Path{}, full.Children[0])
}

func TestClipContentUse(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<defs>
			<rect id="r" width="10" height="10"/>
			<g id="g"><rect width="10" height="10"/></g>
		</defs>
		<clipPath id="c"><use href="#r"/><use href="#g"/></clipPath>
		<g clip-path="url(#c)"><rect width="10" height="10"/></g>
	</svg>`)
	cp := tree.Root.Children[0].(*Group).ClipPath
	require.NotNil(t, cp)
	require.Len(t, cp.Root.Children, 1)
}

func TestUnsupportedElements(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<text>Hello</text>
		<switch><rect requiredExtensions="foo" width="1" height="1"/><circle r="5"/></switch>
		<rect width="10" height="10" fill="none"/>
		<rect width="0" height="10"/>
	</svg>`)
	require.Len(t, tree.Root.Children, 1)
	sw := tree.Root.Children[0].(*Group)
	require.Len(t, sw.Children, 1)
	bbox, ok := sw.BBox()
	assert.True(t, ok)
	assert.InDelta(t, 10, bbox.W, 5e-2)
}

func TestNestedSVG(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<svg x="10" y="10" width="50" height="50" viewBox="0 0 10 10" opacity="0.5">
			<rect width="100%" height="100%"/>
		</svg>
	</svg>`)
	g := tree.Root.Children[0].(*Group)
	assert.Equal(t, 0.5, g.Opacity)
	bbox, ok := g.BBox()
	require.True(t, ok)
	assert.InDelta(t, 10, bbox.X, 5e-2)
	assert.InDelta(t, 50, bbox.W, 5e-2)
}

func TestTreeLookup(t *testing.T) {
	tree, _ := convertString(t, `<svg width="100" height="100">
		<g id="outer" transform="translate(10 20)">
			<g transform="scale(2)"><rect id="r" x="1" y="1" width="5" height="5" fill="red"/></g>
		</g>
	</svg>`)
	outer := tree.NodeByID("outer")
	require.NotNil(t, outer)
	r := tree.NodeByID("r")
	require.NotNil(t, r)
	assert.Nil(t, tree.NodeByID("missing"))
	assert.Nil(t, tree.NodeByID(""))

	ts, ok := tree.ParentTransform(outer)
	require.True(t, ok)
	assert.Equal(t, rasterx.Identity, ts)

	ts, ok = tree.ParentTransform(r)
	require.True(t, ok)
	assert.Equal(t, rasterx.Identity.Translate(10, 20).Scale(2, 2), ts)

	bbox, ok := tree.AbsBBox(r)
	require.True(t, ok)
	assert.Equal(t, Rect{X: 12, Y: 22, W: 10, H: 10}, bbox)

	ts, ok = tree.ParentTransform(tree.Root)
	assert.True(t, ok)
	assert.Equal(t, rasterx.Identity, ts)

	_, ok = tree.ParentTransform(NewGroup())
	assert.False(t, ok)
	_, ok = tree.AbsBBox(NewGroup())
	assert.False(t, ok)
}
