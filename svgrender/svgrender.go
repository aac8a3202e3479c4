// Package svgrender composites a converted SVG scene (see package svgscene)
// into a raster image.
//
// Groups with compositing effects (opacity, clip path, mask, filters)
// are drawn on offscreen layers, on which the effects are applied
// before the layer is composited onto its parent, with source-over.
// Rendering is aborted, without panic, when a layer can't be allocated:
// the partially drawn image is still returned, alongside the error.
package svgrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgraster"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/srwiley/rasterx"
)

var (
	// ErrZeroSizeNode is returned when rendering a node
	// with an empty bounding box.
	ErrZeroSizeNode = errors.New("node has an empty bounding box")

	// ErrUnknownNode is returned when rendering a node
	// which does not belong to the given tree.
	ErrUnknownNode = errors.New("node not found in the tree")
)

// Options controls the output of the entry points.
type Options struct {
	// Fit is the policy used to compute the image size
	// from the document size.
	Fit FitTo

	// Background fills the image before drawing.
	// Nil means transparent.
	Background color.Color

	// MaxLayers limits the number of offscreen layers
	// held at the same time. Zero means DefaultMaxLayers.
	MaxLayers int

	// Convert is used by Render to parse the document.
	Convert svgscene.Options
}

// DefaultOptions keeps the original size, with a transparent background.
func DefaultOptions() Options {
	return Options{Convert: svgscene.DefaultOptions()}
}

// Render parses and renders the document from `r`.
func Render(r io.Reader, opts Options) (*image.RGBA, error) {
	tree, err := svgscene.Parse(r, opts.Convert)
	if err != nil {
		return nil, err
	}
	return RenderToImage(tree, opts)
}

// RenderToImage renders the whole document on a new image,
// whose size is given by the fit policy.
// If the render was aborted, the partial image is returned
// with a non nil error.
func RenderToImage(tree *svgscene.Tree, opts Options) (*image.RGBA, error) {
	canvas, size, err := CreateRootImage(ToScreenSize(tree.Size), opts.Fit, opts.Background)
	if err != nil {
		return nil, err
	}
	err = renderTo(tree.Root, rasterx.Identity, tree.ViewBox, size, opts, canvas)
	return canvas.Img, err
}

// RenderNodeToImage renders `node`, which must belong to `tree`, on a
// new image, using its bounding box in the document user space as view box.
// The transforms of the ancestors of `node` are applied.
// The image size is given by the fit policy, applied on the size
// of the bounding box.
func RenderNodeToImage(tree *svgscene.Tree, node svgscene.Node, opts Options) (*image.RGBA, error) {
	parentTs, ok := tree.ParentTransform(node)
	if !ok {
		return nil, fmt.Errorf("%w (node %q)", ErrUnknownNode, svgscene.NodeID(node))
	}
	bbox, ok := node.BBox()
	if ok {
		bbox = bbox.Transform(parentTs)
	}
	if !ok || !bbox.IsValid() {
		svglog.Logger().Warn("node has zero size", "id", svgscene.NodeID(node))
		return nil, fmt.Errorf("%w (node %q)", ErrZeroSizeNode, svgscene.NodeID(node))
	}
	canvas, size, err := CreateRootImage(ToScreenSize(svgscene.Size{W: bbox.W, H: bbox.H}), opts.Fit, opts.Background)
	if err != nil {
		return nil, err
	}
	viewBox := svgscene.ViewBox{Rect: bbox, Aspect: svgscene.AspectRatio{}}
	err = renderTo(node, parentTs, viewBox, size, opts, canvas)
	return canvas.Img, err
}

// RenderToCanvas renders the whole document on `canvas`, in a viewport
// of `size` pixels starting at the top left corner.
// The fit policy and the background of `opts` are ignored.
func RenderToCanvas(tree *svgscene.Tree, opts Options, size ScreenSize, canvas *svgraster.Canvas) error {
	return RenderNodeToCanvas(tree, tree.Root, opts, tree.ViewBox, size, canvas)
}

// RenderNodeToCanvas renders `node`, which must belong to `tree`, on `canvas`,
// mapping `viewBox` (in the document user space) to a viewport of `size` pixels.
// The transforms of the ancestors of `node` are applied.
func RenderNodeToCanvas(tree *svgscene.Tree, node svgscene.Node, opts Options, viewBox svgscene.ViewBox, size ScreenSize, canvas *svgraster.Canvas) error {
	if !size.isValid() {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.W, size.H)
	}
	parentTs, ok := tree.ParentTransform(node)
	if !ok {
		return fmt.Errorf("%w (node %q)", ErrUnknownNode, svgscene.NodeID(node))
	}
	return renderTo(node, parentTs, viewBox, size, opts, canvas)
}

func renderTo(node svgscene.Node, parentTs rasterx.Matrix2D, viewBox svgscene.ViewBox, size ScreenSize, opts Options, canvas *svgraster.Canvas) error {
	var state RenderState
	renderNodeToCanvas(node, parentTs, viewBox, size, opts.MaxLayers, &state, canvas)
	if err := state.Err(); err != nil {
		return fmt.Errorf("rendering aborted: %w", err)
	}
	return nil
}
