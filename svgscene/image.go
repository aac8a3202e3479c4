package svgscene

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgtree"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var errUnsupportedHref = errors.New("unsupported image reference")

// ImageLoader decodes the image referenced by `href`, which is either
// a data URL or a path relative to `resourcesDir`.
type ImageLoader func(href, resourcesDir string) (image.Image, error)

// DefaultImageLoader supports data URLs and local files,
// in PNG, JPEG, GIF, BMP and WEBP formats.
// The decoded image is converted to RGBA.
func DefaultImageLoader(href, resourcesDir string) (image.Image, error) {
	var data []byte
	if strings.HasPrefix(href, "data:") {
		var err error
		data, err = decodeDataURL(href)
		if err != nil {
			return nil, err
		}
	} else {
		path := href
		if u, err := url.Parse(href); err == nil && u.Scheme == "file" {
			path = u.Path
		} else if err == nil && u.Scheme != "" {
			return nil, fmt.Errorf("%w: %s", errUnsupportedHref, href)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(resourcesDir, path)
		}
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return clone.AsRGBA(img), nil
}

// decodeDataURL returns the payload of data:[<mediatype>][;base64],<data>
func decodeDataURL(href string) ([]byte, error) {
	comma := strings.IndexByte(href, ',')
	if comma < 0 {
		return nil, fmt.Errorf("%w: invalid data URL", errUnsupportedHref)
	}
	header, payload := href[len("data:"):comma], href[comma+1:]
	if strings.HasSuffix(header, ";base64") {
		// whitespace is allowed in attributes
		payload = strings.Join(strings.Fields(payload), "")
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	return []byte(s), err
}

func (c *Converter) convertImage(node *svgtree.Node, st *state) *Image {
	href, ok := node.Attr("href")
	if !ok {
		return nil
	}
	data, err := c.opts.ImageLoader(href, c.opts.ResourcesDir)
	if err != nil {
		svglog.Logger().Warn("can't load image, skipped", "element", node.String(), "error", err)
		return nil
	}
	bounds := data.Bounds()
	if bounds.Empty() {
		return nil
	}
	view := Rect{
		X: c.length(node, "x", st, axisX),
		Y: c.length(node, "y", st, axisY),
		W: float64(bounds.Dx()),
		H: float64(bounds.Dy()),
	}
	// missing dimensions are deduced from the image size
	_, hasW := node.Attr("width")
	_, hasH := node.Attr("height")
	switch {
	case hasW && hasH:
		view.W, view.H = c.length(node, "width", st, axisX), c.length(node, "height", st, axisY)
	case hasW:
		w := c.length(node, "width", st, axisX)
		view.W, view.H = w, w*view.H/view.W
	case hasH:
		h := c.length(node, "height", st, axisY)
		view.W, view.H = h*view.W/view.H, h
	}
	if !view.IsValid() {
		return nil
	}

	rendering := OptimizeQuality
	switch v, _ := c.inherited(node, "image-rendering"); v {
	case "optimizeSpeed", "pixelated", "crisp-edges":
		rendering = OptimizeSpeed
	}
	return &Image{
		ID:        node.ID,
		View:      view,
		Aspect:    ParseAspectRatio(node.Attrs["preserveAspectRatio"]),
		Rendering: rendering,
		Data:      data,
		Visible:   isVisible(c, node),
	}
}
