package svgscene

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/benoitkugler/svgcomp/svgtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 0xFF, A: 0xFF})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDefaultImageLoader(t *testing.T) {
	img, err := DefaultImageLoader(pngDataURL(t, 4, 2), "")
	require.NoError(t, err)
	assert.IsType(t, &image.RGBA{}, img)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	_, err = DefaultImageLoader("http://example.com/img.png", "")
	assert.ErrorIs(t, err, errUnsupportedHref)

	_, err = DefaultImageLoader("data:image/png", "")
	assert.ErrorIs(t, err, errUnsupportedHref)

	_, err = DefaultImageLoader("missing.png", t.TempDir())
	assert.Error(t, err)
}

func TestConvertImage(t *testing.T) {
	src := `<svg width="100" height="100">
		<image href="` + pngDataURL(t, 4, 2) + `" x="10" width="40" image-rendering="pixelated"/>
		<image href="` + pngDataURL(t, 4, 2) + `" height="0"/>
		<image href="broken"/>
	</svg>`
	tree, _ := convertString(t, src)
	require.Len(t, tree.Root.Children, 1)
	img := tree.Root.Children[0].(*Image)
	assert.Equal(t, Rect{X: 10, W: 40, H: 20}, img.View)
	assert.Equal(t, OptimizeSpeed, img.Rendering)
	assert.True(t, img.Visible)
}

func TestCustomImageLoader(t *testing.T) {
	var hrefs []string
	opts := DefaultOptions()
	opts.ResourcesDir = "res"
	opts.ImageLoader = func(href, dir string) (image.Image, error) {
		hrefs = append(hrefs, dir+"/"+href)
		if href == "bad.png" {
			return nil, errors.New("not found")
		}
		return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
	}
	doc, err := svgtree.Parse(strings.NewReader(`<svg width="100" height="100">
		<image href="a.png"/><image href="bad.png"/>
	</svg>`), svgtree.WarnErrorMode)
	require.NoError(t, err)
	tree, err := Convert(doc, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"res/a.png", "res/bad.png"}, hrefs)
	require.Len(t, tree.Root.Children, 1)
	bbox, ok := tree.Root.Children[0].BBox()
	assert.True(t, ok)
	assert.Equal(t, Rect{W: 10, H: 10}, bbox)
}
