package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/benoitkugler/svgcomp/svgrender"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/benoitkugler/svgcomp/svgtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config{}, cfg)

	path := filepath.Join(t.TempDir(), "opts.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
width = 200
background = "white"
max_layers = 4
strict = true
default_size = [300, 150]
`), 0o644))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config{
		Width: 200, Background: "white", MaxLayers: 4, Strict: true,
		DefaultSize: [2]float64{300, 150},
	}, cfg)

	require.NoError(t, os.WriteFile(path, []byte(`width = "large"`), 0o644))
	_, err = loadConfig(path)
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	for _, test := range []struct {
		cfg config
		fit svgrender.FitTo
	}{
		{config{}, svgrender.FitTo{}},
		{config{Width: 10}, svgrender.FitTo{Mode: svgrender.FitWidth, Width: 10}},
		{config{Height: 10}, svgrender.FitTo{Mode: svgrender.FitHeight, Height: 10}},
		{config{Width: 10, Height: 20}, svgrender.FitTo{Mode: svgrender.FitSize, Width: 10, Height: 20}},
		{config{Width: 10, Zoom: 2}, svgrender.FitTo{Mode: svgrender.FitZoom, Zoom: 2}},
	} {
		opts, err := test.cfg.options()
		require.NoError(t, err)
		assert.Equal(t, test.fit, opts.Fit)
	}

	opts, err := config{Strict: true, MaxLayers: 3, DefaultSize: [2]float64{10, 20}}.options()
	require.NoError(t, err)
	assert.Equal(t, svgtree.StrictErrorMode, opts.Convert.ErrorMode)
	assert.Equal(t, 3, opts.MaxLayers)
	assert.Equal(t, svgscene.Size{W: 10, H: 20}, opts.Convert.DefaultSize)

	_, err = config{Background: "nope"}.options()
	assert.Error(t, err)
}

func TestParseBackground(t *testing.T) {
	c, err := parseBackground("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseBackground("none")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseBackground("White")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, c)

	c, err = parseBackground("#00ff00")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 0xFF, A: 0xFF}, c)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "in.svg"), filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(src, []byte(`<svg width="6" height="4"><rect width="3" height="4" fill="red"/></svg>`), 0o644))

	require.NoError(t, run(src, dst, "", svgrender.DefaultOptions()))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())

	assert.Error(t, run(filepath.Join(dir, "missing.svg"), dst, "", svgrender.DefaultOptions()))
	assert.Error(t, run(src, filepath.Join(dir, "missing", "out.png"), "", svgrender.DefaultOptions()))

	assert.Equal(t, "res", resourcesDir("res", "a/b.svg"))
	assert.Equal(t, "a", resourcesDir("", "a/b.svg"))
}

func TestRunNode(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "in.svg"), filepath.Join(dir, "out.png")
	require.NoError(t, os.WriteFile(src, []byte(`<svg width="20" height="20">
		<g transform="translate(10 0)"><rect id="r" width="3" height="5" fill="red"/></g>
	</svg>`), 0o644))

	require.NoError(t, run(src, dst, "r", svgrender.DefaultOptions()))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 5, img.Bounds().Dy())

	assert.Error(t, run(src, dst, "missing", svgrender.DefaultOptions()))
}

// failingCloser accepts writes but fails on Close.
type failingCloser struct{ bytes.Buffer }

func (*failingCloser) Close() error { return errors.New("disk full") }

func TestEncodeAndClose(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	var w failingCloser
	err := encodeAndClose(&w, img)
	assert.EqualError(t, err, "disk full")
	assert.NotZero(t, w.Len())

	f, err := os.Create(filepath.Join(t.TempDir(), "out.png"))
	require.NoError(t, err)
	require.NoError(t, encodeAndClose(f, img))
	assert.Error(t, f.Close()) // already closed
}
