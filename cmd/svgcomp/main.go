package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/svgcomp/svglog"
	"github.com/benoitkugler/svgcomp/svgrender"
	"github.com/benoitkugler/svgcomp/svgscene"
	"github.com/benoitkugler/svgcomp/svgtree"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
	"golang.org/x/term"
)

const helpBanner = `svgcomp renders an SVG document to a PNG image.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	source      = flag.String("in", pipeName, "Source SVG file")
	destination = flag.String("out", pipeName, "Destination PNG file")
	configFile  = flag.String("config", "", "TOML options file; flags override its values")
	nodeID      = flag.String("node", "", "Only render the element with this id")
	width       = flag.Int("width", 0, "Output width (keeps the aspect ratio if height is zero)")
	height      = flag.Int("height", 0, "Output height (keeps the aspect ratio if width is zero)")
	zoom        = flag.Float64("zoom", 0, "Zoom factor")
	background  = flag.String("bg", "", "Background color (name or #rrggbb)")
	maxLayers   = flag.Int("layers", 0, "Maximum number of nested layers")
	resources   = flag.String("resources", "", "Directory used to resolve relative image paths")
	strict      = flag.Bool("strict", false, "Fail on malformed documents")
	verbose     = flag.Bool("v", false, "Log warnings")
	debug       = flag.Bool("debug", false, "Log debug messages")
)

// config is the content of the options file.
type config struct {
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	Zoom       float64 `toml:"zoom"`
	Background string  `toml:"background"`
	MaxLayers  int     `toml:"max_layers"`
	Resources  string  `toml:"resources"`
	Strict     bool    `toml:"strict"`
	// DefaultSize is used for documents without width, height and viewBox.
	DefaultSize [2]float64 `toml:"default_size"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid options file %s: %w", path, err)
	}
	return cfg, nil
}

// mergeFlags overrides `cfg` with the flags explicitly set.
func mergeFlags(cfg *config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "zoom":
			cfg.Zoom = *zoom
		case "bg":
			cfg.Background = *background
		case "layers":
			cfg.MaxLayers = *maxLayers
		case "resources":
			cfg.Resources = *resources
		case "strict":
			cfg.Strict = *strict
		}
	})
}

func parseBackground(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	c, err := svgscene.ParseColor(s)
	if err != nil {
		return nil, fmt.Errorf("invalid background %q: %w", s, err)
	}
	return c, nil
}

func (cfg config) options() (svgrender.Options, error) {
	opts := svgrender.DefaultOptions()
	switch {
	case cfg.Zoom > 0:
		opts.Fit = svgrender.FitTo{Mode: svgrender.FitZoom, Zoom: cfg.Zoom}
	case cfg.Width > 0 && cfg.Height > 0:
		opts.Fit = svgrender.FitTo{Mode: svgrender.FitSize, Width: cfg.Width, Height: cfg.Height}
	case cfg.Width > 0:
		opts.Fit = svgrender.FitTo{Mode: svgrender.FitWidth, Width: cfg.Width}
	case cfg.Height > 0:
		opts.Fit = svgrender.FitTo{Mode: svgrender.FitHeight, Height: cfg.Height}
	}
	bg, err := parseBackground(cfg.Background)
	if err != nil {
		return opts, err
	}
	opts.Background = bg
	opts.MaxLayers = cfg.MaxLayers
	opts.Convert.ResourcesDir = cfg.Resources
	if cfg.Strict {
		opts.Convert.ErrorMode = svgtree.StrictErrorMode
	}
	if cfg.DefaultSize[0] > 0 && cfg.DefaultSize[1] > 0 {
		opts.Convert.DefaultSize = svgscene.Size{W: cfg.DefaultSize[0], H: cfg.DefaultSize[1]}
	}
	return opts, nil
}

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, helpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	switch {
	case *debug:
		svglog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case *verbose:
		svglog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	mergeFlags(&cfg)
	opts, err := cfg.options()
	if err != nil {
		log.Fatal(err)
	}

	if err := run(*source, *destination, *nodeID, opts); err != nil {
		log.Fatal(err)
	}
}

func run(src, dst, id string, opts svgrender.Options) error {
	var in io.Reader = os.Stdin
	if src != pipeName {
		opts.Convert.ResourcesDir = resourcesDir(opts.Convert.ResourcesDir, src)
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	img, renderErr := render(in, id, opts)
	if img == nil {
		return renderErr
	}

	if dst == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		if err := png.Encode(os.Stdout, img); err != nil {
			return err
		}
	} else {
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		if err := encodeAndClose(f, img); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
	}
	// the partial image is saved before reporting the abort
	return renderErr
}

// render draws the whole document, or only the element `id` if not empty.
func render(in io.Reader, id string, opts svgrender.Options) (*image.RGBA, error) {
	if id == "" {
		return svgrender.Render(in, opts)
	}
	tree, err := svgscene.Parse(in, opts.Convert)
	if err != nil {
		return nil, err
	}
	node := tree.NodeByID(id)
	if node == nil {
		return nil, fmt.Errorf("no element with id %q", id)
	}
	return svgrender.RenderNodeToImage(tree, node, opts)
}

// encodeAndClose writes `img` as PNG to `w` and closes it.
// The close error is returned when encoding succeeded.
func encodeAndClose(w io.WriteCloser, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// resourcesDir defaults to the directory of the source file.
func resourcesDir(dir, src string) string {
	if dir != "" {
		return dir
	}
	return filepath.Dir(src)
}
