package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	imgdraw "image/draw"
	"image/gif"
	_ "image/jpeg" // frame decoding
	_ "image/png"  // frame decoding
	"io"
	"log/slog"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
)

// ErrNoFrames is returned when an animation has nothing to show.
var ErrNoFrames = errors.New("animation has no frames")

const frameDPI = 96

// AnimationWriter writes the looping site GIF. With a frame list it
// assembles those images in order; otherwise it renders one frame per
// modeled site with coordinates, highlighting that site on the map.
// It implements pipeline.Loader.
type AnimationWriter struct {
	dir     string
	catalog *domain.Catalog
	delay   time.Duration
	loops   int
	frames  []string
	logger  *slog.Logger
}

// NewAnimationWriter creates an AnimationWriter. loops is written as the GIF
// loop count, where 0 loops forever.
func NewAnimationWriter(dir string, catalog *domain.Catalog, delay time.Duration, loops int, frames []string, logger *slog.Logger) *AnimationWriter {
	return &AnimationWriter{
		dir:     dir,
		catalog: catalog,
		delay:   delay,
		loops:   loops,
		frames:  frames,
		logger:  logger,
	}
}

func (w *AnimationWriter) Name() string { return "animation" }

func (w *AnimationWriter) Load(ctx context.Context, report *domain.Report) (int, error) {
	var (
		imgs []image.Image
		err  error
	)
	if len(w.frames) > 0 {
		imgs, err = LoadFrames(w.frames)
	} else {
		imgs, err = RenderSiteFrames(ctx, report.SiteInfos(), w.catalog)
	}
	if err != nil {
		return 0, err
	}
	if len(imgs) == 0 {
		w.logger.Warn("animation skipped, no sites with coordinates")
		return 0, nil
	}

	if err := prepareDir(w.dir); err != nil {
		return 0, err
	}
	f, err := os.Create(outPath(w.dir, FileAnimation))
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", FileAnimation, err)
	}
	if err := WriteGIF(f, imgs, w.delay, w.loops); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", FileAnimation, err)
	}
	w.logger.Debug("animation saved", "file", FileAnimation, "frames", len(imgs))
	return 1, nil
}

// RenderSiteFrames renders one map frame per site that has coordinates, in order.
func RenderSiteFrames(ctx context.Context, sites []domain.SiteInfo, catalog *domain.Catalog) ([]image.Image, error) {
	var out []image.Image
	for _, s := range sites {
		if !s.HasLocation() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := SiteFramePlot(s, catalog)
		if err != nil {
			return nil, fmt.Errorf("frame %s: %w", s.Name, err)
		}
		c := vgimg.NewWith(vgimg.UseWH(6*vg.Inch, 5*vg.Inch), vgimg.UseDPI(frameDPI))
		p.Draw(draw.New(c))
		out = append(out, c.Image())
	}
	return out, nil
}

// SiteFramePlot draws every catalog site as a black ring inside the
// study-area rectangle, with the highlighted site filled in its color.
func SiteFramePlot(highlight domain.SiteInfo, catalog *domain.Catalog) (*plot.Plot, error) {
	b := catalog.Bounds

	p := plot.New()
	p.Title.Text = highlight.Name
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.X.Min, p.X.Max = b.West-mapPad, b.East+mapPad
	p.Y.Min, p.Y.Max = b.South-mapPad, b.North+mapPad

	rect, err := plotter.NewLine(plotter.XYs{
		{X: b.West, Y: b.North}, {X: b.East, Y: b.North},
		{X: b.East, Y: b.South}, {X: b.West, Y: b.South},
		{X: b.West, Y: b.North},
	})
	if err != nil {
		return nil, err
	}
	rect.Color = black
	rect.Width = vg.Points(2)
	p.Add(rect)

	var all plotter.XYs
	for _, s := range catalog.Sites() {
		if s.HasLocation() {
			all = append(all, plotter.XY{X: s.Lon, Y: s.Lat})
		}
	}
	if len(all) > 0 {
		rings, err := plotter.NewScatter(all)
		if err != nil {
			return nil, err
		}
		rings.Shape = draw.RingGlyph{}
		rings.Color = black
		rings.Radius = vg.Points(4)
		p.Add(rings)
	}

	here := plotter.XYs{{X: highlight.Lon, Y: highlight.Lat}}
	dot, err := plotter.NewScatter(here)
	if err != nil {
		return nil, err
	}
	dot.Shape = draw.CircleGlyph{}
	dot.Color = siteColor(highlight.Color)
	dot.Radius = vg.Points(8)
	p.Add(dot)

	label, err := plotter.NewLabels(plotter.XYLabels{XYs: here, Labels: []string{highlight.Name}})
	if err != nil {
		return nil, err
	}
	label.Offset = vg.Point{X: vg.Points(10), Y: vg.Points(-4)}
	p.Add(label)
	return p, nil
}

// LoadFrames decodes PNG or JPEG files in the given order. A path listed
// more than once appears more than once.
func LoadFrames(paths []string) ([]image.Image, error) {
	decoded := make(map[string]image.Image, len(paths))
	out := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, ok := decoded[path]
		if !ok {
			var err error
			img, err = decodeFile(path)
			if err != nil {
				return nil, err
			}
			decoded[path] = img
		}
		out = append(out, img)
	}
	return out, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return img, nil
}

// WriteGIF encodes frames as an animated GIF shown delay apart. The canvas
// is large enough for the biggest frame.
func WriteGIF(w io.Writer, frames []image.Image, delay time.Duration, loops int) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	cs := int(delay / (10 * time.Millisecond))
	g := &gif.GIF{LoopCount: loops}
	for _, img := range frames {
		pm := toPaletted(img)
		g.Image = append(g.Image, pm)
		g.Delay = append(g.Delay, cs)
		g.Config.Width = max(g.Config.Width, pm.Bounds().Max.X)
		g.Config.Height = max(g.Config.Height, pm.Bounds().Max.Y)
	}
	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

func toPaletted(img image.Image) *image.Paletted {
	if pm, ok := img.(*image.Paletted); ok {
		return pm
	}
	b := img.Bounds()
	pm := image.NewPaletted(b, palette.Plan9)
	imgdraw.FloydSteinberg.Draw(pm, b, img, b.Min)
	return pm
}
