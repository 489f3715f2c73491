package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
)

// ChartWriter saves the PNG line and bar charts.
// It implements pipeline.Loader.
type ChartWriter struct {
	dir    string
	logger *slog.Logger
}

// NewChartWriter creates a ChartWriter that saves into dir.
func NewChartWriter(dir string, logger *slog.Logger) *ChartWriter {
	return &ChartWriter{dir: dir, logger: logger}
}

func (w *ChartWriter) Name() string { return "charts" }

// uniqueTrendFile returns the trend chart name for slug, numbered from 2
// when an earlier site already took it.
func uniqueTrendFile(slug string, taken map[string]bool) string {
	name := TrendFile(slug)
	for n := 2; taken[name]; n++ {
		name = TrendFile(slug + "_" + strconv.Itoa(n))
	}
	taken[name] = true
	return name
}

type chartFile struct {
	name          string
	width, height vg.Length
	build         func() (*plot.Plot, error)
}

// Load saves every chart for the report and returns how many were written.
func (w *ChartWriter) Load(ctx context.Context, report *domain.Report) (int, error) {
	if err := prepareDir(w.dir); err != nil {
		return 0, err
	}

	files := []chartFile{
		{FileYearlyMeans, 12 * vg.Inch, 6 * vg.Inch, func() (*plot.Plot, error) { return YearlyMeansPlot(report.Sites) }},
		{FileMonthlyMeans, 10 * vg.Inch, 6 * vg.Inch, func() (*plot.Plot, error) { return MonthlyMeansPlot(report.Sites) }},
		{FileAllSitesTrend, 12 * vg.Inch, 6 * vg.Inch, func() (*plot.Plot, error) {
			return TrendPlot(report.AllSites, "Average Yearly Snow Water Equivalent - Combined for All Sites")
		}},
		{FileSiteComposition, 8 * vg.Inch, 6 * vg.Inch, func() (*plot.Plot, error) { return CompositionPlot(report.Sites) }},
	}
	taken := make(map[string]bool)
	for _, s := range report.Sites {
		if s.Trend == nil {
			continue
		}
		name := uniqueTrendFile(domain.Slug(s.SiteID), taken)
		if name != TrendFile(domain.Slug(s.SiteID)) {
			w.logger.Warn("trend chart name collision", "site", s.SiteID, "file", name)
		}
		files = append(files, chartFile{
			name, 8 * vg.Inch, 5 * vg.Inch,
			func() (*plot.Plot, error) { return TrendPlot(s, s.Info.Name) },
		})
	}

	written := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		p, err := f.build()
		if err != nil {
			return written, fmt.Errorf("build %s: %w", f.name, err)
		}
		if err := p.Save(f.width, f.height, outPath(w.dir, f.name)); err != nil {
			return written, fmt.Errorf("save %s: %w", f.name, err)
		}
		written++
		w.logger.Debug("chart saved", "file", f.name)
	}
	return written, nil
}

// YearlyMeansPlot draws one line per site over the yearly series.
func YearlyMeansPlot(sites []domain.SiteSummary) (*plot.Plot, error) {
	p := newSWEPlot("Average Yearly Snow Water Equivalent - All Sites")
	p.X.Tick.Marker = yearTicks{}
	for _, s := range sites {
		x, y := seriesXY(s.Yearly, func(pt domain.Point) float64 { return float64(pt.Period) })
		if err := addSeries(p, s.Info.Name, x, y, siteColor(s.Info.Color)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MonthlyMeansPlot draws one line per site over the months, with month names on the x axis.
func MonthlyMeansPlot(sites []domain.SiteSummary) (*plot.Plot, error) {
	p := newSWEPlot("Monthly Averages All Time")
	for _, s := range sites {
		x, y := seriesXY(s.Monthly, func(pt domain.Point) float64 { return float64(pt.Period - 1) })
		if err := addSeries(p, s.Info.Name, x, y, siteColor(s.Info.Color)); err != nil {
			return nil, err
		}
	}
	p.NominalX(monthNames...)
	return p, nil
}

// TrendPlot draws a summary's yearly means with its fitted trend line, if any.
func TrendPlot(s domain.SiteSummary, title string) (*plot.Plot, error) {
	p := newSWEPlot(title)
	p.X.Tick.Marker = yearTicks{}

	x, y := seriesXY(s.Yearly, func(pt domain.Point) float64 { return float64(pt.Period) })
	if err := addSeries(p, "Yearly Mean", x, y, trendBlue); err != nil {
		return nil, err
	}

	if s.Trend == nil {
		return p, nil
	}
	defined, _ := s.Yearly.Defined()
	if len(defined) == 0 {
		return p, nil
	}
	x0, x1 := defined[0], defined[len(defined)-1]
	fit, err := plotter.NewLine(plotter.XYs{
		{X: x0, Y: s.Trend.Predict(x0)},
		{X: x1, Y: s.Trend.Predict(x1)},
	})
	if err != nil {
		return nil, err
	}
	fit.Color = trendRed
	fit.Width = vg.Points(1)
	p.Add(fit)
	p.Legend.Add("p-value = "+strconv.FormatFloat(s.Trend.PValue, 'f', 3, 64), fit)
	return p, nil
}

// CompositionPlot draws horizontal bars of samples and sample locations per
// site, sites ordered by sample count.
func CompositionPlot(sites []domain.SiteSummary) (*plot.Plot, error) {
	sorted := slices.Clone(sites)
	slices.SortStableFunc(sorted, func(a, b domain.SiteSummary) int { return a.Samples - b.Samples })

	names := make([]string, len(sorted))
	samples := make(plotter.Values, len(sorted))
	locations := make(plotter.Values, len(sorted))
	for i, s := range sorted {
		names[i] = s.Info.Name
		samples[i] = float64(s.Samples)
		locations[i] = float64(len(s.SampleLocations))
	}

	p := plot.New()
	p.Title.Text = "Sample Site Composition"
	p.X.Label.Text = "Count"
	if len(sorted) == 0 {
		return p, nil
	}

	width := vg.Points(8)
	sampleBars, err := plotter.NewBarChart(samples, width)
	if err != nil {
		return nil, err
	}
	sampleBars.Horizontal = true
	sampleBars.Color = trendBlue
	sampleBars.LineStyle.Width = 0
	sampleBars.Offset = -width / 2

	locBars, err := plotter.NewBarChart(locations, width)
	if err != nil {
		return nil, err
	}
	locBars.Horizontal = true
	locBars.Color = teal
	locBars.LineStyle.Width = 0
	locBars.Offset = width / 2

	p.Add(sampleBars, locBars)
	p.Legend.Add("Number of Samples", sampleBars)
	p.Legend.Add("Number of Sample Locations", locBars)
	p.Legend.Top = true
	p.NominalY(names...)
	return p, nil
}

func newSWEPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "SWE (m)"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func seriesXY(s domain.Series, xOf func(domain.Point) float64) (x, y []float64) {
	x = make([]float64, len(s.Points))
	y = make([]float64, len(s.Points))
	for i, pt := range s.Points {
		x[i] = xOf(pt)
		y[i] = pt.Mean
	}
	return x, y
}

// addSeries draws a line with point markers, broken at NaN values, and adds
// one legend entry for it.
func addSeries(p *plot.Plot, label string, x, y []float64, c color.Color) error {
	var legend []plot.Thumbnailer
	for _, seg := range segments(x, y) {
		xys := make(plotter.XYs, len(seg[0]))
		for i := range xys {
			xys[i].X = seg[0][i]
			xys[i].Y = seg[1][i]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", label, err)
		}
		line.Color = c
		line.Width = vg.Points(0.75)
		points.Shape = draw.CircleGlyph{}
		points.Color = c
		points.Radius = vg.Points(2.5)
		p.Add(line, points)
		if legend == nil {
			legend = []plot.Thumbnailer{line, points}
		}
	}
	if legend != nil {
		p.Legend.Add(label, legend...)
	}
	return nil
}

// yearTicks labels every fifth year, with unlabeled ticks for the rest.
type yearTicks struct{}

func (yearTicks) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for y := math.Ceil(lo); y <= hi; y++ {
		t := plot.Tick{Value: y}
		if int(y)%5 == 0 {
			t.Label = strconv.Itoa(int(y))
		}
		ticks = append(ticks, t)
	}
	return ticks
}
