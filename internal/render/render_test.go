package render_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
	"github.com/couchcryptid/snowpack-swe/internal/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func obs(site, date string, swe float64) domain.Observation {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return domain.Observation{Date: d, SiteID: site, SWE: swe}
}

func summary(catalog *domain.Catalog, site string, years domain.YearRange, o []domain.Observation) domain.SiteSummary {
	s := domain.SiteSummary{
		SiteID:  site,
		Info:    catalog.Info(site),
		Samples: len(o),
		Yearly:  domain.MeansByYear(o, years),
		Monthly: domain.MonthlyMeans(o),
	}
	if tr, err := domain.Trend(s.Yearly); err == nil {
		s.Trend = &tr
	}
	return s
}

func sampleReport(t *testing.T) (*domain.Report, *domain.Catalog) {
	t.Helper()
	catalog := domain.NiwotCatalog()
	years := domain.YearRange{First: 2000, Last: 2003}

	saddle := []domain.Observation{
		obs("Saddle", "2000-03-01", 0.4),
		obs("Saddle", "2001-04-01", 0.5),
		obs("Saddle", "2003-05-01", 0.3),
	}
	gl4 := []domain.Observation{
		obs("GL4", "2000-04-01", 0.8),
		obs("GL4", "2002-04-01", 0.9),
	}
	all := append(append([]domain.Observation{}, saddle...), gl4...)

	r := &domain.Report{
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:      "test.csv",
		Years:       years,
		Sites: []domain.SiteSummary{
			summary(catalog, "Saddle", years, saddle),
			summary(catalog, "GL4", years, gl4),
		},
		AllSites: summary(catalog, domain.AllSitesID, years, all),
	}
	return r, catalog
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#E24A33", color.RGBA{R: 0xE2, G: 0x4A, B: 0x33, A: 255}, false},
		{"348abd", color.RGBA{R: 0x34, G: 0x8A, B: 0xBD, A: 255}, false},
		{" #000000 ", color.RGBA{A: 255}, false},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := render.ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrendFile(t *testing.T) {
	assert.Equal(t, "trend_tower_meadow.png", render.TrendFile(domain.Slug("Tower Meadow")))
}

func TestChartWriter_Load(t *testing.T) {
	report, _ := sampleReport(t)
	dir := filepath.Join(t.TempDir(), "out")

	n, err := render.NewChartWriter(dir, discardLogger()).Load(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	for _, name := range []string{
		render.FileYearlyMeans,
		render.FileMonthlyMeans,
		render.FileAllSitesTrend,
		render.FileSiteComposition,
		render.TrendFile("saddle"),
		render.TrendFile("gl4"),
	} {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err, name)
		_, err = png.DecodeConfig(f)
		f.Close()
		assert.NoError(t, err, name)
	}
}

func TestChartWriter_DistinctTrendFilesForSameSlug(t *testing.T) {
	report, catalog := sampleReport(t)
	o := []domain.Observation{
		obs("Tower_Meadow", "2000-04-01", 0.2),
		obs("Tower_Meadow", "2001-04-01", 0.3),
	}
	report.Sites = []domain.SiteSummary{
		summary(catalog, "Tower_Meadow", report.Years, o),
		summary(catalog, "tower meadow", report.Years, o),
	}
	dir := t.TempDir()

	n, err := render.NewChartWriter(dir, discardLogger()).Load(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.FileExists(t, filepath.Join(dir, render.TrendFile("tower_meadow")))
	assert.FileExists(t, filepath.Join(dir, render.TrendFile("tower_meadow_2")))
}

func TestChartWriter_CancelledContext(t *testing.T) {
	report, _ := sampleReport(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := render.NewChartWriter(t.TempDir(), discardLogger()).Load(ctx, report)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestPlots_AllNaNSeries(t *testing.T) {
	report, _ := sampleReport(t)
	empty := report.Sites[0]
	for i := range empty.Yearly.Points {
		empty.Yearly.Points[i].Mean = math.NaN()
	}
	empty.Trend = nil

	p, err := render.YearlyMeansPlot([]domain.SiteSummary{empty})
	require.NoError(t, err)
	assert.NotNil(t, p)

	p, err = render.TrendPlot(empty, "empty")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestCompositionPlot_NoSites(t *testing.T) {
	p, err := render.CompositionPlot(nil)
	require.NoError(t, err)
	assert.Equal(t, "Sample Site Composition", p.Title.Text)
}

func TestSiteMapWriter_Load(t *testing.T) {
	report, catalog := sampleReport(t)
	dir := t.TempDir()

	n, err := render.NewSiteMapWriter(dir, catalog, discardLogger()).Load(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dir, render.FileSiteMap))
	require.NoError(t, err)
	html := string(data)
	for _, want := range []string{"Snow Survey Sites", "Saddle", "GL4", "All sites", "LTER", "Monthly Averages All Time"} {
		assert.Contains(t, html, want)
	}
}

func TestWriteSitePage_EmptyPeriodsAreGaps(t *testing.T) {
	report, catalog := sampleReport(t)
	var buf bytes.Buffer
	require.NoError(t, render.WriteSitePage(&buf, report, catalog))
	// GL4 has no 2001 or 2003 data.
	assert.Contains(t, buf.String(), `"-"`)
	assert.NotContains(t, buf.String(), "NaN")
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestWriteGIF(t *testing.T) {
	frames := []image.Image{
		solid(10, 8, color.RGBA{R: 255, A: 255}),
		solid(12, 6, color.RGBA{B: 255, A: 255}),
	}
	var buf bytes.Buffer
	require.NoError(t, render.WriteGIF(&buf, frames, 500*time.Millisecond, 20))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
	assert.Equal(t, []int{50, 50}, g.Delay)
	assert.Equal(t, 20, g.LoopCount)
	assert.Equal(t, 12, g.Config.Width)
	assert.Equal(t, 8, g.Config.Height)
}

func TestWriteGIF_NoFrames(t *testing.T) {
	err := render.WriteGIF(io.Discard, nil, time.Second, 0)
	assert.ErrorIs(t, err, render.ErrNoFrames)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestLoadFrames_OrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, solid(4, 4, color.White))
	writePNG(t, b, solid(6, 3, color.Black))

	frames, err := render.LoadFrames([]string{a, b, a})
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, 4, frames[0].Bounds().Dx())
	assert.Equal(t, 6, frames[1].Bounds().Dx())
	assert.Equal(t, 4, frames[2].Bounds().Dx())
}

func TestLoadFrames_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := render.LoadFrames([]string{filepath.Join(dir, "missing.png")})
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = render.LoadFrames([]string{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode frame")
}

func TestAnimationWriter_RendersSiteFrames(t *testing.T) {
	report, catalog := sampleReport(t)
	dir := t.TempDir()

	w := render.NewAnimationWriter(dir, catalog, time.Second, 3, nil, discardLogger())
	n, err := w.Load(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := os.Open(filepath.Join(dir, render.FileAnimation))
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, len(report.Sites))
	assert.Equal(t, 3, g.LoopCount)
	assert.Equal(t, []int{100, 100}, g.Delay)
}

func TestAnimationWriter_FrameList(t *testing.T) {
	report, catalog := sampleReport(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a, solid(5, 5, color.White))

	w := render.NewAnimationWriter(dir, catalog, 200*time.Millisecond, 0, []string{a, a, a}, discardLogger())
	_, err := w.Load(context.Background(), report)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, render.FileAnimation))
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, 0, g.LoopCount)
}

func TestAnimationWriter_NoLocatedSites(t *testing.T) {
	report, catalog := sampleReport(t)
	for i := range report.Sites {
		report.Sites[i].Info.Lat, report.Sites[i].Info.Lon = 0, 0
	}
	dir := t.TempDir()

	n, err := render.NewAnimationWriter(dir, catalog, time.Second, 0, nil, discardLogger()).Load(context.Background(), report)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = os.Stat(filepath.Join(dir, render.FileAnimation))
	assert.True(t, os.IsNotExist(err))
}

func TestReportWriter_RoundTrip(t *testing.T) {
	report, _ := sampleReport(t)
	dir := t.TempDir()

	n, err := render.NewReportWriter(dir, discardLogger()).Load(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(dir, render.FileReport))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"mean": null`), "empty periods encode as null")

	got, err := render.ReadReport(filepath.Join(dir, render.FileReport))
	require.NoError(t, err)
	assert.Equal(t, report.GeneratedAt, got.GeneratedAt)
	require.Len(t, got.Sites, 2)
	assert.Equal(t, "GL4", got.Sites[1].SiteID)
	gl4, ok := got.Sites[1].Yearly.Get("2001")
	require.True(t, ok)
	assert.True(t, math.IsNaN(gl4))
	v, ok := got.Sites[0].Yearly.Get("2000")
	require.True(t, ok)
	assert.InDelta(t, 0.4, v, 1e-12)
}

func TestReadReport_Missing(t *testing.T) {
	_, err := render.ReadReport(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
