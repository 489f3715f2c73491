package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
)

// mapPad widens the map axes around the study-area rectangle, in degrees.
const mapPad = 0.005

// SiteMapWriter writes the interactive HTML page with the site map and the
// yearly and monthly mean charts.
// It implements pipeline.Loader.
type SiteMapWriter struct {
	dir     string
	catalog *domain.Catalog
	logger  *slog.Logger
}

// NewSiteMapWriter creates a SiteMapWriter that saves into dir.
func NewSiteMapWriter(dir string, catalog *domain.Catalog, logger *slog.Logger) *SiteMapWriter {
	return &SiteMapWriter{dir: dir, catalog: catalog, logger: logger}
}

func (w *SiteMapWriter) Name() string { return "sitemap" }

func (w *SiteMapWriter) Load(ctx context.Context, report *domain.Report) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := prepareDir(w.dir); err != nil {
		return 0, err
	}

	f, err := os.Create(outPath(w.dir, FileSiteMap))
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", FileSiteMap, err)
	}
	if err := WriteSitePage(f, report, w.catalog); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", FileSiteMap, err)
	}
	w.logger.Debug("site page saved", "file", FileSiteMap)
	return 1, nil
}

// WriteSitePage renders the site map and mean charts as one HTML page.
func WriteSitePage(out io.Writer, report *domain.Report, catalog *domain.Catalog) error {
	page := components.NewPage()
	page.AddCharts(
		SiteMapChart(report.SiteInfos(), catalog),
		MeansLineChart("Average Yearly Snow Water Equivalent", report, func(s domain.SiteSummary) domain.Series { return s.Yearly }),
		MeansLineChart("Monthly Averages All Time", report, func(s domain.SiteSummary) domain.Series { return s.Monthly }),
	)
	if err := page.Render(out); err != nil {
		return fmt.Errorf("render site page: %w", err)
	}
	return nil
}

// SiteMapChart plots site coordinates inside the study-area rectangle.
// Catalog sites are drawn in black; modeled sites in their own color on top.
func SiteMapChart(sites []domain.SiteInfo, catalog *domain.Catalog) *charts.Scatter {
	b := catalog.Bounds

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Niwot Ridge Snow Survey Sites", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Snow Survey Sites", Subtitle: "Niwot Ridge LTER"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "0", Orient: "vertical"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: b.West - mapPad, Max: b.East + mapPad, Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: b.South - mapPad, Max: b.North + mapPad, Name: "Latitude", NameLocation: "middle", NameGap: 45}),
	)

	catalogPts := make([]opts.ScatterData, 0)
	for _, s := range catalog.Sites() {
		if s.HasLocation() {
			catalogPts = append(catalogPts, opts.ScatterData{Name: s.Name, Value: []interface{}{s.Lon, s.Lat}})
		}
	}
	scatter.AddSeries("Catalog sites", catalogPts,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#000000"}),
		charts.WithMarkAreaNameCoordItemOpts(opts.MarkAreaNameCoordItem{
			Name:        "LTER",
			Coordinate0: []interface{}{b.West, b.North},
			Coordinate1: []interface{}{b.East, b.South},
			ItemStyle:   &opts.ItemStyle{Color: "rgba(52,137,235,0.08)", BorderColor: "#000000", BorderWidth: 2},
		}),
	)

	for _, s := range sites {
		if !s.HasLocation() {
			continue
		}
		scatter.AddSeries(s.Name, []opts.ScatterData{{Name: s.Name, Value: []interface{}{s.Lon, s.Lat}}},
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 16}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}),
		)
	}
	return scatter
}

// MeansLineChart plots one series per site plus the all-sites series.
// Empty periods are left as gaps.
func MeansLineChart(title string, report *domain.Report, pick func(domain.SiteSummary) domain.Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "550px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "SWE (m)"}),
	)

	all := pick(report.AllSites)
	line.SetXAxis(all.Labels())
	for _, s := range report.Sites {
		line.AddSeries(s.Info.Name, lineData(pick(s)),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Info.Color}),
		)
	}
	line.AddSeries("All sites", lineData(all),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#000000"}),
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
	)
	return line
}

// lineData converts a series, writing "-" (no value) for empty periods.
func lineData(s domain.Series) []opts.LineData {
	out := make([]opts.LineData, len(s.Points))
	for i, pt := range s.Points {
		if math.IsNaN(pt.Mean) {
			out[i] = opts.LineData{Name: pt.Label, Value: "-"}
			continue
		}
		out[i] = opts.LineData{Name: pt.Label, Value: pt.Mean}
	}
	return out
}
