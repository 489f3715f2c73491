package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
	"github.com/couchcryptid/snowpack-swe/internal/observability"
)

// ReportBuilder implements Builder: per-site summaries, trends, and the
// all-sites summary, with optional place-name enrichment.
type ReportBuilder struct {
	catalog  *domain.Catalog
	years    domain.YearRange
	source   string
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewReportBuilder creates a ReportBuilder. Pass a nil geocoder to disable
// place-name enrichment.
func NewReportBuilder(catalog *domain.Catalog, years domain.YearRange, source string, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *ReportBuilder {
	return &ReportBuilder{
		catalog:  catalog,
		years:    years,
		source:   source,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

func (b *ReportBuilder) Build(ctx context.Context, store *domain.RecordStore, stats domain.CleanStats) (*domain.Report, error) {
	if err := b.years.Validate(); err != nil {
		return nil, err
	}

	groups := store.Partitions().Groups()
	infos := make([]domain.SiteInfo, len(groups))
	for i, g := range groups {
		infos[i] = b.catalog.Info(g.SiteID)
	}
	infos = domain.EnrichSitePlaces(ctx, infos, b.geocoder, b.logger)

	report := &domain.Report{
		GeneratedAt: domain.Now(),
		Source:      b.source,
		Years:       b.years,
		Clean:       stats,
		Sites:       make([]domain.SiteSummary, len(groups)),
	}
	for i, g := range groups {
		report.Sites[i] = b.summarize(g, infos[i])
	}

	all := b.summarize(store.Combined(), domain.SiteInfo{
		Key:   domain.AllSitesID,
		Name:  "All sites",
		Color: "#000000",
	})
	all.SiteID = domain.AllSitesID
	report.AllSites = all

	modeled := make(map[string]bool, len(groups))
	for _, g := range groups {
		modeled[g.SiteID] = true
	}
	for _, site := range store.UniqueSites() {
		if !modeled[site] {
			report.ExcludedSites = append(report.ExcludedSites, site)
		}
	}

	b.logger.Info("report built",
		"sites", len(report.Sites),
		"excluded", report.ExcludedSites,
	)
	return report, nil
}

// summarize fills a site summary and fits its yearly trend. A failed fit
// is logged and leaves Trend nil.
func (b *ReportBuilder) summarize(g *domain.SiteGroup, info domain.SiteInfo) domain.SiteSummary {
	s := domain.Summarize(g, info, b.years)
	trend, err := domain.Trend(s.Yearly)
	if err != nil {
		b.logger.Warn("trend fit skipped", "site", info.Name, "error", err)
		b.metrics.TrendFitErrors.Inc()
		return s
	}
	s.Trend = &trend
	return s
}
