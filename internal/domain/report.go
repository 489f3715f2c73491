package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// AllSitesID identifies the combined summary over every observation.
const AllSitesID = "all"

// Float is a float64 that encodes NaN as JSON null and decodes null as NaN.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// SiteSummary is everything reported for one site (or all sites combined).
type SiteSummary struct {
	SiteID          string      `json:"site_id"`
	Info            SiteInfo    `json:"info"`
	Samples         int         `json:"samples"`
	SampleLocations []string    `json:"sample_locations"`
	LocationCodes   []string    `json:"location_codes"`
	TotalMean       Float       `json:"total_mean"`
	Yearly          Series      `json:"yearly"`
	Monthly         Series      `json:"monthly"`
	Trend           *Regression `json:"trend,omitempty"`
}

// Summarize computes the series and bookkeeping of a site group. Trend is
// left nil for the caller to fit.
func Summarize(g *SiteGroup, info SiteInfo, years YearRange) SiteSummary {
	return SiteSummary{
		SiteID:          g.SiteID,
		Info:            info,
		Samples:         g.Len(),
		SampleLocations: g.SampleLocations,
		LocationCodes:   g.LocationCodes,
		TotalMean:       Float(g.TotalMean()),
		Yearly:          MeansByYear(g.Observations, years),
		Monthly:         MonthlyMeans(g.Observations),
	}
}

// Report is the result of one analysis run.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Source      string        `json:"source"`
	Years       YearRange     `json:"years"`
	Clean       CleanStats    `json:"clean"`
	Sites       []SiteSummary `json:"sites"`
	AllSites    SiteSummary   `json:"all_sites"`

	// ExcludedSites lists unique identifiers that were not modeled.
	ExcludedSites []string `json:"excluded_sites"`
}

// Site returns the summary of a modeled site by identifier.
func (r *Report) Site(siteID string) (*SiteSummary, error) {
	for i := range r.Sites {
		if r.Sites[i].SiteID == siteID {
			return &r.Sites[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSiteNotFound, siteID)
}

// SiteInfos returns the metadata of the modeled sites in report order.
func (r *Report) SiteInfos() []SiteInfo {
	out := make([]SiteInfo, len(r.Sites))
	for i, s := range r.Sites {
		out[i] = s.Info
	}
	return out
}
