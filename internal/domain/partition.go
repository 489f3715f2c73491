package domain

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// SiteGroup is the read-only view of one site's observations, re-indexed
// from 0 in store order.
type SiteGroup struct {
	SiteID       string
	Observations []Observation

	// Distinct sample locations and codes, first appearance order.
	SampleLocations []string
	LocationCodes   []string
}

func newSiteGroup(site string, members []Observation) *SiteGroup {
	g := &SiteGroup{
		SiteID:       site,
		Observations: make([]Observation, len(members)),
	}
	seenLoc := make(map[string]bool)
	seenCode := make(map[string]bool)
	for i, o := range members {
		o.Index = i
		g.Observations[i] = o
		if o.SampleLocation != "" && !seenLoc[o.SampleLocation] {
			seenLoc[o.SampleLocation] = true
			g.SampleLocations = append(g.SampleLocations, o.SampleLocation)
		}
		if o.LocationCode != "" && !seenCode[o.LocationCode] {
			seenCode[o.LocationCode] = true
			g.LocationCodes = append(g.LocationCodes, o.LocationCode)
		}
	}
	return g
}

// Len returns the number of observations at the site.
func (g *SiteGroup) Len() int { return len(g.Observations) }

// YearlyMeans returns the site's mean SWE for each year 1993..2020.
func (g *SiteGroup) YearlyMeans() Series { return YearlyMeans(g.Observations) }

// MonthlyMeans returns the site's mean SWE for each calendar month.
func (g *SiteGroup) MonthlyMeans() Series { return MonthlyMeans(g.Observations) }

// TotalMean returns the mean of every SWE sample at the site, NaN when empty.
func (g *SiteGroup) TotalMean() float64 {
	return mean(sweValues(g.Observations))
}

// SitePartition holds one SiteGroup per modeled site, addressed by identifier.
type SitePartition struct {
	names  []string
	groups map[string]*SiteGroup
}

// Names returns the modeled site identifiers in enumeration order.
func (p *SitePartition) Names() []string { return slices.Clone(p.names) }

// Len returns the number of modeled sites.
func (p *SitePartition) Len() int { return len(p.names) }

// Lookup returns the group for site, or ErrSiteNotFound.
func (p *SitePartition) Lookup(site string) (*SiteGroup, error) {
	g, ok := p.groups[site]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSiteNotFound, site)
	}
	return g, nil
}

// Groups returns the groups in enumeration order.
func (p *SitePartition) Groups() []*SiteGroup {
	out := make([]*SiteGroup, 0, len(p.names))
	for _, n := range p.names {
		out = append(out, p.groups[n])
	}
	return out
}

func sweValues(obs []Observation) []float64 {
	vals := make([]float64, len(obs))
	for i, o := range obs {
		vals[i] = o.SWE
	}
	return vals
}

// mean is the arithmetic mean, NaN for an empty slice.
func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return nan
	}
	return stat.Mean(vals, nil)
}
