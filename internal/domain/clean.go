package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CleanStats summarizes what Clean kept and dropped.
type CleanStats struct {
	Read              int `json:"read"`
	DroppedBlank      int `json:"dropped_blank"`
	DroppedMissingSWE int `json:"dropped_missing_swe"`
	Retained          int `json:"retained"`
}

// Clean parses, filters, sorts, and re-indexes raw rows into a RecordStore.
//
// Dates are parsed for every row before anything is dropped, so an
// unparseable date fails the load even on a row that would later be
// discarded. Rows with every cell missing are dropped, then rows with a
// missing swe. A swe that is not a finite number fails the load.
func Clean(raw []RawRecord) (*RecordStore, CleanStats, error) {
	stats := CleanStats{Read: len(raw)}

	dates := make([]time.Time, len(raw))
	for i, r := range raw {
		d, err := ParseDate(r.Date)
		if err != nil {
			return nil, stats, fmt.Errorf("row %d: %w: %q", r.Row, err, strings.TrimSpace(r.Date))
		}
		dates[i] = d
	}

	obs := make([]Observation, 0, len(raw))
	for i, r := range raw {
		if r.blank() {
			stats.DroppedBlank++
			continue
		}
		if IsMissing(r.SWE) {
			stats.DroppedMissingSWE++
			continue
		}
		swe, err := strconv.ParseFloat(strings.TrimSpace(r.SWE), 64)
		if err != nil || math.IsInf(swe, 0) {
			return nil, stats, fmt.Errorf("row %d: %w: %q", r.Row, ErrInvalidSWE, strings.TrimSpace(r.SWE))
		}
		obs = append(obs, Observation{
			Date:           dates[i],
			SiteID:         cellOrEmpty(r.Site),
			SampleLocation: cellOrEmpty(r.SampleLocation),
			LocationCode:   cellOrEmpty(r.LocationCode),
			SWE:            swe,
			Row:            r.Row,
		})
	}

	store := NewRecordStore(obs)
	stats.Retained = store.Len()
	return store, stats, nil
}

func cellOrEmpty(s string) string {
	if IsMissing(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// Normalize drops observations without a SWE value, stable-sorts by
// (date, site) and re-indexes from 0. It returns a new slice and is
// idempotent.
func Normalize(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.SWE) {
			continue
		}
		out = append(out, o)
	}
	slices.SortStableFunc(out, compareObservations)
	for i := range out {
		out[i].Index = i
	}
	return out
}

// compareObservations orders by date then site, missing values last.
func compareObservations(a, b Observation) int {
	switch {
	case a.Date.IsZero() && !b.Date.IsZero():
		return 1
	case !a.Date.IsZero() && b.Date.IsZero():
		return -1
	}
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	switch {
	case a.SiteID == "" && b.SiteID != "":
		return 1
	case a.SiteID != "" && b.SiteID == "":
		return -1
	}
	return cmp.Compare(a.SiteID, b.SiteID)
}

// RecordStore is the cleaned, date-sorted sequence of observations.
// It is immutable after construction.
type RecordStore struct {
	obs    []Observation
	unique []string
	groups map[string]*SiteGroup
	models *SitePartition
}

// NewRecordStore normalizes obs and derives the per-site views once.
func NewRecordStore(obs []Observation) *RecordStore {
	s := &RecordStore{
		obs:    Normalize(obs),
		groups: make(map[string]*SiteGroup),
	}

	members := make(map[string][]Observation)
	for _, o := range s.obs {
		if _, seen := members[o.SiteID]; !seen {
			s.unique = append(s.unique, o.SiteID)
		}
		members[o.SiteID] = append(members[o.SiteID], o)
	}
	for _, site := range s.unique {
		s.groups[site] = newSiteGroup(site, members[site])
	}

	names := s.SiteNames()
	s.models = &SitePartition{
		names:  names,
		groups: make(map[string]*SiteGroup, len(names)),
	}
	for _, name := range names {
		s.models.groups[name] = s.groups[name]
	}
	return s
}

// Len returns the number of retained observations.
func (s *RecordStore) Len() int { return len(s.obs) }

// At returns the observation at 0-based position i.
func (s *RecordStore) At(i int) Observation { return s.obs[i] }

// Observations returns a copy of the cleaned sequence.
func (s *RecordStore) Observations() []Observation {
	return slices.Clone(s.obs)
}

// UniqueSites returns the distinct site identifiers in order of first
// appearance, including "" when some rows have no site.
func (s *RecordStore) UniqueSites() []string {
	return slices.Clone(s.unique)
}

// SiteNames returns the sites to model: UniqueSites without its last entry.
func (s *RecordStore) SiteNames() []string {
	if len(s.unique) == 0 {
		return nil
	}
	return slices.Clone(s.unique[:len(s.unique)-1])
}

// Partition returns the observations of one site.
func (s *RecordStore) Partition(site string) (*SiteGroup, error) {
	g, ok := s.groups[site]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSiteNotFound, site)
	}
	return g, nil
}

// Partitions returns the groups of the modeled sites, keyed by identifier.
func (s *RecordStore) Partitions() *SitePartition { return s.models }

// Combined returns every observation in the store as one group, the
// sentinel site included.
func (s *RecordStore) Combined() *SiteGroup {
	return newSiteGroup("", s.obs)
}
