package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()
	store, _, err := Clean([]RawRecord{
		{Row: 0, Date: "2000-01-01", Site: "Saddle", SampleLocation: "grid", LocationCode: "S1", SWE: "0.1"},
		{Row: 1, Date: "2000-01-02", Site: "GL4", SampleLocation: "lake", LocationCode: "G1", SWE: "0.2"},
		{Row: 2, Date: "2000-01-03", Site: "UNUSED_TAIL", SWE: "9.9"},
		{Row: 3, Date: "2000-06-01", Site: "Saddle", SampleLocation: "grid", LocationCode: "S2", SWE: "0.3"},
		{Row: 4, Date: "2001-06-01", Site: "Saddle", SampleLocation: "ridge", LocationCode: "S2", SWE: "0.5"},
	})
	require.NoError(t, err)
	return store
}

func TestSiteNames_DropsLastUniqueSite(t *testing.T) {
	store := newTestStore(t)

	assert.Equal(t, []string{"Saddle", "GL4", "UNUSED_TAIL"}, store.UniqueSites())
	assert.Equal(t, []string{"Saddle", "GL4"}, store.SiteNames())
	assert.Equal(t, []string{"Saddle", "GL4"}, store.Partitions().Names())
}

func TestPartition_CompleteAndDisjoint(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[int]string)
	total := 0
	for _, site := range store.UniqueSites() {
		g, err := store.Partition(site)
		require.NoError(t, err)
		for i, o := range g.Observations {
			assert.Equal(t, site, o.SiteID)
			assert.Equal(t, i, o.Index)
			prev, dup := seen[o.Row]
			assert.False(t, dup, "row %d in %q and %q", o.Row, prev, site)
			seen[o.Row] = site
		}
		total += g.Len()
	}
	assert.Equal(t, store.Len(), total)
}

func TestPartition_Saddle(t *testing.T) {
	store := newTestStore(t)

	g, err := store.Partitions().Lookup("Saddle")
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []int{0, 3, 4}, rows(g.Observations))
	assert.Equal(t, []string{"grid", "ridge"}, g.SampleLocations)
	assert.Equal(t, []string{"S1", "S2"}, g.LocationCodes)
	assert.InDelta(t, 0.3, g.TotalMean(), 1e-12)
}

func TestPartition_UnknownSite(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Partition("Niwot")
	assert.ErrorIs(t, err, ErrSiteNotFound)

	// The sentinel has observations but is not modeled.
	_, err = store.Partitions().Lookup("UNUSED_TAIL")
	assert.ErrorIs(t, err, ErrSiteNotFound)
	g, err := store.Partition("UNUSED_TAIL")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestPartition_GroupsOrder(t *testing.T) {
	groups := newTestStore(t).Partitions().Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Saddle", groups[0].SiteID)
	assert.Equal(t, "GL4", groups[1].SiteID)
}

func TestCombined(t *testing.T) {
	store := newTestStore(t)

	all := store.Combined()
	assert.Equal(t, store.Len(), all.Len())
	assert.Empty(t, all.SiteID)
	assert.InDelta(t, (0.1+0.2+9.9+0.3+0.5)/5, all.TotalMean(), 1e-12)
}

func TestSiteGroup_EmptyTotalMean(t *testing.T) {
	g := newSiteGroup("empty", nil)
	assert.True(t, math.IsNaN(g.TotalMean()))
}
