package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saddleObservations() []Observation {
	return []Observation{
		{Date: day(2000, time.January, 15), SiteID: "Saddle", SWE: 0.1},
		{Date: day(2000, time.January, 20), SiteID: "Saddle", SWE: 0.3},
		{Date: day(2001, time.June, 1), SiteID: "Saddle", SWE: 0.5},
	}
}

func TestYearlyMeans(t *testing.T) {
	s := YearlyMeans(saddleObservations())

	require.Equal(t, 28, s.Len())
	assert.Equal(t, KindYearly, s.Kind)
	assert.Equal(t, "1993", s.Points[0].Label)
	assert.Equal(t, "2020", s.Points[27].Label)

	want := make([]float64, 28)
	for i := range want {
		want[i] = nan
	}
	want[2000-1993] = 0.2
	want[2001-1993] = 0.5

	if diff := cmp.Diff(want, s.Means(), cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("yearly means mismatch (-want +got):\n%s", diff)
	}

	m, ok := s.Get("2000")
	require.True(t, ok)
	assert.InDelta(t, 0.2, m, 1e-12)
	_, ok = s.Get("1850")
	assert.False(t, ok)
}

func TestMonthlyMeans(t *testing.T) {
	s := MonthlyMeans(saddleObservations())

	require.Equal(t, 12, s.Len())
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}, s.Labels())

	want := []float64{0.2, nan, nan, nan, nan, 0.5, nan, nan, nan, nan, nan, nan}
	if diff := cmp.Diff(want, s.Means(), cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("monthly means mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, s.Points[0].Count)
	assert.Equal(t, 0, s.Points[1].Count)
}

func TestMeans_EmptyInput(t *testing.T) {
	yearly := YearlyMeans(nil)
	monthly := MonthlyMeans(nil)

	require.Equal(t, 28, yearly.Len())
	require.Equal(t, 12, monthly.Len())
	for _, p := range append(yearly.Points, monthly.Points...) {
		assert.True(t, math.IsNaN(p.Mean), "period %s", p.Label)
		assert.Zero(t, p.Count)
	}

	x, y := yearly.Defined()
	assert.Empty(t, x)
	assert.Empty(t, y)
}

func TestMeans_OutOfRangeAndUndated(t *testing.T) {
	obs := []Observation{
		{Date: day(1985, time.March, 1), SWE: 7},
		{SWE: 11}, // undated
		{Date: day(1993, time.March, 1), SWE: 1},
	}

	yearly := YearlyMeans(obs)
	_, means := yearly.Defined()
	assert.Equal(t, []float64{1}, means)

	// The month of the 1985 sample still counts.
	monthly := MonthlyMeans(obs)
	m, _ := monthly.Get("3")
	assert.Equal(t, 4.0, m)
}

func TestMeansByYear_CustomRange(t *testing.T) {
	s := MeansByYear(saddleObservations(), YearRange{First: 2000, Last: 2002})

	periods, means := s.Defined()
	assert.Equal(t, []float64{2000, 2001}, periods)
	assert.InDeltaSlice(t, []float64{0.2, 0.5}, means, 1e-12)
	assert.Equal(t, 3, s.Len())
}

func TestYearRange_Validate(t *testing.T) {
	assert.NoError(t, DefaultYears.Validate())
	assert.Equal(t, 28, DefaultYears.Len())
	assert.Error(t, YearRange{First: 2020, Last: 1993}.Validate())
}

func TestSeries_JSON(t *testing.T) {
	s := MonthlyMeans(saddleObservations())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"period":"2","mean":null,"count":0}`)
	assert.Contains(t, string(data), `{"period":"6","mean":0.5,"count":1}`)

	var back Series
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(s, back, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
