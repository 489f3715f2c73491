package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

var nan = math.NaN()

// SeriesKind names the period a Series is bucketed by.
type SeriesKind string

const (
	KindYearly  SeriesKind = "yearly"
	KindMonthly SeriesKind = "monthly"
)

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// DefaultYears is the survey window covered by yearly series.
var DefaultYears = YearRange{First: 1993, Last: 2020}

// Len returns the number of years in the range.
func (r YearRange) Len() int { return r.Last - r.First + 1 }

// Validate rejects empty or inverted ranges.
func (r YearRange) Validate() error {
	if r.First > r.Last {
		return fmt.Errorf("year range %d..%d is inverted", r.First, r.Last)
	}
	return nil
}

// Point is one period of a Series. Mean is NaN when Count is 0.
type Point struct {
	Label  string
	Period int
	Mean   float64
	Count  int
}

type pointJSON struct {
	Period string   `json:"period"`
	Mean   *float64 `json:"mean"`
	Count  int      `json:"count"`
}

// MarshalJSON encodes a NaN mean as null.
func (p Point) MarshalJSON() ([]byte, error) {
	out := pointJSON{Period: p.Label, Count: p.Count}
	if !math.IsNaN(p.Mean) {
		m := p.Mean
		out.Mean = &m
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null mean as NaN.
func (p *Point) UnmarshalJSON(b []byte) error {
	var in pointJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	period, err := strconv.Atoi(in.Period)
	if err != nil {
		return fmt.Errorf("period %q: %w", in.Period, err)
	}
	p.Label = in.Period
	p.Period = period
	p.Count = in.Count
	p.Mean = nan
	if in.Mean != nil {
		p.Mean = *in.Mean
	}
	return nil
}

// Series is a mean SWE series with exactly one point per enumerated period,
// in enumeration order.
type Series struct {
	Kind   SeriesKind `json:"kind"`
	Points []Point    `json:"points"`
}

// Len returns the number of periods.
func (s Series) Len() int { return len(s.Points) }

// Get returns the mean for a period label such as "2001" or "6".
func (s Series) Get(label string) (float64, bool) {
	for _, p := range s.Points {
		if p.Label == label {
			return p.Mean, true
		}
	}
	return 0, false
}

// Labels returns the period labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Means returns the period means in order, NaN for empty periods.
func (s Series) Means() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Mean
	}
	return out
}

// Defined returns the periods and means of the non-NaN points.
func (s Series) Defined() (periods, means []float64) {
	for _, p := range s.Points {
		if math.IsNaN(p.Mean) {
			continue
		}
		periods = append(periods, float64(p.Period))
		means = append(means, p.Mean)
	}
	return periods, means
}

// YearlyMeans returns mean SWE per year over DefaultYears.
func YearlyMeans(obs []Observation) Series {
	return MeansByYear(obs, DefaultYears)
}

// MeansByYear returns mean SWE per year over years.
func MeansByYear(obs []Observation, years YearRange) Series {
	periods := make([]int, 0, max(years.Len(), 0))
	for y := years.First; y <= years.Last; y++ {
		periods = append(periods, y)
	}
	return meansBy(KindYearly, obs, periods, func(t time.Time) int { return t.Year() })
}

// MonthlyMeans returns mean SWE per calendar month, pooled over all years.
func MonthlyMeans(obs []Observation) Series {
	periods := make([]int, 12)
	for i := range periods {
		periods[i] = i + 1
	}
	return meansBy(KindMonthly, obs, periods, func(t time.Time) int { return int(t.Month()) })
}

// meansBy buckets SWE values by period and averages each enumerated period.
// Observations without a date fall in no period.
func meansBy(kind SeriesKind, obs []Observation, periods []int, periodOf func(time.Time) int) Series {
	buckets := make(map[int][]float64, len(periods))
	for _, o := range obs {
		if !o.HasDate() {
			continue
		}
		p := periodOf(o.Date)
		buckets[p] = append(buckets[p], o.SWE)
	}

	s := Series{Kind: kind, Points: make([]Point, len(periods))}
	for i, p := range periods {
		vals := buckets[p]
		s.Points[i] = Point{
			Label:  strconv.Itoa(p),
			Period: p,
			Mean:   mean(vals),
			Count:  len(vals),
		}
	}
	return s
}
