package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrUnparseableDate is returned when a non-missing date cell matches none of the accepted layouts.
	ErrUnparseableDate = errors.New("unparseable date")

	// ErrInvalidSWE is returned when a non-missing swe cell is not a number.
	ErrInvalidSWE = errors.New("invalid swe value")

	// ErrSiteNotFound is returned when a site identifier has no observations.
	ErrSiteNotFound = errors.New("site not found")
)

// MissingMarkers are the cell values treated as missing, in addition to
// the empty string. They match the defaults of the pandas CSV reader the
// dataset is usually loaded with.
var MissingMarkers = []string{
	"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "<nil>", "N/A", "NA", "NULL", "NaN",
	"None", "n/a", "nan", "null",
}

var missingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MissingMarkers))
	for _, v := range MissingMarkers {
		m[v] = struct{}{}
	}
	return m
}()

// IsMissing reports whether a raw cell value counts as missing.
func IsMissing(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, ok := missingSet[s]
	return ok
}

// RawRecord is one uncleaned source row with every cell kept as text.
type RawRecord struct {
	Row            int // 0-based data row in the source file
	Date           string
	Site           string
	SampleLocation string
	LocationCode   string
	SWE            string
	Other          []string // cells of columns not used by the analysis
}

// blank reports whether every cell of the row is missing.
func (r RawRecord) blank() bool {
	for _, v := range []string{r.Date, r.Site, r.SampleLocation, r.LocationCode, r.SWE} {
		if !IsMissing(v) {
			return false
		}
	}
	for _, v := range r.Other {
		if !IsMissing(v) {
			return false
		}
	}
	return true
}

// Observation is a single cleaned SWE sample. A retained Observation always
// carries a SWE value; a zero Date means the source date cell was missing.
type Observation struct {
	Date           time.Time
	SiteID         string
	SampleLocation string
	LocationCode   string
	SWE            float64

	// Index is the 0-based position in the containing sequence.
	Index int
	// Row is the 0-based data row in the source file.
	Row int
}

// HasDate reports whether the observation has a calendar date.
func (o Observation) HasDate() bool { return !o.Date.IsZero() }

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
}

// ParseDate parses a survey date into UTC midnight of that calendar day.
// A missing cell yields the zero time and no error.
func ParseDate(s string) (time.Time, error) {
	if IsMissing(s) {
		return time.Time{}, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrUnparseableDate
}
