// Package csvsource reads the snow survey CSV into raw domain records.
package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
)

// Column names of the source schema used by the analysis.
const (
	ColDate           = "date"
	ColSite           = "local_site"
	ColSampleLocation = "samp_loc"
	ColLocationCode   = "loc_code"
	ColSWE            = "swe"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{ColDate, ColSite, ColSampleLocation, ColLocationCode, ColSWE}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Source loads raw records from a CSV file.
// It implements pipeline.Extractor.
type Source struct {
	path   string
	logger *slog.Logger
}

// New creates a Source for the CSV file at path.
func New(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// Path returns the file the source reads.
func (s *Source) Path() string { return s.path }

// Extract reads every data row of the file.
func (s *Source) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	s.logger.Debug("csv loaded", "path", s.path, "rows", len(records))
	return records, nil
}

// Read parses CSV text with a header row. Every column is read as text;
// cells matching domain.MissingMarkers come back empty.
func Read(r io.Reader) ([]domain.RawRecord, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(domain.MissingMarkers),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}

	// Header cells are matched after trimming.
	byName := make(map[string]string, df.Ncol())
	for _, name := range df.Names() {
		byName[strings.TrimSpace(name)] = name
	}
	for _, col := range RequiredColumns {
		if _, ok := byName[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	column := func(name string) []string { return cells(df.Col(name)) }
	dates := column(byName[ColDate])
	sites := column(byName[ColSite])
	locs := column(byName[ColSampleLocation])
	codes := column(byName[ColLocationCode])
	swes := column(byName[ColSWE])

	var others [][]string
	for _, name := range df.Names() {
		if slices.Contains(RequiredColumns, strings.TrimSpace(name)) {
			continue
		}
		others = append(others, column(name))
	}

	out := make([]domain.RawRecord, df.Nrow())
	for i := range out {
		rec := domain.RawRecord{
			Row:            i,
			Date:           dates[i],
			Site:           sites[i],
			SampleLocation: locs[i],
			LocationCode:   codes[i],
			SWE:            swes[i],
		}
		if len(others) > 0 {
			rec.Other = make([]string, len(others))
			for j, col := range others {
				rec.Other[j] = col[i]
			}
		}
		out[i] = rec
	}
	return out, nil
}

// cells returns a column's values with NaN elements blanked.
func cells(s series.Series) []string {
	vals := s.Records()
	for i, nan := range s.IsNaN() {
		if nan {
			vals[i] = ""
		}
	}
	return vals
}
