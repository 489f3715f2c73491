// Command genmock writes a deterministic synthetic snow survey CSV in the
// source schema, for local runs and test fixtures. The same seed always
// produces the same file.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/snowateq_synthetic.csv \
//	  -first-year 1993 -last-year 2020 -seed 7
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
)

var header = []string{"LTER_site", "local_site", "date", "samp_loc", "loc_code", "depth", "density", "swe"}

// snowMonths are the survey months; peak SWE is in April.
var snowMonths = []time.Month{time.January, time.February, time.March, time.April, time.May, time.June}

type options struct {
	out         string
	sites       []string
	tailSite    string
	firstYear   int
	lastYear    int
	seed        uint64
	missingRate float64
	blankRate   float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the synthetic CSV")
	sites := flag.String("sites", "Saddle,GL4,Albion,Martinelli,Navajo", "comma-separated sites to generate")
	tail := flag.String("tail-site", "Soddie", "site that appears only in the final row (excluded from modeling)")
	first := flag.Int("first-year", 1993, "first survey year")
	last := flag.Int("last-year", 2020, "last survey year")
	seed := flag.Uint64("seed", 7, "random seed")
	missing := flag.Float64("missing-rate", 0.03, "fraction of rows with a missing swe value")
	blank := flag.Float64("blank-rate", 0.01, "fraction of fully blank rows")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return errors.New("missing required flag: -out")
	}
	if *first > *last {
		return fmt.Errorf("-first-year %d is after -last-year %d", *first, *last)
	}

	opts := options{
		out:         *out,
		sites:       splitList(*sites),
		tailSite:    strings.TrimSpace(*tail),
		firstYear:   *first,
		lastYear:    *last,
		seed:        *seed,
		missingRate: *missing,
		blankRate:   *blank,
	}
	if len(opts.sites) == 0 {
		return errors.New("-sites must name at least one site")
	}

	rows := generate(opts)
	if err := writeCSV(opts.out, rows); err != nil {
		return fmt.Errorf("writing %s: %w", opts.out, err)
	}
	log.Printf("wrote %d rows for %d sites (%d-%d): %s", len(rows)-1, len(opts.sites), opts.firstYear, opts.lastYear, opts.out)
	return nil
}

// generate returns the header followed by the data rows in survey order.
func generate(opts options) [][]string {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x5eed))
	blankRow := make([]string, len(header))

	rows := [][]string{header}
	for year := opts.firstYear; year <= opts.lastYear; year++ {
		for _, month := range snowMonths {
			for i, site := range opts.sites {
				if rng.Float64() < opts.blankRate {
					rows = append(rows, blankRow)
					continue
				}
				day := 1 + rng.IntN(28)
				date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
				swe := sampleSWE(rng, i, year-opts.firstYear, month)
				rows = append(rows, row(site, date, i, swe, rng.Float64() < opts.missingRate))
			}
		}
	}
	if opts.tailSite != "" {
		date := time.Date(opts.lastYear, time.June, 30, 0, 0, 0, 0, time.UTC)
		rows = append(rows, row(opts.tailSite, date, 0, 0.1, false))
	}
	return rows
}

// sampleSWE models SWE in meters: a per-site base, a seasonal curve
// peaking in April, a slight downward trend, and noise.
func sampleSWE(rng *rand.Rand, siteIdx, yearIdx int, month time.Month) float64 {
	base := 0.25 + 0.15*float64(siteIdx%4)
	season := math.Sin(math.Pi * float64(month) / 7)
	trend := 1 - 0.005*float64(yearIdx)
	noise := 1 + 0.15*rng.NormFloat64()
	return math.Max(0, base*season*trend*noise)
}

func row(site string, date time.Time, siteIdx int, swe float64, missing bool) []string {
	density := 0.3 + 0.02*float64(siteIdx%5)
	sweCell := strconv.FormatFloat(swe, 'f', 3, 64)
	depthCell := strconv.FormatFloat(swe/density*100, 'f', 1, 64)
	if missing {
		sweCell, depthCell = "NaN", "NaN"
	}
	return []string{
		"NWT",
		site,
		date.Format("2006-01-02"),
		strings.ToLower(site) + "_" + strconv.Itoa(1+siteIdx%3),
		domain.Slug(site) + "-" + strconv.Itoa(1+siteIdx%3),
		depthCell,
		strconv.FormatFloat(density, 'f', 2, 64),
		sweCell,
	}
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df.Err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
