// Command validate re-checks a snow survey CSV, and optionally a generated
// report.json, against the invariants of the analysis: cleaning keeps only
// ordered rows with a numeric swe, site groups cover every observation
// exactly once, and the report's series match a fresh recomputation.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/snowateq_sample.csv \
//	  -report output/report.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/couchcryptid/snowpack-swe/internal/adapter/csvsource"
	"github.com/couchcryptid/snowpack-swe/internal/domain"
	"github.com/couchcryptid/snowpack-swe/internal/render"
)

// seriesOpts compares mean series, treating NaN as equal to NaN.
var seriesOpts = cmp.Options{cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-9)}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the snow survey CSV")
	reportPath := flag.String("report", "", "optional path to a generated report.json")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*csvPath, *reportPath))
}

func run(csvPath, reportPath string) int {
	fmt.Println("=== Snow Survey Integrity Validation ===")
	fmt.Println()

	src := csvsource.New(csvPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	raw, err := src.Extract(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}
	store, stats, err := domain.Clean(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: clean CSV: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCleaning(raw, store, stats),
		validatePartition(store),
	}
	if reportPath != "" {
		report, err := render.ReadReport(reportPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
			return 1
		}
		phases = append(phases, validateReport(report, store, stats))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d read, %d blank, %d missing swe, %d retained; %d sites (%d modeled)\n",
		stats.Read, stats.DroppedBlank, stats.DroppedMissingSWE, stats.Retained,
		len(store.UniqueSites()), len(store.SiteNames()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Cleaning ──

func validateCleaning(raw []domain.RawRecord, store *domain.RecordStore, stats domain.CleanStats) *phase {
	p := &phase{name: "Cleaning (filter, order, index)"}

	if stats.Read != len(raw) {
		p.errorf("stats read %d, CSV has %d rows", stats.Read, len(raw))
	}
	if got := stats.DroppedBlank + stats.DroppedMissingSWE + stats.Retained; got != stats.Read {
		p.errorf("dropped + retained = %d, read = %d", got, stats.Read)
	}
	if store.Len() != stats.Retained {
		p.errorf("store holds %d observations, stats say %d", store.Len(), stats.Retained)
	}

	obs := store.Observations()
	for i, o := range obs {
		if math.IsNaN(o.SWE) || math.IsInf(o.SWE, 0) {
			p.errorf("observation %d (row %d) has swe %v", i, o.Row, o.SWE)
		}
		if o.Index != i {
			p.errorf("observation %d has index %d", i, o.Index)
		}
		if i > 0 && o.HasDate() && obs[i-1].HasDate() && o.Date.Before(obs[i-1].Date) {
			p.errorf("observation %d (%s) is dated before observation %d (%s)",
				i, o.Date.Format("2006-01-02"), i-1, obs[i-1].Date.Format("2006-01-02"))
		}
	}

	if again := domain.Normalize(obs); !cmp.Equal(obs, again, cmpopts.EquateEmpty()) {
		p.errorf("cleaning is not idempotent: %s", cmp.Diff(obs, again, cmpopts.EquateEmpty()))
	}
	return p
}

// ── Partition ──

func validatePartition(store *domain.RecordStore) *phase {
	p := &phase{name: "Site partition (complete, disjoint)"}

	unique := store.UniqueSites()
	total := 0
	for _, site := range unique {
		g, err := store.Partition(site)
		if err != nil {
			p.errorf("site %q: %v", site, err)
			continue
		}
		for _, o := range g.Observations {
			if o.SiteID != site {
				p.errorf("site %q holds an observation of %q (row %d)", site, o.SiteID, o.Row)
			}
		}
		total += g.Len()
	}
	if total != store.Len() {
		p.errorf("site groups hold %d observations, store has %d", total, store.Len())
	}

	names := store.SiteNames()
	if len(unique) > 0 && !slices.Equal(names, unique[:len(unique)-1]) {
		p.errorf("modeled sites %v are not the unique sites %v without the last", names, unique)
	}
	return p
}

// ── Report ──

func validateReport(r *domain.Report, store *domain.RecordStore, stats domain.CleanStats) *phase {
	p := &phase{name: "Report (counts, series, recomputation)"}

	if r.Clean != stats {
		p.errorf("report clean stats %+v, CSV gives %+v", r.Clean, stats)
	}
	if err := r.Years.Validate(); err != nil {
		p.errorf("report years: %v", err)
		return p
	}

	ids := make([]string, len(r.Sites))
	for i, s := range r.Sites {
		ids[i] = s.SiteID
	}
	if !slices.Equal(ids, store.SiteNames()) {
		p.errorf("report sites %v, CSV models %v", ids, store.SiteNames())
	}

	for _, s := range r.Sites {
		g, err := store.Partition(s.SiteID)
		if err != nil {
			p.errorf("report site %q: %v", s.SiteID, err)
			continue
		}
		checkSummary(p, s, g, r.Years)
	}
	checkSummary(p, r.AllSites, store.Combined(), r.Years)
	return p
}

func checkSummary(p *phase, s domain.SiteSummary, g *domain.SiteGroup, years domain.YearRange) {
	if s.Samples != g.Len() {
		p.errorf("%s: %d samples, CSV has %d", s.SiteID, s.Samples, g.Len())
	}
	if s.Yearly.Len() != years.Len() {
		p.errorf("%s: %d yearly points, want %d", s.SiteID, s.Yearly.Len(), years.Len())
	}
	if s.Monthly.Len() != 12 {
		p.errorf("%s: %d monthly points, want 12", s.SiteID, s.Monthly.Len())
	}

	want := domain.MeansByYear(g.Observations, years).Means()
	if diff := cmp.Diff(want, s.Yearly.Means(), seriesOpts); diff != "" {
		p.errorf("%s: yearly means differ (-csv +report):\n%s", s.SiteID, diff)
	}
	want = domain.MonthlyMeans(g.Observations).Means()
	if diff := cmp.Diff(want, s.Monthly.Means(), seriesOpts); diff != "" {
		p.errorf("%s: monthly means differ (-csv +report):\n%s", s.SiteID, diff)
	}
	if !cmp.Equal(g.TotalMean(), float64(s.TotalMean), seriesOpts) {
		p.errorf("%s: total mean %v, CSV gives %v", s.SiteID, float64(s.TotalMean), g.TotalMean())
	}
}
