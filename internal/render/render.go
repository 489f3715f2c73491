// Package render writes the report artifacts: PNG charts, the interactive
// site page, the looping site animation, and the JSON report.
//
// Every writer implements pipeline.Loader and writes into one output
// directory. Empty periods (NaN means) are skipped, so lines show gaps.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Output file names.
const (
	FileYearlyMeans     = "yearly_means.png"
	FileMonthlyMeans    = "monthly_means.png"
	FileAllSitesTrend   = "all_sites_trend.png"
	FileSiteComposition = "site_composition.png"
	FileSiteMap         = "sites.html"
	FileAnimation       = "sites_loop.gif"
	FileReport          = "report.json"
)

// TrendFile returns the per-site trend chart name for a site.
func TrendFile(siteKey string) string {
	return "trend_" + siteKey + ".png"
}

// monthNames label the monthly chart ticks.
var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "June", "July", "Aug", "Sept", "Oct", "Nov", "Dec"}

var (
	black     = color.RGBA{A: 255}
	lightGray = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	trendBlue = color.RGBA{R: 0x34, G: 0x89, B: 0xeb, A: 255}
	trendRed  = color.RGBA{R: 0xE2, G: 0x4A, B: 0x33, A: 255}
	teal      = color.RGBA{R: 0x3f, G: 0xd9, B: 0xd4, A: 255}
)

// ParseHexColor converts "#RRGGBB" or "RRGGBB" to an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// siteColor parses a catalog color, falling back to gray.
func siteColor(hex string) color.RGBA {
	c, err := ParseHexColor(hex)
	if err != nil {
		return lightGray
	}
	return c
}

// prepareDir creates dir if needed.
func prepareDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func outPath(dir, name string) string { return filepath.Join(dir, name) }

// segments splits parallel x/y values into runs without NaN.
func segments(x, y []float64) [][2][]float64 {
	var out [][2][]float64
	var cur [2][]float64
	for i := range y {
		if math.IsNaN(y[i]) {
			if len(cur[0]) > 0 {
				out = append(out, cur)
				cur = [2][]float64{}
			}
			continue
		}
		cur[0] = append(cur[0], x[i])
		cur[1] = append(cur[1], y[i])
	}
	if len(cur[0]) > 0 {
		out = append(out, cur)
	}
	return out
}
