package domain

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"strings"

	"gonum.org/v1/plot/plotutil"
)

// SiteInfo is the presentation metadata for one monitoring site.
type SiteInfo struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Color string  `json:"color"` // #RRGGBB
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Known bool    `json:"known"`

	// Place is filled by EnrichSitePlaces when a geocoder is configured.
	Place string `json:"place,omitempty"`
}

// HasLocation reports whether the site has coordinates.
func (s SiteInfo) HasLocation() bool { return s.Lat != 0 || s.Lon != 0 }

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	North, South float64
	East, West   float64
}

// Catalog maps canonical site keys to their metadata.
type Catalog struct {
	sites  map[string]SiteInfo
	order  []string
	Bounds Bounds
	Center [2]float64 // lat, lon
}

// NiwotCatalog returns the Niwot Ridge snow survey sites with their
// coordinates, chart colors, and the LTER study-area rectangle.
func NiwotCatalog() *Catalog {
	c := &Catalog{
		sites:  make(map[string]SiteInfo),
		Bounds: Bounds{North: 40.0595312337778, South: 40.03, East: -105.54, West: -105.645},
		Center: [2]float64{40.0443, -105.5920},
	}
	for _, s := range []SiteInfo{
		{Name: "Saddle", Color: "#E24A33", Lat: 40.05, Lon: -105.59},
		{Name: "GL4", Color: "#348ABD", Lat: 40.0558068932155, Lon: -105.61717784273749},
		{Name: "GL5", Color: "#988ED5", Lat: 40.0508, Lon: -105.630},
		{Name: "Navajo", Color: "#777777", Lat: 40.052108, Lon: -105.635561},
		{Name: "Martinelli", Color: "#FBC15E", Lat: 40.05315986684726, Lon: -105.59667627824962},
		{Name: "Arikaree", Color: "#8EBA42", Lat: 40.050791, Lon: -105.641416},
		{Name: "Subnivean", Color: "#FFB5B8", Lat: 40.054165, Lon: -105.588975},
		{Name: "Albion", Color: "#92C5DE", Lat: 40.047388, Lon: -105.599580},
		{Name: "GL3", Color: "#80CDC1", Lat: 40.0512, Lon: -105.6128},
		{Name: "Tower Meadow", Color: "#5E3C99", Lat: 40.052348, Lon: -105.583235},
		{Name: "Tower Tree Well", Color: "#E66101", Lat: 40.033371, Lon: -105.547389},
		{Name: "C1", Color: "#F4A582", Lat: 40.036162, Lon: -105.543529},
		{Name: "Soddie", Color: "#B8E186", Lat: 40.04, Lon: -105.57},
	} {
		c.Add(s)
	}
	return c
}

// Add registers or replaces a site. The key is derived from the name when empty.
func (c *Catalog) Add(s SiteInfo) {
	if s.Key == "" {
		s.Key = CanonicalSiteKey(s.Name)
	}
	s.Known = true
	if _, exists := c.sites[s.Key]; !exists {
		c.order = append(c.order, s.Key)
	}
	c.sites[s.Key] = s
}

// Sites returns the registered sites in registration order.
func (c *Catalog) Sites() []SiteInfo {
	out := make([]SiteInfo, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.sites[k])
	}
	return out
}

// Info returns the metadata for a site identifier as it appears in the data.
// Sites missing from the catalog get the raw identifier as name, no
// coordinates, and a color derived from the identifier.
func (c *Catalog) Info(siteID string) SiteInfo {
	key := CanonicalSiteKey(siteID)
	if s, ok := c.sites[key]; ok {
		return s
	}
	name := strings.TrimSpace(siteID)
	if name == "" {
		name = "(unknown)"
	}
	return SiteInfo{Key: key, Name: name, Color: fallbackColor(key)}
}

// CanonicalSiteKey normalizes a site identifier: lower case, with
// underscores and hyphens read as spaces and runs of spaces collapsed.
// "Tower_Meadow", "tower meadow" and "TOWER-MEADOW" share a key.
func CanonicalSiteKey(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Slug returns a file-name-safe form of a site key.
func Slug(s string) string {
	key := CanonicalSiteKey(s)
	if key == "" {
		return "unknown"
	}
	return strings.ReplaceAll(key, " ", "_")
}

// fallbackColor picks a stable palette color for a key.
func fallbackColor(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	c := color.RGBAModel.Convert(plotutil.Color(int(h.Sum32() % uint32(len(plotutil.DefaultColors))))).(color.RGBA)
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
