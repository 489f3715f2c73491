package domain

import (
	"context"
	"log/slog"
)

// EnrichSitePlaces fills SiteInfo.Place with the nearest named place for
// every site that has coordinates. A nil geocoder returns the sites
// unchanged; a failed lookup is logged and leaves that site's Place empty.
func EnrichSitePlaces(ctx context.Context, sites []SiteInfo, geocoder Geocoder, logger *slog.Logger) []SiteInfo {
	out := make([]SiteInfo, len(sites))
	copy(out, sites)
	if geocoder == nil {
		return out
	}

	for i, s := range out {
		if !s.HasLocation() {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, s.Lat, s.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"site", s.Name,
				"lat", s.Lat,
				"lon", s.Lon,
				"error", err,
			)
			continue
		}
		switch {
		case result.FormattedAddress != "":
			out[i].Place = result.FormattedAddress
		case result.PlaceName != "":
			out[i].Place = result.PlaceName
		}
	}
	return out
}
