//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
	"github.com/couchcryptid/snowpack-swe/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// Saddle site on Niwot Ridge.
	result, err := c.ReverseGeocode(context.Background(), 40.05, -105.59)
	require.NoError(t, err)

	assert.NotEmpty(t, result.FormattedAddress)
	assert.Contains(t, result.FormattedAddress, "Colorado")
	assert.Greater(t, result.Confidence, 0.0)
}

func TestSmoke_EnrichCatalog(t *testing.T) {
	c := smokeClient(t)

	sites := domain.NiwotCatalog().Sites()[:3]
	out := domain.EnrichSitePlaces(context.Background(), sites, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, s := range out {
		assert.NotEmpty(t, s.Place, s.Name)
	}
}
