package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/snowpack-swe/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testReport() *domain.Report {
	series := domain.Series{Kind: domain.KindYearly, Points: []domain.Point{
		{Label: "2000", Period: 2000, Mean: 0.5, Count: 2},
		{Label: "2001", Period: 2001, Mean: math.NaN()},
	}}
	return &domain.Report{
		GeneratedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Sites: []domain.SiteSummary{
			{SiteID: "Saddle", Samples: 2, Yearly: series, TotalMean: 0.5},
			{SiteID: "GL4", Samples: 1, TotalMean: 0.8},
		},
		AllSites: domain.SiteSummary{SiteID: domain.AllSitesID, Samples: 3, TotalMean: 0.6},
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	r := testReport()

	msg, err := serializeToMessage(r.Sites[0], now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Saddle"), msg.Key)
	assert.Contains(t, string(msg.Value), `"site_id":"Saddle"`)
	assert.Contains(t, string(msg.Value), `"mean":null`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "series", msg.Headers[0].Key)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_Load(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	n, err := w.Load(context.Background(), testReport())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys := make([]string, len(fw.msgs))
	for i, m := range fw.msgs {
		keys[i] = string(m.Key)
	}
	assert.Equal(t, []string{"Saddle", "GL4", domain.AllSitesID}, keys)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_LoadError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	w := &Writer{writer: fw, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	n, err := w.Load(context.Background(), testReport())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "broker down")
}
