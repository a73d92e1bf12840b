// Package testutil builds small catalogs for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/store"
	"github.com/stretchr/testify/require"
)

// Track describes one dataset row. Zero dates and empty key or mode are
// stored as NULL; numeric attributes are always set.
type Track struct {
	Name    string
	Artists string

	Year, Month, Day int64

	Key, Mode string

	BPM              float64
	Danceability     float64
	Valence          float64
	Energy           float64
	Acousticness     float64
	Instrumentalness float64
	Liveness         float64
	Speechiness      float64

	Metrics []dataset.Metric
}

// M builds a metric
func M(p dataset.Platform, kind dataset.MetricKind, value int64) dataset.Metric {
	return dataset.Metric{Platform: p, Kind: kind, Value: value}
}

// Dataset builds an in-memory dataset from tracks, numbering lines from 2
func Dataset(tracks ...Track) *dataset.Dataset {
	ds := &dataset.Dataset{Path: "fixture.csv", Encoding: dataset.EncodingUTF8}
	for i, tr := range tracks {
		ds.Records = append(ds.Records, tr.Record(i+2))
	}
	return ds
}

// Record converts the track into a parsed dataset record
func (tr Track) Record(line int) dataset.Record {
	return dataset.Record{
		Line:         line,
		TrackName:    tr.Name,
		ArtistCredit: tr.Artists,
		ReleaseYear:  optionalInt(tr.Year),
		ReleaseMonth: optionalInt(tr.Month),
		ReleaseDay:   optionalInt(tr.Day),
		Attributes: dataset.Attributes{
			BPM:              ptr(tr.BPM),
			Key:              optionalString(tr.Key),
			Mode:             optionalString(tr.Mode),
			Danceability:     ptr(tr.Danceability),
			Valence:          ptr(tr.Valence),
			Energy:           ptr(tr.Energy),
			Acousticness:     ptr(tr.Acousticness),
			Instrumentalness: ptr(tr.Instrumentalness),
			Liveness:         ptr(tr.Liveness),
			Speechiness:      ptr(tr.Speechiness),
		},
		Metrics: tr.Metrics,
	}
}

// OpenStore opens an empty SQLite catalog under t.TempDir
func OpenStore(t testing.TB) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func ptr[T any](v T) *T {
	return &v
}

func optionalInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
