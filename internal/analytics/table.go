package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

// Table is an ordered query result with named columns.
// Column order and names are part of the result contract.
type Table struct {
	ID      int
	Title   string
	Columns []string
	Rows    [][]any

	// Excluded lists groups left out because a statistic was undefined
	Excluded []UndefinedGroup
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the values of the named column
func (t *Table) Column(name string) []any {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}

// UndefinedGroup describes a group whose mean or standard deviation
// could not be used as a divisor
type UndefinedGroup struct {
	Group  string
	Reason string
}

func (u UndefinedGroup) Error() string {
	return fmt.Sprintf("%s: %s", u.Group, u.Reason)
}

func (u UndefinedGroup) Unwrap() error {
	return util.ErrStatisticalUndefined
}

// Runner executes one query against the catalog
type Runner func(ctx context.Context, s *store.Store) (*Table, error)

// Query is a registered analytical query
type Query struct {
	ID          int
	Name        string
	Title       string
	Explanation string
	Columns     []string
	Run         Runner
}

// Queries returns the analytical queries in menu order
func Queries() []Query {
	return []Query{
		{
			ID:      1,
			Name:    "seasonal",
			Title:   "Comparison of Track Analytics by Season of Release",
			Columns: seasonalColumns,
			Run:     Seasonal,
			Explanation: `Groups tracks by the season of their release month (Winter: Dec-Feb,
Spring: Mar-May, Summer: Jun-Aug, Fall: Sep-Nov) and compares average tempo,
the share of major and minor keys, and the average valence, energy,
danceability, acousticness, liveness and speechiness of each season.`,
		},
		{
			ID:      2,
			Name:    "artists",
			Title:   "Top Artists by Weighted Streaming Metrics Across Platforms",
			Columns: rankingColumns,
			Run:     ArtistRanking,
			Explanation: `Ranks the top 10 artists across Spotify, Apple Music, Deezer and Shazam.
Every playlist count, inverted chart rank and Spotify stream count is divided
by its platform's mean and standard deviation, then summed per artist, so that
platforms with very different scales contribute comparably.`,
		},
		{
			ID:      3,
			Name:    "anomalies",
			Title:   "Playlist Popularity by Danceability with Significant Deviations",
			Columns: anomalyColumns,
			Run:     DanceabilityAnomalies,
			Explanation: `Sorts tracks into danceability ranges, computes the mean and standard
deviation of Spotify playlist appearances within each range, and flags the
tracks whose z-score exceeds 2.5 in either direction.`,
		},
		{
			ID:      4,
			Name:    "workout",
			Title:   "High-Intensity Workout Playlist With Increasing BPM",
			Columns: workoutColumns,
			Run:     WorkoutTempo,
			Explanation: `Builds a workout playlist of upbeat, energetic, danceable studio tracks
above 130 BPM with little acousticness, speech or live feel, ordered from
the lowest to the highest tempo.`,
		},
		{
			ID:      5,
			Name:    "crossplatform",
			Title:   "Top Charting Tracks Across Platforms",
			Columns: crossPlatformColumns,
			Run:     CrossPlatformTop,
			Explanation: `Finds tracks ranked in the top 10 charts of Spotify, Apple Music and
Deezer at the same time, with their key, mode and rank on each platform.`,
		},
		{
			ID:      6,
			Name:    "energetic",
			Title:   "High-Energy, Low-Speechiness Tracks on Spotify's Top 20",
			Columns: energeticColumns,
			Run:     EnergeticSpotifyTop,
			Explanation: `Lists tracks in Spotify's top 20 chart with energy above 70% and
speechiness below 10%, most energetic first.`,
		},
		{
			ID:      7,
			Name:    "uplifting",
			Title:   "Uplifting and Danceable Tracks in Spotify's Top 25",
			Columns: upliftingColumns,
			Run:     UpliftingSpotifyTop,
			Explanation: `Lists tracks in Spotify's top 25 chart whose danceability and valence
both exceed 80%, most danceable first.`,
		},
	}
}

// Lookup finds a query by id or name
func Lookup(ref string) (Query, error) {
	ref = strings.TrimSpace(strings.ToLower(ref))
	for _, q := range Queries() {
		if ref == q.Name || ref == fmt.Sprint(q.ID) {
			return q, nil
		}
	}
	return Query{}, fmt.Errorf("%w: no query %q (want 1-7 or a query name)", util.ErrNotFound, ref)
}

func newTable(id int, title string, columns []string) *Table {
	return &Table{
		ID:      id,
		Title:   title,
		Columns: columns,
		Rows:    make([][]any, 0),
	}
}
