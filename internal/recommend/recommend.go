package recommend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/analytics"
	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

const (
	// Limit is the playlist length
	Limit = 5
	// MinMatches is the fewest matches served before falling back
	MinMatches = 3
)

// Columns of a recommendation result
var Columns = []string{"Track Name", "Artist(s)"}

// Result is a playlist. Fallback is set when too few tracks matched the
// preferences and the most streamed tracks were returned instead.
type Result struct {
	Table    *analytics.Table
	Filter   Filter
	Matched  int
	Fallback bool
}

// Recommend builds a playlist matching the preferences
func Recommend(ctx context.Context, s *store.Store, p Preferences) (*Result, error) {
	filter := Predicates(p)

	matched, err := queryTracks(ctx, s, filterQuery(s, filter))
	if err != nil {
		return nil, fmt.Errorf("recommendation query failed: %w", err)
	}

	result := &Result{
		Table:   newTable(),
		Filter:  filter,
		Matched: len(matched.rows),
	}

	if len(matched.rows) >= MinMatches {
		result.Table.Rows = matched.rows
		return result, nil
	}

	util.DebugLog("Only %d tracks match %v, falling back to most streamed", len(matched.rows), p.Fields())
	popular, err := queryTracks(ctx, s, fallbackQuery(s))
	if err != nil {
		return nil, fmt.Errorf("fallback query failed: %w", err)
	}
	result.Table.Rows = popular.rows
	result.Fallback = true
	return result, nil
}

type boundQuery struct {
	sql  string
	args []any
}

type trackRows struct {
	rows [][]any
}

func filterQuery(s *store.Store, f Filter) boundQuery {
	var where []string
	var args []any

	for _, th := range f.Thresholds {
		where = append(where, fmt.Sprintf("ma.%s %s ?", th.Attribute, th.Op.SQL()))
		args = append(args, th.Value)
	}
	where = append(where, "ma.instrumentalness BETWEEN ? AND ?", "ma.mode = ?")
	args = append(args, f.Instrumentalness.Min, f.Instrumentalness.Max, f.Mode)

	order := "ASC"
	if f.SpeechinessDesc {
		order = "DESC"
	}

	query := `
SELECT t.track_name, ` + s.ArtistList("t.track_id") + `
FROM Track t
JOIN TrackMusicalAttributes tma ON tma.track_id = t.track_id
JOIN MusicalAttributes ma ON ma.music_id = tma.music_id
WHERE ` + strings.Join(where, "\n\tAND ") + `
ORDER BY ma.speechiness ` + order + `, t.track_name ASC
LIMIT ?`

	return boundQuery{sql: query, args: append(args, Limit)}
}

func fallbackQuery(s *store.Store) boundQuery {
	query := `
SELECT t.track_name, ` + s.ArtistList("t.track_id") + `
FROM Track t
JOIN StreamingMetric sm ON sm.track_id = t.track_id AND sm.metric_type = 'streams'
JOIN Platform p ON p.platform_id = sm.platform_id AND p.platform_name = ?
ORDER BY sm.metric_value DESC, t.track_name ASC
LIMIT ?`

	return boundQuery{sql: query, args: []any{string(dataset.Spotify), Limit}}
}

func queryTracks(ctx context.Context, s *store.Store, q boundQuery) (*trackRows, error) {
	rows, err := s.DB().QueryContext(ctx, q.sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &trackRows{}
	for rows.Next() {
		var name string
		var artists sql.NullString
		if err := rows.Scan(&name, &artists); err != nil {
			return nil, err
		}
		out.rows = append(out.rows, []any{name, artists.String})
	}
	return out, rows.Err()
}

func newTable() *analytics.Table {
	return &analytics.Table{
		ID:      8,
		Title:   "Dynamic Music Playlist Generator",
		Columns: Columns,
		Rows:    make([][]any, 0),
	}
}
