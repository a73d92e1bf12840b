package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/store"
)

var (
	seasonalColumns = []string{
		"Season", "Avg BPM", "Major Key %", "Minor Key %",
		"Avg Valence", "Avg Energy", "Avg Danceability",
		"Avg Acousticness", "Avg Liveness", "Avg Speechiness",
	}
	workoutColumns       = []string{"Track Name", "Artist(s)", "BPM"}
	crossPlatformColumns = []string{"Track Name", "Artist(s)", "Key", "Mode", "Spotify Rank", "Apple Music Rank", "Deezer Rank"}
	energeticColumns     = []string{"Track Name", "Artist(s)", "Energy", "Speechiness", "Spotify Chart Rank"}
	upliftingColumns     = []string{"Track", "Artist(s)", "Danceability %", "Valence %", "Spotify Rank"}
)

// attributeJoin links a track t to its attributes ma
const attributeJoin = `
	JOIN TrackMusicalAttributes tma ON tma.track_id = t.track_id
	JOIN MusicalAttributes ma ON ma.music_id = tma.music_id`

// chartJoin joins the in_charts rank of the platform named by the next
// query argument under alias sm
func chartJoin(alias string) string {
	return fmt.Sprintf(`
	JOIN StreamingMetric %[1]s ON %[1]s.track_id = t.track_id AND %[1]s.metric_type = 'in_charts'
	JOIN Platform %[1]s_p ON %[1]s_p.platform_id = %[1]s.platform_id AND %[1]s_p.platform_name = ?`, alias)
}

// Seasonal compares musical attributes by season of release
func Seasonal(ctx context.Context, s *store.Store) (*Table, error) {
	query := `
SELECT season,
	AVG(bpm),
	100.0 * SUM(CASE WHEN mode = 'Major' THEN 1 ELSE 0 END) / COUNT(*),
	100.0 * SUM(CASE WHEN mode = 'Minor' THEN 1 ELSE 0 END) / COUNT(*),
	AVG(valence), AVG(energy), AVG(danceability),
	AVG(acousticness), AVG(liveness), AVG(speechiness)
FROM (
	SELECT
		CASE
			WHEN t.release_month IN (12, 1, 2) THEN 'Winter'
			WHEN t.release_month IN (3, 4, 5) THEN 'Spring'
			WHEN t.release_month IN (6, 7, 8) THEN 'Summer'
			ELSE 'Fall'
		END AS season,
		CASE
			WHEN t.release_month IN (12, 1, 2) THEN 1
			WHEN t.release_month IN (3, 4, 5) THEN 2
			WHEN t.release_month IN (6, 7, 8) THEN 3
			ELSE 4
		END AS season_order,
		ma.bpm, ma.mode, ma.valence, ma.energy, ma.danceability,
		ma.acousticness, ma.liveness, ma.speechiness
	FROM Track t` + attributeJoin + `
	WHERE t.release_month BETWEEN 1 AND 12
) seasons
GROUP BY season, season_order
ORDER BY season_order`

	rows, err := s.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("seasonal query failed: %w", err)
	}
	defer rows.Close()

	table := newTable(1, "Comparison of Track Analytics by Season of Release", seasonalColumns)
	for rows.Next() {
		var season string
		var bpm, major, minor, valence, energy, dance, acoustic, live, speech sql.NullFloat64
		if err := rows.Scan(&season, &bpm, &major, &minor, &valence, &energy, &dance, &acoustic, &live, &speech); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		table.Rows = append(table.Rows, []any{
			season,
			nullableFloat(bpm, 4),
			nullableFloat(major, 0),
			nullableFloat(minor, 0),
			nullableFloat(valence, 0),
			nullableFloat(energy, 0),
			nullableFloat(dance, 0),
			nullableFloat(acoustic, 0),
			nullableFloat(live, 0),
			nullableFloat(speech, 0),
		})
	}
	return table, rows.Err()
}

// WorkoutTempo lists upbeat studio tracks above 130 BPM, slowest first
func WorkoutTempo(ctx context.Context, s *store.Store) (*Table, error) {
	query := `
SELECT t.track_name, ` + s.ArtistList("t.track_id") + `, ma.bpm
FROM Track t` + attributeJoin + `
WHERE ma.valence > 50
	AND ma.bpm > 130
	AND ma.energy > 70
	AND ma.danceability > 60
	AND ma.acousticness < 30
	AND ma.speechiness < 33
	AND ma.liveness < 50
ORDER BY ma.bpm ASC, ma.valence DESC, ma.energy DESC, ma.danceability ASC, t.track_name ASC
LIMIT 40`

	rows, err := s.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("workout query failed: %w", err)
	}
	defer rows.Close()

	table := newTable(4, "High-Intensity Workout Playlist With Increasing BPM", workoutColumns)
	for rows.Next() {
		var name string
		var artists sql.NullString
		var bpm float64
		if err := rows.Scan(&name, &artists, &bpm); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		table.Rows = append(table.Rows, []any{name, artistsOrEmpty(artists), bpm})
	}
	return table, rows.Err()
}

// CrossPlatformTop lists tracks in the top 10 of Spotify, Apple and Deezer
func CrossPlatformTop(ctx context.Context, s *store.Store) (*Table, error) {
	query := `
SELECT t.track_name, ` + s.ArtistList("t.track_id") + `, ma.key_signature, ma.mode,
	sp.metric_value, ap.metric_value, dz.metric_value
FROM Track t` + attributeJoin + chartJoin("sp") + chartJoin("ap") + chartJoin("dz") + `
WHERE sp.metric_value BETWEEN 1 AND 10
	AND ap.metric_value BETWEEN 1 AND 10
	AND dz.metric_value BETWEEN 1 AND 10
ORDER BY sp.metric_value, ap.metric_value, dz.metric_value, t.track_name`

	rows, err := s.DB().QueryContext(ctx, query,
		string(dataset.Spotify), string(dataset.Apple), string(dataset.Deezer))
	if err != nil {
		return nil, fmt.Errorf("cross-platform query failed: %w", err)
	}
	defer rows.Close()

	table := newTable(5, "Top Charting Tracks Across Platforms", crossPlatformColumns)
	for rows.Next() {
		var name string
		var artists, key, mode sql.NullString
		var spotify, apple, deezer int64
		if err := rows.Scan(&name, &artists, &key, &mode, &spotify, &apple, &deezer); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		table.Rows = append(table.Rows, []any{
			name, artistsOrEmpty(artists), nullableString(key), nullableString(mode),
			spotify, apple, deezer,
		})
	}
	return table, rows.Err()
}

// EnergeticSpotifyTop lists high-energy, low-speech tracks in Spotify's top 20
func EnergeticSpotifyTop(ctx context.Context, s *store.Store) (*Table, error) {
	query := `
SELECT t.track_name, ` + s.ArtistList("t.track_id") + `, ma.energy, ma.speechiness, sp.metric_value
FROM Track t` + attributeJoin + chartJoin("sp") + `
WHERE ma.energy > 70
	AND ma.speechiness < 10
	AND sp.metric_value BETWEEN 1 AND 20
ORDER BY ma.energy DESC, sp.metric_value ASC, t.track_name ASC
LIMIT 10`

	rows, err := s.DB().QueryContext(ctx, query, string(dataset.Spotify))
	if err != nil {
		return nil, fmt.Errorf("energetic query failed: %w", err)
	}
	defer rows.Close()

	table := newTable(6, "High-Energy, Low-Speechiness Tracks on Spotify's Top 20", energeticColumns)
	for rows.Next() {
		var name string
		var artists sql.NullString
		var energy, speech float64
		var rank int64
		if err := rows.Scan(&name, &artists, &energy, &speech, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		table.Rows = append(table.Rows, []any{name, artistsOrEmpty(artists), energy, speech, rank})
	}
	return table, rows.Err()
}

// UpliftingSpotifyTop lists very danceable, happy tracks in Spotify's top 25
func UpliftingSpotifyTop(ctx context.Context, s *store.Store) (*Table, error) {
	query := `
SELECT t.track_name, ` + s.ArtistList("t.track_id") + `, ma.danceability, ma.valence, sp.metric_value
FROM Track t` + attributeJoin + chartJoin("sp") + `
WHERE ma.danceability > 80
	AND ma.valence > 80
	AND sp.metric_value BETWEEN 1 AND 25
ORDER BY ma.danceability DESC, ma.valence DESC, sp.metric_value ASC, t.track_name ASC
LIMIT 10`

	rows, err := s.DB().QueryContext(ctx, query, string(dataset.Spotify))
	if err != nil {
		return nil, fmt.Errorf("uplifting query failed: %w", err)
	}
	defer rows.Close()

	table := newTable(7, "Uplifting and Danceable Tracks in Spotify's Top 25", upliftingColumns)
	for rows.Next() {
		var name string
		var artists sql.NullString
		var dance, valence float64
		var rank int64
		if err := rows.Scan(&name, &artists, &dance, &valence, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		table.Rows = append(table.Rows, []any{name, artistsOrEmpty(artists), dance, valence, rank})
	}
	return table, rows.Err()
}
