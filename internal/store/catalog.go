package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TrackKey is the natural key of a track
type TrackKey struct {
	Name  string
	Year  *int64
	Month *int64
	Day   *int64
}

// Attributes is a MusicalAttributes row; nil fields are stored as NULL
type Attributes struct {
	BPM              *float64
	Key              *string
	Mode             *string
	Danceability     *float64
	Valence          *float64
	Energy           *float64
	Acousticness     *float64
	Instrumentalness *float64
	Liveness         *float64
	Speechiness      *float64
}

// Counts holds the row count of every catalog table
type Counts struct {
	Platforms       int64
	Artists         int64
	Tracks          int64
	Attributes      int64
	TrackAttributes int64
	TrackArtists    int64
	Metrics         int64
}

// Writer inserts catalog rows inside one transaction
type Writer struct {
	tx    *sql.Tx
	stmts map[string]*sql.Stmt
}

// NewWriter prepares the catalog statements on tx
func (s *Store) NewWriter(ctx context.Context, tx *sql.Tx) (*Writer, error) {
	ig := s.dialect.insertIgnore
	eq := s.dialect.nullSafeEq
	queries := map[string]string{
		"platform":    ig + " INTO Platform (platform_name) VALUES (?)",
		"artist":      ig + " INTO Artist (artist_name) VALUES (?)",
		"artistID":    "SELECT artist_id FROM Artist WHERE artist_name = ?",
		"findTrack":   "SELECT track_id FROM Track WHERE track_name = ? AND release_year " + eq + " ? AND release_month " + eq + " ? AND release_day " + eq + " ?",
		"insertTrack": "INSERT INTO Track (track_name, release_year, release_month, release_day) VALUES (?, ?, ?, ?)",
		"attributes": `INSERT INTO MusicalAttributes (
			bpm, key_signature, mode, danceability, valence, energy,
			acousticness, instrumentalness, liveness, speechiness
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"linkAttributes": ig + " INTO TrackMusicalAttributes (track_id, music_id) VALUES (?, ?)",
		"linkArtist":     ig + " INTO TrackArtist (track_id, artist_id) VALUES (?, ?)",
		"metric":         ig + " INTO StreamingMetric (platform_id, track_id, metric_type, metric_value) VALUES (?, ?, ?, ?)",
	}

	w := &Writer{tx: tx, stmts: make(map[string]*sql.Stmt, len(queries))}
	for name, query := range queries {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to prepare %s statement: %w", name, err)
		}
		w.stmts[name] = stmt
	}
	return w, nil
}

// Close releases the prepared statements
func (w *Writer) Close() {
	for _, stmt := range w.stmts {
		stmt.Close()
	}
}

// SeedPlatform inserts a platform, ignoring an existing name
func (w *Writer) SeedPlatform(ctx context.Context, name string) (bool, error) {
	res, err := w.stmts["platform"].ExecContext(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to insert platform %s: %w", name, err)
	}
	return affected(res), nil
}

// PlatformIDs returns platform ids keyed by name
func (w *Writer) PlatformIDs(ctx context.Context) (map[string]int64, error) {
	return w.nameIndex(ctx, "SELECT platform_id, platform_name FROM Platform")
}

// InsertArtist inserts an artist, ignoring an existing name
func (w *Writer) InsertArtist(ctx context.Context, name string) (bool, error) {
	res, err := w.stmts["artist"].ExecContext(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to insert artist %q: %w", name, err)
	}
	return affected(res), nil
}

// ArtistIDs returns artist ids keyed by exact name
func (w *Writer) ArtistIDs(ctx context.Context) (map[string]int64, error) {
	return w.nameIndex(ctx, "SELECT artist_id, artist_name FROM Artist")
}

// LookupArtist finds an artist id using the store's collation.
// ok is false when no artist matches.
func (w *Writer) LookupArtist(ctx context.Context, name string) (id int64, ok bool, err error) {
	err = w.stmts["artistID"].QueryRowContext(ctx, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up artist %q: %w", name, err)
	}
	return id, true, nil
}

// UpsertTrack returns the id of the track with the given natural key,
// inserting it first when absent. created is false for an existing track.
func (w *Writer) UpsertTrack(ctx context.Context, key TrackKey) (id int64, created bool, err error) {
	year, month, day := nullInt(key.Year), nullInt(key.Month), nullInt(key.Day)

	err = w.stmts["findTrack"].QueryRowContext(ctx, key.Name, year, month, day).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("failed to look up track %q: %w", key.Name, err)
	}

	res, err := w.stmts["insertTrack"].ExecContext(ctx, key.Name, year, month, day)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert track %q: %w", key.Name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read track id: %w", err)
	}
	return id, true, nil
}

// InsertAttributes inserts a MusicalAttributes row and returns its id
func (w *Writer) InsertAttributes(ctx context.Context, a Attributes) (int64, error) {
	res, err := w.stmts["attributes"].ExecContext(ctx,
		nullFloat(a.BPM), nullString(a.Key), nullString(a.Mode),
		nullFloat(a.Danceability), nullFloat(a.Valence), nullFloat(a.Energy),
		nullFloat(a.Acousticness), nullFloat(a.Instrumentalness),
		nullFloat(a.Liveness), nullFloat(a.Speechiness),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert musical attributes: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read music id: %w", err)
	}
	return id, nil
}

// LinkAttributes links a track to its attributes row
func (w *Writer) LinkAttributes(ctx context.Context, trackID, musicID int64) error {
	if _, err := w.stmts["linkAttributes"].ExecContext(ctx, trackID, musicID); err != nil {
		return fmt.Errorf("failed to link attributes %d to track %d: %w", musicID, trackID, err)
	}
	return nil
}

// LinkArtist credits an artist on a track, ignoring an existing link
func (w *Writer) LinkArtist(ctx context.Context, trackID, artistID int64) (bool, error) {
	res, err := w.stmts["linkArtist"].ExecContext(ctx, trackID, artistID)
	if err != nil {
		return false, fmt.Errorf("failed to link artist %d to track %d: %w", artistID, trackID, err)
	}
	return affected(res), nil
}

// InsertMetric inserts a StreamingMetric row, ignoring an existing composite key
func (w *Writer) InsertMetric(ctx context.Context, platformID, trackID int64, kind string, value int64) (bool, error) {
	res, err := w.stmts["metric"].ExecContext(ctx, platformID, trackID, kind, value)
	if err != nil {
		return false, fmt.Errorf("failed to insert %s metric for track %d: %w", kind, trackID, err)
	}
	return affected(res), nil
}

func (w *Writer) nameIndex(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := w.tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// Counts returns the number of rows in every catalog table
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	c := &Counts{}
	targets := []struct {
		table string
		dest  *int64
	}{
		{"Platform", &c.Platforms},
		{"Artist", &c.Artists},
		{"Track", &c.Tracks},
		{"MusicalAttributes", &c.Attributes},
		{"TrackMusicalAttributes", &c.TrackAttributes},
		{"TrackArtist", &c.TrackArtists},
		{"StreamingMetric", &c.Metrics},
	}

	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dest); err != nil {
			return nil, classify(fmt.Errorf("failed to count %s: %w", t.table, err))
		}
	}
	return c, nil
}

func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
