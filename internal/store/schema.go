package store

import (
	"context"
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// Tables lists the catalog tables in creation order (parents first)
var Tables = []string{
	"Platform",
	"Artist",
	"Track",
	"MusicalAttributes",
	"TrackMusicalAttributes",
	"TrackArtist",
	"StreamingMetric",
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS Platform (
  platform_id INTEGER PRIMARY KEY AUTOINCREMENT,
  platform_name VARCHAR(50) NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS Artist (
  artist_id INTEGER PRIMARY KEY AUTOINCREMENT,
  artist_name VARCHAR(255) NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS Track (
  track_id INTEGER PRIMARY KEY AUTOINCREMENT,
  track_name VARCHAR(255) NOT NULL,
  release_year INTEGER,
  release_month INTEGER,
  release_day INTEGER
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_track_natural_key
  ON Track(track_name, release_year, release_month, release_day)`,
	`CREATE TABLE IF NOT EXISTS MusicalAttributes (
  music_id INTEGER PRIMARY KEY AUTOINCREMENT,
  bpm REAL,
  key_signature VARCHAR(10),
  mode VARCHAR(10),
  danceability REAL,
  valence REAL,
  energy REAL,
  acousticness REAL,
  instrumentalness REAL,
  liveness REAL,
  speechiness REAL
)`,
	`CREATE TABLE IF NOT EXISTS TrackMusicalAttributes (
  track_id INTEGER NOT NULL REFERENCES Track(track_id),
  music_id INTEGER NOT NULL REFERENCES MusicalAttributes(music_id),
  PRIMARY KEY (track_id, music_id)
)`,
	`CREATE TABLE IF NOT EXISTS TrackArtist (
  track_id INTEGER NOT NULL REFERENCES Track(track_id),
  artist_id INTEGER NOT NULL REFERENCES Artist(artist_id),
  PRIMARY KEY (track_id, artist_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_track_artist_artist ON TrackArtist(artist_id)`,
	`CREATE TABLE IF NOT EXISTS StreamingMetric (
  platform_id INTEGER NOT NULL REFERENCES Platform(platform_id),
  track_id INTEGER NOT NULL REFERENCES Track(track_id),
  metric_type TEXT NOT NULL CHECK (metric_type IN ('in_playlists', 'in_charts', 'streams')),
  metric_value BIGINT,
  PRIMARY KEY (platform_id, track_id, metric_type)
)`,
	`CREATE INDEX IF NOT EXISTS idx_streaming_metric_track ON StreamingMetric(track_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
  version INT PRIMARY KEY,
  applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS Platform (
  platform_id INT AUTO_INCREMENT PRIMARY KEY,
  platform_name VARCHAR(50) NOT NULL UNIQUE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS Artist (
  artist_id INT AUTO_INCREMENT PRIMARY KEY,
  artist_name VARCHAR(255) NOT NULL UNIQUE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS Track (
  track_id INT AUTO_INCREMENT PRIMARY KEY,
  track_name VARCHAR(255) NOT NULL,
  release_year INT,
  release_month INT,
  release_day INT,
  UNIQUE KEY ux_track_natural_key (track_name, release_year, release_month, release_day)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS MusicalAttributes (
  music_id INT AUTO_INCREMENT PRIMARY KEY,
  bpm FLOAT,
  key_signature VARCHAR(10),
  mode VARCHAR(10),
  danceability FLOAT,
  valence FLOAT,
  energy FLOAT,
  acousticness FLOAT,
  instrumentalness FLOAT,
  liveness FLOAT,
  speechiness FLOAT
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS TrackMusicalAttributes (
  track_id INT NOT NULL,
  music_id INT NOT NULL,
  PRIMARY KEY (track_id, music_id),
  FOREIGN KEY (track_id) REFERENCES Track(track_id),
  FOREIGN KEY (music_id) REFERENCES MusicalAttributes(music_id)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS TrackArtist (
  track_id INT NOT NULL,
  artist_id INT NOT NULL,
  PRIMARY KEY (track_id, artist_id),
  FOREIGN KEY (track_id) REFERENCES Track(track_id),
  FOREIGN KEY (artist_id) REFERENCES Artist(artist_id)
) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS StreamingMetric (
  platform_id INT NOT NULL,
  track_id INT NOT NULL,
  metric_type ENUM('in_playlists', 'in_charts', 'streams') NOT NULL,
  metric_value BIGINT,
  PRIMARY KEY (platform_id, track_id, metric_type),
  KEY idx_streaming_metric_track (track_id),
  FOREIGN KEY (platform_id) REFERENCES Platform(platform_id),
  FOREIGN KEY (track_id) REFERENCES Track(track_id)
) ENGINE=InnoDB`,
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureSchema creates every catalog table that is missing.
//
// On SQLite the whole creation is one transaction. MySQL commits DDL
// implicitly, so each statement is idempotent and the version row is
// written last: a half-created schema is never reported ready and is
// completed by calling EnsureSchema again.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ready, err := s.SchemaReady(ctx)
	if err != nil {
		return err
	}
	if ready {
		return nil
	}

	if s.dialect.transactionalDDL {
		return s.Transaction(ctx, func(tx *sql.Tx) error {
			return s.applySchema(ctx, tx)
		})
	}
	return classify(s.applySchema(ctx, s.db))
}

func (s *Store) applySchema(ctx context.Context, ex execer) error {
	for _, stmt := range s.dialect.schema {
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	_, err := ex.ExecContext(ctx,
		s.dialect.insertIgnore+" INTO schema_version (version) VALUES (?)", currentSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// ResetSchema drops the catalog and recreates it empty
func (s *Store) ResetSchema(ctx context.Context) error {
	if s.dialect.transactionalDDL {
		return s.Transaction(ctx, func(tx *sql.Tx) error {
			for i := len(Tables) - 1; i >= 0; i-- {
				if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+Tables[i]); err != nil {
					return fmt.Errorf("failed to drop %s: %w", Tables[i], err)
				}
			}
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS schema_version"); err != nil {
				return fmt.Errorf("failed to drop schema_version: %w", err)
			}
			return s.applySchema(ctx, tx)
		})
	}

	name := quoteIdent(s.cfg.Database)
	for _, stmt := range []string{
		"DROP DATABASE IF EXISTS " + name,
		"CREATE DATABASE " + name,
		"USE " + name,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify(fmt.Errorf("reset failed at %q: %w", stmt, err))
		}
	}
	return s.EnsureSchema(ctx)
}

// SchemaReady reports whether every catalog table exists and the schema
// version has been recorded
func (s *Store) SchemaReady(ctx context.Context) (bool, error) {
	version, err := s.getSchemaVersion(ctx)
	if err != nil {
		return false, err
	}
	if version < currentSchemaVersion {
		return false, nil
	}

	for _, table := range Tables {
		ok, err := s.tableExists(ctx, table)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExists, table).Scan(&count); err != nil {
		return false, classify(fmt.Errorf("failed to look up table %s: %w", table, err))
	}
	return count > 0, nil
}

// getSchemaVersion returns the current schema version (0 when absent)
func (s *Store) getSchemaVersion(ctx context.Context) (int, error) {
	exists, err := s.tableExists(ctx, "schema_version")
	if err != nil || !exists {
		return 0, err
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, classify(err)
	}
	return version, nil
}
