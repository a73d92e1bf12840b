package store

import (
	"context"
	"database/sql"
	"fmt"
)

// dialect captures the SQL differences between the supported engines
type dialect struct {
	name string

	open func(ctx context.Context, cfg Config) (*sql.DB, error)

	// schema is the ordered DDL creating every table
	schema []string

	// transactionalDDL is true when CREATE/DROP TABLE can be rolled back
	transactionalDDL bool

	insertIgnore string
	nullSafeEq   string
	versionQuery string
	tableExists  string

	artistListFmt string
}

func (d *dialect) artistList(trackIDExpr string) string {
	return fmt.Sprintf(d.artistListFmt, trackIDExpr)
}

var sqliteDialect = &dialect{
	name:             DriverSQLite,
	open:             openSQLite,
	schema:           sqliteSchema,
	transactionalDDL: true,
	insertIgnore:     "INSERT OR IGNORE",
	nullSafeEq:       "IS",
	versionQuery:     "SELECT sqlite_version()",
	tableExists:      "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	artistListFmt: `(SELECT group_concat(a.artist_name, ', ' ORDER BY a.artist_name)
		FROM TrackArtist ta JOIN Artist a ON a.artist_id = ta.artist_id
		WHERE ta.track_id = %s)`,
}

var mysqlDialect = &dialect{
	name:             DriverMySQL,
	open:             openMySQL,
	schema:           mysqlSchema,
	transactionalDDL: false,
	insertIgnore:     "INSERT IGNORE",
	nullSafeEq:       "<=>",
	versionQuery:     "SELECT VERSION()",
	tableExists:      "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
	artistListFmt: `(SELECT GROUP_CONCAT(a.artist_name ORDER BY a.artist_name SEPARATOR ', ')
		FROM TrackArtist ta JOIN Artist a ON a.artist_id = ta.artist_id
		WHERE ta.track_id = %s)`,
}

func dialectFor(driver string) *dialect {
	if driver == DriverMySQL {
		return mysqlDialect
	}
	return sqliteDialect
}
