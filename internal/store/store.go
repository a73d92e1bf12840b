package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"

	"github.com/franz/music-catalog/internal/util"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // SQLite driver
)

// Supported drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// mysqlAccessDenied is the server error number for rejected credentials
const mysqlAccessDenied = 1045

var databaseNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Config describes how to reach the schema store
type Config struct {
	Driver string // "sqlite" (default) or "mysql"

	// SQLite
	Path string

	// MySQL
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// WithDefaults fills unset fields; an empty driver means SQLite
func (c Config) WithDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Driver == DriverSQLite && c.Path == "" {
		c.Path = "mca-catalog.db"
	}
	if c.Driver == DriverMySQL {
		if c.Host == "" {
			c.Host = "localhost"
		}
		if c.Port == 0 {
			c.Port = 3306
		}
		if c.User == "" {
			c.User = "root"
		}
		if c.Database == "" {
			c.Database = "spotify_db"
		}
	}
	return c
}

// Validate checks the configuration for the selected driver
func (c Config) Validate() error {
	c = c.WithDefaults()
	switch c.Driver {
	case DriverSQLite:
		return nil
	case DriverMySQL:
		if !databaseNamePattern.MatchString(c.Database) {
			return fmt.Errorf("%w: database name %q must be alphanumeric", util.ErrInvalidConfig, c.Database)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown driver %q (want %s or %s)",
			util.ErrInvalidConfig, c.Driver, DriverSQLite, DriverMySQL)
	}
}

// String describes the target without the password
func (c Config) String() string {
	c = c.WithDefaults()
	if c.Driver == DriverMySQL {
		return fmt.Sprintf("mysql://%s@%s/%s", c.User, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
	}
	return "sqlite://" + c.Path
}

// Store is an open connection to the schema store
type Store struct {
	db      *sql.DB
	dialect *dialect
	cfg     Config
}

// Open connects to the store described by cfg.
// Transient network failures are retried; a final failure or rejected
// credentials wrap util.ErrConnectivity.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	d := dialectFor(cfg.Driver)

	db, err := util.RetryWithBackoff(ctx, nil, func() (*sql.DB, error) {
		return d.open(ctx, cfg)
	}, "connect "+cfg.String())
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlAccessDenied {
			return nil, fmt.Errorf("%w: credentials rejected for %s", util.ErrConnectivity, cfg)
		}
		return nil, fmt.Errorf("%w: %s: %v", util.ErrConnectivity, cfg, err)
	}

	// One session owns the store; a single connection also keeps
	// MySQL's USE and SQLite's pragmas bound to it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &Store{db: db, dialect: d, cfg: cfg}, nil
}

func openSQLite(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func mysqlConfig(cfg Config, withDatabase bool) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	if withDatabase {
		mc.DBName = cfg.Database
	}
	return mc
}

func openMySQL(ctx context.Context, cfg Config) (*sql.DB, error) {
	// The database may not exist yet, so connect to the server first
	bootstrap, err := mysql.NewConnector(mysqlConfig(cfg, false))
	if err != nil {
		return nil, err
	}
	server := sql.OpenDB(bootstrap)
	defer server.Close()

	if _, err := server.ExecContext(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(cfg.Database)); err != nil {
		return nil, err
	}

	connector, err := mysql.NewConnector(mysqlConfig(cfg, true))
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the driver name in use
func (s *Store) Driver() string {
	return s.dialect.name
}

// Config returns the configuration the store was opened with
func (s *Store) Config() Config {
	return s.cfg
}

// ArtistList returns a scalar SQL expression listing the artists credited
// on the track whose id is trackIDExpr, alphabetically, comma separated.
func (s *Store) ArtistList(trackIDExpr string) string {
	return s.dialect.artistList(trackIDExpr)
}

// ServerVersion returns the engine version string
func (s *Store) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.db.QueryRowContext(ctx, s.dialect.versionQuery).Scan(&version); err != nil {
		return "", fmt.Errorf("version query failed: %w", err)
	}
	return version, nil
}

// CheckIntegrity verifies the store is healthy
func (s *Store) CheckIntegrity(ctx context.Context) error {
	if s.dialect.name != DriverSQLite {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %v", util.ErrConnectivity, err)
		}
		return nil
	}

	var result string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Transaction executes a function within a transaction.
// Any error rolls the whole transaction back; store connectivity
// failures are reported as util.ErrConnectivity.
func (s *Store) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// classify marks connectivity failures with util.ErrConnectivity
func classify(err error) error {
	if err == nil || errors.Is(err, util.ErrConnectivity) {
		return err
	}
	if util.IsConnectivityError(err) {
		return fmt.Errorf("%w: %w", util.ErrConnectivity, err)
	}
	return err
}

func quoteIdent(name string) string {
	return "`" + name + "`"
}
