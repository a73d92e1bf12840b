package session

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/music-catalog/internal/analytics"
	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/load"
	"github.com/franz/music-catalog/internal/recommend"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/patrickmn/go-cache"
)

// State is where a session is in its lifecycle
type State int

const (
	Disconnected State = iota
	Connected
	Loaded
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Loaded:
		return "loaded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config holds session dependencies
type Config struct {
	Logger  *report.EventLogger
	Dataset dataset.Options
	// Platforms seeded on load (nil = dataset.SeedPlatforms)
	Platforms []dataset.Platform
}

// Session owns one store connection and tracks what may run on it.
// Query results are cached until the catalog changes.
type Session struct {
	state   State
	store   *store.Store
	logger  *report.EventLogger
	opts    dataset.Options
	seed    []dataset.Platform
	results *cache.Cache
}

// New creates a disconnected session
func New(cfg *Config) *Session {
	if cfg == nil {
		cfg = &Config{}
	}
	seed := cfg.Platforms
	if seed == nil {
		seed = dataset.SeedPlatforms
	}
	return &Session{
		state:   Disconnected,
		logger:  cfg.Logger,
		opts:    cfg.Dataset,
		seed:    seed,
		results: cache.New(cache.NoExpiration, 0),
	}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Store returns the open store, or nil when disconnected
func (s *Session) Store() *store.Store {
	return s.store
}

func (s *Session) transition(to State) {
	if s.state == to {
		return
	}
	util.DebugLog("Session: %s -> %s", s.state, to)
	if to != Loaded {
		s.results.Flush()
	}
	s.logger.LogSession(s.state.String(), to.String())
	s.state = to
}

func (s *Session) require(op string, allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while %s", util.ErrInvalidState, op, s.state)
}

// Connect opens the store and makes sure the schema exists.
// A schema that already holds tracks puts the session straight into Loaded.
func (s *Session) Connect(ctx context.Context, cfg store.Config) error {
	if err := s.require("connect", Disconnected); err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		s.logger.LogError(report.EventError, cfg.String(), err)
		return err
	}

	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		st.Close()
		return err
	}

	s.store = st
	if counts.Tracks > 0 {
		s.transition(Loaded)
	} else {
		s.transition(Connected)
	}
	return nil
}

// Load resets the schema and loads the dataset file at path.
// On failure the catalog is left empty and the session Connected.
func (s *Session) Load(ctx context.Context, path string) (*load.Result, error) {
	if err := s.require("load", Connected, Loaded); err != nil {
		return nil, err
	}

	ds, err := dataset.Read(path, s.opts)
	if err != nil {
		s.logger.LogError(report.EventLoad, path, err)
		return nil, err
	}

	if err := s.store.ResetSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset schema: %w", err)
	}
	s.transition(Connected)

	loader := load.New(&load.Config{Store: s.store, Logger: s.logger})
	result, err := loader.Load(ctx, ds, s.seed)
	if err != nil {
		return nil, err
	}

	s.transition(Loaded)
	return result, nil
}

// Run executes one analytical query by id or name
func (s *Session) Run(ctx context.Context, ref string) (*analytics.Table, error) {
	if err := s.require("run a query", Loaded); err != nil {
		return nil, err
	}

	q, err := analytics.Lookup(ref)
	if err != nil {
		return nil, err
	}

	if cached, found := s.results.Get(q.Name); found {
		util.DebugLog("Query %d: cached result", q.ID)
		return cached.(*analytics.Table), nil
	}

	start := time.Now()
	table, err := q.Run(ctx, s.store)
	if err != nil {
		s.logger.LogQuery(q.Name, 0, time.Since(start), err)
		return nil, fmt.Errorf("query %d (%s): %w", q.ID, q.Name, err)
	}

	s.logger.LogQuery(q.Name, table.Len(), time.Since(start), nil)
	for _, ex := range table.Excluded {
		util.DebugLog("Query %d: %s", q.ID, ex)
		s.logger.LogUndefined(q.Name, ex.Group, ex.Reason)
	}
	s.results.Set(q.Name, table, cache.NoExpiration)
	return table, nil
}

// Recommend builds a playlist for the given preferences
func (s *Session) Recommend(ctx context.Context, p recommend.Preferences) (*recommend.Result, error) {
	if err := s.require("recommend", Loaded); err != nil {
		return nil, err
	}

	result, err := recommend.Recommend(ctx, s.store, p)
	if err != nil {
		s.logger.LogError(report.EventRecommend, "", err)
		return nil, err
	}

	s.logger.LogRecommend(p.Fields(), result.Table.Len(), result.Fallback)
	return result, nil
}

// Reset drops every catalog row, leaving an empty schema
func (s *Session) Reset(ctx context.Context) error {
	if err := s.require("reset", Connected, Loaded); err != nil {
		return err
	}
	if err := s.store.ResetSchema(ctx); err != nil {
		return err
	}
	s.transition(Connected)
	return nil
}

// Close releases the store. It is safe to call in any state.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	s.transition(Disconnected)
	return err
}
