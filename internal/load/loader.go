package load

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

// progressEvery is how often (in rows) progress is logged without a TTY
const progressEvery = 250

// Config holds loader dependencies
type Config struct {
	Store  *store.Store
	Logger *report.EventLogger
}

// Loader normalizes a parsed dataset into the catalog schema
type Loader struct {
	store  *store.Store
	logger *report.EventLogger
}

// Result summarizes one load
type Result struct {
	RunID    string
	Rows     int
	Duration time.Duration

	PlatformsSeeded    int
	ArtistsInserted    int
	TracksInserted     int
	TracksReused       int
	AttributeRows      int
	ArtistLinks        int
	ArtistLinksSkipped int
	MetricsInserted    int
	MetricsSkipped     int

	Warnings []dataset.CoercionWarning
}

// New creates a loader
func New(cfg *Config) *Loader {
	return &Loader{
		store:  cfg.Store,
		logger: cfg.Logger,
	}
}

// Load writes the dataset into the schema in one transaction: either every
// row is committed or, on any error, nothing is.
func (l *Loader) Load(ctx context.Context, ds *dataset.Dataset, platforms []dataset.Platform) (*Result, error) {
	result := &Result{
		RunID:    uuid.NewString(),
		Rows:     len(ds.Records),
		Warnings: ds.Warnings,
	}
	start := time.Now()

	l.logger.LogLoadStart(result.RunID, ds.Path, ds.Encoding, len(ds.Records))
	for _, w := range ds.Warnings {
		util.DebugLog("Coercion: %s", w)
		l.logger.LogCoercion(result.RunID, w.Line, w.Column, w.Value, w.Applied.String())
	}

	err := l.store.Transaction(ctx, func(tx *sql.Tx) error {
		w, err := l.store.NewWriter(ctx, tx)
		if err != nil {
			return err
		}
		defer w.Close()

		run := &loadRun{ctx: ctx, w: w, result: result, logger: l.logger}

		if err := run.seedPlatforms(platforms); err != nil {
			return err
		}
		if err := run.insertArtists(ds.ArtistNames()); err != nil {
			return err
		}
		return run.insertRecords(ds.Records, platforms)
	})

	result.Duration = time.Since(start)

	if err != nil {
		l.logger.LogLoadDone(result.RunID, result.Duration, err)
		return nil, fmt.Errorf("load rolled back: %w", err)
	}

	l.logger.LogLoadDone(result.RunID, result.Duration, nil)
	return result, nil
}

// loadRun carries the state of one transaction
type loadRun struct {
	ctx    context.Context
	w      *store.Writer
	result *Result
	logger *report.EventLogger

	platformIDs map[string]int64
	artistIDs   map[string]int64
}

func (r *loadRun) seedPlatforms(platforms []dataset.Platform) error {
	for _, p := range platforms {
		inserted, err := r.w.SeedPlatform(r.ctx, string(p))
		if err != nil {
			return err
		}
		if inserted {
			r.result.PlatformsSeeded++
		}
	}

	ids, err := r.w.PlatformIDs(r.ctx)
	if err != nil {
		return err
	}
	r.platformIDs = ids
	return nil
}

func (r *loadRun) insertArtists(names []string) error {
	for _, name := range names {
		inserted, err := r.w.InsertArtist(r.ctx, name)
		if err != nil {
			return err
		}
		if inserted {
			r.result.ArtistsInserted++
		}
	}

	ids, err := r.w.ArtistIDs(r.ctx)
	if err != nil {
		return err
	}
	r.artistIDs = ids
	return nil
}

func (r *loadRun) insertRecords(records []dataset.Record, platforms []dataset.Platform) error {
	bar := newProgressBar(len(records))

	for i := range records {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if err := r.insertRecord(&records[i], platforms); err != nil {
			return fmt.Errorf("line %d: %w", records[i].Line, err)
		}

		if bar != nil {
			bar.Add(1)
		} else if (i+1)%progressEvery == 0 {
			util.InfoLog("Progress: %s/%s rows", util.FormatCount(int64(i+1)), util.FormatCount(int64(len(records))))
		}
	}

	if bar != nil {
		bar.Finish()
	}
	return nil
}

func (r *loadRun) insertRecord(rec *dataset.Record, platforms []dataset.Platform) error {
	trackID, created, err := r.w.UpsertTrack(r.ctx, store.TrackKey{
		Name:  rec.TrackName,
		Year:  rec.ReleaseYear,
		Month: rec.ReleaseMonth,
		Day:   rec.ReleaseDay,
	})
	if err != nil {
		return err
	}

	if created {
		r.result.TracksInserted++

		musicID, err := r.w.InsertAttributes(r.ctx, storeAttributes(rec.Attributes))
		if err != nil {
			return err
		}
		if err := r.w.LinkAttributes(r.ctx, trackID, musicID); err != nil {
			return err
		}
		r.result.AttributeRows++
	} else {
		r.result.TracksReused++
		util.DebugLog("Track %q (line %d) already loaded, keeping its attributes", rec.TrackName, rec.Line)
	}

	if err := r.linkArtists(rec, trackID); err != nil {
		return err
	}
	return r.insertMetrics(rec, trackID, platforms)
}

func (r *loadRun) linkArtists(rec *dataset.Record, trackID int64) error {
	for _, name := range rec.Artists() {
		artistID, ok := r.artistIDs[name]
		if !ok {
			// Case-insensitive collations can fold two spellings into one row
			id, found, err := r.w.LookupArtist(r.ctx, name)
			if err != nil {
				return err
			}
			if !found {
				r.result.ArtistLinksSkipped++
				util.DebugLog("Artist %q not found, skipping link (line %d)", name, rec.Line)
				r.logger.LogLinkSkipped(r.result.RunID, rec.Line, rec.TrackName, name)
				continue
			}
			artistID = id
		}

		linked, err := r.w.LinkArtist(r.ctx, trackID, artistID)
		if err != nil {
			return err
		}
		if linked {
			r.result.ArtistLinks++
		}
	}
	return nil
}

func (r *loadRun) insertMetrics(rec *dataset.Record, trackID int64, platforms []dataset.Platform) error {
	for _, p := range platforms {
		platformID, ok := r.platformIDs[string(p)]
		if !ok {
			return fmt.Errorf("platform %s was not seeded", p)
		}

		for _, m := range rec.Metrics {
			if m.Platform != p || !dataset.Supports(p, m.Kind) {
				continue
			}
			inserted, err := r.w.InsertMetric(r.ctx, platformID, trackID, string(m.Kind), m.Value)
			if err != nil {
				return err
			}
			if inserted {
				r.result.MetricsInserted++
			} else {
				r.result.MetricsSkipped++
			}
		}
	}
	return nil
}

func storeAttributes(a dataset.Attributes) store.Attributes {
	return store.Attributes{
		BPM:              a.BPM,
		Key:              a.Key,
		Mode:             a.Mode,
		Danceability:     a.Danceability,
		Valence:          a.Valence,
		Energy:           a.Energy,
		Acousticness:     a.Acousticness,
		Instrumentalness: a.Instrumentalness,
		Liveness:         a.Liveness,
		Speechiness:      a.Speechiness,
	}
}

// newProgressBar returns nil when stdout is not a terminal or output is quiet
func newProgressBar(total int) *progressbar.ProgressBar {
	if !util.IsTerminal(os.Stdout.Fd()) || util.IsQuiet() {
		return nil
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Loading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
