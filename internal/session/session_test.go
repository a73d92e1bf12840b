package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/recommend"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var partyRows = []string{
	`Low Talk,DJ Low,2023,7,14,128,C#,Major,80,75,85,5,0,10,5,100,10,"1,000",5,20,3,0,10`,
	`Some Talk,"DJ Some, MC Two",2023,7,15,126,A,Major,81,76,84,6,0,11,10,200,20,"2,000",6,21,4,0,11`,
	`Chatty,DJ Chat,2023,8,1,130,F,Major,82,77,86,4,0,12,15,300,30,"3,000",7,22,5,0,12`,
	`Rapid Fire,MC Two,2023,12,24,132,G,Major,83,78,87,3,0,13,20,400,40,"4,000",8,23,6,0,N/A`,
}

func writeDataset(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spotify-2023.csv")
	content := strings.Join(dataset.RequiredColumns, ",") + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func storeConfig(t *testing.T) store.Config {
	return store.Config{Path: filepath.Join(t.TempDir(), "catalog.db")}
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s := New(&Config{Logger: report.NullLogger()})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSession_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	assert.Equal(t, Disconnected, s.State())

	require.NoError(t, s.Connect(ctx, storeConfig(t)))
	assert.Equal(t, Connected, s.State())

	result, err := s.Load(ctx, writeDataset(t, partyRows...))
	require.NoError(t, err)
	assert.Equal(t, Loaded, s.State())
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 4, result.ArtistsInserted)

	table, err := s.Run(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []any{"Winter", "Summer"}, table.Column("Season"))

	rec, err := s.Recommend(ctx, recommend.Preferences{Mood: recommend.Happy, Dance: true, Rap: true})
	require.NoError(t, err)
	assert.False(t, rec.Fallback)
	assert.Equal(t, []any{"Rapid Fire", "Chatty", "Some Talk", "Low Talk"}, rec.Table.Column("Track Name"))
	assert.Equal(t, "DJ Some, MC Two", rec.Table.Rows[2][1])

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, Connected, s.State())

	require.NoError(t, s.Close())
	assert.Equal(t, Disconnected, s.State())
	assert.Nil(t, s.Store())
}

func TestSession_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	_, err := s.Run(ctx, "1")
	assert.ErrorIs(t, err, util.ErrInvalidState)
	_, err = s.Load(ctx, "missing.csv")
	assert.ErrorIs(t, err, util.ErrInvalidState)
	assert.ErrorIs(t, s.Reset(ctx), util.ErrInvalidState)

	require.NoError(t, s.Connect(ctx, storeConfig(t)))
	assert.ErrorIs(t, s.Connect(ctx, storeConfig(t)), util.ErrInvalidState)

	_, err = s.Run(ctx, "seasonal")
	assert.ErrorIs(t, err, util.ErrInvalidState)
	_, err = s.Recommend(ctx, recommend.Preferences{})
	assert.ErrorIs(t, err, util.ErrInvalidState)
}

func TestSession_ReconnectFindsLoadedCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := storeConfig(t)

	first := newSession(t)
	require.NoError(t, first.Connect(ctx, cfg))
	_, err := first.Load(ctx, writeDataset(t, partyRows...))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newSession(t)
	require.NoError(t, second.Connect(ctx, cfg))
	assert.Equal(t, Loaded, second.State())
}

func TestSession_LoadErrorsKeepSessionUsable(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.Connect(ctx, storeConfig(t)))

	_, err := s.Load(ctx, filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, util.ErrDatasetFormat)
	assert.Equal(t, Connected, s.State())

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("track_name,streams\nSong,10\n"), 0644))
	_, err = s.Load(ctx, bad)
	assert.ErrorIs(t, err, util.ErrDatasetFormat)
	assert.Equal(t, Connected, s.State())

	_, err = s.Load(ctx, writeDataset(t, partyRows...))
	require.NoError(t, err)
	assert.Equal(t, Loaded, s.State())
}

func TestSession_UnknownQuery(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.Connect(ctx, storeConfig(t)))
	_, err := s.Load(ctx, writeDataset(t, partyRows...))
	require.NoError(t, err)

	_, err = s.Run(ctx, "9")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestSession_CachesQueriesUntilReload(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.Connect(ctx, storeConfig(t)))
	path := writeDataset(t, partyRows...)
	_, err := s.Load(ctx, path)
	require.NoError(t, err)

	first, err := s.Run(ctx, "workout")
	require.NoError(t, err)
	again, err := s.Run(ctx, "4")
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = s.Load(ctx, path)
	require.NoError(t, err)
	reloaded, err := s.Run(ctx, "workout")
	require.NoError(t, err)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, first.Rows, reloaded.Rows)
}

func TestSession_ReportRunsThroughSession(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	require.NoError(t, s.Connect(ctx, storeConfig(t)))

	_, err := report.GenerateCatalogReport(ctx, s.Store(), s.Run, "")
	assert.ErrorIs(t, err, util.ErrInvalidState)

	_, err = s.Load(ctx, writeDataset(t, partyRows...))
	require.NoError(t, err)

	rep, err := report.GenerateCatalogReport(ctx, s.Store(), s.Run, "")
	require.NoError(t, err)
	require.Len(t, rep.Sections, 7)

	seasonal, err := s.Run(ctx, "1")
	require.NoError(t, err)
	assert.Same(t, rep.Sections[0].Table, seasonal)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connected", Connected.String())
	assert.Equal(t, "loaded", Loaded.String())
}
