package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/franz/music-catalog/internal/analytics"
	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/load"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/testutil"
	"github.com/franz/music-catalog/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog(t *testing.T, tracks ...testutil.Track) *store.Store {
	t.Helper()
	s := testutil.OpenStore(t)
	loader := load.New(&load.Config{Store: s, Logger: report.NullLogger()})
	_, err := loader.Load(context.Background(), testutil.Dataset(tracks...), dataset.SeedPlatforms)
	require.NoError(t, err)
	return s
}

func columns(t *testing.T, id int) []string {
	t.Helper()
	q, err := analytics.Lookup(fmt.Sprint(id))
	require.NoError(t, err)
	return q.Columns
}

func names(t *analytics.Table) []any {
	return t.Column(t.Columns[0])
}

func charts(spotify, apple, deezer int64) []dataset.Metric {
	return []dataset.Metric{
		testutil.M(dataset.Spotify, dataset.InCharts, spotify),
		testutil.M(dataset.Apple, dataset.InCharts, apple),
		testutil.M(dataset.Deezer, dataset.InCharts, deezer),
	}
}

func spotifyRank(rank int64) []dataset.Metric {
	return []dataset.Metric{testutil.M(dataset.Spotify, dataset.InCharts, rank)}
}

func TestSeasonal_OnlyPopulatedSeasonsInOrder(t *testing.T) {
	s := catalog(t,
		testutil.Track{Name: "Summer Song", Artists: "A", Year: 2023, Month: 6, Day: 1, Mode: "Major", BPM: 130, Valence: 80},
		testutil.Track{Name: "January Song", Artists: "B", Year: 2023, Month: 1, Day: 1, Mode: "Major", BPM: 100, Valence: 40},
		testutil.Track{Name: "December Song", Artists: "C", Year: 2022, Month: 12, Day: 1, Mode: "Minor", BPM: 120, Valence: 60},
		testutil.Track{Name: "Undated Song", Artists: "D", Mode: "Minor", BPM: 90},
	)

	table, err := analytics.Seasonal(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 1), table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{"Winter", "Summer"}, names(table))

	winter := table.Rows[0]
	assert.Equal(t, 110.0, winter[1])
	assert.Equal(t, 50.0, winter[2])
	assert.Equal(t, 50.0, winter[3])
	assert.Equal(t, 50.0, winter[4])

	summer := table.Rows[1]
	assert.Equal(t, 130.0, summer[1])
	assert.Equal(t, 100.0, summer[2])
	assert.Equal(t, 0.0, summer[3])
}

func TestDanceabilityAnomalies_SingleOutlier(t *testing.T) {
	var tracks []testutil.Track
	for i := 0; i < 9; i++ {
		tracks = append(tracks, testutil.Track{
			Name: fmt.Sprintf("Typical %d", i), Artists: "Band", Year: 2023, Month: 5, Day: int64(i + 1),
			Danceability: 70,
			Metrics:      []dataset.Metric{testutil.M(dataset.Spotify, dataset.InPlaylists, 100)},
		})
	}
	tracks = append(tracks, testutil.Track{
		Name: "Outlier", Artists: "Band", Year: 2023, Month: 5, Day: 20,
		Danceability: 70,
		Metrics:      []dataset.Metric{testutil.M(dataset.Spotify, dataset.InPlaylists, 1000)},
	})
	s := catalog(t, tracks...)

	table, err := analytics.DanceabilityAnomalies(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 3), table.Columns)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []any{"Outlier", 70.0, "61-80%", int64(1000), 190.0, 270.0, 3.0}, table.Rows[0])
	assert.Empty(t, table.Excluded)
}

func TestDanceabilityAnomalies_ZeroDeviationBucketExcluded(t *testing.T) {
	s := catalog(t,
		testutil.Track{Name: "Flat 1", Artists: "X", Year: 2023, Month: 1, Day: 1, Danceability: 20,
			Metrics: []dataset.Metric{testutil.M(dataset.Spotify, dataset.InPlaylists, 50)}},
		testutil.Track{Name: "Flat 2", Artists: "X", Year: 2023, Month: 1, Day: 2, Danceability: 25,
			Metrics: []dataset.Metric{testutil.M(dataset.Spotify, dataset.InPlaylists, 50)}},
	)

	table, err := analytics.DanceabilityAnomalies(context.Background(), s)
	require.NoError(t, err)

	assert.Zero(t, table.Len())
	require.Len(t, table.Excluded, 1)
	assert.Equal(t, "danceability 0-30%", table.Excluded[0].Group)
	assert.True(t, errors.Is(table.Excluded[0], util.ErrStatisticalUndefined))
}

func TestDanceabilityRange(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0-30%"},
		{30, "0-30%"},
		{30.5, "31-50%"},
		{50, "31-50%"},
		{60, "51-60%"},
		{61, "61-80%"},
		{80, "61-80%"},
		{81, "81-100%"},
		{100, "81-100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analytics.DanceabilityRange(tt.in), "danceability %v", tt.in)
	}
}

func TestArtistRanking_ScoresAndUndefinedGroups(t *testing.T) {
	s := catalog(t,
		testutil.Track{Name: "Low", Artists: "Alpha", Year: 2023, Month: 1, Day: 1,
			Metrics: []dataset.Metric{
				testutil.M(dataset.Spotify, dataset.InPlaylists, 1),
				testutil.M(dataset.Apple, dataset.InPlaylists, 5),
				testutil.M(dataset.Shazam, dataset.InCharts, 0),
			}},
		testutil.Track{Name: "High", Artists: "Gamma, Beta", Year: 2023, Month: 1, Day: 2,
			Metrics: []dataset.Metric{
				testutil.M(dataset.Spotify, dataset.InPlaylists, 3),
				testutil.M(dataset.Shazam, dataset.InCharts, 0),
			}},
	)

	table, err := analytics.ArtistRanking(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 2), table.Columns)
	assert.Equal(t, [][]any{
		{"Beta", 1.5},
		{"Gamma", 1.5},
		{"Alpha", 0.5},
	}, table.Rows)

	require.Len(t, table.Excluded, 2)
	assert.Equal(t, analytics.UndefinedGroup{Group: "Apple in_playlists", Reason: "standard deviation is zero"}, table.Excluded[0])
	assert.Equal(t, analytics.UndefinedGroup{Group: "Shazam in_charts", Reason: "empty population"}, table.Excluded[1])
}

func TestArtistRanking_InvertsChartRank(t *testing.T) {
	s := catalog(t,
		testutil.Track{Name: "Number One", Artists: "Top", Year: 2023, Month: 1, Day: 1, Metrics: spotifyRank(1)},
		testutil.Track{Name: "Number Two", Artists: "Runner", Year: 2023, Month: 1, Day: 2, Metrics: spotifyRank(2)},
	)

	table, err := analytics.ArtistRanking(context.Background(), s)
	require.NoError(t, err)

	// 1/1 and 1/2 give mean 0.75 and standard deviation 0.25
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{"Top", 5.33}, table.Rows[0])
	assert.Equal(t, []any{"Runner", 2.67}, table.Rows[1])
}

func TestWorkoutTempo_Thresholds(t *testing.T) {
	workout := func(name string, bpm, acoustic float64) testutil.Track {
		return testutil.Track{
			Name: name, Artists: "Runner", Year: 2023, Month: 2, Day: 1,
			BPM: bpm, Valence: 60, Energy: 80, Danceability: 70,
			Acousticness: acoustic, Speechiness: 5, Liveness: 10,
		}
	}
	s := catalog(t,
		workout("Fast", 140, 10),
		workout("Steady", 131, 10),
		workout("Boundary", 130, 10),
		workout("Unplugged", 150, 40),
	)

	table, err := analytics.WorkoutTempo(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 4), table.Columns)
	assert.Equal(t, []any{"Steady", "Fast"}, names(table))
	assert.Equal(t, []any{"Steady", "Runner", 131.0}, table.Rows[0])
}

func TestCrossPlatformTop_RequiresAllThreeCharts(t *testing.T) {
	s := catalog(t,
		testutil.Track{Name: "Hit", Artists: "Pop Star", Year: 2023, Month: 3, Day: 1, Key: "C#", Mode: "Major", Metrics: charts(1, 2, 3)},
		testutil.Track{Name: "Smash", Artists: "Pop Star, Feature", Year: 2023, Month: 3, Day: 2, Mode: "Minor", Metrics: charts(1, 1, 1)},
		testutil.Track{Name: "Almost", Artists: "B Side", Year: 2023, Month: 3, Day: 3, Metrics: charts(1, 11, 1)},
		testutil.Track{Name: "Missing", Artists: "B Side", Year: 2023, Month: 3, Day: 4, Metrics: spotifyRank(1)},
	)

	table, err := analytics.CrossPlatformTop(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 5), table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []any{"Smash", "Feature, Pop Star", nil, "Minor", int64(1), int64(1), int64(1)}, table.Rows[0])
	assert.Equal(t, []any{"Hit", "Pop Star", "C#", "Major", int64(1), int64(2), int64(3)}, table.Rows[1])
}

func TestEnergeticSpotifyTop_Thresholds(t *testing.T) {
	energetic := func(name string, energy float64, rank int64) testutil.Track {
		return testutil.Track{
			Name: name, Artists: "Loud", Year: 2023, Month: 4, Day: 1,
			Energy: energy, Speechiness: 5, Metrics: spotifyRank(rank),
		}
	}
	s := catalog(t,
		energetic("Charged", 90, 15),
		energetic("Supercharged", 95, 3),
		energetic("Outside Top 20", 99, 21),
		energetic("Uncharted", 99, 0),
		energetic("Mellow", 70, 1),
	)

	table, err := analytics.EnergeticSpotifyTop(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 6), table.Columns)
	assert.Equal(t, []any{"Supercharged", "Charged"}, names(table))
	assert.Equal(t, []any{"Supercharged", "Loud", 95.0, 5.0, int64(3)}, table.Rows[0])
}

func TestUpliftingSpotifyTop_Thresholds(t *testing.T) {
	uplifting := func(name string, dance, valence float64, rank int64) testutil.Track {
		return testutil.Track{
			Name: name, Artists: "Sunny", Year: 2023, Month: 6, Day: 1,
			Danceability: dance, Valence: valence, Metrics: spotifyRank(rank),
		}
	}
	s := catalog(t,
		uplifting("Groove", 85, 85, 25),
		uplifting("Bounce", 90, 81, 10),
		uplifting("Almost Happy", 85, 80, 5),
		uplifting("Too Low", 95, 95, 26),
	)

	table, err := analytics.UpliftingSpotifyTop(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, columns(t, 7), table.Columns)
	assert.Equal(t, []any{"Bounce", "Groove"}, names(table))
}

func TestQueries_EmptyCatalog(t *testing.T) {
	s := testutil.OpenStore(t)

	for _, q := range analytics.Queries() {
		table, err := q.Run(context.Background(), s)
		require.NoError(t, err, q.Name)
		assert.Zero(t, table.Len(), q.Name)
		assert.Equal(t, q.ID, table.ID, q.Name)
		assert.Equal(t, q.Columns, table.Columns, q.Name)
	}
}

func TestLookup(t *testing.T) {
	q, err := analytics.Lookup("3")
	require.NoError(t, err)
	assert.Equal(t, "anomalies", q.Name)

	q, err = analytics.Lookup(" Workout ")
	require.NoError(t, err)
	assert.Equal(t, 4, q.ID)

	_, err = analytics.Lookup("9")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestQueries_ColumnContract(t *testing.T) {
	want := map[int][]string{
		1: {"Season", "Avg BPM", "Major Key %", "Minor Key %", "Avg Valence", "Avg Energy",
			"Avg Danceability", "Avg Acousticness", "Avg Liveness", "Avg Speechiness"},
		2: {"Artist", "Weighted Score"},
		3: {"Track", "Danceability %", "Danceability Range", "Playlists",
			"Avg Playlists", "Playlists Std Dev", "Z-Score Deviation"},
		4: {"Track Name", "Artist(s)", "BPM"},
		5: {"Track Name", "Artist(s)", "Key", "Mode", "Spotify Rank", "Apple Music Rank", "Deezer Rank"},
		6: {"Track Name", "Artist(s)", "Energy", "Speechiness", "Spotify Chart Rank"},
		7: {"Track", "Artist(s)", "Danceability %", "Valence %", "Spotify Rank"},
	}

	queries := analytics.Queries()
	require.Len(t, queries, len(want))
	for i, q := range queries {
		assert.Equal(t, i+1, q.ID)
		assert.Equal(t, want[q.ID], q.Columns, q.Name)
		assert.NotEmpty(t, q.Explanation, q.Name)
	}
}
