package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

const rankingLimit = 10

var rankingColumns = []string{"Artist", "Weighted Score"}

// metricGroup is one (platform, metric kind) population
type metricGroup struct {
	platform string
	kind     dataset.MetricKind
}

func (g metricGroup) String() string {
	return fmt.Sprintf("%s %s", g.platform, g.kind)
}

type metricSample struct {
	trackID int64
	value   float64
}

// ArtistRanking scores artists by the sum of their tracks' metrics, each
// scaled by the mean and standard deviation of its platform and kind.
// Chart ranks are inverted (1/rank); rank 0 means "not charted" and is
// left out of the population.
func ArtistRanking(ctx context.Context, s *store.Store) (*Table, error) {
	samples, order, err := loadSamples(ctx, s)
	if err != nil {
		return nil, err
	}

	credits, err := loadCredits(ctx, s)
	if err != nil {
		return nil, err
	}

	table := newTable(2, "Top Artists by Weighted Streaming Metrics Across Platforms", rankingColumns)
	scores := make(map[string]float64)

	for _, group := range order {
		values := make([]float64, len(samples[group]))
		for i, sample := range samples[group] {
			values[i] = sample.value
		}

		pop := describe(values)
		if reason := pop.undefined(true); reason != "" {
			table.Excluded = append(table.Excluded, UndefinedGroup{Group: group.String(), Reason: reason})
			util.DebugLog("Artist ranking: skipping %s (%s)", group, reason)
			continue
		}

		for _, sample := range samples[group] {
			term := (sample.value / pop.mean) * (1 / pop.stddev)
			for _, artist := range credits[sample.trackID] {
				scores[artist] += term
			}
		}
	}

	artists := make([]string, 0, len(scores))
	for artist := range scores {
		artists = append(artists, artist)
	}
	sort.Slice(artists, func(i, j int) bool {
		a, b := scores[artists[i]], scores[artists[j]]
		if a != b {
			return a > b
		}
		return artists[i] < artists[j]
	})

	if len(artists) > rankingLimit {
		artists = artists[:rankingLimit]
	}
	for _, artist := range artists {
		table.Rows = append(table.Rows, []any{artist, round(scores[artist], 2)})
	}
	return table, nil
}

// loadSamples reads every metric used by the ranking, grouped by platform
// and kind. order lists the groups in a stable order.
func loadSamples(ctx context.Context, s *store.Store) (map[metricGroup][]metricSample, []metricGroup, error) {
	rows, err := s.DB().QueryContext(ctx, `
SELECT p.platform_name, sm.metric_type, sm.track_id, sm.metric_value
FROM StreamingMetric sm
JOIN Platform p ON p.platform_id = sm.platform_id
WHERE sm.metric_value IS NOT NULL
ORDER BY p.platform_name, sm.metric_type, sm.track_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("metric query failed: %w", err)
	}
	defer rows.Close()

	samples := make(map[metricGroup][]metricSample)
	var order []metricGroup

	for rows.Next() {
		var platform, kind string
		var trackID, value int64
		if err := rows.Scan(&platform, &kind, &trackID, &value); err != nil {
			return nil, nil, fmt.Errorf("failed to scan metric: %w", err)
		}

		group := metricGroup{platform: platform, kind: dataset.MetricKind(kind)}
		if _, seen := samples[group]; !seen {
			order = append(order, group)
			samples[group] = nil
		}

		sample, ok := rankingSample(group, trackID, value)
		if !ok {
			continue
		}
		samples[group] = append(samples[group], sample)
	}
	return samples, order, rows.Err()
}

// rankingSample converts a stored metric into its ranking value
func rankingSample(group metricGroup, trackID, value int64) (metricSample, bool) {
	switch group.kind {
	case dataset.InPlaylists:
		return metricSample{trackID: trackID, value: float64(value)}, true
	case dataset.InCharts:
		if value <= 0 {
			return metricSample{}, false
		}
		return metricSample{trackID: trackID, value: 1 / float64(value)}, true
	case dataset.Streams:
		if group.platform != string(dataset.Spotify) {
			return metricSample{}, false
		}
		return metricSample{trackID: trackID, value: float64(value)}, true
	}
	return metricSample{}, false
}

// loadCredits returns the credited artist names of every track
func loadCredits(ctx context.Context, s *store.Store) (map[int64][]string, error) {
	rows, err := s.DB().QueryContext(ctx, `
SELECT ta.track_id, a.artist_name
FROM TrackArtist ta
JOIN Artist a ON a.artist_id = ta.artist_id`)
	if err != nil {
		return nil, fmt.Errorf("credit query failed: %w", err)
	}
	defer rows.Close()

	credits := make(map[int64][]string)
	for rows.Next() {
		var trackID int64
		var name sql.NullString
		if err := rows.Scan(&trackID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		if name.Valid {
			credits[trackID] = append(credits[trackID], name.String)
		}
	}
	return credits, rows.Err()
}
