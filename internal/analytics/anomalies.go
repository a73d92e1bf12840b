package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
)

// AnomalyThreshold is the |z| above which a track is flagged
const AnomalyThreshold = 2.5

var anomalyColumns = []string{
	"Track", "Danceability %", "Danceability Range", "Playlists",
	"Avg Playlists", "Playlists Std Dev", "Z-Score Deviation",
}

// DanceabilityRanges are the bucket labels in ascending order
var DanceabilityRanges = []string{"0-30%", "31-50%", "51-60%", "61-80%", "81-100%"}

// DanceabilityRange returns the bucket label for a danceability percentage
func DanceabilityRange(d float64) string {
	switch {
	case d <= 30:
		return DanceabilityRanges[0]
	case d <= 50:
		return DanceabilityRanges[1]
	case d <= 60:
		return DanceabilityRanges[2]
	case d <= 80:
		return DanceabilityRanges[3]
	}
	return DanceabilityRanges[4]
}

type playlistSample struct {
	track        string
	danceability float64
	playlists    int64
}

type anomaly struct {
	sample playlistSample
	bucket string
	pop    population
	z      float64
}

// DanceabilityAnomalies flags tracks whose Spotify playlist count deviates
// from the mean of their danceability range by more than AnomalyThreshold
// standard deviations
func DanceabilityAnomalies(ctx context.Context, s *store.Store) (*Table, error) {
	rows, err := s.DB().QueryContext(ctx, `
SELECT t.track_name, ma.danceability, sm.metric_value
FROM Track t`+attributeJoin+`
JOIN StreamingMetric sm ON sm.track_id = t.track_id AND sm.metric_type = 'in_playlists'
JOIN Platform p ON p.platform_id = sm.platform_id AND p.platform_name = ?
WHERE ma.danceability IS NOT NULL AND sm.metric_value IS NOT NULL`, string(dataset.Spotify))
	if err != nil {
		return nil, fmt.Errorf("anomaly query failed: %w", err)
	}
	defer rows.Close()

	buckets := make(map[string][]playlistSample)
	for rows.Next() {
		var sample playlistSample
		if err := rows.Scan(&sample.track, &sample.danceability, &sample.playlists); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		bucket := DanceabilityRange(sample.danceability)
		buckets[bucket] = append(buckets[bucket], sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	table := newTable(3, "Playlist Popularity by Danceability with Significant Deviations", anomalyColumns)
	var flagged []anomaly

	for _, bucket := range DanceabilityRanges {
		samples, ok := buckets[bucket]
		if !ok {
			continue
		}

		values := make([]float64, len(samples))
		for i, sample := range samples {
			values[i] = float64(sample.playlists)
		}
		pop := describe(values)
		if reason := pop.undefined(false); reason != "" {
			table.Excluded = append(table.Excluded, UndefinedGroup{Group: "danceability " + bucket, Reason: reason})
			util.DebugLog("Anomalies: skipping range %s (%s)", bucket, reason)
			continue
		}

		for _, sample := range samples {
			z := (float64(sample.playlists) - pop.mean) / pop.stddev
			if math.Abs(z) > AnomalyThreshold {
				flagged = append(flagged, anomaly{sample: sample, bucket: bucket, pop: pop, z: z})
			}
		}
	}

	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].z != flagged[j].z {
			return flagged[i].z > flagged[j].z
		}
		return flagged[i].sample.track < flagged[j].sample.track
	})

	for _, a := range flagged {
		table.Rows = append(table.Rows, []any{
			a.sample.track,
			a.sample.danceability,
			a.bucket,
			a.sample.playlists,
			round(a.pop.mean, 2),
			round(a.pop.stddev, 2),
			round(a.z, 2),
		})
	}
	return table, nil
}
