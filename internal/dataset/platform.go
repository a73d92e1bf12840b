package dataset

// Platform is a streaming or charting service named in the dataset
type Platform string

const (
	Spotify Platform = "Spotify"
	Shazam  Platform = "Shazam"
	Deezer  Platform = "Deezer"
	Apple   Platform = "Apple"
)

// SeedPlatforms is the fixed platform set, in seeding order
var SeedPlatforms = []Platform{Spotify, Shazam, Deezer, Apple}

// MetricKind is the dimension of a streaming statistic
type MetricKind string

const (
	InPlaylists MetricKind = "in_playlists"
	InCharts    MetricKind = "in_charts"
	Streams     MetricKind = "streams"
)

// Capability binds a (platform, metric kind) pair to its source column
type Capability struct {
	Platform Platform
	Kind     MetricKind
	Column   string
}

// Capabilities is the per-platform metric shape. A pair that is not listed
// here has no StreamingMetric row at all.
var Capabilities = []Capability{
	{Spotify, InPlaylists, ColSpotifyPlaylists},
	{Spotify, InCharts, ColSpotifyCharts},
	{Spotify, Streams, ColStreams},
	{Apple, InPlaylists, ColApplePlaylists},
	{Apple, InCharts, ColAppleCharts},
	{Deezer, InPlaylists, ColDeezerPlaylists},
	{Deezer, InCharts, ColDeezerCharts},
	{Shazam, InCharts, ColShazamCharts},
}

// Supports reports whether a platform publishes the given metric kind
func Supports(p Platform, kind MetricKind) bool {
	for _, c := range Capabilities {
		if c.Platform == p && c.Kind == kind {
			return true
		}
	}
	return false
}
