package dataset

// Source column names
const (
	ColTrackName        = "track_name"
	ColArtists          = "artist(s)_name"
	ColReleasedYear     = "released_year"
	ColReleasedMonth    = "released_month"
	ColReleasedDay      = "released_day"
	ColBPM              = "bpm"
	ColKey              = "key"
	ColMode             = "mode"
	ColDanceability     = "danceability_%"
	ColValence          = "valence_%"
	ColEnergy           = "energy_%"
	ColAcousticness     = "acousticness_%"
	ColInstrumentalness = "instrumentalness_%"
	ColLiveness         = "liveness_%"
	ColSpeechiness      = "speechiness_%"
	ColSpotifyPlaylists = "in_spotify_playlists"
	ColSpotifyCharts    = "in_spotify_charts"
	ColStreams          = "streams"
	ColApplePlaylists   = "in_apple_playlists"
	ColAppleCharts      = "in_apple_charts"
	ColDeezerPlaylists  = "in_deezer_playlists"
	ColDeezerCharts     = "in_deezer_charts"
	ColShazamCharts     = "in_shazam_charts"
)

// RequiredColumns must all be present in the header
var RequiredColumns = []string{
	ColTrackName, ColArtists, ColReleasedYear, ColReleasedMonth, ColReleasedDay,
	ColBPM, ColKey, ColMode, ColDanceability, ColValence, ColEnergy,
	ColAcousticness, ColInstrumentalness, ColLiveness, ColSpeechiness,
	ColSpotifyPlaylists, ColSpotifyCharts, ColStreams,
	ColApplePlaylists, ColAppleCharts,
	ColDeezerPlaylists, ColDeezerCharts,
	ColShazamCharts,
}

// attributeColumns are the numeric musical attribute columns
var attributeColumns = []string{
	ColBPM, ColDanceability, ColValence, ColEnergy, ColAcousticness,
	ColInstrumentalness, ColLiveness, ColSpeechiness,
}

// releaseColumns are the track release date columns
var releaseColumns = []string{ColReleasedYear, ColReleasedMonth, ColReleasedDay}
