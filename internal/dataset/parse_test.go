package dataset

import (
	"testing"

	"github.com/franz/music-catalog/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArtists(t *testing.T) {
	tests := []struct {
		credit string
		want   []string
	}{
		{"Latto, Jung Kook", []string{"Latto", "Jung Kook"}},
		{"Myke Towers", []string{"Myke Towers"}},
		{"  A ,B,, C  ", []string{"A", "B", "C"}},
		{"", []string{}},
		{"Dup, Dup", []string{"Dup"}},
	}

	for _, tt := range tests {
		t.Run(tt.credit, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitArtists(tt.credit))
		})
	}
}

func TestParseMetric(t *testing.T) {
	v, err := ParseMetric("4,567")
	require.NoError(t, err)
	assert.Equal(t, int64(4567), v)

	v, err = ParseMetric(" 141381703 ")
	require.NoError(t, err)
	assert.Equal(t, int64(141381703), v)

	v, err = ParseMetric("N/A")
	assert.Error(t, err)
	assert.Equal(t, int64(0), v)

	v, err = ParseMetric("")
	assert.Error(t, err)
	assert.Equal(t, int64(0), v)
}

func TestParseAttribute(t *testing.T) {
	v, err := ParseAttribute("80")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 80.0, *v)

	v, err = ParseAttribute("")
	assert.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseAttribute("loud")
	assert.Error(t, err)
	assert.Nil(t, v)
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt("2023.0")
	require.NoError(t, err)
	assert.Equal(t, int64(2023), *v)

	_, err = ParseInt("2023.5")
	assert.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	perPlatform := map[Platform]int{}
	for _, c := range Capabilities {
		perPlatform[c.Platform]++
	}
	assert.Equal(t, map[Platform]int{Spotify: 3, Apple: 2, Deezer: 2, Shazam: 1}, perPlatform)

	assert.True(t, Supports(Shazam, InCharts))
	assert.False(t, Supports(Shazam, InPlaylists))
	assert.False(t, Supports(Apple, Streams))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, StoreNull, p.For(ColBPM))
	assert.Equal(t, StoreZero, p.For(ColStreams))

	p, err = ParsePolicy(map[string]string{ColBPM: "ZERO"})
	require.NoError(t, err)
	assert.Equal(t, StoreZero, p.For(ColBPM))

	_, err = ParsePolicy(map[string]string{"track_name": "zero"})
	assert.ErrorIs(t, err, util.ErrInvalidConfig)

	_, err = ParsePolicy(map[string]string{ColBPM: "maybe"})
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}
