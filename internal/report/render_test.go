package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/franz/music-catalog/internal/analytics"
)

func sampleTable() *analytics.Table {
	return &analytics.Table{
		ID:      5,
		Title:   "Top Charting Tracks Across Platforms",
		Columns: []string{"Track Name", "Artist(s)", "Key", "Spotify Rank"},
		Rows: [][]any{
			{"Seven (feat. Latto) (Explicit Ver.)", "Jung Kook, Latto", "B", int64(1)},
			{"Flowers", "Miley Cyrus", nil, int64(2)},
		},
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"Major", "Major"},
		{125.0, "125"},
		{0.5, "0.5"},
		{int64(141381703), "141381703"},
		{3, "3"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTable_Aligned(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, sampleTable(), 0); err != nil {
		t.Fatalf("RenderTable failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Query 5: Top Charting Tracks Across Platforms") {
		t.Errorf("missing title:\n%s", out)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// title, blank, header, rule, two rows
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), out)
	}

	header, first := lines[2], lines[4]
	if strings.Index(header, "Artist(s)") != strings.Index(first, "Jung Kook") {
		t.Errorf("columns are not aligned:\n%s", out)
	}
	if !strings.Contains(lines[5], "-") {
		t.Errorf("NULL key should render as '-': %q", lines[5])
	}
}

func TestRenderTable_ClipsToWidth(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTable(&buf, sampleTable(), 50); err != nil {
		t.Fatalf("RenderTable failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for _, line := range lines[2:] {
		if n := len([]rune(strings.TrimRight(line, " "))); n > 50 {
			t.Errorf("line is %d runes wide, want <= 50: %q", n, line)
		}
	}
	if !strings.Contains(buf.String(), "...") {
		t.Errorf("expected a clipped cell:\n%s", buf.String())
	}
}

func TestRenderTable_EmptyAndExcluded(t *testing.T) {
	table := &analytics.Table{
		ID:      3,
		Columns: []string{"Track", "Z-Score Deviation"},
		Excluded: []analytics.UndefinedGroup{
			{Group: "danceability 0-30%", Reason: "standard deviation is zero"},
		},
	}

	var buf bytes.Buffer
	if err := RenderTable(&buf, table, 80); err != nil {
		t.Fatalf("RenderTable failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "(no rows)") {
		t.Errorf("expected empty marker:\n%s", out)
	}
	if !strings.Contains(out, "note: danceability 0-30% excluded (standard deviation is zero)") {
		t.Errorf("expected exclusion note:\n%s", out)
	}
}

func TestClip(t *testing.T) {
	if got := clip("Beyoncé", 10); got != "Beyoncé" {
		t.Errorf("clip should keep short strings, got %q", got)
	}
	if got := clip("Seven (feat. Latto)", 8); got != "Seven..." {
		t.Errorf("clip = %q, want %q", got, "Seven...")
	}
	if got := clip("abcdef", 2); got != "ab" {
		t.Errorf("clip = %q, want %q", got, "ab")
	}
}
