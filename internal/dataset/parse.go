package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitArtists splits a comma-separated artist credit into trimmed,
// non-empty names. Order is preserved and repeated names are kept once.
func SplitArtists(credit string) []string {
	parts := strings.Split(credit, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}

// ParseMetric parses a streaming metric such as "4,567".
// Thousands separators are stripped; on failure the value is 0 and the
// error describes the rejected input.
func ParseMetric(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metric %q is not an integer", raw)
	}
	return v, nil
}

// ParseAttribute parses a musical attribute.
// An empty cell is missing (nil, nil); an unparseable cell returns nil and an error.
func ParseAttribute(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("attribute %q is not a number", raw)
	}
	return &v, nil
}

// ParseInt parses an optional integer field such as a release year
func ParseInt(raw string) (*int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// "2023.0" style values from spreadsheet exports
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return nil, fmt.Errorf("value %q is not an integer", raw)
		}
		v = int64(f)
	}
	return &v, nil
}

// optionalText returns nil for an empty cell
func optionalText(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}
