package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/franz/music-catalog/internal/util"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Encoding names reported in Dataset.Encoding
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// Options controls how a dataset file is decoded
type Options struct {
	// Policy decides NULL or zero for unparseable numeric cells (nil = DefaultPolicy)
	Policy Policy
	// ASCIIOnly replaces runs of characters outside printable ASCII with "?"
	ASCIIOnly bool
}

// Attributes holds the musical attributes of one source row. nil means NULL.
type Attributes struct {
	BPM              *float64
	Key              *string
	Mode             *string
	Danceability     *float64
	Valence          *float64
	Energy           *float64
	Acousticness     *float64
	Instrumentalness *float64
	Liveness         *float64
	Speechiness      *float64
}

// Metric is one extracted (platform, kind) value
type Metric struct {
	Platform Platform
	Kind     MetricKind
	Value    int64
}

// Record is one parsed source row
type Record struct {
	Line         int
	TrackName    string
	ArtistCredit string
	ReleaseYear  *int64
	ReleaseMonth *int64
	ReleaseDay   *int64
	Attributes   Attributes
	Metrics      []Metric
}

// Artists returns the individual artist names credited on the record
func (r *Record) Artists() []string {
	return SplitArtists(r.ArtistCredit)
}

// CoercionWarning reports a numeric cell that could not be parsed.
// It never drops the row.
type CoercionWarning struct {
	Line    int
	Column  string
	Value   string
	Applied OnInvalid
}

func (w CoercionWarning) String() string {
	return fmt.Sprintf("line %d: %s=%q stored as %s", w.Line, w.Column, w.Value, w.Applied)
}

// Dataset is a fully parsed source file
type Dataset struct {
	Path     string
	Encoding string
	Records  []Record
	Warnings []CoercionWarning
}

// ArtistNames returns every distinct artist name in first-seen order
func (d *Dataset) ArtistNames() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range d.Records {
		for _, name := range d.Records[i].Artists() {
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Read loads and parses a dataset file
func Read(path string, opts Options) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", util.ErrDatasetFormat, path, err)
	}

	ds, err := parseBytes(data, opts)
	if err != nil {
		return nil, err
	}
	ds.Path = path
	return ds, nil
}

// Parse parses a dataset from a reader
func Parse(r io.Reader, opts Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrDatasetFormat, err)
	}
	return parseBytes(data, opts)
}

func parseBytes(data []byte, opts Options) (*Dataset, error) {
	if opts.Policy == nil {
		opts.Policy = DefaultPolicy()
	}

	text, encoding, err := decode(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", util.ErrDatasetFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: bad header: %v", util.ErrDatasetFormat, err)
	}

	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Encoding: encoding}
	line := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", util.ErrDatasetFormat, line, err)
		}

		row := sourceRow{line: line, fields: fields, index: index, opts: opts}
		rec := row.record()
		ds.Records = append(ds.Records, rec)
		ds.Warnings = append(ds.Warnings, row.warnings...)
	}

	return ds, nil
}

// decode returns the file as UTF-8 text, falling back to Windows-1252
func decode(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: neither UTF-8 nor Windows-1252: %v", util.ErrDatasetFormat, err)
	}
	util.DebugLog("Dataset is not valid UTF-8, decoded as Windows-1252")
	return string(out), EncodingWindows1252, nil
}

func indexHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s",
			util.ErrDatasetFormat, strings.Join(missing, ", "))
	}

	return index, nil
}

// sourceRow converts one CSV record, collecting coercion warnings
type sourceRow struct {
	line     int
	fields   []string
	index    map[string]int
	opts     Options
	warnings []CoercionWarning
}

func (r *sourceRow) cell(column string) string {
	i := r.index[column]
	if i >= len(r.fields) {
		return ""
	}
	return sanitize(r.fields[i], r.opts.ASCIIOnly)
}

func (r *sourceRow) warn(column, value string, applied OnInvalid) {
	r.warnings = append(r.warnings, CoercionWarning{
		Line:    r.line,
		Column:  column,
		Value:   value,
		Applied: applied,
	})
}

func (r *sourceRow) float(column string) *float64 {
	raw := r.cell(column)
	v, err := ParseAttribute(raw)
	if err == nil {
		return v
	}

	rule := r.opts.Policy.For(column)
	r.warn(column, raw, rule)
	if rule == StoreZero {
		zero := 0.0
		return &zero
	}
	return nil
}

func (r *sourceRow) integer(column string) *int64 {
	raw := r.cell(column)
	v, err := ParseInt(raw)
	if err == nil {
		return v
	}

	rule := r.opts.Policy.For(column)
	r.warn(column, raw, rule)
	if rule == StoreZero {
		var zero int64
		return &zero
	}
	return nil
}

func (r *sourceRow) record() Record {
	rec := Record{
		Line:         r.line,
		TrackName:    strings.TrimSpace(r.cell(ColTrackName)),
		ArtistCredit: r.cell(ColArtists),
		ReleaseYear:  r.integer(ColReleasedYear),
		ReleaseMonth: r.integer(ColReleasedMonth),
		ReleaseDay:   r.integer(ColReleasedDay),
		Attributes: Attributes{
			BPM:              r.float(ColBPM),
			Key:              optionalText(r.cell(ColKey)),
			Mode:             optionalText(r.cell(ColMode)),
			Danceability:     r.float(ColDanceability),
			Valence:          r.float(ColValence),
			Energy:           r.float(ColEnergy),
			Acousticness:     r.float(ColAcousticness),
			Instrumentalness: r.float(ColInstrumentalness),
			Liveness:         r.float(ColLiveness),
			Speechiness:      r.float(ColSpeechiness),
		},
	}

	for _, c := range Capabilities {
		raw := r.cell(c.Column)
		v, err := ParseMetric(raw)
		if err != nil {
			rule := r.opts.Policy.For(c.Column)
			r.warn(c.Column, raw, rule)
			if rule == StoreNull {
				continue
			}
			v = 0
		}
		rec.Metrics = append(rec.Metrics, Metric{Platform: c.Platform, Kind: c.Kind, Value: v})
	}

	return rec
}

// sanitize normalizes a cell to NFC and optionally replaces each run of
// characters outside printable ASCII with a single "?"
func sanitize(s string, asciiOnly bool) string {
	s = norm.NFC.String(s)
	if !asciiOnly {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('?')
			inRun = true
		}
	}
	return b.String()
}
