package recommend

// Comparator is a threshold operator
type Comparator int

const (
	AtLeast Comparator = iota
	AtMost
)

// SQL returns the operator text. Only these two operators ever reach a query.
func (c Comparator) SQL() string {
	if c == AtMost {
		return "<="
	}
	return ">="
}

func (c Comparator) String() string {
	return c.SQL()
}

// Attribute is a MusicalAttributes column a threshold can apply to
type Attribute string

const (
	Valence      Attribute = "valence"
	BPM          Attribute = "bpm"
	Energy       Attribute = "energy"
	Danceability Attribute = "danceability"
	Acousticness Attribute = "acousticness"
)

// Threshold values
const (
	ValenceThreshold      = 50
	BPMThreshold          = 120
	EnergyThreshold       = 70
	DanceabilityThreshold = 60
	AcousticThreshold     = 50
)

// Threshold compares one attribute against a fixed value
type Threshold struct {
	Attribute Attribute
	Op        Comparator
	Value     float64
}

// Band is an inclusive range
type Band struct {
	Min, Max float64
}

// Instrumentalness bands per lyrics preference
var (
	LyricsBand       = Band{0, 30}
	InstrumentalBand = Band{70, 100}
	BothBand         = Band{30, 70}
)

// Filter is the query derived from a set of preferences
type Filter struct {
	Thresholds       []Threshold
	Mode             string
	Instrumentalness Band
	SpeechinessDesc  bool
}

// Predicates maps preferences to a Filter. The mapping is total and
// deterministic.
func Predicates(p Preferences) Filter {
	valence, bpm, dance, energy := AtLeast, AtLeast, AtLeast, AtLeast
	mode := "Major"

	switch {
	case p.Dance:
		// all thresholds are minimums, mode stays Major
	case p.Mood == Sad:
		valence, bpm, dance, energy = AtMost, AtMost, AtMost, AtMost
		mode = "Minor"
	default:
		bpm, dance, energy = AtMost, AtMost, AtMost
	}

	acoustic := AtMost
	if p.Sound == Acoustic {
		acoustic = AtLeast
	}

	band := LyricsBand
	switch p.Lyrics {
	case Instrumental:
		band = InstrumentalBand
	case Both:
		band = BothBand
	}

	return Filter{
		Thresholds: []Threshold{
			{Valence, valence, ValenceThreshold},
			{BPM, bpm, BPMThreshold},
			{Energy, energy, EnergyThreshold},
			{Danceability, dance, DanceabilityThreshold},
			{Acousticness, acoustic, AcousticThreshold},
		},
		Mode:             mode,
		Instrumentalness: band,
		SpeechinessDesc:  p.Rap,
	}
}
