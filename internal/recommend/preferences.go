package recommend

import (
	"fmt"
	"strings"

	"github.com/franz/music-catalog/internal/util"
)

// Mood is how the listener feels
type Mood int

const (
	Happy Mood = iota
	Sad
)

func (m Mood) String() string {
	if m == Sad {
		return "sad"
	}
	return "happy"
}

// Lyrics is the listener's preference for vocals
type Lyrics int

const (
	WithLyrics Lyrics = iota
	Instrumental
	Both
)

func (l Lyrics) String() string {
	switch l {
	case Instrumental:
		return "instrumental"
	case Both:
		return "both"
	}
	return "lyrics"
}

// Sound is the listener's preference for production style
type Sound int

const (
	Electronic Sound = iota
	Acoustic
)

func (s Sound) String() string {
	if s == Acoustic {
		return "acoustic"
	}
	return "electronic"
}

// Preferences are the five questionnaire answers
type Preferences struct {
	Mood   Mood
	Dance  bool
	Lyrics Lyrics
	Sound  Sound
	Rap    bool
}

// Fields returns the answers keyed by question, for event logs
func (p Preferences) Fields() map[string]string {
	return map[string]string{
		"mood":   p.Mood.String(),
		"dance":  yesNo(p.Dance),
		"lyrics": p.Lyrics.String(),
		"sound":  p.Sound.String(),
		"rap":    yesNo(p.Rap),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func invalid(question, answer, want string) error {
	return fmt.Errorf("%w: %s answer %q (want %s)", util.ErrInvalidConfig, question, answer, want)
}

// ParseMood accepts h, happy, s or sad
func ParseMood(s string) (Mood, error) {
	switch normalize(s) {
	case "h", "happy":
		return Happy, nil
	case "s", "sad":
		return Sad, nil
	}
	return Happy, invalid("mood", s, "h or s")
}

// ParseYesNo accepts y, yes, n or no
func ParseYesNo(s string) (bool, error) {
	switch normalize(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, invalid("yes/no", s, "y or n")
}

// ParseLyrics accepts l, lyrics, i, instrumental(s), b or both
func ParseLyrics(s string) (Lyrics, error) {
	switch normalize(s) {
	case "l", "lyrics":
		return WithLyrics, nil
	case "i", "instrumental", "instrumentals":
		return Instrumental, nil
	case "b", "both":
		return Both, nil
	}
	return WithLyrics, invalid("lyrics", s, "l, i or b")
}

// ParseSound accepts e, electronic, a or acoustic
func ParseSound(s string) (Sound, error) {
	switch normalize(s) {
	case "e", "electronic":
		return Electronic, nil
	case "a", "acoustic":
		return Acoustic, nil
	}
	return Electronic, invalid("sound", s, "e or a")
}
