package recommend

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Interview asks the five questions on out and reads answers from in,
// repeating a question until its answer is valid
func Interview(in io.Reader, out io.Writer) (Preferences, error) {
	r := bufio.NewReader(in)
	var p Preferences

	if err := ask(r, out, "Are you feeling happy or sad? (h/s): ", func(s string) (err error) {
		p.Mood, err = ParseMood(s)
		return err
	}); err != nil {
		return p, err
	}

	dancePrompt := "Do you feel like dancing? (y/n): "
	if p.Mood == Sad {
		dancePrompt = "Do you want to dance to feel better? (y/n): "
	}
	if err := ask(r, out, dancePrompt, func(s string) (err error) {
		p.Dance, err = ParseYesNo(s)
		return err
	}); err != nil {
		return p, err
	}

	if err := ask(r, out, "Do you prefer lyrics, instrumentals or both? (l/i/b): ", func(s string) (err error) {
		p.Lyrics, err = ParseLyrics(s)
		return err
	}); err != nil {
		return p, err
	}

	if err := ask(r, out, "Do you prefer electronic or acoustic music? (e/a): ", func(s string) (err error) {
		p.Sound, err = ParseSound(s)
		return err
	}); err != nil {
		return p, err
	}

	if err := ask(r, out, "Do you like rap music? (y/n): ", func(s string) (err error) {
		p.Rap, err = ParseYesNo(s)
		return err
	}); err != nil {
		return p, err
	}

	return p, nil
}

func ask(r *bufio.Reader, out io.Writer, prompt string, parse func(string) error) error {
	for {
		fmt.Fprint(out, prompt)

		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if strings.TrimSpace(line) != "" {
			perr := parse(line)
			if perr == nil {
				return nil
			}
			fmt.Fprintf(out, "Invalid input: %v\n", perr)
		}

		if errors.Is(err, io.EOF) {
			return fmt.Errorf("no answer to %q: %w", strings.TrimSpace(prompt), io.ErrUnexpectedEOF)
		}
	}
}
