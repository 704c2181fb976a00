// Package chunker splits free text into sentences for bulk ingestion.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinRunes is the shortest fragment kept, exclusive.
const DefaultMinRunes = 5

// Options configures sentence splitting.
type Options struct {
	// Fragments of MinRunes runes or fewer are dropped.
	MinRunes int
}

// DefaultOptions returns default splitting options.
func DefaultOptions() Options {
	return Options{MinRunes: DefaultMinRunes}
}

// Sentence is one piece of the input with the line it started on.
type Sentence struct {
	Text string
	Line int
}

// Sentences splits text on sentence terminators and newlines. ASCII
// terminators (. ! ?) end a sentence only when followed by whitespace or the
// end of the text, so "3.14" stays whole; full-width terminators (。！？)
// always end one. The terminator stays with its sentence.
func Sentences(text string, opts Options) []Sentence {
	if opts.MinRunes <= 0 {
		opts = DefaultOptions()
	}

	var out []Sentence
	var cur strings.Builder
	line, start := 1, 1

	flush := func() {
		t := strings.TrimSpace(cur.String())
		cur.Reset()
		if utf8.RuneCountInString(t) > opts.MinRunes {
			out = append(out, Sentence{Text: t, Line: start})
		}
	}

	for i, r := range text {
		if r == '\n' {
			flush()
			line++
			start = line
			continue
		}
		if cur.Len() == 0 && unicode.IsSpace(r) {
			continue
		}
		if cur.Len() == 0 {
			start = line
		}
		cur.WriteRune(r)

		switch r {
		case '。', '！', '？':
			flush()
		case '.', '!', '?':
			next := i + utf8.RuneLen(r)
			if next >= len(text) {
				break
			}
			if nr, _ := utf8.DecodeRuneInString(text[next:]); unicode.IsSpace(nr) {
				flush()
			}
		}
	}
	flush()

	return out
}

// Texts returns just the sentence strings.
func Texts(sentences []Sentence) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = s.Text
	}
	return out
}
