package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Zero-width and otherwise invisible code points that survive copy-paste
// from web pages and chat apps and confuse both the model and the user.
var invisible = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\ufeff': true, // byte order mark
	'\u202f': true, // narrow no-break space
	'\u2060': true, // word joiner
	'\u180e': true, // mongolian vowel separator
}

// Sanitize normalizes raw input to NFKC, strips invisible code points
// and ASCII control characters (tab, newline and carriage return are
// kept for multi-line input), and trims surrounding whitespace. An
// empty result means there is nothing to send.
func Sanitize(raw string) string {
	t := norm.NFKC.String(raw)
	t = strings.Map(func(r rune) rune {
		if invisible[r] {
			return -1
		}
		switch {
		case r <= 0x08,
			r == 0x0B, r == 0x0C,
			r >= 0x0E && r <= 0x1F,
			r == 0x7F:
			return -1
		}
		return r
	}, t)
	return strings.TrimSpace(t)
}

// Stats returns the word and character counts for composer text.
func Stats(text string) (words, chars int) {
	text = strings.TrimSpace(text)
	if text != "" {
		words = len(strings.Fields(text))
	}
	return words, utf8.RuneCountInString(text)
}
