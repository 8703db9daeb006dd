package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsInvisibleCharacters(t *testing.T) {
	in := "hel\u200blo\u200c \u200dwor\ufeffld\u2060"
	assert.Equal(t, "hello world", Sanitize(in))
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	in := "a\x00b\x07c\x0bd\x0ce\x1ff\x7fg"
	assert.Equal(t, "abcdefg", Sanitize(in))
}

func TestSanitizeKeepsNewlinesAndTabs(t *testing.T) {
	in := "line one\n\tline two"
	assert.Equal(t, "line one\n\tline two", Sanitize(in))
}

func TestSanitizeNormalizesCompatibilityForms(t *testing.T) {
	// Full-width latin normalizes to plain ASCII under NFKC.
	assert.Equal(t, "hello", Sanitize("ｈｅｌｌｏ"))
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "hi", Sanitize("   hi \n "))
}

func TestSanitizeEmptyAfterCleaning(t *testing.T) {
	assert.Equal(t, "", Sanitize(" \u200b\u200c \x01 "))
	assert.Equal(t, "", Sanitize(""))
}

func TestStats(t *testing.T) {
	words, chars := Stats("hello brave new world")
	assert.Equal(t, 4, words)
	assert.Equal(t, 21, chars)

	words, chars = Stats("   ")
	assert.Equal(t, 0, words)
	assert.Equal(t, 0, chars)
}
