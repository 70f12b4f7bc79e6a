package tokenizer

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold prepares text for ASCII token matching:
//   - Decomposes (NFD) and drops combining marks, so "é" becomes "e"
//   - Recomposes (NFC)
//   - Lowercases with Unicode rules
//
// Characters with no ASCII decomposition are kept and later act as
// separators. Fold returns text unchanged if the transform fails.
func Fold(text string) string {
	if text == "" {
		return ""
	}

	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return cases.Lower(language.Und).String(folded)
}
