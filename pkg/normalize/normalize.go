// Package normalize turns raw phrases into the canonical form used for matching.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stopwords is a set of tokens ignored by the fuzzy stage.
type Stopwords map[string]struct{}

// NewStopwords builds a set from words, normalizing each one.
func NewStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s[Text(w)] = struct{}{}
	}
	return s
}

// Has reports whether token is a stopword.
func (s Stopwords) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// DefaultStopwords are the French filler words of spoken commands.
var DefaultStopwords = NewStopwords(
	"le", "la", "les", "un", "une", "des", "de", "du", "en", "au", "aux",
	"à", "a", "et", "met", "mets", "mettre", "changer", "change", "passe", "l",
)

// Text lowercases v, strips diacritics, collapses whitespace and trims it.
// Non-string values are formatted first. Text(Text(x)) == Text(x).
func Text(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = StripAccents(s)
	s = strings.ToLower(s)
	// Lowercasing can introduce combining marks (e.g. U+0130).
	s = StripAccents(s)
	return strings.Join(strings.Fields(s), " ")
}

// StripAccents removes combining marks after compatibility decomposition.
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Tokens splits the normalized form of s on anything that is not a letter,
// a digit or an underscore.
func Tokens(s string) []string {
	return strings.FieldsFunc(Text(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// Loose is the form used for fuzzy comparison: normalized tokens without stopwords.
func Loose(s string, stop Stopwords) string {
	toks := Tokens(s)
	kept := toks[:0]
	for _, t := range toks {
		if stop.Has(t) {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}
