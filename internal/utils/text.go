package utils

import (
	"strings"
	"unicode"
)

// Text is a lowercased, word-normalized view of a message used for keyword
// matching. Terms match whole words or whole phrases only, so "no" does not
// match inside "know".
type Text struct {
	raw    string
	lower  string
	words  []string
	padded string
}

// NewText normalizes s for matching.
func NewText(s string) Text {
	lower := strings.ToLower(s)
	words := tokenize(lower)
	return Text{
		raw:    s,
		lower:  lower,
		words:  words,
		padded: " " + strings.Join(words, " ") + " ",
	}
}

// Raw returns the original text.
func (t Text) Raw() string { return t.raw }

// Lower returns the lowercased text with punctuation intact.
func (t Text) Lower() string { return t.lower }

// Words returns the normalized word tokens.
func (t Text) Words() []string { return t.words }

// Has reports whether term occurs as a whole word or phrase.
func (t Text) Has(term string) bool {
	norm := strings.Join(tokenize(strings.ToLower(term)), " ")
	if norm == "" {
		return false
	}
	return strings.Contains(t.padded, " "+norm+" ")
}

// Any reports whether any of terms occurs.
func (t Text) Any(terms []string) bool {
	for _, term := range terms {
		if t.Has(term) {
			return true
		}
	}
	return false
}

// Matched returns the distinct terms that occur, in input order.
func (t Text) Matched(terms []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		if t.Has(term) {
			out = append(out, term)
		}
	}
	return out
}

func tokenize(s string) []string {
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
