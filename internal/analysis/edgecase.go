package analysis

import (
	"strings"
	"unicode"

	"github.com/easeaico/crystal-sanctuary/internal/utils"
)

const (
	minimalInputRunes = 3
	repeatRun         = 5
	shoutingMinLength = 5
)

// DetectCrisis reports whether text contains self-harm phrasing. It runs on
// the raw text and does not depend on any other classification.
func DetectCrisis(text string) bool {
	return crisis.MatchString(text)
}

func edgeCases(raw string, t utils.Text, a Analysis) []EdgeCase {
	var out []EdgeCase
	add := func(flag EdgeCase, ok bool) {
		if ok {
			out = append(out, flag)
		}
	}

	add(EdgeMinimalInput, len([]rune(strings.TrimSpace(raw))) < minimalInputRunes)
	add(EdgeSymbolsOnly, symbolsOnly(raw))
	add(EdgeRepetitiveCharacters, repeatedRune(raw, repeatRun))
	add(EdgeAllCaps, shouting(raw))
	add(EdgeNonASCII, nonASCII(raw))
	add(EdgeContradictoryIntents, a.HasIntent(IntentGreeting) && a.HasIntent(IntentFarewell))
	add(EdgePotentialSarcasm, sarcasm.MatchString(t.Lower()))
	add(EdgeCodeSyntax, codeSyntax.MatchString(raw))
	add(EdgeCrisis, DetectCrisis(raw))
	return out
}

func symbolsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// repeatedRune reports a run of n or more identical runes.
func repeatedRune(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range []rune(s) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

func shouting(s string) bool {
	if len([]rune(s)) <= shoutingMinLength {
		return false
	}
	letters := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
		}
	}
	return letters
}

func nonASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}
