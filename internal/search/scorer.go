package search

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Scoring weights
const (
	fullMatchPenalty = 0.3 // Max penalty for a full-query match at the end of the text
	wordMatchWeight  = 0.8
	wordMatchPenalty = 0.2
	wordMatchBonus   = 0.3 // Added once per matching word
	minWordLength    = 2
)

// Score rates how well query matches text, roughly in [0, 1].
//
// A full substring match scores 1 minus up to 30% depending on how late it
// appears. Otherwise each query word of two or more characters found in text
// contributes, and the sum is averaged over the scorable words. Positions and
// lengths are counted in UTF-16 code units so rankings line up with the
// remote search endpoint.
func Score(query, text string) float64 {
	q := strings.TrimSpace(strings.ToLower(query))
	if q == "" {
		return 0
	}
	t := strings.ToLower(text)
	textLen := float64(utf16Len(t))

	if idx := strings.Index(t, q); idx >= 0 {
		pos := float64(utf16Len(t[:idx]))
		// The explicit conversions keep the compiler from fusing multiply-add,
		// so the result is identical on every architecture.
		return 1.0 * (1 - float64(pos/textLen*fullMatchPenalty))
	}

	var (
		total     float64
		matches   int
		wordCount int
	)
	for _, word := range strings.Fields(q) {
		if utf16Len(word) < minWordLength {
			continue
		}
		wordCount++

		idx := strings.Index(t, word)
		if idx < 0 {
			continue
		}
		pos := float64(utf16Len(t[:idx]))
		total += float64(wordMatchWeight * (1 - float64(pos/textLen*wordMatchPenalty)))
		matches++
	}

	if wordCount == 0 {
		return 0
	}
	return (total + float64(float64(matches)*wordMatchBonus)) / float64(wordCount)
}

// utf16Len counts UTF-16 code units in s
func utf16Len(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		n += utf16.RuneLen(r) // Invalid bytes decode to U+FFFD, one unit
	}
	return n
}
