// Package script classifies text lines by writing system and provides
// Devanagari helpers shared by the extraction pipeline.
package script

import "unicode"

// Tag identifies the dominant writing system of a line.
type Tag string

const (
	// TagSanskrit marks lines dominated by Devanagari letters.
	TagSanskrit Tag = "sanskrit"
	// TagLatin marks lines dominated by Latin letters.
	TagLatin Tag = "latin"
	// TagUnknown marks lines that are too short, balanced, or neither script.
	TagUnknown Tag = "unknown"
)

var validTags = map[Tag]bool{
	TagSanskrit: true,
	TagLatin:    true,
	TagUnknown:  true,
}

// IsValid returns true if the tag is a recognized script tag.
func (t Tag) IsValid() bool {
	return validTags[t]
}

// Danda and DoubleDanda are the Devanagari punctuation marks that
// terminate padas and stanzas.
const (
	Danda       = '।' // ।
	DoubleDanda = '॥' // ॥
)

// DefaultMinLetters is the minimum letter count required before a line
// is assigned a definite script.
const DefaultMinLetters = 3

// IsDevanagari returns true if r belongs to the Devanagari script,
// including signs, digits and punctuation.
func IsDevanagari(r rune) bool {
	return unicode.Is(unicode.Devanagari, r)
}

// isDevanagariLetter excludes danda marks and digits, which carry no
// script signal of their own.
func isDevanagariLetter(r rune) bool {
	if r == Danda || r == DoubleDanda {
		return false
	}
	if _, ok := DigitValue(r); ok {
		return false
	}
	return unicode.Is(unicode.Devanagari, r)
}

// DigitValue returns the numeric value of a Devanagari or ASCII digit.
func DigitValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= '०' && r <= '९': // ० through ९
		return int(r - '०'), true
	}
	return 0, false
}

// ParseNumber parses a string of Devanagari or ASCII digits.
// Mixed digit systems are accepted. Returns false for an empty string
// or any non-digit rune.
func ParseNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		d, ok := DigitValue(r)
		if !ok {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

// Classifier assigns script tags to lines.
type Classifier struct {
	// MinLetters is the letter count below which a line is tagged
	// unknown regardless of composition.
	MinLetters int
}

// NewClassifier returns a Classifier with default thresholds.
func NewClassifier() *Classifier {
	return &Classifier{MinLetters: DefaultMinLetters}
}

// Classify tags a single line. Devanagari and Latin letters are counted;
// the majority script wins. Lines with fewer than MinLetters letters or
// with an exact tie are tagged unknown and left out of both aggregations.
func (c *Classifier) Classify(line string) Tag {
	min := c.MinLetters
	if min <= 0 {
		min = DefaultMinLetters
	}

	var dev, lat int
	for _, r := range line {
		switch {
		case isDevanagariLetter(r):
			dev++
		case unicode.Is(unicode.Latin, r):
			lat++
		}
	}

	if dev+lat < min {
		return TagUnknown
	}
	switch {
	case dev > lat:
		return TagSanskrit
	case lat > dev:
		return TagLatin
	}
	return TagUnknown
}

// Classify tags a line using default thresholds.
func Classify(line string) Tag {
	return NewClassifier().Classify(line)
}
