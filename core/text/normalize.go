// Package text provides Unicode normalization for raw hymn blocks.
//
// All pipeline input passes through Normalize before any classification or
// segmentation. The function is pure and idempotent, so re-normalizing
// already-clean text is a no-op and byte-identical output is guaranteed for
// identical input.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suktaEndRE matches the colophon line some mandala files append after the
// last hymn ("॥इति ... मण्डलं समाप्तम्॥"). It carries no verse content.
var suktaEndRE = regexp.MustCompile(`(?s)॥इति .*? मण्डलं समाप्तम्॥`)

// Normalize canonicalizes a raw text block:
//
//   - Unicode NFC composition
//   - \r\n and \r unified to \n
//   - colophon end markers removed
//   - control characters stripped (newline and tab survive)
//   - trailing whitespace removed per line, block trimmed
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = suktaEndRE.ReplaceAllString(s, "")
	s = stripControls(s)

	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimRight(ln, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripControls(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// NonEmptyLines splits normalized text into lines, dropping blank ones.
func NonEmptyLines(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if strings.TrimSpace(ln) != "" {
			out = append(out, ln)
		}
	}
	return out
}

// foldTransformer strips combining marks: NFD decomposition, mark removal,
// NFC recomposition.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics removes combining marks from transliterated Latin text so
// that "gāyatrī" matches a plain "gayatri" query. Not used on Devanagari
// body text, where marks are semantic.
func FoldDiacritics(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
