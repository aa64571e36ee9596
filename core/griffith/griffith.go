// Package griffith converts the plain-text Griffith translation of the
// Rigveda into mapping entries keyed by (mandala, sukta, verse_index).
//
// The input is a digitized print edition: book and hymn headings in Roman or
// Arabic numerals, verse paragraphs that may or may not carry explicit
// numbers, and scattered navigation boilerplate. Conversion is stateful over
// the heading sequence and conservative about what counts as verse text.
package griffith

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"

	rverrors "github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/merge"
	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/core/text"
)

// DefaultMinLength is the minimum character count for a paragraph to be
// treated as verse text rather than stray matter.
const DefaultMinLength = 10

var (
	bookRE    = regexp.MustCompile(`(?i)^\s*(?:RIG[-\s]?VEDA\s+BOOK|BOOK|MANDALA|BOOK OF)\b.*?([IVXLCDM]+|\d+)`)
	hymnRE    = regexp.MustCompile(`(?i)^\s*(?:HYMN|HYMN\s+NO|HYMN\s+NUMBER)\b.*?([IVXLCDM]+|\d+)`)
	verseRE   = regexp.MustCompile(`^\s*\(?\s*(\d+|[IVXLCDM]+)\s*\)?\s*(?:[.\-—:)]\s*)?(.*)$`)
	romanOnly = regexp.MustCompile(`(?i)^[IVXLCDM]+$`)

	boilerplateRE = regexp.MustCompile(`(?i)(?:Sacred Texts)|(?:Next:)|(?:Previous:)|(?:Table of Contents)|(?:Index)|(?:All Rights Reserved)|(?:Full Text)|(?:Download Options)|(?:Read Online)|(?:Translated by)|(?:By R\. T\. H\. Griffith)`)

	navWordRE = regexp.MustCompile(`(?i)\b(Next|Previous|Index|Contents|Back)\b`)
	htmlTagRE = regexp.MustCompile(`<[^>]+>`)
	spacesRE  = regexp.MustCompile(`\s+`)
	letterRE  = regexp.MustCompile(`[A-Za-z]`)
)

// Options control conversion.
type Options struct {
	// MinLength filters out paragraphs shorter than this many characters.
	MinLength int

	// AllowRoman additionally accepts Roman numerals as verse numbers.
	// Book and hymn headings accept Roman numerals regardless.
	AllowRoman bool
}

// Stats summarizes one conversion.
type Stats struct {
	Paragraphs int `json:"paragraphs"`
	Skipped    int `json:"skipped"`
	Books      int `json:"books"`
	Hymns      int `json:"hymns"`
	Entries    int `json:"entries"`
}

// Convert parses a plain-text Griffith edition into ordered mapping entries.
func Convert(r io.Reader, opts Options) ([]merge.Entry, Stats, error) {
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}

	paras, err := readParagraphs(r)
	if err != nil {
		return nil, Stats{}, err
	}

	var entries []merge.Entry
	stats := Stats{Paragraphs: len(paras)}
	mandala, sukta, verse := 0, 0, 0

	for _, para := range paras {
		flat := flatten(para)
		if flat == "" || looksLikeJunk(flat) {
			stats.Skipped++
			continue
		}

		if n := headingNumber(bookRE, flat); n > 0 {
			mandala, sukta, verse = n, 0, 0
			stats.Books++
			continue
		}
		if n := headingNumber(hymnRE, flat); n > 0 {
			sukta, verse = n, 0
			stats.Hymns++
			continue
		}

		explicit := false
		for _, ln := range strings.Split(para, "\n") {
			num, rest, ok := verseNumber(ln, opts.AllowRoman)
			if !ok {
				continue
			}
			if rest == "" || len(rest) < minLen {
				rest = flatten(ln)
			}
			if len(rest) < minLen {
				continue
			}
			explicit = true
			verse = num
			entries = append(entries, merge.Entry{
				Ref:  record.Ref{Mandala: mandala, Sukta: sukta, Verse: verse},
				Text: rest,
			})
		}
		if explicit {
			continue
		}

		// Unnumbered paragraph: next stanza in reading order.
		verse++
		if len(flat) < minLen {
			stats.Skipped++
			continue
		}
		entries = append(entries, merge.Entry{
			Ref:  record.Ref{Mandala: mandala, Sukta: sukta, Verse: verse},
			Text: flat,
		})
	}

	stats.Entries = len(entries)
	return entries, stats, nil
}

// readParagraphs splits the input into blank-line-separated paragraphs,
// preserving internal line structure for per-line verse-number detection.
func readParagraphs(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paras []string
	var buf []string
	flush := func() {
		if len(buf) > 0 {
			paras = append(paras, strings.Join(buf, "\n"))
			buf = nil
		}
	}
	for sc.Scan() {
		ln := strings.TrimSpace(sc.Text())
		if ln == "" {
			flush()
			continue
		}
		buf = append(buf, ln)
	}
	if err := sc.Err(); err != nil {
		return nil, rverrors.Wrap(err, "read griffith text")
	}
	flush()
	return paras, nil
}

// flatten normalizes one paragraph to a single cleaned line.
func flatten(para string) string {
	s := htmlTagRE.ReplaceAllString(para, " ")
	s = text.Normalize(s)
	return strings.TrimSpace(spacesRE.ReplaceAllString(s, " "))
}

// looksLikeJunk filters navigation and boilerplate paragraphs.
func looksLikeJunk(flat string) bool {
	if boilerplateRE.MatchString(flat) {
		return true
	}
	if len(letterRE.FindAllString(flat, 4)) < 3 && len(flat) < 40 {
		return true
	}
	if len(flat) < 60 && navWordRE.MatchString(flat) {
		return true
	}
	return false
}

// headingNumber extracts the numeral of a heading line, Roman or Arabic.
func headingNumber(re *regexp.Regexp, flat string) int {
	m := re.FindStringSubmatch(flat)
	if m == nil {
		return 0
	}
	return parseNumeral(m[1], true)
}

// verseNumber recognizes a leading verse number on one line and returns the
// number plus the remaining text.
func verseNumber(ln string, allowRoman bool) (int, string, bool) {
	m := verseRE.FindStringSubmatch(strings.TrimSpace(ln))
	if m == nil {
		return 0, "", false
	}
	n := parseNumeral(m[1], allowRoman)
	if n <= 0 {
		return 0, "", false
	}
	return n, strings.TrimSpace(m[2]), true
}

func parseNumeral(tok string, allowRoman bool) int {
	tok = strings.TrimSpace(tok)
	if romanOnly.MatchString(tok) {
		if !allowRoman {
			return 0
		}
		return romanToInt(tok)
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return n
}

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

func romanToInt(s string) int {
	s = strings.ToUpper(s)
	total, prev := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		v := romanValues[s[i]]
		if v < prev {
			total -= v
		} else {
			total += v
		}
		prev = v
	}
	return total
}

// WriteCSV writes entries in the canonical mapping column order.
func WriteCSV(w io.Writer, entries []merge.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"mandala", "sukta", "verse_index", "translation_text"}); err != nil {
		return rverrors.Wrap(err, "write mapping header")
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Ref.Mandala),
			strconv.Itoa(e.Ref.Sukta),
			strconv.Itoa(e.Ref.Verse),
			e.Text,
		}
		if err := cw.Write(row); err != nil {
			return rverrors.Wrap(err, "write mapping row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSONL writes entries as JSON Lines with the canonical field names.
func WriteJSONL(w io.Writer, entries []merge.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		row := map[string]any{
			"mandala":          e.Ref.Mandala,
			"sukta":            e.Ref.Sukta,
			"verse_index":      e.Ref.Verse,
			"translation_text": e.Text,
		}
		if err := enc.Encode(row); err != nil {
			return rverrors.Wrap(err, "write mapping entry")
		}
	}
	return nil
}
