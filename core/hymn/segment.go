package hymn

import (
	"regexp"
	"strings"

	"github.com/vedakosh/rigveda/core/script"
)

// Segment is one stanza-level unit of a hymn body.
type Segment struct {
	// Index is the verse number: the marker value when parseable, the
	// sequential position otherwise.
	Index int

	// Text is the stanza body with internal line breaks preserved.
	Text string
}

var (
	// closingMarkerRE matches the danda-enclosed stanza number that closes
	// a verse in the raw mandala files: ॥1॥ or ॥१॥.
	closingMarkerRE = regexp.MustCompile(`॥\s*([0-9०-९]+)\s*॥`)

	// openingMarkerRE matches line-leading verse numbers that open a
	// stanza: "1.", "1)", "(1)", in Arabic or Devanagari digits. A bare
	// number with no punctuation is not a marker.
	openingMarkerRE = regexp.MustCompile(`^\s*(?:\(\s*([0-9०-९]+)\s*\)|([0-9०-९]+)\s*[.)\-])`)
)

// containsMarker reports whether a line carries a verse-number marker in
// either recognized form.
func containsMarker(line string) bool {
	return closingMarkerRE.MatchString(line) || openingMarkerRE.MatchString(line)
}

// SplitSegments divides a hymn body into ordered verse segments. Only
// explicit numbering markers split: danda-enclosed stanza numbers first,
// line-leading numbers second. A body with no markers is one segment with
// index 1 regardless of line breaks or punctuation, preserving groupings
// the source author intended to keep fused.
func SplitSegments(body string) []Segment {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	if segs := splitClosingMarkers(body); segs != nil {
		return segs
	}
	if segs := splitOpeningMarkers(body); segs != nil {
		return segs
	}
	return []Segment{{Index: 1, Text: body}}
}

// splitClosingMarkers handles the ॥N॥ form, where the marker terminates the
// stanza it numbers. Text after the final marker, if any, becomes a trailing
// segment numbered sequentially.
func splitClosingMarkers(body string) []Segment {
	matches := closingMarkerRE.FindAllStringSubmatchIndex(body, -1)
	if matches == nil {
		return nil
	}

	var segs []Segment
	start := 0
	for _, m := range matches {
		content := strings.TrimSpace(body[start:m[0]])
		start = m[1]
		if content == "" {
			continue
		}
		idx, ok := script.ParseNumber(body[m[2]:m[3]])
		if !ok || idx <= 0 {
			idx = len(segs) + 1
		}
		segs = append(segs, Segment{Index: idx, Text: content})
	}
	if rest := strings.TrimSpace(body[start:]); rest != "" {
		segs = append(segs, Segment{Index: nextIndex(segs), Text: rest})
	}
	return segs
}

// splitOpeningMarkers handles line-leading numbers, where the marker opens
// its stanza. Any unnumbered preamble before the first marker becomes the
// first segment.
func splitOpeningMarkers(body string) []Segment {
	lines := strings.Split(body, "\n")

	type part struct {
		number int // 0 when the marker value did not parse
		lines  []string
	}
	var parts []part
	current := part{}
	opened := false
	for _, ln := range lines {
		m := openingMarkerRE.FindStringSubmatchIndex(ln)
		if m == nil {
			current.lines = append(current.lines, ln)
			continue
		}
		if opened || len(strings.TrimSpace(strings.Join(current.lines, "\n"))) > 0 {
			parts = append(parts, current)
		}
		opened = true
		n, ok := script.ParseNumber(markerDigits(ln, m))
		if !ok {
			n = 0
		}
		rest := strings.TrimSpace(ln[m[1]:])
		current = part{number: n}
		if rest != "" {
			current.lines = append(current.lines, rest)
		}
	}
	if !opened {
		return nil
	}
	parts = append(parts, current)

	var segs []Segment
	for _, p := range parts {
		content := strings.TrimSpace(strings.Join(p.lines, "\n"))
		if content == "" {
			continue
		}
		idx := p.number
		if idx <= 0 {
			idx = nextIndex(segs)
		}
		segs = append(segs, Segment{Index: idx, Text: content})
	}
	return segs
}

// markerDigits extracts the digit group of an opening-marker match,
// whichever alternative matched.
func markerDigits(ln string, m []int) string {
	if m[2] >= 0 {
		return ln[m[2]:m[3]]
	}
	return ln[m[4]:m[5]]
}

// nextIndex returns the sequential index following the last segment.
func nextIndex(segs []Segment) int {
	if len(segs) == 0 {
		return 1
	}
	return segs[len(segs)-1].Index + 1
}
