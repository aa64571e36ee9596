// Package hymn turns one normalized hymn block into verse records. It holds
// the header extractor, the verse segmenter, and the record builder; together
// they implement the extraction half of the pipeline.
package hymn

import (
	"regexp"
	"strings"

	"github.com/vedakosh/rigveda/core/script"
)

// DefaultHeaderWindow is how many leading non-empty lines are inspected for
// deity/rishi/metre hints. Lines outside the window are never consulted.
const DefaultHeaderWindow = 3

// deityCodes maps the Devanagari deity code numbers used by the raw mandala
// files to deity names.
var deityCodes = map[string]string{
	"१":  "वायुः",
	"२":  "वरुणः",
	"३":  "मित्रः",
	"४":  "सोम पवमानः",
	"५":  "अश्विनौ",
	"९":  "अग्निः",
	"१०": "इन्द्रः",
	"११": "विष्णुः",
	"१२": "विश्वेदेवाः",
}

var (
	metreRE = regexp.MustCompile(`(?i)(गायत्री|त्रिष्टुप्|अनुष्टुप्|जगती|विराट्|पङ्क्ति|बृहती|अतिजगती|धृतिः|त्रिष्टुभ्|अनुष्टुभ्|gāyatrī|triṣṭubh|anuṣṭubh|jagatī|br̥hatī)`)

	rishiRE = regexp.MustCompile(`(?i)(मधुच्छन्दा|वैश्वामित्र|गृत्समद|वामदेव|गौतम|कश्यप|आङ्गिरस|भरद्वाज|वसिष्ठ|\b(?:Atri|Vishvamitra|Vasistha|Bharadvaja|Kashyapa|Angiras|Gritsamada|Kanva|Dirghatamas)\b)`)

	latinDeityRE = regexp.MustCompile(`(?i)\b(Agni|Indra|Varuna|Soma|Rudra|Vayu|Surya|Mitra|Brahma|Aditi|Usas|Prajapati|Dawn|Dyaus|Ashvins|Maruts|Vishvadevas)\b`)
)

// Header carries the optional hymn metadata recognized in the header window.
// Each field is independently nullable; all-null is the common case.
type Header struct {
	Deity *string
	Rishi *string
	Metre *string
}

// Extractor recognizes hymn headers at the top of a normalized block.
type Extractor struct {
	// Window bounds the number of leading non-empty lines inspected.
	Window int
}

// NewExtractor returns an Extractor with the default window.
func NewExtractor() *Extractor {
	return &Extractor{Window: DefaultHeaderWindow}
}

// Extract inspects the header window of a normalized block and returns the
// recognized header fields plus the remaining body text. Lines are consumed
// as header only when they look like headers and cannot be verse openings;
// when nothing matches the whole block is returned as body.
func (e *Extractor) Extract(block string) (Header, string) {
	var h Header
	if block == "" {
		return h, ""
	}

	window := e.Window
	if window <= 0 {
		window = DefaultHeaderWindow
	}

	lines := strings.Split(block, "\n")
	consumed := 0 // lines[:consumed] are header (or blank padding above it)
	inspected := 0
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		inspected++
		if inspected > window || !isHeaderLine(ln) {
			break
		}
		parseHeaderLine(ln, &h)
		consumed = i + 1
	}

	if consumed == 0 {
		return h, block
	}
	return h, strings.TrimSpace(strings.Join(lines[consumed:], "\n"))
}

// isHeaderLine reports whether a window line should be consumed as header.
// Verse lines terminate in a danda and never look like headers; a line
// containing a verse-number marker is always body.
func isHeaderLine(ln string) bool {
	s := strings.TrimSpace(ln)
	if s == "" {
		return false
	}
	if strings.HasSuffix(s, string(script.Danda)) ||
		strings.HasSuffix(s, string(script.DoubleDanda)) {
		return false
	}
	if containsMarker(s) {
		return false
	}
	if len(dandaParts(s)) >= 2 {
		return true
	}
	return metreRE.MatchString(s) || rishiRE.MatchString(s) || latinDeityRE.MatchString(s)
}

// dandaParts splits a header line on single danda separators, trimming each
// part and dropping empties.
func dandaParts(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, string(script.Danda)) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseHeaderLine fills still-empty header fields from one consumed line.
// Danda-form headers read as "[index rishi] । deity । metre"; token regexes
// catch the rest.
func parseHeaderLine(ln string, h *Header) {
	parts := dandaParts(ln)

	if h.Rishi == nil && len(parts) > 0 {
		fields := strings.Fields(parts[0])
		// The leading field is the sukta index; the seer name follows.
		if len(fields) > 1 {
			if _, ok := script.ParseNumber(fields[0]); ok {
				r := strings.Join(fields[1:], " ")
				h.Rishi = &r
			}
		}
	}
	if h.Deity == nil && len(parts) > 1 {
		d := parts[1]
		if name, ok := deityCodes[d]; ok {
			d = name
		}
		h.Deity = &d
	}
	if h.Metre == nil && len(parts) > 2 {
		m := parts[2]
		h.Metre = &m
	}

	if h.Deity == nil {
		if m := latinDeityRE.FindString(ln); m != "" {
			d := titleCase(m)
			h.Deity = &d
		}
	}
	if h.Rishi == nil {
		if m := rishiRE.FindString(ln); m != "" {
			r := m
			h.Rishi = &r
		}
	}
	if h.Metre == nil {
		if m := metreRE.FindString(ln); m != "" {
			h.Metre = &m
		}
	}

	// Multi-metre headers keep the first entry only.
	if h.Metre != nil && strings.Contains(*h.Metre, ",") {
		m := strings.TrimSpace(strings.SplitN(*h.Metre, ",", 2)[0])
		h.Metre = &m
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
