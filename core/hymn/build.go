package hymn

import (
	"strings"

	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/core/script"
)

// DefaultMaxPadas caps the number of quarter-verse units extracted per
// stanza.
const DefaultMaxPadas = 4

// PageLookup resolves the scan page a verse appears on. A nil func or a
// nil result leaves page_number null.
type PageLookup func(ref record.Ref) *int

// Builder assembles one verse record per segment.
type Builder struct {
	// Classifier tags body lines by script. Lines classified Latin are
	// surfaced as candidates only; Unknown lines are dropped from the
	// sanskrit aggregation with an advisory note.
	Classifier *script.Classifier

	// MaxPadas caps pada extraction per stanza.
	MaxPadas int

	// Pages resolves page numbers; may be nil.
	Pages PageLookup
}

// NewBuilder returns a Builder with default thresholds and no page lookup.
func NewBuilder() *Builder {
	return &Builder{
		Classifier: script.NewClassifier(),
		MaxPadas:   DefaultMaxPadas,
	}
}

// BuildInput carries one segment plus its hymn context into the builder.
type BuildInput struct {
	Mandala    int
	Sukta      int
	Segment    Segment
	Header     Header
	SourceFile string

	// Page is the scan page the block came from, when the source carries
	// one explicitly. It wins over the builder's Pages lookup.
	Page *int
}

// BuildResult is a built record plus the Latin-classified lines that were
// excluded from the sanskrit body. Candidates are never auto-assigned to
// translation; only a trusted merge step may use them.
type BuildResult struct {
	Record          *record.Record
	LatinCandidates []string
}

// Build assembles a record from one segment. Ambiguities are recorded as
// advisory notes; the builder never rejects — validation decides whether
// the result is usable.
func (b *Builder) Build(in BuildInput) *BuildResult {
	cls := b.Classifier
	if cls == nil {
		cls = script.NewClassifier()
	}

	var sanskrit []string
	var latin []string
	unknown := 0
	for _, ln := range strings.Split(in.Segment.Text, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		switch cls.Classify(ln) {
		case script.TagSanskrit:
			sanskrit = append(sanskrit, ln)
		case script.TagLatin:
			latin = append(latin, strings.TrimSpace(ln))
		default:
			unknown++
		}
	}

	rec := record.New(in.Mandala, in.Sukta, in.Segment.Index,
		strings.Join(sanskrit, "\n"), in.SourceFile)
	rec.Deity = in.Header.Deity
	rec.Rishi = in.Header.Rishi
	rec.Metre = in.Header.Metre
	rec.Padas = extractPadas(rec.Sanskrit, b.maxPadas())

	if in.Page != nil {
		rec.PageNumber = in.Page
	} else if b.Pages != nil {
		rec.PageNumber = b.Pages(rec.Ref())
	}

	if rec.Deity == nil {
		rec.AppendNote(record.NoteDeityMissing)
	}
	if rec.Rishi == nil {
		rec.AppendNote(record.NoteRishiMissing)
	}
	if rec.Metre == nil {
		rec.AppendNote(record.NoteMetreMissing)
	}
	if len(latin) > 0 {
		rec.AppendNote(record.NoteLatinLinesSkipped)
	}
	if unknown > 0 {
		rec.AppendNote(record.NoteMixedScriptLines)
	}

	return &BuildResult{Record: rec, LatinCandidates: latin}
}

func (b *Builder) maxPadas() int {
	if b.MaxPadas > 0 {
		return b.MaxPadas
	}
	return DefaultMaxPadas
}

// extractPadas splits stanza text on danda boundaries into quarter-verse
// units, trimmed, empties dropped, capped at max. Returns nil when nothing
// splits out; the field serializes as null in that case.
func extractPadas(sanskrit string, max int) []string {
	if sanskrit == "" {
		return nil
	}
	split := strings.FieldsFunc(sanskrit, func(r rune) bool {
		return r == script.Danda || r == script.DoubleDanda
	})
	var padas []string
	for _, p := range split {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p == "" {
			continue
		}
		padas = append(padas, p)
		if len(padas) == max {
			break
		}
	}
	return padas
}
