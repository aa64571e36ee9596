package merge

import (
	"sort"

	"github.com/vedakosh/rigveda/core/record"
)

// Field selects which record field a merge pass fills.
type Field string

const (
	// FieldTranslation merges into the translation field.
	FieldTranslation Field = "translation"
	// FieldTransliteration merges an externally supplied transliteration
	// table. Still reconciliation, never generation.
	FieldTransliteration Field = "transliteration"
)

var validFields = map[Field]bool{
	FieldTranslation:     true,
	FieldTransliteration: true,
}

// IsValid returns true if the field is mergeable.
func (f Field) IsValid() bool {
	return validFields[f]
}

// Options control a merge pass. The zero value is the conservative default:
// exact (m,s,v) join into translation, never overwriting.
type Options struct {
	// Overwrite replaces already-populated fields and notes the
	// replacement. Off by default; external translations must not
	// override an existing value silently.
	Overwrite bool

	// Sequence enables per-hymn order alignment for entries whose
	// verse_index is missing or mismatched. Applied only to records the
	// exact pass left unfilled.
	Sequence bool

	// Field selects the target field; empty means translation.
	Field Field
}

// Stats summarizes one merge pass.
type Stats struct {
	Records         int `json:"records"`
	MappingEntries  int `json:"mapping_entries"`
	Applied         int `json:"applied"`
	Overwritten     int `json:"overwritten"`
	SequenceApplied int `json:"sequence_applied"`
	Skipped         int `json:"skipped"`
	Missing         int `json:"missing"`
	DuplicateKeys   int `json:"duplicate_keys"`
}

// Matched returns the total number of records a pass filled.
func (s Stats) Matched() int {
	return s.Applied + s.Overwritten + s.SequenceApplied
}

// Apply joins records against the mapping. For each record: an exact
// (m,s,v) hit fills the target field when it is null; a miss appends the
// missing-note; a populated field is left alone unless Overwrite is set.
// The join never touches coordinates and never creates or removes records,
// so re-running it is a no-op on already-merged output.
func Apply(recs []*record.Record, m *Mapping, opts Options) Stats {
	field := opts.Field
	if field == "" {
		field = FieldTranslation
	}

	stats := Stats{
		Records:        len(recs),
		MappingEntries: m.Len(),
		DuplicateKeys:  m.DuplicateKeys,
	}

	var unfilled []*record.Record
	for _, rec := range recs {
		text, ok := m.Lookup(rec.Ref())
		if !ok || text == "" {
			if get(rec, field) == nil {
				unfilled = append(unfilled, rec)
			}
			continue
		}
		switch {
		case get(rec, field) == nil:
			set(rec, field, text)
			stats.Applied++
		case opts.Overwrite:
			set(rec, field, text)
			rec.AppendNote(record.NoteGriffithOverwrite)
			stats.Overwritten++
		default:
			stats.Skipped++
		}
	}

	if opts.Sequence {
		stats.SequenceApplied = applySequence(recs, m, field)
		var still []*record.Record
		for _, rec := range unfilled {
			if get(rec, field) == nil {
				still = append(still, rec)
			}
		}
		unfilled = still
	}

	for _, rec := range unfilled {
		rec.AppendNote(missingNote(field))
		stats.Missing++
	}
	return stats
}

// applySequence aligns the records of each hymn with that hymn's mapping
// entries by order: the i-th entry pairs with the i-th record. A record
// whose field is already populated consumes its entry but is not changed,
// which keeps positions stable across re-runs.
func applySequence(recs []*record.Record, m *Mapping, field Field) int {
	byHymn := make(map[hymnKey][]*record.Record)
	for _, rec := range recs {
		k := hymnKey{rec.Mandala, rec.Sukta}
		byHymn[k] = append(byHymn[k], rec)
	}

	applied := 0
	for k, hymnRecs := range byHymn {
		entries := m.byHymn[k]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(hymnRecs, func(i, j int) bool {
			return hymnRecs[i].VerseIndex < hymnRecs[j].VerseIndex
		})
		sorted := make([]Entry, len(entries))
		copy(sorted, entries)
		sort.SliceStable(sorted, func(i, j int) bool {
			vi, vj := sorted[i].Ref.Verse, sorted[j].Ref.Verse
			if vi <= 0 {
				return false // unnumbered entries keep input order, last
			}
			if vj <= 0 {
				return true
			}
			return vi < vj
		})

		n := len(hymnRecs)
		if len(sorted) < n {
			n = len(sorted)
		}
		for i := 0; i < n; i++ {
			if sorted[i].Text == "" || get(hymnRecs[i], field) != nil {
				continue
			}
			set(hymnRecs[i], field, sorted[i].Text)
			hymnRecs[i].AppendNote(record.NoteGriffithSeqMerged)
			applied++
		}
	}
	return applied
}

func get(rec *record.Record, f Field) *string {
	if f == FieldTransliteration {
		return rec.Transliteration
	}
	return rec.Translation
}

func set(rec *record.Record, f Field, text string) {
	if f == FieldTransliteration {
		rec.Transliteration = &text
		return
	}
	rec.Translation = &text
}

func missingNote(f Field) string {
	if f == FieldTransliteration {
		return record.NoteTranslitMissing
	}
	return record.NoteGriffithMissing
}
