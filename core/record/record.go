// Package record defines the canonical verse record, its identifier scheme,
// the advisory notes channel, validation, and the JSON Lines codec.
//
// A record is created once by the hymn builder, may be mutated exactly once
// by the translation merger, and is thereafter immutable. Downstream
// consumers treat the record stream as append-only.
package record

import (
	"fmt"
	"strings"

	rverrors "github.com/vedakosh/rigveda/core/errors"
)

// Record is the unit of pipeline output: one verse of one hymn.
type Record struct {
	// ID is the globally unique identifier, derived deterministically
	// from the coordinates (e.g., "RV-01-001-01").
	ID string `json:"id"`

	// Mandala is the book number (1-indexed).
	Mandala int `json:"mandala"`

	// Sukta is the hymn number within the mandala (1-indexed).
	Sukta int `json:"sukta"`

	// VerseIndex is the stanza number within the hymn (1-indexed).
	VerseIndex int `json:"verse_index"`

	// VerseID is the display form "mandala.sukta.verse_index". It is
	// presentational only and never used as a key.
	VerseID string `json:"verse_id"`

	// Deity is the dedicatee named by the hymn header, if recognized.
	Deity *string `json:"deity"`

	// Rishi is the seer named by the hymn header, if recognized.
	Rishi *string `json:"rishi"`

	// Sanskrit is the original-script body text with internal line
	// breaks preserved. Required.
	Sanskrit string `json:"sanskrit"`

	// Transliteration is filled only by a trusted merge, never derived.
	Transliteration *string `json:"transliteration"`

	// Translation is filled only by a trusted merge, never derived.
	Translation *string `json:"translation"`

	// Metre is the metre named by the hymn header, if recognized.
	Metre *string `json:"metre"`

	// Padas are the quarter-verse units of Sanskrit, split on danda
	// boundaries, at most four. Presentational only.
	Padas []string `json:"padas"`

	// SourceFile is the provenance pointer to the raw input file.
	SourceFile string `json:"source_file"`

	// PageNumber is the scan page this verse appears on, if known.
	PageNumber *int `json:"page_number"`

	// Notes is the advisory channel: ";"-joined tokens recording parser
	// ambiguity. Append-only; never used for control flow.
	Notes *string `json:"notes"`
}

// Advisory note tokens.
const (
	NoteDeityMissing      = "deity_missing"
	NoteRishiMissing      = "rishi_missing"
	NoteMetreMissing      = "metre_missing"
	NoteLatinLinesSkipped = "latin_lines_skipped"
	NoteMixedScriptLines  = "mixed_script_lines"
	NotePageNumberInvalid = "page_number_invalid"
	NoteIDMissing         = "id_missing"
	NoteIDMismatch        = "id_mismatch"
	NoteSourceMissing     = "source_missing"
	NoteGriffithMissing   = "griffith_missing"
	NoteGriffithOverwrite = "griffith_overwritten"
	NoteGriffithSeqMerged = "griffith_seq_merged"
	NoteTranslitMissing   = "translit_missing"
)

// FormatID renders the canonical identifier for a coordinate triple:
// "RV-" + zero-padded mandala(2), sukta(3), verse(2).
func FormatID(mandala, sukta, verse int) string {
	return fmt.Sprintf("RV-%02d-%03d-%02d", mandala, sukta, verse)
}

// FormatVerseID renders the display identifier "mandala.sukta.verse".
func FormatVerseID(mandala, sukta, verse int) string {
	return fmt.Sprintf("%d.%d.%d", mandala, sukta, verse)
}

// New constructs a record for the given coordinates with both identifier
// forms synthesized. Optional fields start null.
func New(mandala, sukta, verse int, sanskrit, sourceFile string) *Record {
	return &Record{
		ID:         FormatID(mandala, sukta, verse),
		Mandala:    mandala,
		Sukta:      sukta,
		VerseIndex: verse,
		VerseID:    FormatVerseID(mandala, sukta, verse),
		Sanskrit:   sanskrit,
		SourceFile: sourceFile,
	}
}

// Ref returns the record's coordinate triple.
func (r *Record) Ref() Ref {
	return Ref{Mandala: r.Mandala, Sukta: r.Sukta, Verse: r.VerseIndex}
}

// HasNote reports whether the notes channel already carries the token.
func (r *Record) HasNote(token string) bool {
	if r.Notes == nil {
		return false
	}
	for _, t := range strings.Split(*r.Notes, ";") {
		if t == token {
			return true
		}
	}
	return false
}

// AppendNote adds an advisory token to the notes channel. Tokens are
// ";"-joined and duplicates are collapsed, which keeps repeated merge
// passes idempotent.
func (r *Record) AppendNote(token string) {
	if token == "" || r.HasNote(token) {
		return
	}
	if r.Notes == nil || *r.Notes == "" {
		n := token
		r.Notes = &n
		return
	}
	n := *r.Notes + ";" + token
	r.Notes = &n
}

// DuplicateIDError reports a verse id emitted twice within one run. This
// aborts the run: admitting the duplicate would corrupt the uniqueness
// invariant every downstream consumer relies on.
type DuplicateIDError struct {
	ID          string // the colliding identifier
	FirstSource string // source file that produced the id first
	Source      string // source file that produced it again
}

func (e *DuplicateIDError) Error() string {
	if e.FirstSource == e.Source {
		return fmt.Sprintf("duplicate verse id %s within %s", e.ID, e.Source)
	}
	return fmt.Sprintf("duplicate verse id %s: first from %s, again from %s",
		e.ID, e.FirstSource, e.Source)
}

func (e *DuplicateIDError) Unwrap() error {
	return rverrors.ErrDuplicate
}

// Registry tracks the verse ids seen during one run. It is constructed at
// run start and discarded at run end; there is no hidden global state.
type Registry struct {
	seen map[string]string // id -> first source file
}

// NewRegistry returns an empty id registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]string)}
}

// Register records an id. A second registration of the same id returns a
// *DuplicateIDError naming both sources.
func (g *Registry) Register(id, source string) error {
	if first, ok := g.seen[id]; ok {
		return &DuplicateIDError{ID: id, FirstSource: first, Source: source}
	}
	g.seen[id] = source
	return nil
}

// Seen reports whether the id has been registered.
func (g *Registry) Seen(id string) bool {
	_, ok := g.seen[id]
	return ok
}

// Len returns the number of registered ids.
func (g *Registry) Len() int {
	return len(g.seen)
}
