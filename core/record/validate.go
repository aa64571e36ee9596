package record

import (
	"fmt"
	"strings"

	rverrors "github.com/vedakosh/rigveda/core/errors"
)

// validateRecordFn is injectable for testing error type handling.
var validateRecordFn = ValidateRecord

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// newValidationError creates a new ValidationError.
func newValidationError(path, message string) error {
	return &ValidationError{Path: path, Message: message}
}

// ValidateRecord checks one record's fields and returns all violations.
// Callers decide which violations are recoverable; see Validator.
func ValidateRecord(r *Record) []error {
	var errs []error

	if r.Mandala <= 0 {
		errs = append(errs, newValidationError("record.mandala", "must be positive"))
	}
	if r.Sukta <= 0 {
		errs = append(errs, newValidationError("record.sukta", "must be positive"))
	}
	if r.VerseIndex <= 0 {
		errs = append(errs, newValidationError("record.verse_index", "must be positive"))
	}
	if strings.TrimSpace(r.Sanskrit) == "" {
		errs = append(errs, newValidationError("record.sanskrit", "text is required"))
	}
	if r.ID == "" {
		errs = append(errs, newValidationError("record.id", "ID is required"))
	} else if r.Mandala > 0 && r.Sukta > 0 && r.VerseIndex > 0 {
		if want := FormatID(r.Mandala, r.Sukta, r.VerseIndex); r.ID != want {
			errs = append(errs, newValidationError("record.id",
				fmt.Sprintf("ID %q does not match coordinates (want %q)", r.ID, want)))
		}
	}
	if r.SourceFile == "" {
		errs = append(errs, newValidationError("record.source_file", "provenance is required"))
	}
	if r.PageNumber != nil && *r.PageNumber <= 0 {
		errs = append(errs, newValidationError("record.page_number", "must be positive when present"))
	}

	return errs
}

// RejectError reports a record that failed hard validation and was dropped.
// The run continues; the error carries enough context to locate the input.
type RejectError struct {
	Source  string   // source file the record came from
	Ref     string   // best-effort verse reference ("1.1.2" or empty)
	Reasons []string // violated constraints
}

func (e *RejectError) Error() string {
	where := e.Source
	if e.Ref != "" {
		where = fmt.Sprintf("%s verse %s", e.Source, e.Ref)
	}
	return fmt.Sprintf("record rejected (%s): %s", where, strings.Join(e.Reasons, "; "))
}

func (e *RejectError) Unwrap() error {
	return rverrors.ErrInvalidInput
}

// Validator applies per-record checks and run-wide id uniqueness. One
// Validator serves one run; its id registry is created with it and
// discarded with it.
type Validator struct {
	registry *Registry

	checked  int
	flagged  int
	rejected int
}

// NewValidator returns a Validator with a fresh id registry.
func NewValidator() *Validator {
	return &Validator{registry: NewRegistry()}
}

// hardPaths are the field violations that make a record unrecoverable.
var hardPaths = map[string]bool{
	"record.mandala":     true,
	"record.sukta":       true,
	"record.verse_index": true,
	"record.sanskrit":    true,
}

// Validate checks one record in sequence order. nil means the record
// passed, possibly with advisory notes appended. A *RejectError means
// the record must be dropped and the run continues. A *DuplicateIDError
// means the run must abort.
func (v *Validator) Validate(rec *Record) error {
	v.checked++

	var hard []string
	var soft []*ValidationError
	for _, err := range validateRecordFn(rec) {
		ve, ok := err.(*ValidationError)
		if !ok {
			hard = append(hard, err.Error())
			continue
		}
		if hardPaths[ve.Path] {
			hard = append(hard, ve.Error())
		} else {
			soft = append(soft, ve)
		}
	}

	if len(hard) > 0 {
		v.rejected++
		return &RejectError{
			Source:  rec.SourceFile,
			Ref:     refOrEmpty(rec),
			Reasons: hard,
		}
	}

	for _, ve := range soft {
		switch ve.Path {
		case "record.id":
			if strings.Contains(ve.Message, "required") {
				rec.AppendNote(NoteIDMissing)
			} else {
				rec.AppendNote(NoteIDMismatch)
			}
		case "record.source_file":
			rec.AppendNote(NoteSourceMissing)
		case "record.page_number":
			rec.AppendNote(NotePageNumberInvalid)
		}
	}
	if len(soft) > 0 {
		v.flagged++
	}

	// Records without a usable id cannot take part in uniqueness tracking;
	// they are already flagged above.
	if rec.ID != "" {
		if err := v.registry.Register(rec.ID, rec.SourceFile); err != nil {
			return err
		}
	}
	return nil
}

func refOrEmpty(rec *Record) string {
	if rec.Mandala > 0 && rec.Sukta > 0 && rec.VerseIndex > 0 {
		return FormatVerseID(rec.Mandala, rec.Sukta, rec.VerseIndex)
	}
	return ""
}

// Checked returns the number of records validated so far.
func (v *Validator) Checked() int { return v.checked }

// Flagged returns the number of records that passed with advisory notes.
func (v *Validator) Flagged() int { return v.flagged }

// Rejected returns the number of records dropped by hard failures.
func (v *Validator) Rejected() int { return v.rejected }
