// Package pipeline orchestrates the extraction run: raw hymn blocks in,
// validated verse records out, in input order. The run owns the only piece
// of shared mutable state, the seen-identifier registry, which lives exactly
// as long as the run.
package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vedakosh/rigveda/core/hymn"
	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/core/text"
	"github.com/vedakosh/rigveda/internal/logging"
)

// Block is one raw hymn block as supplied by a source reader. The reader
// has already isolated block boundaries; the pipeline never touches the
// file system.
type Block struct {
	Mandala    int
	Sukta      int
	Text       string
	SourceFile string

	// Page is the scan page the block came from, if the source reader
	// knows it. An explicit page wins over the run's page lookup.
	Page *int
}

// Options configure a run. Zero values select the documented defaults.
type Options struct {
	// HeaderWindow bounds header inspection, in non-empty lines.
	HeaderWindow int

	// MinClassifyRunes is the script classifier's letter threshold.
	MinClassifyRunes int

	// MaxPadas caps pada extraction per stanza.
	MaxPadas int

	// Pages resolves page numbers per verse; may be nil.
	Pages hymn.PageLookup

	// MaxSuktas, when positive, skips blocks whose sukta number exceeds
	// it. Used to cap partial runs.
	MaxSuktas int
}

// Run processes blocks one at a time, synchronously, accumulating records
// in input order. One Run serves one invocation; construct a new Run to
// start over.
type Run struct {
	id        string
	started   time.Time
	opts      Options
	extractor *hymn.Extractor
	builder   *hymn.Builder
	validator *record.Validator

	blocks   int
	skipped  int
	records  []*record.Record
	rejects  []*record.RejectError
	fatalErr error
}

// NewRun constructs a run with a fresh identifier registry.
func NewRun(opts Options) *Run {
	extractor := hymn.NewExtractor()
	if opts.HeaderWindow > 0 {
		extractor.Window = opts.HeaderWindow
	}
	builder := hymn.NewBuilder()
	if opts.MinClassifyRunes > 0 {
		builder.Classifier.MinLetters = opts.MinClassifyRunes
	}
	if opts.MaxPadas > 0 {
		builder.MaxPadas = opts.MaxPadas
	}
	builder.Pages = opts.Pages

	return &Run{
		id:        uuid.NewString(),
		started:   time.Now().UTC(),
		opts:      opts,
		extractor: extractor,
		builder:   builder,
		validator: record.NewValidator(),
	}
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Process pushes one raw block through normalize, header extraction,
// segmentation, building, and validation. Per-record hard failures are
// reported and the run continues; a duplicate verse id aborts the run and
// is returned (and re-returned by Err).
func (r *Run) Process(block Block) error {
	if r.fatalErr != nil {
		return r.fatalErr
	}
	r.blocks++

	if r.opts.MaxSuktas > 0 && block.Sukta > r.opts.MaxSuktas {
		r.skipped++
		return nil
	}

	normalized := text.Normalize(block.Text)
	header, body := r.extractor.Extract(normalized)

	for _, seg := range hymn.SplitSegments(body) {
		res := r.builder.Build(hymn.BuildInput{
			Mandala:    block.Mandala,
			Sukta:      block.Sukta,
			Segment:    seg,
			Header:     header,
			SourceFile: block.SourceFile,
			Page:       block.Page,
		})

		err := r.validator.Validate(res.Record)
		if err == nil {
			r.records = append(r.records, res.Record)
			continue
		}

		var reject *record.RejectError
		if errors.As(err, &reject) {
			r.rejects = append(r.rejects, reject)
			logging.RecordRejected(block.SourceFile, r.blocks, seg.Index, reject.Error())
			continue
		}

		var dup *record.DuplicateIDError
		if errors.As(err, &dup) {
			logging.IDCollision(dup.ID, dup.FirstSource, dup.Source)
		}
		r.fatalErr = err
		return err
	}
	return nil
}

// Records returns the accumulated validated records in input order.
func (r *Run) Records() []*record.Record {
	return r.records
}

// Err returns the run-fatal error, if any.
func (r *Run) Err() error {
	return r.fatalErr
}
