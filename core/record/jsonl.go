package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	rverrors "github.com/vedakosh/rigveda/core/errors"
)

// maxLineBytes bounds a single JSONL line. Verse records are small; this
// guards against malformed concatenated input.
const maxLineBytes = 4 * 1024 * 1024

// Write encodes records as JSON Lines: UTF-8, one object per line, "\n"
// endings, HTML escaping disabled so Devanagari and quotes stay readable.
// Field order and null handling follow the Record struct exactly, which
// keeps output byte-identical across runs for identical input.
func Write(w io.Writer, recs []*Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, r := range recs {
		if err := enc.Encode(r); err != nil {
			return rverrors.Wrapf(err, "encode record %d (%s)", i, r.ID)
		}
	}
	return nil
}

// Read decodes a JSON Lines stream into records. Blank lines are skipped.
// A malformed line aborts with a ParseError naming the line number.
func Read(r io.Reader) ([]*Record, error) {
	var recs []*Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, &rverrors.ParseError{
				Format:  "JSONL",
				Message: fmt.Sprintf("line %d: %v", lineNo, err),
				Err:     err,
			}
		}
		recs = append(recs, &rec)
	}
	if err := sc.Err(); err != nil {
		return nil, rverrors.Wrap(err, "read JSONL stream")
	}
	return recs, nil
}
