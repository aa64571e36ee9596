// Package merge reconciles built verse records against externally supplied
// translation tables keyed by (mandala, sukta, verse_index).
package merge

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	rverrors "github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/record"
)

// Entry is one translation mapping row.
type Entry struct {
	Ref  record.Ref
	Text string
}

// hymnKey addresses all entries of one hymn for sequence alignment.
type hymnKey struct {
	Mandala int
	Sukta   int
}

// Mapping is a loaded translation table. Keys need not be unique on input;
// the first occurrence wins and later duplicates are counted as advisory.
type Mapping struct {
	byRef  map[record.Ref]string
	byHymn map[hymnKey][]Entry

	// Entries is the number of rows loaded, duplicates included.
	Entries int

	// DuplicateKeys counts rows whose key was already present.
	DuplicateKeys int
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{
		byRef:  make(map[record.Ref]string),
		byHymn: make(map[hymnKey][]Entry),
	}
}

// Add inserts one entry. First match wins: a duplicate key is counted and
// otherwise ignored.
func (m *Mapping) Add(e Entry) {
	m.Entries++
	if _, ok := m.byRef[e.Ref]; ok {
		m.DuplicateKeys++
		return
	}
	m.byRef[e.Ref] = e.Text
	k := hymnKey{e.Ref.Mandala, e.Ref.Sukta}
	m.byHymn[k] = append(m.byHymn[k], e)
}

// Lookup returns the translation for a coordinate triple.
func (m *Mapping) Lookup(ref record.Ref) (string, bool) {
	t, ok := m.byRef[ref]
	return t, ok
}

// Len returns the number of distinct keys.
func (m *Mapping) Len() int {
	return len(m.byRef)
}

// Column aliases accepted in mapping files, matching the spreads the
// Griffith conversions have been distributed with.
var (
	mandalaAliases = []string{"mandala", "mandal", "m"}
	suktaAliases   = []string{"sukta", "hymn", "s"}
	verseAliases   = []string{"verse_index", "verse", "verse_no", "v"}
	textAliases    = []string{"translation_text", "translation", "text"}
)

// LoadFile loads a mapping from a CSV or JSON Lines file, dispatching on
// the extension. A ".jsonl", ".json" or unknown extension is read as JSON.
func LoadFile(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rverrors.NewIO("open", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		m, err := ReadCSV(f)
		if err != nil {
			return nil, rverrors.Wrapf(err, "load mapping %s", path)
		}
		return m, nil
	}
	m, err := ReadJSON(f)
	if err != nil {
		return nil, rverrors.Wrapf(err, "load mapping %s", path)
	}
	return m, nil
}

// ReadCSV reads a mapping in CSV form. The header row is matched against
// the known column aliases; unmatched coordinate columns load as zero and
// only ever match through sequence alignment.
func ReadCSV(r io.Reader) (*Mapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &rverrors.ParseError{Format: "CSV", Message: "missing header row", Err: err}
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	m := NewMapping()
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &rverrors.ParseError{Format: "CSV", Message: err.Error(), Err: err}
		}
		m.Add(Entry{
			Ref: record.Ref{
				Mandala: intColumn(row, cols, mandalaAliases),
				Sukta:   intColumn(row, cols, suktaAliases),
				Verse:   intColumn(row, cols, verseAliases),
			},
			Text: strings.TrimSpace(textColumn(row, cols)),
		})
	}
	return m, nil
}

func intColumn(row []string, cols map[string]int, aliases []string) int {
	for _, a := range aliases {
		i, ok := cols[a]
		if !ok || i >= len(row) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(row[i])); err == nil {
			return n
		}
	}
	return 0
}

func textColumn(row []string, cols map[string]int) string {
	for _, a := range textAliases {
		if i, ok := cols[a]; ok && i < len(row) && row[i] != "" {
			return row[i]
		}
	}
	return ""
}

// mappingRow is the union of field spellings accepted in JSON mappings.
type mappingRow struct {
	Mandala    *int   `json:"mandala"`
	M          *int   `json:"m"`
	Sukta      *int   `json:"sukta"`
	Hymn       *int   `json:"hymn"`
	VerseIndex *int   `json:"verse_index"`
	Verse      *int   `json:"verse"`
	VerseNo    *int   `json:"verse_no"`
	TransText  string `json:"translation_text"`
	Trans      string `json:"translation"`
	Text       string `json:"text"`
}

func (r mappingRow) entry() Entry {
	return Entry{
		Ref: record.Ref{
			Mandala: firstInt(r.Mandala, r.M),
			Sukta:   firstInt(r.Sukta, r.Hymn),
			Verse:   firstInt(r.VerseIndex, r.Verse, r.VerseNo),
		},
		Text: strings.TrimSpace(firstString(r.TransText, r.Trans, r.Text)),
	}
}

func firstInt(ps ...*int) int {
	for _, p := range ps {
		if p != nil {
			return *p
		}
	}
	return 0
}

func firstString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// ReadJSON reads a mapping in JSON Lines form, or as a single JSON array
// when the stream starts with '['.
func ReadJSON(r io.Reader) (*Mapping, error) {
	br := bufio.NewReader(r)
	lead, err := firstByte(br)
	if err == io.EOF {
		return NewMapping(), nil // empty input, empty mapping
	}
	if err != nil {
		return nil, &rverrors.ParseError{Format: "JSON", Message: err.Error(), Err: err}
	}

	m := NewMapping()
	if lead == '[' {
		var rows []mappingRow
		if err := json.NewDecoder(br).Decode(&rows); err != nil {
			return nil, &rverrors.ParseError{Format: "JSON", Message: err.Error(), Err: err}
		}
		for _, row := range rows {
			m.Add(row.entry())
		}
		return m, nil
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var row mappingRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, &rverrors.ParseError{
				Format:  "JSONL",
				Message: "line " + strconv.Itoa(lineNo) + ": " + err.Error(),
				Err:     err,
			}
		}
		m.Add(row.entry())
	}
	if err := sc.Err(); err != nil {
		return nil, rverrors.Wrap(err, "read mapping stream")
	}
	return m, nil
}

// firstByte peeks past leading whitespace without consuming input.
func firstByte(br *bufio.Reader) (byte, error) {
	for n := 1; ; n++ {
		buf, err := br.Peek(n)
		if err != nil {
			return 0, err
		}
		c := buf[n-1]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return c, nil
		}
	}
}
