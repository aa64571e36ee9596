// Package sources reads raw mandala text from the supported on-disk
// formats and produces the blocks the extraction pipeline consumes.
//
// Format handlers register themselves at init time. Detection is
// content-based where possible and falls back to the file extension.
// Files ending in .xz are decompressed transparently before detection.
package sources

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/vedakosh/rigveda/core/errors"
)

// RawBlock is one hymn-sized chunk of source text with its coordinates.
// The pipeline turns each block into verse records; readers never parse
// verse content themselves.
type RawBlock struct {
	Mandala    int
	Sukta      int
	Text       string
	SourceFile string
	Page       *int
}

// Reader extracts raw blocks from a single source file.
type Reader interface {
	// Name returns the format identifier (e.g. "json", "txt", "tei").
	Name() string
	// Detect reports whether this reader handles the given file.
	Detect(path string, data []byte) bool
	// Read parses the file contents into blocks.
	Read(path string, data []byte) ([]RawBlock, error)
}

var registry []Reader

// Register adds a reader to the registry. Called from init() in each
// format file; order of registration is the order of detection.
func Register(r Reader) {
	registry = append(registry, r)
}

// Readers returns the names of all registered format readers.
func Readers() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.Name()
	}
	return names
}

// ReaderFor finds the reader that handles the given file, or an
// UnsupportedError if none does.
func ReaderFor(path string, data []byte) (Reader, error) {
	for _, r := range registry {
		if r.Detect(path, data) {
			return r, nil
		}
	}
	return nil, &errors.UnsupportedError{
		Feature: "source format",
		Reason:  "no reader for " + filepath.Base(path),
	}
}

// ReadFile loads a source file, decompressing .xz transparently, and
// dispatches to the matching format reader.
func ReadFile(path string) ([]RawBlock, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := ReaderFor(path, data)
	if err != nil {
		return nil, err
	}
	blocks, err := r.Read(path, data)
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Scan reads every file in dir matching the glob pattern, in
// lexicographic order, and concatenates the blocks. Pattern is matched
// against base names; empty pattern means all regular files.
func Scan(dir, pattern string) ([]RawBlock, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &errors.IOError{Operation: "scan", Path: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if pattern != "" {
			ok, err := filepath.Match(pattern, name)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidInput, "bad glob pattern %q", pattern)
			}
			if !ok {
				continue
			}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var blocks []RawBlock
	for _, name := range names {
		fileBlocks, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		blocks = append(blocks, fileBlocks...)
	}
	return blocks, nil
}

func loadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.IOError{Operation: "read", Path: path, Err: err}
	}
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &errors.IOError{Operation: "decompress", Path: path, Err: err}
		}
		plain, err := io.ReadAll(xr)
		if err != nil {
			return nil, &errors.IOError{Operation: "decompress", Path: path, Err: err}
		}
		return plain, nil
	}
	return data, nil
}

// trimXZ strips a trailing .xz so extension-based detection sees the
// inner format.
func trimXZ(path string) string {
	return strings.TrimSuffix(path, ".xz")
}

var mandalaNameRE = regexp.MustCompile(`(?i)mandala[_\- ]?([0-9]+)`)

// mandalaFromName recovers a mandala number from a file name like
// rigveda_mandala_3.json. Returns 0 when the name carries none.
func mandalaFromName(path string) int {
	m := mandalaNameRE.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
