package sources

import (
	"regexp"
	"strings"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/script"
)

// txtReader handles plain-text mandala files: hymns separated by blank
// lines, each opened by a heading like "सूक्तम् १", "SUKTA 12" or
// "HYMN 3". The mandala number comes from the file name; hymns without
// a heading continue the previous sukta sequence.
type txtReader struct{}

func init() {
	Register(&txtReader{})
}

func (r *txtReader) Name() string { return "txt" }

func (r *txtReader) Detect(path string, data []byte) bool {
	return strings.HasSuffix(trimXZ(path), ".txt")
}

var (
	suktaHeadingRE = regexp.MustCompile(`(?i)^\s*(?:सूक्तम्|SUKTA|HYMN)\s+([0-9०-९]+)\s*$`)
	blankLineRE    = regexp.MustCompile(`\n\s*\n`)
)

func (r *txtReader) Read(path string, data []byte) ([]RawBlock, error) {
	mandala := mandalaFromName(path)
	if mandala == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"%s: file name carries no mandala number", path)
	}

	var blocks []RawBlock
	sukta := 0
	for _, chunk := range splitBlankLines(string(data)) {
		lines := strings.Split(chunk, "\n")
		if m := suktaHeadingRE.FindStringSubmatch(lines[0]); m != nil {
			n, ok := script.ParseNumber(m[1])
			if !ok {
				return nil, &errors.ParseError{
					Format: "TXT",
					Path:   path,
					Err:    errors.Wrapf(errors.ErrInvalidInput, "bad sukta heading %q", lines[0]),
				}
			}
			sukta = n
			lines = lines[1:]
		} else {
			sukta++
		}

		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if text == "" {
			continue
		}
		blocks = append(blocks, RawBlock{
			Mandala:    mandala,
			Sukta:      sukta,
			Text:       text,
			SourceFile: path,
		})
	}
	return blocks, nil
}

// splitBlankLines splits text into chunks separated by one or more
// blank lines, dropping empty chunks.
func splitBlankLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var chunks []string
	for _, part := range blankLineRE.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}
