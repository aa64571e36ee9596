package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vedakosh/rigveda/core/errors"
)

// jsonReader handles the raw mandala layout: a JSON array of objects
// with mandala, sukta, text (string or array of lines), and an optional
// page number. Entries missing a mandala inherit one from the file name.
type jsonReader struct{}

func init() {
	Register(&jsonReader{})
}

func (r *jsonReader) Name() string { return "json" }

func (r *jsonReader) Detect(path string, data []byte) bool {
	if !strings.HasSuffix(trimXZ(path), ".json") {
		return false
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\uFEFF")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// jsonBlock mirrors one entry of the raw source array.
type jsonBlock struct {
	Mandala int       `json:"mandala"`
	Sukta   int       `json:"sukta"`
	Text    blockText `json:"text"`
	Page    *int      `json:"page,omitempty"`
}

// blockText accepts either a single string or an array of lines.
type blockText string

func (t *blockText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = blockText(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("text must be a string or an array of strings")
	}
	*t = blockText(strings.Join(lines, "\n"))
	return nil
}

func (r *jsonReader) Read(path string, data []byte) ([]RawBlock, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	var entries []jsonBlock
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &errors.ParseError{Format: "JSON", Path: path, Err: err}
	}

	fallback := mandalaFromName(path)
	blocks := make([]RawBlock, 0, len(entries))
	for i, e := range entries {
		mandala := e.Mandala
		if mandala == 0 {
			mandala = fallback
		}
		if mandala == 0 || e.Sukta == 0 {
			return nil, &errors.ParseError{
				Format: "JSON",
				Path:   path,
				Err:    fmt.Errorf("entry %d missing mandala or sukta", i),
			}
		}
		blocks = append(blocks, RawBlock{
			Mandala:    mandala,
			Sukta:      e.Sukta,
			Text:       string(e.Text),
			SourceFile: path,
			Page:       e.Page,
		})
	}
	return blocks, nil
}
