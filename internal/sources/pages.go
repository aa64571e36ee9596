package sources

import (
	"encoding/json"
	"fmt"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/hymn"
	"github.com/vedakosh/rigveda/core/record"
)

// PageTable maps verse coordinates to print page numbers. The source
// format is a JSON object keyed "mandala-sukta-verse".
type PageTable struct {
	pages map[record.Ref]int
}

// LoadPageTable reads a page helper file. Accepts .xz-compressed input.
func LoadPageTable(path string) (*PageTable, error) {
	data, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &errors.ParseError{Format: "JSON", Path: path, Err: err}
	}

	pages := make(map[record.Ref]int, len(raw))
	for key, page := range raw {
		var ref record.Ref
		if _, err := fmt.Sscanf(key, "%d-%d-%d", &ref.Mandala, &ref.Sukta, &ref.Verse); err != nil {
			return nil, &errors.ParseError{
				Format: "JSON",
				Path:   path,
				Err:    fmt.Errorf("bad page key %q: want mandala-sukta-verse", key),
			}
		}
		pages[ref] = page
	}
	return &PageTable{pages: pages}, nil
}

// Len returns the number of page entries.
func (t *PageTable) Len() int { return len(t.pages) }

// Lookup returns the page lookup func the record builder consumes.
func (t *PageTable) Lookup() hymn.PageLookup {
	return func(ref record.Ref) *int {
		page, ok := t.pages[ref]
		if !ok {
			return nil
		}
		return &page
	}
}
