package record

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Ref identifies one verse by its coordinate triple. It doubles as the
// lookup key for translation mappings and store queries.
type Ref struct {
	// Mandala is the book number.
	Mandala int `json:"mandala"`

	// Sukta is the hymn number within the mandala.
	Sukta int `json:"sukta"`

	// Verse is the stanza number within the hymn.
	Verse int `json:"verse"`
}

// refGrammar accepts both reference forms users type:
// the canonical id "RV-01-001-01" and the dotted "1.1.1".
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Canon  *canonRef  `parser:"( @@"`
	Dotted *dottedRef `parser:"| @@ )"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type canonRef struct {
	Prefix  string `parser:"@Ident '-'"`
	Mandala int    `parser:"@Int '-'"`
	Sukta   int    `parser:"@Int '-'"`
	Verse   int    `parser:"@Int"`
}

//nolint:govet // participle grammar tags are not standard struct tags
type dottedRef struct {
	Mandala int `parser:"@Int '.'"`
	Sukta   int `parser:"@Int '.'"`
	Verse   int `parser:"@Int"`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `[.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

// ParseRef parses a verse reference string.
// Supported formats:
//   - "RV-01-001-01" (canonical id, zero padding optional)
//   - "1.1.1" (dotted display form)
func ParseRef(s string) (*Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty reference string")
	}

	parsed, err := refParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid reference format: %q: %w", s, err)
	}

	var ref Ref
	switch {
	case parsed.Canon != nil:
		if !strings.EqualFold(parsed.Canon.Prefix, "RV") {
			return nil, fmt.Errorf("invalid reference format: %q: unknown prefix %q", s, parsed.Canon.Prefix)
		}
		ref = Ref{
			Mandala: parsed.Canon.Mandala,
			Sukta:   parsed.Canon.Sukta,
			Verse:   parsed.Canon.Verse,
		}
	case parsed.Dotted != nil:
		ref = Ref{
			Mandala: parsed.Dotted.Mandala,
			Sukta:   parsed.Dotted.Sukta,
			Verse:   parsed.Dotted.Verse,
		}
	default:
		return nil, fmt.Errorf("invalid reference format: %q", s)
	}

	if ref.Mandala <= 0 || ref.Sukta <= 0 || ref.Verse <= 0 {
		return nil, fmt.Errorf("invalid reference %q: coordinates must be positive", s)
	}
	return &ref, nil
}

// ID returns the canonical identifier for this reference.
func (r Ref) ID() string {
	return FormatID(r.Mandala, r.Sukta, r.Verse)
}

// String returns the dotted display form.
func (r Ref) String() string {
	return FormatVerseID(r.Mandala, r.Sukta, r.Verse)
}
