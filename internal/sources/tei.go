package sources

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/script"
	"github.com/vedakosh/rigveda/core/xml"
)

// teiReader handles TEI XML editions laid out as
// div[@type='book']/div[@type='hymn']/lg. Each lg becomes a stanza in
// the emitted block, closed with a ॥N॥ marker built from lg/@n so the
// downstream segmenter sees the explicit marker form. A hymn head
// element, when present, leads the block so the header extractor can
// pick it up.
type teiReader struct{}

func init() {
	Register(&teiReader{})
}

func (r *teiReader) Name() string { return "tei" }

func (r *teiReader) Detect(path string, data []byte) bool {
	inner := trimXZ(path)
	if !strings.HasSuffix(inner, ".xml") && !strings.HasSuffix(inner, ".tei") {
		return false
	}
	return bytes.Contains(data, []byte("<TEI"))
}

func (r *teiReader) Read(path string, data []byte) ([]RawBlock, error) {
	if vr := xml.Validate(data); !vr.Valid {
		return nil, &errors.ParseError{
			Format:  "TEI",
			Path:    path,
			Message: vr.Errors[0].Message,
		}
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return nil, &errors.ParseError{Format: "TEI", Path: path, Err: err}
	}

	books, err := doc.XPath("//*[local-name()='div'][@type='book']")
	if err != nil {
		return nil, &errors.ParseError{Format: "TEI", Path: path, Err: err}
	}
	if len(books) == 0 {
		return nil, &errors.ParseError{
			Format: "TEI",
			Path:   path,
			Err:    fmt.Errorf("no div[@type='book'] elements"),
		}
	}

	var blocks []RawBlock
	for _, book := range books {
		mandala, ok := attrNumber(book, "n")
		if !ok {
			return nil, &errors.ParseError{
				Format: "TEI",
				Path:   path,
				Err:    fmt.Errorf("book div missing numeric @n"),
			}
		}

		hymns, err := book.XPath(".//*[local-name()='div'][@type='hymn']")
		if err != nil {
			return nil, &errors.ParseError{Format: "TEI", Path: path, Err: err}
		}
		for _, hymn := range hymns {
			sukta, ok := attrNumber(hymn, "n")
			if !ok {
				return nil, &errors.ParseError{
					Format: "TEI",
					Path:   path,
					Err:    fmt.Errorf("hymn div in book %d missing numeric @n", mandala),
				}
			}

			text, err := hymnText(hymn)
			if err != nil {
				return nil, &errors.ParseError{Format: "TEI", Path: path, Err: err}
			}
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
	}
	return blocks, nil
}

// hymnText flattens a hymn div into marker-delimited stanza text.
func hymnText(hymn *xml.Node) (string, error) {
	var b strings.Builder

	if head, err := hymn.XPath("./*[local-name()='head']"); err == nil {
		for _, h := range head {
			line := strings.TrimSpace(h.InnerText())
			if line != "" {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}

	stanzas, err := hymn.XPath(".//*[local-name()='lg']")
	if err != nil {
		return "", err
	}
	for _, lg := range stanzas {
		lines, err := lg.XPath(".//*[local-name()='l']")
		if err != nil {
			return "", err
		}
		var stanza []string
		for _, l := range lines {
			text := strings.TrimSpace(l.InnerText())
			if text != "" {
				stanza = append(stanza, text)
			}
		}
		if len(stanza) == 0 {
			stanza = []string{strings.TrimSpace(lg.InnerText())}
			if stanza[0] == "" {
				continue
			}
		}
		b.WriteString(strings.Join(stanza, "\n"))
		if n, ok := attrNumber(lg, "n"); ok {
			b.WriteString(fmt.Sprintf("॥%d॥", n))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func attrNumber(n *xml.Node, name string) (int, bool) {
	return script.ParseNumber(strings.TrimSpace(n.Attr(name)))
}
