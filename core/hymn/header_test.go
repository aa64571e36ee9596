package hymn

import (
	"strings"
	"testing"
)

func TestExtractDandaHeader(t *testing.T) {
	block := "१ मधुच्छन्दाः वैश्वामित्रः । ९ । गायत्री\n" +
		"अग्निमीळे पुरोहितं यज्ञस्य देवम् ऋत्विजम् ।\n" +
		"होतारं रत्नधातमम् ॥"

	h, body := NewExtractor().Extract(block)

	if h.Deity == nil || *h.Deity != "अग्निः" {
		t.Errorf("Deity = %v, want अग्निः (code ९ resolved)", strPtr(h.Deity))
	}
	if h.Rishi == nil || *h.Rishi != "मधुच्छन्दाः वैश्वामित्रः" {
		t.Errorf("Rishi = %v, want मधुच्छन्दाः वैश्वामित्रः", strPtr(h.Rishi))
	}
	if h.Metre == nil || *h.Metre != "गायत्री" {
		t.Errorf("Metre = %v, want गायत्री", strPtr(h.Metre))
	}
	if strings.Contains(body, "मधुच्छन्दाः") {
		t.Errorf("body still contains header line: %q", body)
	}
	if !strings.HasPrefix(body, "अग्निमीळे") {
		t.Errorf("body = %q, want verse text first", body)
	}
}

func TestExtractNoHeader(t *testing.T) {
	block := "अग्निमीळे पुरोहितं यज्ञस्य देवम् ऋत्विजम् ।\nहोतारं रत्नधातमम् ॥"

	h, body := NewExtractor().Extract(block)

	if h.Deity != nil || h.Rishi != nil || h.Metre != nil {
		t.Errorf("Extract() found header fields in headerless block: %v %v %v",
			strPtr(h.Deity), strPtr(h.Rishi), strPtr(h.Metre))
	}
	if body != block {
		t.Errorf("body = %q, want unchanged block", body)
	}
}

func TestExtractVerseOpeningNeverConsumed(t *testing.T) {
	// A verse line that happens to mention a deity name must not be eaten
	// just because it sits in the header window.
	block := "अग्निमीळे पुरोहितं यज्ञस्य देवम् ऋत्विजम् ।"

	_, body := NewExtractor().Extract(block)
	if body != block {
		t.Errorf("danda-terminated verse line consumed as header; body = %q", body)
	}
}

func TestExtractLatinTokens(t *testing.T) {
	block := "HYMN TO AGNI, metre gāyatrī\nagnim īḷe purohitaṁ"

	h, _ := NewExtractor().Extract(block)
	if h.Deity == nil || *h.Deity != "Agni" {
		t.Errorf("Deity = %v, want Agni", strPtr(h.Deity))
	}
	if h.Metre == nil || *h.Metre != "gāyatrī" {
		t.Errorf("Metre = %v, want gāyatrī", strPtr(h.Metre))
	}
}

func TestExtractMultiMetreKeepsFirst(t *testing.T) {
	block := "१ मधुच्छन्दाः । ९ । त्रिष्टुप्, १ अतिजगती\nअग्निमीळे पुरोहितम्"

	h, _ := NewExtractor().Extract(block)
	if h.Metre == nil || *h.Metre != "त्रिष्टुप्" {
		t.Errorf("Metre = %v, want त्रिष्टुप् (first of multi-metre)", strPtr(h.Metre))
	}
}

func TestExtractWindowBound(t *testing.T) {
	// A deity token on the fourth non-empty line is outside the window.
	block := "पहली\nदूसरी\nतीसरी\nIndra bringer of rain"

	h, _ := NewExtractor().Extract(block)
	if h.Deity != nil {
		t.Errorf("Deity = %v from line outside header window, want nil", *h.Deity)
	}
}

func TestExtractEmptyBlock(t *testing.T) {
	h, body := NewExtractor().Extract("")
	if h.Deity != nil || h.Rishi != nil || h.Metre != nil || body != "" {
		t.Errorf("Extract(\"\") = %+v, %q; want empty", h, body)
	}
}

func strPtr(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}
