package store

import (
	"path/filepath"
	"testing"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/record"
)

func strPtr(s string) *string { return &s }

func sampleRecords() []*record.Record {
	agni := record.New(1, 1, 1, "अग्निमीळे पुरोहितं यज्ञस्य देवमृत्विजम्।", "m1.json")
	agni.Deity = strPtr("अग्निः")
	agni.Translation = strPtr("I Laud Agni, the chosen Priest.")
	agni.Padas = []string{"अग्निमीळे पुरोहितं यज्ञस्य देवमृत्विजम्"}

	agni2 := record.New(1, 1, 2, "अग्निः पूर्वेभिर्ऋषिभिरीड्यो नूतनैरुत।", "m1.json")
	agni2.Deity = strPtr("अग्निः")

	vayu := record.New(2, 1, 1, "वायवा याहि दर्शतेमे सोमा अरंकृताः।", "m2.json")
	vayu.Deity = strPtr("वायुः")

	return []*record.Record{agni, agni2, vayu}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadAndGet(t *testing.T) {
	s := openTestStore(t)

	n, err := s.Load(sampleRecords())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Load() = %d, want 3", n)
	}

	rec, err := s.Get("RV-01-001-01")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if rec.VerseID != "1.1.1" {
		t.Errorf("verse_id = %q, want %q", rec.VerseID, "1.1.1")
	}
	if rec.Deity == nil || *rec.Deity != "अग्निः" {
		t.Errorf("deity = %v, want अग्निः", rec.Deity)
	}
	if rec.Translation == nil {
		t.Error("translation lost in round trip")
	}
	if len(rec.Padas) != 1 {
		t.Errorf("padas = %v, want one entry", rec.Padas)
	}
	if rec.Metre != nil || rec.PageNumber != nil || rec.Notes != nil {
		t.Errorf("null fields should stay null: metre=%v page=%v notes=%v",
			rec.Metre, rec.PageNumber, rec.Notes)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("RV-09-099-09")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestGetRef(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(sampleRecords()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	rec, err := s.GetRef(record.Ref{Mandala: 2, Sukta: 1, Verse: 1})
	if err != nil {
		t.Fatalf("GetRef() error: %v", err)
	}
	if rec.ID != "RV-02-001-01" {
		t.Errorf("id = %q, want RV-02-001-01", rec.ID)
	}
}

func TestLoadDuplicate(t *testing.T) {
	s := openTestStore(t)
	recs := sampleRecords()
	if _, err := s.Load(recs); err != nil {
		t.Fatalf("first Load() error: %v", err)
	}

	_, err := s.Load(recs[:1])
	if !errors.Is(err, errors.ErrDuplicate) {
		t.Errorf("Load() error = %v, want ErrDuplicate", err)
	}
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(sampleRecords()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"RV-01-001-01", "RV-01-001-02", "RV-02-001-01"}},
		{"by mandala", Filter{Mandala: 1}, []string{"RV-01-001-01", "RV-01-001-02"}},
		{"by deity", Filter{Deity: "वायुः"}, []string{"RV-02-001-01"}},
		{"mandala and sukta", Filter{Mandala: 1, Sukta: 1}, []string{"RV-01-001-01", "RV-01-001-02"}},
		{"limit", Filter{Limit: 1}, []string{"RV-01-001-01"}},
		{"limit offset", Filter{Limit: 1, Offset: 1}, []string{"RV-01-001-02"}},
		{"no match", Filter{Mandala: 7}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := s.List(tt.filter)
			if err != nil {
				t.Fatalf("List() error: %v", err)
			}
			var got []string
			for _, r := range recs {
				got = append(got, r.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("List() ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("List() ids = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(sampleRecords()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	recs, err := s.Search("वायवा", 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "RV-02-001-01" {
		t.Errorf("Search(वायवा) = %v records, want RV-02-001-01", len(recs))
	}

	// Translation text is searchable too.
	recs, err = s.Search("chosen Priest", 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "RV-01-001-01" {
		t.Errorf("Search(chosen Priest) matched %d records", len(recs))
	}

	if _, err := s.Search("  ", 0); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("empty query error = %v, want ErrInvalidInput", err)
	}
}

func TestSearchLikeEscaping(t *testing.T) {
	s := openTestStore(t)
	rec := record.New(3, 1, 1, "text with 100% certainty", "m3.json")
	if _, err := s.Load([]*record.Record{rec}); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	recs, err := s.Search("100%", 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("literal %% search matched %d records, want 1", len(recs))
	}

	recs, err = s.Search("100)", 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("non-matching search returned %d records", len(recs))
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(sampleRecords()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Records != 3 {
		t.Errorf("Records = %d, want 3", stats.Records)
	}
	if stats.Translated != 1 {
		t.Errorf("Translated = %d, want 1", stats.Translated)
	}
	if len(stats.ByMandala) != 2 {
		t.Fatalf("ByMandala has %d entries, want 2", len(stats.ByMandala))
	}
	first := stats.ByMandala[0]
	if first.Mandala != 1 || first.Verses != 2 || first.Suktas != 1 || first.Translated != 1 {
		t.Errorf("mandala 1 stats = %+v", first)
	}
	if stats.Driver.DriverName == "" {
		t.Error("driver info missing from stats")
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Load(sampleRecords()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Records != 0 {
		t.Errorf("Records after reset = %d, want 0", stats.Records)
	}
}
