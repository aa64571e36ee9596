package record

import "testing"

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{in: "RV-01-001-01", want: Ref{1, 1, 1}},
		{in: "RV-10-191-04", want: Ref{10, 191, 4}},
		{in: "RV-1-1-1", want: Ref{1, 1, 1}},
		{in: "rv-02-023-19", want: Ref{2, 23, 19}},
		{in: "1.1.1", want: Ref{1, 1, 1}},
		{in: "10.191.4", want: Ref{10, 191, 4}},
		{in: "  3.62.10  ", want: Ref{3, 62, 10}},
		{in: "", wantErr: true},
		{in: "RV-01-001", wantErr: true},
		{in: "1.1", wantErr: true},
		{in: "XX-01-001-01", wantErr: true},
		{in: "0.1.1", wantErr: true},
		{in: "RV-00-001-01", wantErr: true},
		{in: "agni", wantErr: true},
		{in: "1.1.1.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRef(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q) error = %v", tt.in, err)
			}
			if *got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.in, *got, tt.want)
			}
		})
	}
}

func TestRefID(t *testing.T) {
	ref := Ref{Mandala: 1, Sukta: 1, Verse: 1}
	if got := ref.ID(); got != "RV-01-001-01" {
		t.Errorf("ID() = %q, want %q", got, "RV-01-001-01")
	}
}

func TestRefString(t *testing.T) {
	ref := Ref{Mandala: 10, Sukta: 129, Verse: 7}
	if got := ref.String(); got != "10.129.7" {
		t.Errorf("String() = %q, want %q", got, "10.129.7")
	}
}

func TestParseRefRoundTrip(t *testing.T) {
	for _, id := range []string{"RV-01-001-01", "RV-10-191-04", "RV-05-061-11"} {
		ref, err := ParseRef(id)
		if err != nil {
			t.Fatalf("ParseRef(%q) error = %v", id, err)
		}
		if got := ref.ID(); got != id {
			t.Errorf("round trip %q -> %q", id, got)
		}
	}
}
