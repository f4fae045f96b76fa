package repository

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestDecodeTagRow(t *testing.T) {
	repo := &personnelRepo{log: zerolog.Nop()}

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"valid list", `["Bereitschaften (BD)","Spätdienste (Spät)"]`, []string{"Bereitschaften (BD)", "Spätdienste (Spät)"}},
		{"empty list", `[]`, nil},
		{"empty column", ``, nil},
		{"corrupt json degrades to empty", `["Bereitschaften (BD)`, nil},
		{"wrong type degrades to empty", `{"tags":true}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repo.decodeTagRow(7, tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("decodeTagRow(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("decodeTagRow(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEncodeTags(t *testing.T) {
	if got := encodeTags(nil); got != "[]" {
		t.Errorf("encodeTags(nil) = %q, want []", got)
	}
	if got := encodeTags([]string{"Rufdienste (RD)"}); got != `["Rufdienste (RD)"]` {
		t.Errorf("encodeTags = %q", got)
	}
}
