package sample

import (
	"regexp"
	"testing"
)

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"grade levels", `^Grade ([1-9]|1[0-2])$`, "Grade 1"},
		{"plain literal", `^draft$`, "draft"},
		{"unanchored literal", `lesson`, "lesson"},
		{"alternation picks first", `^(easy|medium|hard)$`, "easy"},
		{"digit run", `^\d{5}$`, "00000"},
		{"plus emits one", `^a+$`, "a"},
		{"star emits none", `^ab*$`, "a"},
		{"optional omitted", `^colou?r$`, "color"},
		{"character class low bound", `^[a-f]{3}$`, "aaa"},
		{"mixed", `^MOD-[0-9]{4}(-draft)?$`, "MOD-0000"},
		{"semver-ish", `^v\d+\.\d+$`, "v0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Synthesize(tt.pattern)
			if err != nil {
				t.Fatalf("Synthesize(%q) failed: %v", tt.pattern, err)
			}
			if got != tt.want {
				t.Errorf("Synthesize(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
			if !regexp.MustCompile(tt.pattern).MatchString(got) {
				t.Errorf("Witness %q does not match %q", got, tt.pattern)
			}
		})
	}
}

func TestSynthesizeNegatedClassIsPrintable(t *testing.T) {
	got, err := Synthesize(`^[^0-9]$`)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(got) == 0 || got[0] < ' ' {
		t.Errorf("Expected a printable witness, got %q", got)
	}
}

func TestSynthesizeUnsatisfiable(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"unparseable", `([`},
		{"lookahead unsupported", `(?=abc)def`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Synthesize(tt.pattern); err == nil {
				t.Errorf("Expected Synthesize(%q) to fail", tt.pattern)
			}
		})
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	pattern := `^Grade ([1-9]|1[0-2])$`
	first, err := Synthesize(pattern)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Synthesize(pattern)
		if err != nil {
			t.Fatalf("Synthesize failed on repeat: %v", err)
		}
		if again != first {
			t.Fatalf("Synthesis not deterministic: %q then %q", first, again)
		}
	}
}
