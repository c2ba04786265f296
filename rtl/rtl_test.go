package rtl

import "testing"

func TestIsHebrew(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"hello 123", false},
		{"שלום", true},
		{"abc ש", true},
		{"\u0591", true}, // cantillation mark
		{"\u05FF", true},
		{"\u0600", false}, // Arabic
		{"\uFB1D", false}, // presentation form, outside the block
	}
	for _, tt := range tests {
		if got := IsHebrew(tt.in); got != tt.want {
			t.Errorf("IsHebrew(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFixLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"םולש", "שלום"},
		{"hello", "hello"},
		{"3 קרפ", "פרק 3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FixLine(tt.in); got != tt.want {
			t.Errorf("FixLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixText(t *testing.T) {
	in := "  םולש  \n\n   \nhello world\n  תוארוה"
	want := "שלום\nhello world\nהוראות"
	if got := FixText(in); got != want {
		t.Errorf("FixText() = %q, want %q", got, want)
	}
}

func TestFixTextEmpty(t *testing.T) {
	for _, in := range []string{"", "\n", "  \n \n"} {
		if got := FixText(in); got != "" {
			t.Errorf("FixText(%q) = %q, want empty", in, got)
		}
	}
}

func TestFixTextNonHebrewUnchanged(t *testing.T) {
	in := "Section 4.2\nAnnex B"
	if got := FixText(in); got != in {
		t.Errorf("FixText(%q) = %q, want unchanged", in, got)
	}
}

func TestFixTextInvolution(t *testing.T) {
	// Applying the fix twice restores the normalised input.
	in := "תוארוה ללכ\nplain\nםיפיעס 3"
	once := FixText(in)
	if once == in {
		t.Fatal("expected Hebrew lines to change")
	}
	if twice := FixText(once); twice != in {
		t.Errorf("FixText(FixText(x)) = %q, want %q", twice, in)
	}
}

func TestFixTextMixedLineReversedWhole(t *testing.T) {
	// Embedded Latin runs are reversed along with the Hebrew.
	got := FixLine("ISO ןקת")
	if got != "תקן OSI" {
		t.Errorf("FixLine() = %q, want %q", got, "תקן OSI")
	}
}
