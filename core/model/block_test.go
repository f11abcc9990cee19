package model

import "testing"

func TestParseBlockType(t *testing.T) {
	tests := []struct {
		in   string
		want BlockType
		ok   bool
	}{
		{"title_1", Title1, true},
		{"title_2", Title2, true},
		{"introduction", Introduction, true},
		{"argument", Argument, true},
		{"quote", Quote, true},
		{"conclusion", Conclusion, true},
		{"argument_quote", Quote, true}, // legacy name
		{"paragraph", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseBlockType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseBlockType(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDefaultFormatting(t *testing.T) {
	tests := []struct {
		typ       BlockType
		size      int
		align     string
		spacing   float64
		bold      bool
		italic    bool
		firstLine float64
		left      float64
	}{
		{Title1, 18, AlignLeft, 1.2, true, false, 0, 0},
		{Title2, 16, AlignLeft, 1.2, true, false, 0, 0},
		{Introduction, 12, AlignJustify, 1.5, false, false, 1.5, 0},
		{Argument, 12, AlignJustify, 1.5, false, false, 0, 0},
		{Quote, 10, AlignJustify, 1.0, false, true, 0, 4.0},
		{Conclusion, 12, AlignJustify, 1.5, false, false, 0, 0},
	}
	for _, tt := range tests {
		f := DefaultFormatting(tt.typ)
		if f.FontSize != tt.size || f.Alignment != tt.align || f.LineSpacing != tt.spacing ||
			f.Bold != tt.bold || f.Italic != tt.italic ||
			f.IndentFirstLine != tt.firstLine || f.IndentLeft != tt.left {
			t.Errorf("%s formatting = %+v", tt.typ, f)
		}
		if f.FontFamily != DefaultFontFamily {
			t.Errorf("%s font family = %q", tt.typ, f.FontFamily)
		}
	}
}

func TestUpdateFormattingKeepsTitleSize(t *testing.T) {
	b := NewBlock(Title1, "heading")

	// A routine formatting update that does not name a size keeps the
	// title default.
	f := b.Formatting
	f.FontSize = 0
	f.Bold = false
	b.UpdateFormatting(f)
	if b.Formatting.FontSize != Title1FontSize {
		t.Errorf("title size = %d after routine update, want %d", b.Formatting.FontSize, Title1FontSize)
	}
	if b.Formatting.Bold {
		t.Error("bold not updated")
	}

	// An explicit size change is honored.
	f = b.Formatting
	f.FontSize = 22
	b.UpdateFormatting(f)
	if b.Formatting.FontSize != 22 {
		t.Errorf("title size = %d after explicit update, want 22", b.Formatting.FontSize)
	}
}

func TestCounts(t *testing.T) {
	b := NewBlock(Argument, "one two  three")
	if got := b.WordCount(); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := b.CharacterCount(true); got != 14 {
		t.Errorf("CharacterCount(true) = %d, want 14", got)
	}
	if got := b.CharacterCount(false); got != 11 {
		t.Errorf("CharacterCount(false) = %d, want 11", got)
	}

	empty := NewBlock(Argument, "")
	if empty.WordCount() != 0 || empty.CharacterCount(true) != 0 {
		t.Error("empty block counts should be zero")
	}
}

func TestClone(t *testing.T) {
	b := NewBlock(Quote, "cited text")
	b.Formatting.FontSize = 11

	c := b.Clone()
	if c.ID == b.ID {
		t.Error("clone shares the source id")
	}
	if c.Content != b.Content || c.Type != b.Type {
		t.Error("clone content or type differs")
	}
	if c.Formatting != b.Formatting {
		t.Error("clone formatting differs")
	}
}
