// Package model defines the document data model for the continuous
// argumentation writing method: typed text blocks, documents that own an
// ordered sequence of them, and the formatting defaults attached to each
// block type. The package is pure data; persistence and rendering live
// elsewhere.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BlockType identifies the role a block plays in the argumentation flow.
// The set is closed: formatting defaults and the grouping engine both switch
// exhaustively over it, so adding a type forces both call sites to change.
type BlockType string

const (
	Title1       BlockType = "title_1"
	Title2       BlockType = "title_2"
	Introduction BlockType = "introduction"
	Argument     BlockType = "argument"
	Quote        BlockType = "quote"
	Conclusion   BlockType = "conclusion"
)

// LegacyQuoteType is the historical name for Quote found in old project
// files. It is accepted on read and never written.
const LegacyQuoteType = "argument_quote"

// AllBlockTypes lists every valid block type.
var AllBlockTypes = []BlockType{Title1, Title2, Introduction, Argument, Quote, Conclusion}

// ParseBlockType converts a stored type string to a BlockType, mapping the
// legacy argument_quote name to Quote.
func ParseBlockType(s string) (BlockType, bool) {
	if s == LegacyQuoteType {
		return Quote, true
	}
	t := BlockType(s)
	for _, known := range AllBlockTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func (t BlockType) String() string { return string(t) }

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	_, ok := ParseBlockType(string(t))
	return ok && t != ""
}

// Alignment values used by Formatting.
const (
	AlignLeft    = "left"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignJustify = "justify"
)

// Formatting holds paragraph-granular formatting for a single block.
// Indents are centimeters, font size is points.
type Formatting struct {
	FontFamily      string  `json:"font_family"`
	FontSize        int     `json:"font_size"`
	LineSpacing     float64 `json:"line_spacing"`
	Alignment       string  `json:"alignment"`
	IndentFirstLine float64 `json:"indent_first_line"`
	IndentLeft      float64 `json:"indent_left"`
	IndentRight     float64 `json:"indent_right"`
	Bold            bool    `json:"bold"`
	Italic          bool    `json:"italic"`
	Underline       bool    `json:"underline"`
}

// Default formatting constants shared by the defaults function and the
// export style table.
const (
	DefaultFontFamily = "Liberation Sans"
	DefaultFontSize   = 12
	Title1FontSize    = 18
	Title2FontSize    = 16
	QuoteFontSize     = 10

	IntroFirstLineIndentCm = 1.5
	QuoteLeftIndentCm      = 4.0
)

// DefaultFormatting returns the creation-time formatting for a block type.
// The switch is exhaustive over BlockType.
func DefaultFormatting(t BlockType) Formatting {
	f := Formatting{
		FontFamily:  DefaultFontFamily,
		FontSize:    DefaultFontSize,
		LineSpacing: 1.5,
		Alignment:   AlignJustify,
	}
	switch t {
	case Title1:
		f.FontSize = Title1FontSize
		f.Bold = true
		f.Alignment = AlignLeft
		f.LineSpacing = 1.2
	case Title2:
		f.FontSize = Title2FontSize
		f.Bold = true
		f.Alignment = AlignLeft
		f.LineSpacing = 1.2
	case Introduction:
		f.IndentFirstLine = IntroFirstLineIndentCm
	case Quote:
		f.FontSize = QuoteFontSize
		f.IndentLeft = QuoteLeftIndentCm
		f.LineSpacing = 1.0
		f.Italic = true
	case Argument, Conclusion:
		// base formatting
	}
	return f
}

// Block is one typed unit of document content. A Block belongs to exactly
// one Document, which owns it and keeps Order consistent with list position.
type Block struct {
	ID         string     `json:"id"`
	Type       BlockType  `json:"type"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt time.Time  `json:"modified_at"`
	Order      int        `json:"order"`
	Formatting Formatting `json:"formatting"`
}

// NewBlock creates a block of the given type with type-specific default
// formatting.
func NewBlock(t BlockType, content string) *Block {
	now := time.Now()
	return &Block{
		ID:         uuid.NewString(),
		Type:       t,
		Content:    content,
		CreatedAt:  now,
		ModifiedAt: now,
		Formatting: DefaultFormatting(t),
	}
}

// UpdateContent replaces the block text and bumps the modified timestamp.
func (b *Block) UpdateContent(content string) {
	b.Content = content
	b.ModifiedAt = time.Now()
}

// UpdateFormatting replaces the block formatting and bumps the modified
// timestamp. Title blocks keep their default font size unless the caller
// explicitly changed it, so routine formatting updates do not shrink titles.
func (b *Block) UpdateFormatting(f Formatting) {
	if f.FontSize == b.Formatting.FontSize || f.FontSize == 0 {
		switch b.Type {
		case Title1:
			f.FontSize = Title1FontSize
		case Title2:
			f.FontSize = Title2FontSize
		default:
			if f.FontSize == 0 {
				f.FontSize = b.Formatting.FontSize
			}
		}
	}
	b.Formatting = f
	b.ModifiedAt = time.Now()
}

// WordCount returns the number of whitespace-separated words in the block.
func (b *Block) WordCount() int {
	return len(strings.Fields(b.Content))
}

// CharacterCount returns the number of characters in the block content,
// optionally excluding spaces.
func (b *Block) CharacterCount(includeSpaces bool) int {
	if includeSpaces {
		return len([]rune(b.Content))
	}
	return len([]rune(strings.ReplaceAll(b.Content, " ", "")))
}

// Clone returns a deep copy of the block with a fresh identity.
func (b *Block) Clone() *Block {
	nb := NewBlock(b.Type, b.Content)
	nb.Formatting = b.Formatting
	return nb
}
