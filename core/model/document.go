package model

import (
	"time"

	"github.com/google/uuid"
)

// Metadata carries document-level descriptive fields. All fields are
// optional free text except Tags.
type Metadata struct {
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Version     string   `json:"version"`
	Language    string   `json:"language"`
	Subject     string   `json:"subject"`
	Institution string   `json:"institution"`
	Course      string   `json:"course"`
	Professor   string   `json:"professor"`
	DueDate     string   `json:"due_date,omitempty"`
}

// Margins are page margins in centimeters.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// HeaderFooter configures running header/footer content.
type HeaderFooter struct {
	ShowPageNumbers bool   `json:"show_page_numbers"`
	ShowHeader      bool   `json:"show_header"`
	ShowFooter      bool   `json:"show_footer"`
	HeaderText      string `json:"header_text"`
	FooterText      string `json:"footer_text"`
}

// DocFormatting holds page-level formatting for the whole document.
type DocFormatting struct {
	PageSize     string       `json:"page_size"`
	Margins      Margins      `json:"margins"`
	LineSpacing  float64      `json:"line_spacing"`
	FontFamily   string       `json:"font_family"`
	FontSize     int          `json:"font_size"`
	HeaderFooter HeaderFooter `json:"header_footer"`
}

// DefaultMetadata returns the metadata a fresh document starts with.
func DefaultMetadata() Metadata {
	return Metadata{
		Tags:     []string{},
		Version:  "1.0",
		Language: "en",
	}
}

// DefaultDocFormatting returns A4 with standard academic margins.
func DefaultDocFormatting() DocFormatting {
	return DocFormatting{
		PageSize:    "A4",
		Margins:     Margins{Top: 2.5, Bottom: 2.5, Left: 3.0, Right: 3.0},
		LineSpacing: 1.5,
		FontFamily:  DefaultFontFamily,
		FontSize:    DefaultFontSize,
		HeaderFooter: HeaderFooter{
			ShowPageNumbers: true,
		},
	}
}

// Document is the aggregate root: an ordered sequence of blocks plus
// metadata and page formatting. The document exclusively owns its blocks;
// Blocks[i].Order == i holds after every mutating operation.
type Document struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	CreatedAt     time.Time     `json:"created_at"`
	ModifiedAt    time.Time     `json:"modified_at"`
	Blocks        []*Block      `json:"blocks"`
	Metadata      Metadata      `json:"metadata"`
	DocFormatting DocFormatting `json:"document_formatting"`
}

// NewDocument creates an empty document with default metadata and page
// formatting.
func NewDocument(name string) *Document {
	now := time.Now()
	return &Document{
		ID:            uuid.NewString(),
		Name:          name,
		CreatedAt:     now,
		ModifiedAt:    now,
		Metadata:      DefaultMetadata(),
		DocFormatting: DefaultDocFormatting(),
	}
}

// AddBlock appends a block of the given type and returns it.
func (d *Document) AddBlock(t BlockType, content string) *Block {
	b := NewBlock(t, content)
	b.Order = len(d.Blocks)
	d.Blocks = append(d.Blocks, b)
	d.touch()
	return b
}

// InsertBlock inserts a block at the given position, clamped to the valid
// range, and re-sequences block order.
func (d *Document) InsertBlock(t BlockType, content string, position int) *Block {
	b := NewBlock(t, content)
	if position < 0 {
		position = 0
	}
	if position > len(d.Blocks) {
		position = len(d.Blocks)
	}
	d.Blocks = append(d.Blocks, nil)
	copy(d.Blocks[position+1:], d.Blocks[position:])
	d.Blocks[position] = b
	d.resequence()
	d.touch()
	return b
}

// RemoveBlock removes the block with the given id and re-sequences the
// remaining blocks. It reports whether a block was removed.
func (d *Document) RemoveBlock(id string) bool {
	for i, b := range d.Blocks {
		if b.ID == id {
			d.Blocks = append(d.Blocks[:i], d.Blocks[i+1:]...)
			d.resequence()
			d.touch()
			return true
		}
	}
	return false
}

// Block returns the block with the given id, or nil.
func (d *Document) Block(id string) *Block {
	for _, b := range d.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// MoveBlock moves the block with the given id to a new position, clamped to
// the valid range. It reports whether the block was found.
func (d *Document) MoveBlock(id string, position int) bool {
	from := -1
	for i, b := range d.Blocks {
		if b.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}
	b := d.Blocks[from]
	d.Blocks = append(d.Blocks[:from], d.Blocks[from+1:]...)
	if position < 0 {
		position = 0
	}
	if position > len(d.Blocks) {
		position = len(d.Blocks)
	}
	d.Blocks = append(d.Blocks, nil)
	copy(d.Blocks[position+1:], d.Blocks[position:])
	d.Blocks[position] = b
	d.resequence()
	d.touch()
	return true
}

// UpdateMetadata replaces the document metadata.
func (d *Document) UpdateMetadata(m Metadata) {
	d.Metadata = m
	d.touch()
}

// UpdateDocFormatting replaces the page-level formatting.
func (d *Document) UpdateDocFormatting(f DocFormatting) {
	d.DocFormatting = f
	d.touch()
}

// Touch bumps the modified timestamp. Callers that mutate a block in place
// use it to keep the document timestamp honest.
func (d *Document) Touch() { d.touch() }

func (d *Document) touch() { d.ModifiedAt = time.Now() }

func (d *Document) resequence() {
	for i, b := range d.Blocks {
		b.Order = i
	}
}

// SortBlocks orders blocks by their Order field and then re-sequences so the
// invariant Blocks[i].Order == i holds. Used after loading from storage.
func (d *Document) SortBlocks() {
	for i := 1; i < len(d.Blocks); i++ {
		for j := i; j > 0 && d.Blocks[j-1].Order > d.Blocks[j].Order; j-- {
			d.Blocks[j-1], d.Blocks[j] = d.Blocks[j], d.Blocks[j-1]
		}
	}
	d.resequence()
}

// Statistics are derived from the blocks on every call; persisted copies of
// these numbers are caches, never sources of truth.
type Statistics struct {
	TotalBlocks            int               `json:"total_blocks"`
	TotalWords             int               `json:"total_words"`
	TotalCharacters        int               `json:"total_characters"`
	TotalCharactersNoSpace int               `json:"total_characters_no_spaces"`
	BlockTypes             map[BlockType]int `json:"block_types"`
}

// Stats recomputes document statistics from the current blocks.
func (d *Document) Stats() Statistics {
	s := Statistics{
		TotalBlocks: len(d.Blocks),
		BlockTypes:  make(map[BlockType]int, len(AllBlockTypes)),
	}
	for _, t := range AllBlockTypes {
		s.BlockTypes[t] = 0
	}
	for _, b := range d.Blocks {
		s.TotalWords += b.WordCount()
		s.TotalCharacters += b.CharacterCount(true)
		s.TotalCharactersNoSpace += b.CharacterCount(false)
		s.BlockTypes[b.Type]++
	}
	return s
}
