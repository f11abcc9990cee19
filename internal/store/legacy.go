package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/model"
)

// The legacy on-disk format is one JSON file per document. Timestamps come
// in several historical shapes and block type "argument_quote" is the old
// name for Quote; both are accepted on read. Writing always produces the
// current shape, which doubles as the trash snapshot format.

type legacyBlock struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Content    string            `json:"content"`
	CreatedAt  string            `json:"created_at"`
	ModifiedAt string            `json:"modified_at"`
	Order      int               `json:"order"`
	Formatting *model.Formatting `json:"formatting"`
}

type legacyDocument struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	CreatedAt     string               `json:"created_at"`
	ModifiedAt    string               `json:"modified_at"`
	Blocks        []legacyBlock        `json:"blocks"`
	Metadata      *model.Metadata      `json:"metadata"`
	DocFormatting *model.DocFormatting `json:"document_formatting"`
}

// DecodeLegacyDocument parses one legacy JSON document. Structural problems
// come back as a ValidationError so migration can set the file aside and
// continue.
func DecodeLegacyDocument(data []byte) (*model.Document, error) {
	var ld legacyDocument
	if err := json.Unmarshal(data, &ld); err != nil {
		return nil, &errors.ValidationError{Message: "not valid JSON", Err: err}
	}
	if strings.TrimSpace(ld.ID) == "" {
		return nil, errors.NewValidation("id", "is missing")
	}
	if strings.TrimSpace(ld.Name) == "" {
		return nil, errors.NewValidation("name", "is missing")
	}

	doc := &model.Document{
		ID:         ld.ID,
		Name:       ld.Name,
		CreatedAt:  parseTime(ld.CreatedAt),
		ModifiedAt: parseTime(ld.ModifiedAt),
	}
	if ld.Metadata != nil {
		doc.Metadata = *ld.Metadata
	} else {
		doc.Metadata = model.DefaultMetadata()
	}
	if ld.DocFormatting != nil {
		doc.DocFormatting = *ld.DocFormatting
	} else {
		doc.DocFormatting = model.DefaultDocFormatting()
	}

	for i, lb := range ld.Blocks {
		t, ok := model.ParseBlockType(lb.Type)
		if !ok {
			return nil, errors.NewValidation("blocks", fmt.Sprintf("block %d has unknown type %q", i, lb.Type))
		}
		b := &model.Block{
			ID:         lb.ID,
			Type:       t,
			Content:    lb.Content,
			CreatedAt:  parseTime(lb.CreatedAt),
			ModifiedAt: parseTime(lb.ModifiedAt),
			Order:      lb.Order,
		}
		if b.ID == "" {
			return nil, errors.NewValidation("blocks", fmt.Sprintf("block %d has no id", i))
		}
		if lb.Formatting != nil {
			b.Formatting = *lb.Formatting
		} else {
			b.Formatting = model.DefaultFormatting(t)
		}
		doc.Blocks = append(doc.Blocks, b)
	}

	doc.SortBlocks()
	return doc, nil
}

// ParseLegacyFile reads and decodes one legacy document file.
func ParseLegacyFile(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	doc, err := DecodeLegacyDocument(data)
	if err != nil {
		var ve *errors.ValidationError
		if errors.As(err, &ve) {
			ve.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// EncodeLegacyDocument renders a document in the legacy JSON shape. Used
// for trash snapshots, which stay restorable by the same decode path.
func EncodeLegacyDocument(doc *model.Document) ([]byte, error) {
	ld := legacyDocument{
		ID:            doc.ID,
		Name:          doc.Name,
		CreatedAt:     doc.CreatedAt.UTC().Format(timeLayout),
		ModifiedAt:    doc.ModifiedAt.UTC().Format(timeLayout),
		Metadata:      &doc.Metadata,
		DocFormatting: &doc.DocFormatting,
	}
	for _, b := range doc.Blocks {
		f := b.Formatting
		ld.Blocks = append(ld.Blocks, legacyBlock{
			ID:         b.ID,
			Type:       string(b.Type),
			Content:    b.Content,
			CreatedAt:  b.CreatedAt.UTC().Format(timeLayout),
			ModifiedAt: b.ModifiedAt.UTC().Format(timeLayout),
			Order:      b.Order,
			Formatting: &f,
		})
	}
	data, err := json.MarshalIndent(ld, "", "  ")
	if err != nil {
		return nil, errors.NewSerialization("document", err)
	}
	return data, nil
}
