package export

import (
	"github.com/tacwriter/tac/core/group"
	"github.com/tacwriter/tac/core/model"
)

// ParagraphStyle is one renderer-independent paragraph definition. Each
// renderer maps these fields onto its own vocabulary (ODT style elements,
// PDF font and indent calls, text layout).
type ParagraphStyle struct {
	Name            string
	FontFamily      string
	FontSize        int
	LineSpacing     float64
	Alignment       string
	FirstLineIndent float64 // cm
	LeftIndent      float64 // cm
	Bold            bool
	Italic          bool
	SpaceBeforeCm   float64
	SpaceAfterCm    float64
}

// styleFor maps a grouped-unit style to its paragraph definition. The
// table is derived from the block formatting defaults, so exports match
// what the editor shows.
func styleFor(s group.Style) ParagraphStyle {
	switch s {
	case group.StandaloneTitle1:
		return fromFormatting("Title1", model.DefaultFormatting(model.Title1), 0.5, 0.5)
	case group.StandaloneTitle2:
		return fromFormatting("Title2", model.DefaultFormatting(model.Title2), 0.5, 0.5)
	case group.StandaloneQuote:
		return fromFormatting("Quote", model.DefaultFormatting(model.Quote), 0.3, 0.3)
	case group.Leading:
		return fromFormatting("Introduction", model.DefaultFormatting(model.Introduction), 0.3, 0.3)
	default:
		return fromFormatting("Normal", model.DefaultFormatting(model.Argument), 0.3, 0.3)
	}
}

// titleStyle is the document name heading at the top of every export.
func titleStyle() ParagraphStyle {
	f := model.DefaultFormatting(model.Title1)
	ps := fromFormatting("Title", f, 0.5, 0.5)
	ps.Alignment = model.AlignCenter
	return ps
}

func fromFormatting(name string, f model.Formatting, before, after float64) ParagraphStyle {
	return ParagraphStyle{
		Name:            name,
		FontFamily:      f.FontFamily,
		FontSize:        f.FontSize,
		LineSpacing:     f.LineSpacing,
		Alignment:       f.Alignment,
		FirstLineIndent: f.IndentFirstLine,
		LeftIndent:      f.IndentLeft,
		Bold:            f.Bold,
		Italic:          f.Italic,
		SpaceBeforeCm:   before,
		SpaceAfterCm:    after,
	}
}

// allStyles lists every paragraph style a renderer may need to declare up
// front (ODT declares styles before content).
func allStyles() []ParagraphStyle {
	return []ParagraphStyle{
		titleStyle(),
		styleFor(group.StandaloneTitle1),
		styleFor(group.StandaloneTitle2),
		styleFor(group.Leading),
		styleFor(group.StandaloneQuote),
		styleFor(group.Continuation),
	}
}
