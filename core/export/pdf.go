//go:build !nopdf

package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"github.com/tacwriter/tac/core/group"
	"github.com/tacwriter/tac/core/model"
)

func init() {
	register(pdfRenderer{})
}

// pdfRenderer produces a paginated PDF. Building with the nopdf tag drops
// this file, and with it the format: AvailableFormats then simply omits
// "pdf".
type pdfRenderer struct{}

func (pdfRenderer) Format() string { return "pdf" }

const cmPerPt = 2.54 / 72.0

func (pdfRenderer) Render(doc *model.Document, units []group.Unit) ([]byte, error) {
	m := doc.DocFormatting.Margins
	pdf := fpdf.New("P", "cm", doc.DocFormatting.PageSize, "")
	pdf.SetTitle(doc.Name, true)
	pdf.SetAuthor(doc.Metadata.Author, true)
	pdf.SetMargins(m.Left, m.Top, m.Right)
	pdf.SetAutoPageBreak(true, m.Bottom)
	pdf.AddPage()

	title := titleStyle()
	pdf.SetFont(pdfFamily(title.FontFamily), pdfFontStyle(title), float64(title.FontSize))
	pdf.MultiCell(0, lineHeight(title), doc.Name, "", "C", false)
	pdf.Ln(title.SpaceAfterCm)

	for _, u := range units {
		ps := styleFor(u.Style)
		pdf.SetFont(pdfFamily(ps.FontFamily), pdfFontStyle(ps), float64(ps.FontSize))
		pdf.Ln(ps.SpaceBeforeCm)

		left := m.Left + ps.LeftIndent
		pdf.SetLeftMargin(left)
		pdf.SetX(left)

		switch {
		case ps.FirstLineIndent > 0:
			// Write flows from the current X, which gives the first
			// line its indent; wrapped lines return to the margin.
			pdf.SetX(left + ps.FirstLineIndent)
			pdf.Write(lineHeight(ps), u.Text)
			pdf.Ln(lineHeight(ps))
		default:
			pdf.MultiCell(0, lineHeight(ps), u.Text, "", pdfAlign(ps.Alignment), false)
		}

		pdf.SetLeftMargin(m.Left)
		pdf.Ln(ps.SpaceAfterCm)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lineHeight(ps ParagraphStyle) float64 {
	return float64(ps.FontSize) * ps.LineSpacing * cmPerPt
}

// pdfFamily maps the document font to one of the PDF core fonts.
func pdfFamily(string) string { return "Helvetica" }

func pdfFontStyle(ps ParagraphStyle) string {
	style := ""
	if ps.Bold {
		style += "B"
	}
	if ps.Italic {
		style += "I"
	}
	return style
}

func pdfAlign(a string) string {
	switch a {
	case model.AlignCenter:
		return "C"
	case model.AlignRight:
		return "R"
	case model.AlignLeft:
		return "L"
	default:
		return "J"
	}
}
