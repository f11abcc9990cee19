package export

import (
	"strings"

	"github.com/tacwriter/tac/core/group"
	"github.com/tacwriter/tac/core/model"
)

func init() {
	register(txtRenderer{})
}

// txtRenderer writes the plain text layout: the document name underlined
// with "=", author and date lines, "#"/"##" titles, quotes as an indented
// [QUOTE] block, and each grouped run as a single line.
type txtRenderer struct{}

func (txtRenderer) Format() string { return "txt" }

func (txtRenderer) Render(doc *model.Document, units []group.Unit) ([]byte, error) {
	var b strings.Builder

	b.WriteString(doc.Name + "\n")
	b.WriteString(strings.Repeat("=", len(doc.Name)) + "\n\n")

	if doc.Metadata.Author != "" {
		b.WriteString("Author: " + doc.Metadata.Author + "\n")
	}
	if doc.Metadata.DueDate != "" {
		b.WriteString("Date: " + doc.Metadata.DueDate + "\n")
	}
	b.WriteString("\n")

	for _, u := range units {
		switch u.Style {
		case group.StandaloneTitle1:
			b.WriteString("# " + u.Text + "\n\n")
		case group.StandaloneTitle2:
			b.WriteString("## " + u.Text + "\n\n")
		case group.StandaloneQuote:
			b.WriteString("[QUOTE]\n")
			for _, line := range strings.Split(u.Text, "\n") {
				b.WriteString("    " + line + "\n")
			}
			b.WriteString("\n")
		default:
			b.WriteString(u.Text + "\n\n")
		}
	}

	return []byte(b.String()), nil
}
