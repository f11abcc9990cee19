package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/tacwriter/tac/core/encoding"
	"github.com/tacwriter/tac/core/group"
	"github.com/tacwriter/tac/core/model"
)

func init() {
	register(odtRenderer{})
}

// odtRenderer builds an OpenDocument Text package: a zip with an
// uncompressed mimetype entry first, then META-INF/manifest.xml,
// content.xml, styles.xml and meta.xml. Paragraph styles are generated
// from the shared style table.
type odtRenderer struct{}

func (odtRenderer) Format() string { return "odt" }

const odtMimetype = "application/vnd.oasis.opendocument.text"

func (odtRenderer) Render(doc *model.Document, units []group.Unit) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be the first entry and stored uncompressed.
	mw, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return nil, err
	}
	if _, err := mw.Write([]byte(odtMimetype)); err != nil {
		return nil, err
	}

	entries := []struct {
		name    string
		content string
	}{
		{"META-INF/manifest.xml", odtManifest()},
		{"content.xml", odtContent(doc, units)},
		{"styles.xml", odtStyles(doc)},
		{"meta.xml", odtMeta(doc)},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func odtManifest() string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
  <manifest:file-entry manifest:full-path="/" manifest:version="1.2" manifest:media-type="application/vnd.oasis.opendocument.text"/>
  <manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
  <manifest:file-entry manifest:full-path="styles.xml" manifest:media-type="text/xml"/>
  <manifest:file-entry manifest:full-path="meta.xml" manifest:media-type="text/xml"/>
</manifest:manifest>
`
}

func odtContent(doc *model.Document, units []group.Unit) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
                        xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
                        xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
                        xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0">
<office:automatic-styles>
`)
	for _, ps := range allStyles() {
		b.WriteString(odtParagraphStyle(ps))
	}
	b.WriteString(`</office:automatic-styles>
<office:body>
<office:text>
`)

	fmt.Fprintf(&b, "<text:p text:style-name=\"Title\">%s</text:p>\n",
		encoding.EscapeXMLText(doc.Name))
	for _, u := range units {
		fmt.Fprintf(&b, "<text:p text:style-name=%q>%s</text:p>\n",
			styleFor(u.Style).Name, odtText(u.Text))
	}

	b.WriteString(`</office:text>
</office:body>
</office:document-content>`)
	return b.String()
}

// odtText escapes unit text and turns embedded newlines (quotes keep
// theirs) into ODT line breaks.
func odtText(s string) string {
	escaped := encoding.EscapeXMLText(s)
	return strings.ReplaceAll(escaped, "\n", "<text:line-break/>")
}

func odtParagraphStyle(ps ParagraphStyle) string {
	var para strings.Builder
	fmt.Fprintf(&para, "fo:text-align=%q", odtAlign(ps.Alignment))
	fmt.Fprintf(&para, " fo:line-height=\"%d%%\"", int(ps.LineSpacing*100))
	if ps.FirstLineIndent > 0 {
		fmt.Fprintf(&para, " fo:text-indent=\"%.1fcm\"", ps.FirstLineIndent)
	}
	if ps.LeftIndent > 0 {
		fmt.Fprintf(&para, " fo:margin-left=\"%.1fcm\"", ps.LeftIndent)
	}
	fmt.Fprintf(&para, " fo:margin-top=\"%.1fcm\" fo:margin-bottom=\"%.1fcm\"",
		ps.SpaceBeforeCm, ps.SpaceAfterCm)

	var text strings.Builder
	fmt.Fprintf(&text, "fo:font-family=%q fo:font-size=\"%dpt\" fo:color=\"#000000\"",
		ps.FontFamily, ps.FontSize)
	if ps.Bold {
		text.WriteString(" fo:font-weight=\"bold\"")
	}
	if ps.Italic {
		text.WriteString(" fo:font-style=\"italic\"")
	}

	return fmt.Sprintf(`  <style:style style:name=%q style:family="paragraph">
    <style:paragraph-properties %s/>
    <style:text-properties %s/>
  </style:style>
`, ps.Name, para.String(), text.String())
}

func odtAlign(a string) string {
	switch a {
	case model.AlignCenter:
		return "center"
	case model.AlignRight:
		return "end"
	case model.AlignLeft:
		return "start"
	default:
		return "justify"
	}
}

func odtStyles(doc *model.Document) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
                       xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0"
                       xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
                       xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0">
<office:styles>
`)
	for _, ps := range allStyles() {
		b.WriteString(odtParagraphStyle(ps))
	}
	m := doc.DocFormatting.Margins
	fmt.Fprintf(&b, `</office:styles>
<office:automatic-styles>
  <style:page-layout style:name="pm1">
    <style:page-layout-properties fo:page-width="21cm" fo:page-height="29.7cm"
                                 fo:margin-top="%.1fcm" fo:margin-bottom="%.1fcm"
                                 fo:margin-left="%.1fcm" fo:margin-right="%.1fcm"/>
  </style:page-layout>
</office:automatic-styles>
<office:master-styles>
  <style:master-page style:name="Standard" style:page-layout-name="pm1"/>
</office:master-styles>
</office:document-styles>`, m.Top, m.Bottom, m.Left, m.Right)
	return b.String()
}

func odtMeta(doc *model.Document) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
                     xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0">
<office:meta>
  <meta:generator>TAC Writer</meta:generator>
  <meta:title>%s</meta:title>
  <meta:initial-creator>%s</meta:initial-creator>
  <meta:creation-date>%s</meta:creation-date>
</office:meta>
</office:document-meta>`,
		encoding.EscapeXMLText(doc.Name),
		encoding.EscapeXMLText(doc.Metadata.Author),
		time.Now().Format(time.RFC3339))
}
