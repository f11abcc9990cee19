package export

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/group"
	"github.com/tacwriter/tac/core/model"
)

func sampleDocument() *model.Document {
	doc := model.NewDocument("Essay on Method")
	doc.Metadata.Author = "Ada"
	doc.AddBlock(model.Title1, "The Question")
	doc.AddBlock(model.Introduction, "First, consider the premise.")
	doc.AddBlock(model.Argument, "It follows directly.")
	doc.AddBlock(model.Quote, "As the source puts it\non two lines.")
	doc.AddBlock(model.Argument, "Resuming the thread.")
	doc.AddBlock(model.Conclusion, "Therefore it holds.")
	return doc
}

func TestAvailableFormats(t *testing.T) {
	formats := AvailableFormats()
	have := make(map[string]bool)
	for _, f := range formats {
		have[f] = true
	}
	for _, want := range []string{"txt", "odt"} {
		if !have[want] {
			t.Errorf("format %s missing from %v", want, formats)
		}
	}
	if !Supported("TXT") {
		t.Error("Supported should be case-insensitive")
	}
	if Supported("docx") {
		t.Error("docx should not be supported")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := Export(sampleDocument(), t.TempDir(), "docx")
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestTxtLayout(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sampleDocument(), dir, "txt")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	want := "Essay on Method\n" +
		"===============\n\n" +
		"Author: Ada\n\n" +
		"# The Question\n\n" +
		"First, consider the premise. It follows directly.\n\n" +
		"[QUOTE]\n" +
		"    As the source puts it\n" +
		"    on two lines.\n\n" +
		"Resuming the thread. Therefore it holds.\n\n"
	if got != want {
		t.Errorf("txt output:\n%q\nwant:\n%q", got, want)
	}
}

func TestExportCollisionNaming(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDocument()
	first, err := Export(doc, dir, "txt")
	if err != nil {
		t.Fatalf("first Export failed: %v", err)
	}
	second, err := Export(doc, dir, "txt")
	if err != nil {
		t.Fatalf("second Export failed: %v", err)
	}
	if first == second {
		t.Fatal("second export overwrote the first")
	}
	if filepath.Base(second) != "Essay on Method (1).txt" {
		t.Errorf("collision name = %s", filepath.Base(second))
	}
}

func TestExportSanitizesName(t *testing.T) {
	doc := sampleDocument()
	doc.Name = "a/b:c"
	path, err := Export(doc, t.TempDir(), "txt")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != "a_b_c.txt" {
		t.Errorf("sanitized name = %s", filepath.Base(path))
	}
}

func TestTxtDeterministic(t *testing.T) {
	doc := sampleDocument()
	units := group.Fold(doc.Blocks)
	a, err := txtRenderer{}.Render(doc, units)
	if err != nil {
		t.Fatal(err)
	}
	b, err := txtRenderer{}.Render(doc, units)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("txt output not deterministic")
	}
}

func readZipEntry(t *testing.T, zr *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return string(data)
		}
	}
	t.Fatalf("entry %s missing from package", name)
	return ""
}

func TestOdtPackage(t *testing.T) {
	doc := sampleDocument()
	doc.Blocks[2].UpdateContent("Salt & pepper < sugar.")
	units := group.Fold(doc.Blocks)

	data, err := odtRenderer{}.Render(doc, units)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("not a zip: %v", err)
	}

	// mimetype must be the first entry, stored uncompressed.
	if len(zr.File) == 0 || zr.File[0].Name != "mimetype" {
		t.Fatal("mimetype is not the first entry")
	}
	if zr.File[0].Method != zip.Store {
		t.Error("mimetype entry is compressed")
	}
	if got := readZipEntry(t, zr, "mimetype"); got != odtMimetype {
		t.Errorf("mimetype = %q", got)
	}
	for _, name := range []string{"META-INF/manifest.xml", "content.xml", "styles.xml", "meta.xml"} {
		readZipEntry(t, zr, name)
	}

	content, err := xmlquery.Parse(strings.NewReader(readZipEntry(t, zr, "content.xml")))
	if err != nil {
		t.Fatalf("content.xml does not parse: %v", err)
	}

	paras := xmlquery.Find(content, "//*[local-name()='p']")
	var styles []string
	for _, p := range paras {
		styles = append(styles, p.SelectAttr("style-name"))
	}
	want := []string{"Title", "Title1", "Introduction", "Quote", "Normal"}
	if strings.Join(styles, ",") != strings.Join(want, ",") {
		t.Fatalf("paragraph styles = %v, want %v", styles, want)
	}

	if got := paras[0].InnerText(); got != "Essay on Method" {
		t.Errorf("title paragraph = %q", got)
	}
	// The parser unescapes; special characters must round-trip.
	if got := paras[2].InnerText(); !strings.Contains(got, "Salt & pepper < sugar.") {
		t.Errorf("escaped content lost: %q", got)
	}

	stylesXML, err := xmlquery.Parse(strings.NewReader(readZipEntry(t, zr, "styles.xml")))
	if err != nil {
		t.Fatalf("styles.xml does not parse: %v", err)
	}
	layout := xmlquery.FindOne(stylesXML, "//*[local-name()='page-layout-properties']")
	if layout == nil {
		t.Fatal("page layout missing from styles.xml")
	}
	if got := layout.SelectAttr("margin-left"); got != "3.0cm" {
		t.Errorf("left margin = %q, want 3.0cm", got)
	}
}

func TestOdtContentDeterministic(t *testing.T) {
	doc := sampleDocument()
	units := group.Fold(doc.Blocks)
	// meta.xml embeds the creation time; content must not.
	if odtContent(doc, units) != odtContent(doc, units) {
		t.Error("content.xml not deterministic")
	}
	if odtStyles(doc) != odtStyles(doc) {
		t.Error("styles.xml not deterministic")
	}
}

func TestPdfRender(t *testing.T) {
	if !Supported("pdf") {
		t.Skip("pdf renderer not built")
	}
	dir := t.TempDir()
	path, err := Export(sampleDocument(), dir, "pdf")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}
