// Package export renders documents to the supported output formats. All
// renderers consume the same grouped units and the same style table, so a
// paragraph looks the same whether it lands in text, ODT or PDF. Output is
// finalized atomically: rendered bytes go to a temp file in the destination
// directory and are moved into place with a collision-safe name.
package export

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/group"
	"github.com/tacwriter/tac/core/model"
	"github.com/tacwriter/tac/internal/fileutil"
	"github.com/tacwriter/tac/internal/logging"
)

// Renderer turns a document and its grouped units into the bytes of one
// output format. Implementations are pure: same input, same output, except
// for embedded creation timestamps.
type Renderer interface {
	// Format returns the format key and file extension (e.g. "txt").
	Format() string
	// Render produces the complete file contents.
	Render(doc *model.Document, units []group.Unit) ([]byte, error)
}

var renderers = map[string]Renderer{}

// register is called from the renderer files' init functions. A format
// that cannot be built in the current configuration simply never
// registers, so availability is a data question, not a crash.
func register(r Renderer) {
	renderers[r.Format()] = r
}

// AvailableFormats returns the formats this build can produce, sorted.
func AvailableFormats() []string {
	out := make([]string, 0, len(renderers))
	for f := range renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether the format can be produced by this build.
func Supported(format string) bool {
	_, ok := renderers[strings.ToLower(format)]
	return ok
}

// Export renders the document and writes it into dir as "<name>.<format>",
// appending " (N)" on collision. It returns the final path.
func Export(doc *model.Document, dir, format string) (string, error) {
	if doc == nil {
		return "", errors.NewValidation("document", "is nil")
	}
	r, ok := renderers[strings.ToLower(format)]
	if !ok {
		return "", errors.NewUnsupported("export format", format)
	}

	units := group.Fold(doc.Blocks)
	data, err := r.Render(doc, units)
	if err != nil {
		logging.ExportEvent(r.Format(), doc.ID, false, "error", err)
		return "", errors.Wrapf(err, "failed to render %s", r.Format())
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewIO("create", dir, err)
	}
	dst := fileutil.UniquePath(filepath.Join(dir, safeFileName(doc.Name)+"."+r.Format()))
	if err := fileutil.WriteAtomic(dst, data, 0644); err != nil {
		logging.ExportEvent(r.Format(), doc.ID, false, "error", err)
		return "", err
	}

	logging.ExportEvent(r.Format(), doc.ID, true, "path", dst)
	return dst, nil
}

// safeFileName strips path separators and other characters that are not
// safe in a file name.
func safeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
