package archive

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func TestBundleFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"a.json": `{"id":"a"}`,
		"b.json": `{"id":"b"}`,
	})

	dst := filepath.Join(dir, "out", "legacy-20240101.tar.xz")
	if err := BundleFiles(paths, dst, "legacy-20240101"); err != nil {
		t.Fatalf("BundleFiles: %v", err)
	}

	names, err := List(dst)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Strings(names)
	want := []string{"legacy-20240101/a.json", "legacy-20240101/b.json"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v; want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry[%d] = %q; want %q", i, names[i], want[i])
		}
	}

	content, err := ReadEntry(dst, "legacy-20240101/a.json")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if string(content) != `{"id":"a"}` {
		t.Errorf("content = %q; want %q", content, `{"id":"a"}`)
	}
}

func TestBundleFilesEmpty(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.tar.xz")
	if err := BundleFiles(nil, dst, "base"); err == nil {
		t.Error("BundleFiles with no files should fail")
	}
}

func TestBundleFilesMissingInput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.tar.xz")
	err := BundleFiles([]string{filepath.Join(dir, "missing.json")}, dst, "base")
	if err == nil {
		t.Fatal("BundleFiles with a missing input should fail")
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("failed bundle should not leave a partial archive behind")
	}
}

func TestCreateTarXz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0755); err != nil {
		t.Fatal(err)
	}
	writeFiles(t, src, map[string]string{"doc.json": "{}"})

	dst := filepath.Join(dir, "bundle.tar.xz")
	if err := CreateTarXz(src, dst, "bundle"); err != nil {
		t.Fatalf("CreateTarXz: %v", err)
	}

	names, err := List(dst)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "bundle/doc.json" {
		t.Errorf("entries = %v; want [bundle/doc.json]", names)
	}
}

func TestNewReaderUnsupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "file.zip")
	if err := os.WriteFile(p, []byte("zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(p); err == nil {
		t.Error("NewReader should reject unsupported extensions")
	}
}
