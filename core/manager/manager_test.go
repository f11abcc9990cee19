package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/model"
	"github.com/tacwriter/tac/internal/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg, err := config.LoadAt(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	cfg.BackupEnabled = false
	cfg.ExportDir = t.TempDir()
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestCreateAndLoad(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	doc, err := m.Create(ctx, "fresh", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(doc.Blocks) != 0 {
		t.Errorf("blank document has %d blocks", len(doc.Blocks))
	}

	essay, err := m.Create(ctx, "essay", "Academic Essay")
	if err != nil {
		t.Fatalf("Create from template failed: %v", err)
	}
	if len(essay.Blocks) != 1 || essay.Blocks[0].Type != model.Introduction {
		t.Errorf("template document blocks = %v", essay.Blocks)
	}

	got, err := m.Load(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Name != "fresh" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := m.Create(ctx, "x", "No Such Template"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown template: got %v, want ErrNotFound", err)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	doc, err := m.Create(ctx, "victim", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	doc.AddBlock(model.Argument, "worth keeping")
	if err := m.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := m.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Load(ctx, doc.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Load after delete: got %v, want ErrNotFound", err)
	}

	trash, err := m.ListTrash()
	if err != nil {
		t.Fatalf("ListTrash failed: %v", err)
	}
	if len(trash) != 1 || trash[0] != doc.ID {
		t.Fatalf("trash = %v, want [%s]", trash, doc.ID)
	}

	restored, err := m.RestoreFromTrash(ctx, doc.ID)
	if err != nil {
		t.Fatalf("RestoreFromTrash failed: %v", err)
	}
	if restored.Name != "victim" || len(restored.Blocks) != 1 {
		t.Errorf("restored = %q with %d blocks", restored.Name, len(restored.Blocks))
	}
	if restored.Blocks[0].Content != "worth keeping" {
		t.Errorf("restored content = %q", restored.Blocks[0].Content)
	}

	trash, err = m.ListTrash()
	if err != nil {
		t.Fatalf("ListTrash failed: %v", err)
	}
	if len(trash) != 0 {
		t.Errorf("trash not emptied after restore: %v", trash)
	}

	if _, err := m.RestoreFromTrash(ctx, "nothing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("restore missing: got %v, want ErrNotFound", err)
	}
}

func TestDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	doc, err := m.Create(ctx, "source", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	doc.Metadata.Author = "Ada"
	doc.AddBlock(model.Introduction, "start")
	doc.AddBlock(model.Conclusion, "end")
	if err := m.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dup, err := m.Duplicate(ctx, doc.ID, "copy")
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if dup.ID == doc.ID {
		t.Error("duplicate shares the source id")
	}
	if dup.Name != "copy" || dup.Metadata.Author != "Ada" {
		t.Errorf("duplicate = %q by %q", dup.Name, dup.Metadata.Author)
	}
	if len(dup.Blocks) != 2 {
		t.Fatalf("duplicate blocks = %d", len(dup.Blocks))
	}
	for i, b := range dup.Blocks {
		if b.ID == doc.Blocks[i].ID {
			t.Errorf("duplicate block %d shares its source id", i)
		}
		if b.Content != doc.Blocks[i].Content {
			t.Errorf("duplicate block %d content = %q", i, b.Content)
		}
	}
}

func TestListAndStats(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	doc, err := m.Create(ctx, "counted", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	doc.AddBlock(model.Argument, "three words here")
	if err := m.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	list, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Stats.TotalWords != 3 {
		t.Errorf("list = %+v", list)
	}

	stats, err := m.Stats(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalWords != 3 || stats.TotalBlocks != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestExportAsync(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	doc, err := m.Create(ctx, "exported", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	doc.AddBlock(model.Introduction, "content to export")
	if err := m.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	results := make(chan JobResult, 1)
	m.ExportAsync(doc.ID, "", "txt", func(r JobResult) { results <- r })

	select {
	case res := <-results:
		if !res.OK {
			t.Fatalf("export failed: %s", res.Message)
		}
		if _, err := os.Stat(res.Path); err != nil {
			t.Errorf("exported file missing: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("export did not complete")
	}
}

func TestExportAsyncFailureReportedOnce(t *testing.T) {
	m := newTestManager(t)

	var mu sync.Mutex
	count := 0
	results := make(chan JobResult, 2)
	m.ExportAsync("no-such-document", "", "txt", func(r JobResult) {
		mu.Lock()
		count++
		mu.Unlock()
		results <- r
	})

	select {
	case res := <-results:
		if res.OK {
			t.Error("export of missing document reported success")
		}
		if res.Message == "" {
			t.Error("failure carries no message")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("export did not complete")
	}

	m.Close()
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("callback ran %d times, want 1", count)
	}
}

func TestBackupAsync(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(context.Background(), "backed", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	results := make(chan JobResult, 1)
	m.CreateBackupAsync(func(r JobResult) { results <- r })

	select {
	case res := <-results:
		if !res.OK {
			t.Fatalf("backup failed: %s", res.Message)
		}
		if _, err := os.Stat(res.Path); err != nil {
			t.Errorf("backup file missing: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("backup did not complete")
	}
}

func TestEvents(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []EventType
	id := m.Subscribe(SubscriberFunc(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	}))

	doc, err := m.Create(ctx, "observed", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := m.Save(ctx, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := m.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	mu.Lock()
	got := append([]EventType(nil), seen...)
	mu.Unlock()
	want := []EventType{DocumentCreated, DocumentSaved, DocumentDeleted}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	m.Unsubscribe(id)
	if _, err := m.Create(ctx, "unobserved", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Error("events delivered after unsubscribe")
	}
}

func TestMigrationAtStartup(t *testing.T) {
	cfg, err := config.LoadAt(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	cfg.BackupEnabled = false
	if err := os.MkdirAll(cfg.LegacyProjectsDir, 0755); err != nil {
		t.Fatal(err)
	}
	legacy := `{"id": "old-1", "name": "Old One", "blocks": [{"id": "b1", "type": "argument", "content": "carried over", "order": 0}]}`
	if err := os.WriteFile(filepath.Join(cfg.LegacyProjectsDir, "old.json"), []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer m.Close()

	doc, err := m.Load(context.Background(), "old-1")
	if err != nil {
		t.Fatalf("migrated document not loadable: %v", err)
	}
	if doc.Name != "Old One" || len(doc.Blocks) != 1 {
		t.Errorf("migrated = %q with %d blocks", doc.Name, len(doc.Blocks))
	}
}
