// Package manager orchestrates the writing core: it owns the store, a
// bounded document cache, the exporter registry and an event bus, and it
// dispatches long-running work (export, backup) to background goroutines
// that report their outcome exactly once.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tacwriter/tac/core/cache"
	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/export"
	"github.com/tacwriter/tac/core/model"
	"github.com/tacwriter/tac/internal/config"
	"github.com/tacwriter/tac/internal/logging"
	"github.com/tacwriter/tac/internal/store"
)

// JobResult is the single completion report of a background job.
type JobResult struct {
	OK      bool
	Path    string
	Message string
}

// Manager is the single entry point for document operations. It is safe
// for concurrent use.
type Manager struct {
	cfg   *config.Config
	store *store.Store
	cache *cache.DocumentCache
	bus   *eventBus
	jobs  sync.WaitGroup
}

// New opens the store described by the configuration and runs the one-time
// legacy migration. A migration failure is logged and does not block
// startup; the state machine leaves the store consistent either way.
func New(cfg *config.Config) (*Manager, error) {
	s, err := store.Open(cfg.StorePath(), store.Options{
		BackupDir:     cfg.BackupDir,
		BackupEnabled: cfg.BackupEnabled,
		AutoRetain:    cfg.AutoBackupRetain,
		ManualRetain:  cfg.ManualBackupRetain,
	})
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:   cfg,
		store: s,
		cache: cache.NewDefaultDocumentCache(),
		bus:   newEventBus(),
	}

	if report, err := s.MigrateLegacy(context.Background(), cfg.LegacyProjectsDir); err != nil {
		logging.Warn("legacy migration failed", "state", string(report.State), "error", err)
	} else if report.Migrated > 0 {
		logging.Info("legacy documents migrated", "count", report.Migrated, "skipped", len(report.Skipped))
	}

	return m, nil
}

// Close waits for background jobs and closes the store.
func (m *Manager) Close() error {
	m.jobs.Wait()
	return m.store.Close()
}

// Subscribe registers an event subscriber and returns a token for
// Unsubscribe.
func (m *Manager) Subscribe(s Subscriber) int { return m.bus.subscribe(s) }

// Unsubscribe removes a subscriber by its token.
func (m *Manager) Unsubscribe(id int) { m.bus.unsubscribe(id) }

// Create makes a new document from the named template (or an empty one
// when templateName is blank), persists it and returns it.
func (m *Manager) Create(ctx context.Context, name, templateName string) (*model.Document, error) {
	var doc *model.Document
	if templateName == "" {
		doc = model.NewDocument(name)
	} else {
		tpl, ok := model.FindTemplate(templateName)
		if !ok {
			return nil, errors.NewNotFound("template", templateName)
		}
		doc = tpl.NewDocument(name)
	}

	if err := m.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	m.cache.Put(doc)
	m.bus.publish(Event{Type: DocumentCreated, DocumentID: doc.ID, Name: doc.Name, OK: true})
	return doc, nil
}

// Load returns the document with the given id, from cache when possible.
func (m *Manager) Load(ctx context.Context, id string) (*model.Document, error) {
	if doc, ok := m.cache.Get(id); ok {
		return doc, nil
	}
	doc, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.cache.Put(doc)
	return doc, nil
}

// Save persists the document.
func (m *Manager) Save(ctx context.Context, doc *model.Document) error {
	if err := m.store.Save(ctx, doc); err != nil {
		return err
	}
	m.cache.Put(doc)
	m.bus.publish(Event{Type: DocumentSaved, DocumentID: doc.ID, Name: doc.Name, OK: true})
	return nil
}

// Delete writes a restorable snapshot of the document into the trash
// directory and then removes it from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	doc, err := m.Load(ctx, id)
	if err != nil {
		return err
	}

	snapshot, err := store.EncodeLegacyDocument(doc)
	if err != nil {
		return err
	}
	trashPath := filepath.Join(m.cfg.TrashDir(), doc.ID+".json")
	if err := writeTrash(trashPath, snapshot); err != nil {
		return err
	}

	if err := m.store.Delete(ctx, id); err != nil {
		os.Remove(trashPath)
		return err
	}
	m.cache.Remove(id)
	m.bus.publish(Event{Type: DocumentDeleted, DocumentID: id, Name: doc.Name, OK: true, Path: trashPath})
	return nil
}

func writeTrash(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO("create", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// RestoreFromTrash brings a deleted document back from its trash snapshot.
func (m *Manager) RestoreFromTrash(ctx context.Context, id string) (*model.Document, error) {
	trashPath := filepath.Join(m.cfg.TrashDir(), id+".json")
	data, err := os.ReadFile(trashPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("trashed document", id)
		}
		return nil, errors.NewIO("read", trashPath, err)
	}
	doc, err := store.DecodeLegacyDocument(data)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, doc); err != nil {
		return nil, err
	}
	os.Remove(trashPath)
	m.cache.Put(doc)
	m.bus.publish(Event{Type: DocumentRestored, DocumentID: doc.ID, Name: doc.Name, OK: true})
	return doc, nil
}

// ListTrash returns the ids of documents currently in the trash.
func (m *Manager) ListTrash() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.TrashDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewIO("read", m.cfg.TrashDir(), err)
	}
	var ids []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			ids = append(ids, e.Name()[:len(e.Name())-len(".json")])
		}
	}
	return ids, nil
}

// Duplicate copies a document under a new name with fresh identities for
// the document and every block.
func (m *Manager) Duplicate(ctx context.Context, id, newName string) (*model.Document, error) {
	src, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := model.NewDocument(newName)
	dup.Metadata = src.Metadata
	dup.DocFormatting = src.DocFormatting
	for _, b := range src.Blocks {
		nb := b.Clone()
		nb.Order = len(dup.Blocks)
		dup.Blocks = append(dup.Blocks, nb)
	}

	if err := m.store.Save(ctx, dup); err != nil {
		return nil, err
	}
	m.cache.Put(dup)
	m.bus.publish(Event{Type: DocumentCreated, DocumentID: dup.ID, Name: dup.Name, OK: true})
	return dup, nil
}

// List returns summaries of all stored documents, newest first.
func (m *Manager) List(ctx context.Context) ([]store.DocumentSummary, error) {
	return m.store.List(ctx)
}

// Stats recomputes statistics for one document.
func (m *Manager) Stats(ctx context.Context, id string) (model.Statistics, error) {
	doc, err := m.Load(ctx, id)
	if err != nil {
		return model.Statistics{}, err
	}
	return doc.Stats(), nil
}

// AvailableFormats returns the export formats this build supports.
func (m *Manager) AvailableFormats() []string { return export.AvailableFormats() }

// Export renders the document to dir synchronously and returns the written
// path.
func (m *Manager) Export(ctx context.Context, id, dir, format string) (string, error) {
	doc, err := m.Load(ctx, id)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = m.cfg.ExportDir
	}
	if format == "" {
		format = m.cfg.DefaultExportFormat
	}
	return export.Export(doc, dir, format)
}

// ExportAsync runs Export on a background goroutine. The done callback
// receives exactly one result; a renderer panic is reported as a failed
// job, never propagated.
func (m *Manager) ExportAsync(id, dir, format string, done func(JobResult)) {
	m.runJob(func() JobResult {
		path, err := m.Export(context.Background(), id, dir, format)
		res := jobResult(path, err, fmt.Sprintf("exported to %s", path))
		m.bus.publish(Event{Type: ExportFinished, DocumentID: id, Path: path, OK: res.OK, Message: res.Message})
		return res
	}, done)
}

// CreateBackup takes a manual backup of the store.
func (m *Manager) CreateBackup(ctx context.Context) (string, error) {
	return m.store.CreateBackup(ctx, store.BackupManual)
}

// CreateBackupAsync runs CreateBackup on a background goroutine.
func (m *Manager) CreateBackupAsync(done func(JobResult)) {
	m.runJob(func() JobResult {
		path, err := m.store.CreateBackup(context.Background(), store.BackupManual)
		res := jobResult(path, err, fmt.Sprintf("backup written to %s", path))
		m.bus.publish(Event{Type: BackupFinished, Path: path, OK: res.OK, Message: res.Message})
		return res
	}, done)
}

// ListBackups returns the backups of the store, newest first.
func (m *Manager) ListBackups() ([]store.BackupInfo, error) {
	return m.store.ListBackups()
}

// ImportBackup replaces the live store with a validated backup. The cache
// is emptied since every cached document may now be stale.
func (m *Manager) ImportBackup(ctx context.Context, path string) error {
	if err := m.store.ImportBackup(ctx, path); err != nil {
		return err
	}
	m.cache.Clear()
	return nil
}

// DeleteBackup removes a backup file.
func (m *Manager) DeleteBackup(path string) error {
	return m.store.DeleteBackup(path)
}

// Migrate runs the legacy migration explicitly and returns its report.
func (m *Manager) Migrate(ctx context.Context) (*store.MigrationReport, error) {
	report, err := m.store.MigrateLegacy(ctx, m.cfg.LegacyProjectsDir)
	if report != nil && report.Migrated > 0 {
		m.cache.Clear()
	}
	return report, err
}

// Maintenance compacts the store.
func (m *Manager) Maintenance(ctx context.Context) error {
	return m.store.Maintenance(ctx)
}

func (m *Manager) runJob(work func() JobResult, done func(JobResult)) {
	m.jobs.Add(1)
	go func() {
		defer m.jobs.Done()
		res := JobResult{OK: false, Message: "job panicked"}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("background job panicked", "panic", r)
					res = JobResult{OK: false, Message: fmt.Sprintf("internal error: %v", r)}
				}
			}()
			res = work()
		}()
		if done != nil {
			done(res)
		}
	}()
}

func jobResult(path string, err error, okMsg string) JobResult {
	if err != nil {
		return JobResult{OK: false, Path: path, Message: err.Error()}
	}
	return JobResult{OK: true, Path: path, Message: okMsg}
}
