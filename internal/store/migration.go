package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/model"
	"github.com/tacwriter/tac/internal/archive"
	"github.com/tacwriter/tac/internal/logging"
)

// MigrationState is one step of the legacy-import state machine.
type MigrationState string

const (
	MigrationIdle        MigrationState = "idle"
	MigrationScanning    MigrationState = "scanning"
	MigrationValidating  MigrationState = "validating"
	MigrationBackingUp   MigrationState = "backing_up"
	MigrationMigrating   MigrationState = "migrating"
	MigrationCommitted   MigrationState = "committed"
	MigrationRolledBack  MigrationState = "rolled_back"
	MigrationMaintenance MigrationState = "maintenance"
)

const migratedSuffix = ".migrated"

// SkippedFile records a legacy file that failed validation and was left in
// place.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// MigrationReport summarizes one migration run.
type MigrationReport struct {
	State      MigrationState `json:"state"`
	Scanned    int            `json:"scanned"`
	Migrated   int            `json:"migrated"`
	Skipped    []SkippedFile  `json:"skipped,omitempty"`
	BundlePath string         `json:"bundle_path,omitempty"`
}

// MigrateLegacy imports legacy per-document JSON files from legacyDir into
// the store, walking the state machine
// Scanning → Validating → BackingUp → Migrating → Committed → Maintenance.
// Any failure after validation rolls the whole batch back; the store is
// never left partially migrated. A cross-process file lock makes the run
// exclusive: if another process holds it, the call returns immediately with
// state idle.
//
// The run is idempotent. Migrated files are renamed with a ".migrated"
// suffix, and documents are upserted by id, so re-running never duplicates.
func (s *Store) MigrateLegacy(ctx context.Context, legacyDir string) (*MigrationReport, error) {
	report := &MigrationReport{State: MigrationIdle}

	lock := flock.New(filepath.Join(filepath.Dir(s.path), ".migration.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return report, errors.NewIO("lock", lock.Path(), err)
	}
	if !locked {
		logging.MigrationEvent(string(MigrationIdle), "reason", "lock held by another process")
		return report, nil
	}
	defer lock.Unlock()

	// Scanning
	report.State = MigrationScanning
	logging.MigrationEvent(string(MigrationScanning), "dir", legacyDir)
	files, err := scanLegacyDir(legacyDir)
	if err != nil {
		report.State = MigrationRolledBack
		return report, err
	}
	report.Scanned = len(files)
	if len(files) == 0 {
		report.State = MigrationIdle
		logging.MigrationEvent(string(MigrationIdle), "reason", "nothing to migrate")
		return report, nil
	}

	// Validating: bad files are set aside, the run continues.
	report.State = MigrationValidating
	logging.MigrationEvent(string(MigrationValidating), "files", len(files))
	var valid []string
	docs := make(map[string]*model.Document, len(files))
	for _, path := range files {
		doc, err := ParseLegacyFile(path)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			logging.Warn("legacy file skipped", "path", path, "error", err)
			continue
		}
		valid = append(valid, path)
		docs[path] = doc
	}

	// BackingUp: every scanned file goes into one dated bundle. A bundle
	// failure aborts the run before the store is touched.
	report.State = MigrationBackingUp
	logging.MigrationEvent(string(MigrationBackingUp), "files", len(files))
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		report.State = MigrationRolledBack
		return report, errors.NewBackup("bundle", s.backupDir, err)
	}
	bundle := filepath.Join(s.backupDir,
		fmt.Sprintf("legacy-%s.tar.xz", time.Now().Format("20060102-150405")))
	if err := archive.BundleFiles(files, bundle, legacyDir); err != nil {
		report.State = MigrationRolledBack
		return report, errors.NewBackup("bundle", bundle, err)
	}
	report.BundlePath = bundle

	if len(valid) == 0 {
		report.State = MigrationCommitted
		logging.MigrationEvent(string(MigrationCommitted), "migrated", 0, "skipped", len(report.Skipped))
		return report, nil
	}

	// Migrating: one transaction for the whole batch.
	report.State = MigrationMigrating
	logging.MigrationEvent(string(MigrationMigrating), "documents", len(valid))
	conn, err := beginImmediate(ctx, s.db)
	if err != nil {
		report.State = MigrationRolledBack
		return report, errors.NewTransaction("migrate", err)
	}
	for _, path := range valid {
		if err := upsertDocument(ctx, conn, docs[path]); err != nil {
			rollback(ctx, conn)
			report.State = MigrationRolledBack
			logging.MigrationEvent(string(MigrationRolledBack), "path", path, "error", err)
			return report, errors.NewTransaction("migrate", err)
		}
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		rollback(ctx, conn)
		report.State = MigrationRolledBack
		return report, errors.NewTransaction("migrate", err)
	}
	conn.Close()
	report.Migrated = len(valid)

	// Committed: mark the source files so the next run skips them.
	report.State = MigrationCommitted
	for _, path := range valid {
		if err := os.Rename(path, path+migratedSuffix); err != nil {
			logging.Warn("failed to mark legacy file migrated", "path", path, "error", err)
		}
	}
	logging.MigrationEvent(string(MigrationCommitted),
		"migrated", report.Migrated, "skipped", len(report.Skipped))

	// Maintenance
	report.State = MigrationMaintenance
	if err := s.Maintenance(ctx); err != nil {
		logging.Warn("post-migration maintenance failed", "error", err)
	}
	logging.MigrationEvent(string(MigrationMaintenance))
	return report, nil
}

// scanLegacyDir lists unmigrated legacy JSON files in stable order. A
// missing directory means there is nothing to migrate.
func scanLegacyDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewIO("scan", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
