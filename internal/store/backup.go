package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/sqlite"
	"github.com/tacwriter/tac/internal/fileutil"
	"github.com/tacwriter/tac/internal/logging"
)

// BackupKind distinguishes automatic pre-write backups from user-triggered
// ones. The two kinds rotate independently.
type BackupKind string

const (
	BackupAuto   BackupKind = "auto"
	BackupManual BackupKind = "manual"
)

const checksumExt = ".b3"

// BackupInfo describes one backup file.
type BackupInfo struct {
	Path      string     `json:"path"`
	Kind      BackupKind `json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
	Size      int64      `json:"size"`
}

// CreateBackup checkpoints the WAL and copies the store file into the
// backup directory with a checksum sidecar, then prunes old backups of the
// same kind. It returns the path of the new backup.
func (s *Store) CreateBackup(ctx context.Context, kind BackupKind) (string, error) {
	if kind != BackupAuto && kind != BackupManual {
		return "", errors.NewBackup("create", "", fmt.Errorf("unknown backup kind %q", kind))
	}
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return "", errors.NewBackup("create", s.backupDir, err)
	}

	// Fold the WAL into the main file so the copy is self-contained.
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", errors.NewBackup("create", s.path, err)
	}

	stamp := time.Now().Format("20060102-150405")
	name := fmt.Sprintf("documents-%s-%s.db", kind, stamp)
	dst := fileutil.UniquePath(filepath.Join(s.backupDir, name))

	if err := fileutil.CopyFile(s.path, dst); err != nil {
		return "", errors.NewBackup("create", dst, err)
	}
	if err := writeChecksum(dst); err != nil {
		os.Remove(dst)
		return "", errors.NewBackup("create", dst, err)
	}

	if err := s.pruneBackups(kind); err != nil {
		return "", err
	}

	logging.Debug("backup created", "path", dst, "kind", string(kind))
	return dst, nil
}

// ListBackups returns all backups in the backup directory, newest first.
func (s *Store) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewBackup("list", s.backupDir, err)
	}

	var out []BackupInfo
	for _, e := range entries {
		kind, ok := backupKindOf(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{
			Path:      filepath.Join(s.backupDir, e.Name()),
			Kind:      kind,
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

// DeleteBackup removes a backup and its checksum sidecar. The path must be
// inside the backup directory.
func (s *Store) DeleteBackup(path string) error {
	dir, err := filepath.Abs(s.backupDir)
	if err != nil {
		return errors.NewBackup("delete", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.NewBackup("delete", path, err)
	}
	if filepath.Dir(abs) != dir {
		return errors.NewBackup("delete", path, fmt.Errorf("not inside backup directory"))
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound("backup", path)
		}
		return errors.NewBackup("delete", path, err)
	}
	os.Remove(abs + checksumExt)
	return nil
}

// ImportBackup validates a backup file and atomically replaces the live
// store with it. The live store is backed up first, so a bad import is
// recoverable.
func (s *Store) ImportBackup(ctx context.Context, path string) error {
	if err := verifyChecksum(path); err != nil {
		return err
	}
	if err := validateStoreFile(path); err != nil {
		return err
	}

	if _, err := s.CreateBackup(ctx, BackupAuto); err != nil {
		return err
	}

	// Close the pool so no connection holds the old file open, swap the
	// file, then reopen.
	if err := s.db.Close(); err != nil {
		return errors.NewBackup("import", path, err)
	}
	// WAL/SHM sidecars of the old store are stale after the swap.
	os.Remove(s.path + "-wal")
	os.Remove(s.path + "-shm")

	if err := fileutil.ReplaceAtomic(path, s.path); err != nil {
		return errors.NewBackup("import", path, err)
	}

	db, err := sqlite.Open(s.path)
	if err != nil {
		return errors.NewBackup("import", s.path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return errors.NewBackup("import", s.path, err)
		}
	}
	s.db = db

	logging.StoreEvent("backup imported", "", "path", path)
	return nil
}

// pruneBackups keeps the newest backups of a kind and removes the rest.
func (s *Store) pruneBackups(kind BackupKind) error {
	all, err := s.ListBackups()
	if err != nil {
		return err
	}
	retain := s.autoRetain
	if kind == BackupManual {
		retain = s.manualRetain
	}
	var ofKind []BackupInfo
	for _, b := range all {
		if b.Kind == kind {
			ofKind = append(ofKind, b)
		}
	}
	for _, b := range ofKind[min(retain, len(ofKind)):] {
		if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
			return errors.NewBackup("prune", b.Path, err)
		}
		os.Remove(b.Path + checksumExt)
		logging.Debug("backup pruned", "path", b.Path)
	}
	return nil
}

func backupKindOf(name string) (BackupKind, bool) {
	if !strings.HasSuffix(name, ".db") {
		return "", false
	}
	switch {
	case strings.HasPrefix(name, "documents-auto-"):
		return BackupAuto, true
	case strings.HasPrefix(name, "documents-manual-"):
		return BackupManual, true
	}
	return "", false
}

// checksumFile computes the BLAKE3 digest of a file.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeChecksum(path string) error {
	sum, err := checksumFile(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path+checksumExt, []byte(sum+"\n"), 0644)
}

// verifyChecksum compares a backup against its sidecar. A missing sidecar
// is accepted (the backup may come from elsewhere); a mismatching one is
// not.
func verifyChecksum(path string) error {
	want, err := os.ReadFile(path + checksumExt)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewBackup("verify", path, err)
	}
	got, err := checksumFile(path)
	if err != nil {
		return errors.NewBackup("verify", path, err)
	}
	if got != strings.TrimSpace(string(want)) {
		return errors.NewBackup("verify", path, fmt.Errorf("checksum mismatch"))
	}
	return nil
}

// validateStoreFile checks that a candidate database has the expected
// tables and columns before it is allowed to replace the live store.
func validateStoreFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.NewBackup("validate", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return errors.NewBackup("validate", path, err)
	}
	defer db.Close()

	required := map[string][]string{
		"documents": {"id", "name", "created_at", "modified_at", "metadata", "document_formatting"},
		"blocks":    {"id", "document_id", "type", "content", "order", "formatting"},
	}
	for table, columns := range required {
		have, err := tableColumns(db, table)
		if err != nil {
			return errors.NewBackup("validate", path, err)
		}
		if len(have) == 0 {
			return errors.NewBackup("validate", path, fmt.Errorf("missing table %s", table))
		}
		for _, col := range columns {
			if !have[col] {
				return errors.NewBackup("validate", path, fmt.Errorf("table %s missing column %s", table, col))
			}
		}
	}
	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
