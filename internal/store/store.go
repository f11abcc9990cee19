// Package store persists documents in a single SQLite database file. It
// owns the schema, atomic save/load/delete/list operations, backup
// management and the one-time migration from legacy per-document JSON
// files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tacwriter/tac/core/errors"
	"github.com/tacwriter/tac/core/model"
	"github.com/tacwriter/tac/core/sqlite"
	"github.com/tacwriter/tac/internal/logging"
)

const schemaVersion = "1"

const timeLayout = time.RFC3339Nano

// Options configures a Store.
type Options struct {
	// BackupDir holds timestamped backups of the store file. Defaults to
	// a "backups" directory next to the store file.
	BackupDir string
	// BackupEnabled turns on the automatic pre-write backup.
	BackupEnabled bool
	// AutoRetain and ManualRetain bound how many backups of each kind are
	// kept. Zero means the defaults (3 automatic, 10 manual).
	AutoRetain   int
	ManualRetain int
}

// Store is a SQLite-backed document store. All methods are safe for
// concurrent use; every state-changing call runs in its own short
// transaction.
type Store struct {
	db   *sql.DB
	path string

	backupDir     string
	backupEnabled bool
	autoRetain    int
	manualRetain  int
}

// Open opens (creating if necessary) the store at path and ensures the
// schema is in place. The database runs in WAL mode with foreign keys
// enforced.
func Open(path string, opts Options) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewIO("create", filepath.Dir(path), err)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	s := &Store{
		db:            db,
		path:          path,
		backupDir:     opts.BackupDir,
		backupEnabled: opts.BackupEnabled,
		autoRetain:    opts.AutoRetain,
		manualRetain:  opts.ManualRetain,
	}
	if s.backupDir == "" {
		s.backupDir = filepath.Join(filepath.Dir(path), "backups")
	}
	if s.autoRetain <= 0 {
		s.autoRetain = 3
	}
	if s.manualRetain <= 0 {
		s.manualRetain = 10
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to set %s", pragma)
		}
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Debug("store opened", "path", path, "driver", sqlite.DriverType())
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	created_at          TEXT NOT NULL,
	modified_at         TEXT NOT NULL,
	metadata            TEXT NOT NULL,
	document_formatting TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS blocks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	type        TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	"order"     INTEGER NOT NULL,
	formatting  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blocks_document_order ON blocks(document_id, "order");
CREATE TABLE IF NOT EXISTS schema_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return errors.Wrap(err, "failed to initialize schema")
	}
	_, err := s.db.Exec(
		`INSERT INTO schema_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO NOTHING`, schemaVersion)
	if err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	return nil
}

// beginImmediate starts a write transaction that takes the write lock up
// front, so a busy store fails fast instead of failing at commit.
func beginImmediate(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func rollback(ctx context.Context, conn *sql.Conn) {
	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		logging.Warn("rollback failed", "error", err)
	}
	conn.Close()
}

// Save writes the document and all of its blocks atomically, replacing any
// previous version. When automatic backups are enabled, a backup is taken
// first; a backup failure aborts the save with the store untouched.
func (s *Store) Save(ctx context.Context, doc *model.Document) error {
	if doc == nil {
		return errors.NewValidation("document", "is nil")
	}
	if doc.ID == "" {
		return errors.NewValidation("id", "is empty")
	}
	if strings.TrimSpace(doc.Name) == "" {
		return errors.NewValidation("name", "is empty")
	}

	if s.backupEnabled {
		if _, err := s.CreateBackup(ctx, BackupAuto); err != nil {
			return err
		}
	}

	conn, err := beginImmediate(ctx, s.db)
	if err != nil {
		return errors.NewTransaction("save", err)
	}
	if err := upsertDocument(ctx, conn, doc); err != nil {
		rollback(ctx, conn)
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		rollback(ctx, conn)
		return errors.NewTransaction("save", err)
	}
	conn.Close()

	logging.StoreEvent("saved", doc.ID, "name", doc.Name, "blocks", len(doc.Blocks))
	return nil
}

// upsertDocument writes one document inside an open transaction. Blocks are
// replaced wholesale: delete then reinsert in order.
func upsertDocument(ctx context.Context, conn *sql.Conn, doc *model.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return errors.NewSerialization("metadata", err)
	}
	docFmt, err := json.Marshal(doc.DocFormatting)
	if err != nil {
		return errors.NewSerialization("document_formatting", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO documents (id, name, created_at, modified_at, metadata, document_formatting)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			modified_at = excluded.modified_at,
			metadata = excluded.metadata,
			document_formatting = excluded.document_formatting`,
		doc.ID, doc.Name,
		doc.CreatedAt.UTC().Format(timeLayout),
		doc.ModifiedAt.UTC().Format(timeLayout),
		string(metadata), string(docFmt))
	if err != nil {
		return errors.NewTransaction("save", err)
	}

	if _, err := conn.ExecContext(ctx, `DELETE FROM blocks WHERE document_id = ?`, doc.ID); err != nil {
		return errors.NewTransaction("save", err)
	}
	for i, b := range doc.Blocks {
		formatting, err := json.Marshal(b.Formatting)
		if err != nil {
			return errors.NewSerialization("formatting", err)
		}
		_, err = conn.ExecContext(ctx, `
			INSERT INTO blocks (id, document_id, type, content, created_at, modified_at, "order", formatting)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, doc.ID, string(b.Type), b.Content,
			b.CreatedAt.UTC().Format(timeLayout),
			b.ModifiedAt.UTC().Format(timeLayout),
			i, string(formatting))
		if err != nil {
			return errors.NewTransaction("save", err)
		}
	}
	return nil
}

// Load reads the document with the given id, blocks in order.
func (s *Store) Load(ctx context.Context, id string) (*model.Document, error) {
	doc := &model.Document{ID: id}

	var createdAt, modifiedAt, metadata, docFmt string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, created_at, modified_at, metadata, document_formatting
		FROM documents WHERE id = ?`, id).
		Scan(&doc.Name, &createdAt, &modifiedAt, &metadata, &docFmt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load document %s", id)
	}

	doc.CreatedAt = parseTime(createdAt)
	doc.ModifiedAt = parseTime(modifiedAt)
	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return nil, errors.NewSerialization("metadata", err)
	}
	if err := json.Unmarshal([]byte(docFmt), &doc.DocFormatting); err != nil {
		return nil, errors.NewSerialization("document_formatting", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, content, created_at, modified_at, "order", formatting
		FROM blocks WHERE document_id = ? ORDER BY "order"`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load blocks for %s", id)
	}
	defer rows.Close()

	for rows.Next() {
		var b model.Block
		var typ, bCreated, bModified, formatting string
		if err := rows.Scan(&b.ID, &typ, &b.Content, &bCreated, &bModified, &b.Order, &formatting); err != nil {
			return nil, errors.Wrap(err, "failed to scan block")
		}
		t, ok := model.ParseBlockType(typ)
		if !ok {
			return nil, errors.NewValidation("type", fmt.Sprintf("unknown block type %q", typ))
		}
		b.Type = t
		b.CreatedAt = parseTime(bCreated)
		b.ModifiedAt = parseTime(bModified)
		if err := json.Unmarshal([]byte(formatting), &b.Formatting); err != nil {
			return nil, errors.NewSerialization("formatting", err)
		}
		doc.Blocks = append(doc.Blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read blocks")
	}

	doc.SortBlocks()
	return doc, nil
}

// Delete removes the document; its blocks go with it via the foreign key
// cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.NewTransaction("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewTransaction("delete", err)
	}
	if n == 0 {
		return errors.NewNotFound("document", id)
	}
	logging.StoreEvent("deleted", id)
	return nil
}

// Exists reports whether a document with the given id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to check document %s", id)
	}
	return true, nil
}

// DocumentSummary is a list entry. Stats are recomputed from block content
// at query time; they are never read from a stored counter.
type DocumentSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	CreatedAt   time.Time        `json:"created_at"`
	ModifiedAt  time.Time        `json:"modified_at"`
	Author      string           `json:"author,omitempty"`
	Description string           `json:"description,omitempty"`
	Stats       model.Statistics `json:"stats"`
}

// List returns summaries of all stored documents, newest modified first.
func (s *Store) List(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.created_at, d.modified_at, d.metadata,
		       b.type, b.content
		FROM documents d
		LEFT JOIN blocks b ON b.document_id = d.id
		ORDER BY d.modified_at DESC, d.id, b."order"`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var out []DocumentSummary
	index := make(map[string]int)
	for rows.Next() {
		var id, name, createdAt, modifiedAt, metadata string
		var blockType, blockContent sql.NullString
		if err := rows.Scan(&id, &name, &createdAt, &modifiedAt, &metadata, &blockType, &blockContent); err != nil {
			return nil, errors.Wrap(err, "failed to scan document summary")
		}

		i, seen := index[id]
		if !seen {
			var meta model.Metadata
			if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
				return nil, errors.NewSerialization("metadata", err)
			}
			sum := DocumentSummary{
				ID:          id,
				Name:        name,
				CreatedAt:   parseTime(createdAt),
				ModifiedAt:  parseTime(modifiedAt),
				Author:      meta.Author,
				Description: meta.Description,
			}
			sum.Stats.BlockTypes = make(map[model.BlockType]int, len(model.AllBlockTypes))
			for _, t := range model.AllBlockTypes {
				sum.Stats.BlockTypes[t] = 0
			}
			out = append(out, sum)
			i = len(out) - 1
			index[id] = i
		}

		if blockType.Valid {
			t, ok := model.ParseBlockType(blockType.String)
			if !ok {
				t = model.BlockType(blockType.String)
			}
			b := model.Block{Type: t, Content: blockContent.String}
			st := &out[i].Stats
			st.TotalBlocks++
			st.TotalWords += b.WordCount()
			st.TotalCharacters += b.CharacterCount(true)
			st.TotalCharactersNoSpace += b.CharacterCount(false)
			st.BlockTypes[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read document summaries")
	}

	// modified_at sorts correctly as text only for same-precision stamps;
	// re-sort on the parsed times to be exact.
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].ModifiedAt.After(out[b].ModifiedAt)
	})
	return out, nil
}

// Maintenance reclaims space and refreshes planner statistics.
func (s *Store) Maintenance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return errors.Wrap(err, "vacuum failed")
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return errors.Wrap(err, "analyze failed")
	}
	return nil
}

// parseTime accepts the layouts this store and the legacy files have
// historically written.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
