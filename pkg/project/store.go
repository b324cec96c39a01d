package project

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/luxframe/pkg/scene"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ============================================================
// Documents
// ============================================================

// Document is everything needed to reopen a project: the bill of
// materials and the scene it describes.
type Document struct {
	Objects []SavedObject  `json:"objects"`
	Scene   scene.Snapshot `json:"scene"`
}

// Document captures the project and the session.
func (p *Project) Document(s *scene.Session) Document {
	return Document{
		Objects: append([]SavedObject(nil), p.Objects...),
		Scene:   s.Snapshot(),
	}
}

// Restore replaces the session and the project with a document. Nothing
// changes when the scene cannot be restored.
func (p *Project) Restore(ctx context.Context, s *scene.Session, doc Document) error {
	if err := s.Restore(ctx, doc.Scene); err != nil {
		return err
	}
	p.Objects = append([]SavedObject(nil), doc.Objects...)
	return nil
}

// ============================================================
// SQLite Store
// ============================================================

//go:embed schema.sql
var schema string

// ErrNotFound is returned for a project name with no stored document.
var ErrNotFound = errors.New("project: not found")

// Summary describes a stored project.
type Summary struct {
	Name      string    `json:"name"`
	Objects   int       `json:"objects"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists documents by name.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	st, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

// NewStore wraps an open database and applies the schema.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores doc under name, replacing any previous version.
func (s *Store) Save(ctx context.Context, name string, doc Document) error {
	if name == "" {
		return errors.New("project: empty name")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO projects (name, document, objects, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            document = excluded.document,
            objects = excluded.objects,
            updated_at = excluded.updated_at
    `, name, string(raw), len(doc.Objects), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load returns the document stored under name.
func (s *Store) Load(ctx context.Context, name string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT document FROM projects WHERE name = ?`, name)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return doc, nil
}

// List returns every stored project ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, objects, updated_at
        FROM projects
        ORDER BY name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var nanos int64
		if err := rows.Scan(&sum.Name, &sum.Objects, &nanos); err != nil {
			return nil, err
		}
		sum.UpdatedAt = time.Unix(0, nanos).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the project stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
