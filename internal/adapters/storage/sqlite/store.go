// Package sqlite implements the reconciliation gateway on a local database
// for offline and development use. Moves renumber the affected columns the
// same way the in-memory board does, so the canonical refresh after a local
// move confirms the optimistic order instead of fighting it.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evielund/sitboard/internal/app"
	"github.com/evielund/sitboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// defaultColumns seeds an empty database with the stock workflow stages.
var defaultColumns = []struct {
	Key      string
	Name     string
	Color    string
	Position int
}{
	{Key: "todo", Name: "To Do", Color: "gray", Position: 0},
	{Key: "in_progress", Name: "In Progress", Color: "amber", Position: 1},
	{Key: "done", Name: "Done", Color: "green", Position: 2},
}

// Store represents store data used by this package.
type Store struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the requested operation.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate handles migrate.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS columns (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT 'gray',
			position INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			column_key TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			assignee TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL,
			due_at TEXT,
			labels_json TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT,
			FOREIGN KEY(column_key) REFERENCES columns(key) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_column_position ON items(column_key, position);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// ListColumns returns every column ordered by position, seeding the stock
// workflow when the table is empty.
func (s *Store) ListColumns(ctx context.Context) ([]domain.Column, error) {
	columns, err := s.listColumns(ctx)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		return columns, nil
	}
	if err := s.seedDefaultColumns(ctx); err != nil {
		return nil, err
	}
	return s.listColumns(ctx)
}

// listColumns handles list columns.
func (s *Store) listColumns(ctx context.Context) ([]domain.Column, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, name, color, position, created_at, updated_at
		FROM columns
		ORDER BY position, key
	`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make([]domain.Column, 0)
	for rows.Next() {
		var (
			col        domain.Column
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&col.Key, &col.Name, &col.Color, &col.Position, &createdRaw, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.CreatedAt = parseTS(createdRaw)
		col.UpdatedAt = parseTS(updatedRaw)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// seedDefaultColumns handles seed default columns.
func (s *Store) seedDefaultColumns(ctx context.Context) error {
	now := time.Now()
	for _, seed := range defaultColumns {
		col, err := domain.NewColumn(seed.Key, seed.Name, seed.Color, seed.Position, now)
		if err != nil {
			return fmt.Errorf("build default column %q: %w", seed.Key, err)
		}
		if err := s.CreateColumn(ctx, col); err != nil {
			return err
		}
	}
	return nil
}

// CreateColumn creates column.
func (s *Store) CreateColumn(ctx context.Context, col domain.Column) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO columns (key, name, color, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, col.Key, col.Name, col.Color, col.Position, ts(col.CreatedAt), ts(col.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert column: %w", err)
	}
	return nil
}

// ListItems returns every item ordered by position, creation time breaking
// ties.
func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, column_key, position, title, description, assignee, priority, due_at, labels_json, created_at, updated_at, archived_at
		FROM items
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem returns one item by id.
func (s *Store) GetItem(ctx context.Context, id string) (domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, column_key, position, title, description, assignee, priority, due_at, labels_json, created_at, updated_at, archived_at
		FROM items
		WHERE id = ?
	`, id)
	return scanItem(row)
}

// CreateItem creates item.
func (s *Store) CreateItem(ctx context.Context, item domain.Item) error {
	labels, err := json.Marshal(item.Labels)
	if err != nil {
		return fmt.Errorf("encode labels_json: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, column_key, position, title, description, assignee, priority, due_at, labels_json, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, item.ColumnKey, item.Position, item.Title, item.Description, item.Assignee,
		string(item.Priority), nullableTS(item.DueAt), string(labels), ts(item.CreatedAt), ts(item.UpdatedAt), nullableTS(item.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// MoveItem applies one move command: the item leaves its source slot, lands
// before the requested index in the destination column, and both columns
// are renumbered sequentially inside a single transaction.
func (s *Store) MoveItem(ctx context.Context, itemID, columnKey string, position int) (domain.Item, error) {
	if position < 0 {
		return domain.Item{}, domain.ErrInvalidPosition
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Item{}, fmt.Errorf("begin move tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	moved, err := scanItem(tx.QueryRowContext(ctx, `
		SELECT id, column_key, position, title, description, assignee, priority, due_at, labels_json, created_at, updated_at, archived_at
		FROM items
		WHERE id = ?
	`, itemID))
	if errors.Is(err, app.ErrNotFound) {
		return domain.Item{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("load move source: %w", err)
	}
	sourceKey := moved.ColumnKey
	var columnExists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM columns WHERE key = ?`, columnKey).Scan(&columnExists)
	if err != nil {
		return domain.Item{}, fmt.Errorf("check destination column: %w", err)
	}
	if columnExists == 0 {
		return domain.Item{}, fmt.Errorf("destination %q: %w", columnKey, domain.ErrColumnNotFound)
	}

	destIDs, err := columnOrder(ctx, tx, columnKey, itemID)
	if err != nil {
		return domain.Item{}, err
	}
	insertAt := min(position, len(destIDs))

	now := time.Now()
	if err := moved.Move(columnKey, insertAt, now); err != nil {
		return domain.Item{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET column_key = ?, position = ?, updated_at = ? WHERE id = ?
	`, moved.ColumnKey, moved.Position, ts(moved.UpdatedAt), moved.ID); err != nil {
		return domain.Item{}, fmt.Errorf("place moved item: %w", err)
	}
	for idx, id := range destIDs {
		slot := idx
		if idx >= insertAt {
			slot = idx + 1
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE items SET position = ?, updated_at = ? WHERE id = ?
		`, slot, ts(now), id); err != nil {
			return domain.Item{}, fmt.Errorf("renumber destination: %w", err)
		}
	}
	if sourceKey != columnKey {
		sourceIDs, err := columnOrder(ctx, tx, sourceKey, itemID)
		if err != nil {
			return domain.Item{}, err
		}
		for idx, id := range sourceIDs {
			if _, err := tx.ExecContext(ctx, `
				UPDATE items SET position = ?, updated_at = ? WHERE id = ?
			`, idx, ts(now), id); err != nil {
				return domain.Item{}, fmt.Errorf("renumber source: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Item{}, fmt.Errorf("commit move tx: %w", err)
	}
	return s.GetItem(ctx, itemID)
}

// columnOrder returns a column's item ids in visible order, excluding the
// item being moved.
func columnOrder(ctx context.Context, tx *sql.Tx, columnKey, excludeID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM items
		WHERE column_key = ? AND id != ?
		ORDER BY position, created_at
	`, columnKey, excludeID)
	if err != nil {
		return nil, fmt.Errorf("query column order: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan column order: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem handles scan item.
func scanItem(s scanner) (domain.Item, error) {
	var (
		item        domain.Item
		priority    string
		dueRaw      sql.NullString
		labelsRaw   string
		createdRaw  string
		updatedRaw  string
		archivedRaw sql.NullString
	)
	if err := s.Scan(
		&item.ID,
		&item.ColumnKey,
		&item.Position,
		&item.Title,
		&item.Description,
		&item.Assignee,
		&priority,
		&dueRaw,
		&labelsRaw,
		&createdRaw,
		&updatedRaw,
		&archivedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Item{}, app.ErrNotFound
		}
		return domain.Item{}, err
	}
	item.Priority = domain.Priority(priority)
	item.DueAt = parseNullTS(dueRaw)
	item.CreatedAt = parseTS(createdRaw)
	item.UpdatedAt = parseTS(updatedRaw)
	item.ArchivedAt = parseNullTS(archivedRaw)
	if err := json.Unmarshal([]byte(labelsRaw), &item.Labels); err != nil {
		return domain.Item{}, fmt.Errorf("decode labels_json: %w", err)
	}
	return item, nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	parsed := parseTS(v.String)
	return &parsed
}
