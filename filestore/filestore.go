// Copyright 2025 The Semindex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filestore persists the identity of watched files. Each file
// gets a compact id that stays stable across renames, so downstream
// index points survive moves without re-embedding.
package filestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/semindex/semindex/fault"

	// SQL drivers
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// FileRecord maps to the files table.
type FileRecord struct {
	ID        string
	Path      string
	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SQLStore implements the identity store on a SQL database.
// Concurrency is handled by database-level locking (transactions).
type SQLStore struct {
	db      *sql.DB
	dialect string
}

const createFilesSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
    id VARCHAR(64) PRIMARY KEY,
    path TEXT NOT NULL,
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

const createFilesPathIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_files_path ON files(path)`

const createFilesDeletedIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_files_deleted ON files(is_deleted, updated_at)`

// Open opens a database connection for the given driver and DSN.
// Driver is one of sqlite, postgres, mysql.
func Open(driver, dsn string) (*sql.DB, string, error) {
	dialect := driver
	driverName := driver
	switch driver {
	case "sqlite", "sqlite3":
		dialect = "sqlite"
		driverName = "sqlite3"
	case "postgres":
	case "mysql":
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres, mysql)", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, dialect, nil
}

// NewSQLStore creates the identity store and initializes its schema.
func NewSQLStore(db *sql.DB, dialect string) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	switch dialect {
	case "postgres", "mysql", "sqlite", "sqlite3":
		if dialect == "sqlite3" {
			dialect = "sqlite"
		}
	default:
		return nil, fmt.Errorf("unsupported dialect: %s (supported: postgres, mysql, sqlite)", dialect)
	}

	s := &SQLStore{
		db:      db,
		dialect: dialect,
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLStore) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Execute each statement separately for SQLite compatibility
	statements := []string{
		createFilesSchemaSQL,
		createFilesPathIndexSQL,
		createFilesDeletedIndexSQL,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// NewID returns a fresh file id of the form file_<12 hex chars>.
func NewID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "file_" + raw[:12]
}

// GetByPath returns the live record for a path. A missing or
// soft-deleted record yields fault.KindNotFound.
func (s *SQLStore) GetByPath(ctx context.Context, path string) (*FileRecord, error) {
	query := `SELECT id, path, is_deleted, created_at, updated_at
              FROM files WHERE path = ? AND is_deleted = FALSE`
	if s.dialect == "postgres" {
		query = convertToPostgresPlaceholders(query)
	}

	var rec FileRecord
	err := s.db.QueryRowContext(ctx, query, path).Scan(
		&rec.ID, &rec.Path, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fault.New(fault.KindNotFound, "no record for path %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record for path %s: %w", path, err)
	}

	return &rec, nil
}

// EnsureID returns the id for a path, creating a record with a fresh id
// when none exists. Repeated calls for the same live path return the
// same id.
func (s *SQLStore) EnsureID(ctx context.Context, path string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	query := `SELECT id FROM files WHERE path = ? AND is_deleted = FALSE`
	if s.dialect == "postgres" {
		query = convertToPostgresPlaceholders(query)
	}

	var id string
	err = tx.QueryRowContext(ctx, query, path).Scan(&id)
	if err == nil {
		return id, tx.Commit()
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up path %s: %w", path, err)
	}

	id = NewID()
	now := time.Now().UTC()

	insert := `INSERT INTO files (id, path, is_deleted, created_at, updated_at)
               VALUES (?, ?, FALSE, ?, ?)`
	if s.dialect == "postgres" {
		insert = convertToPostgresPlaceholders(insert)
	}
	if _, err := tx.ExecContext(ctx, insert, id, path, now, now); err != nil {
		return "", fmt.Errorf("failed to insert record for path %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// UpdatePath moves the live record at oldPath to newPath, keeping its
// id. A missing source record yields fault.KindNotFound.
func (s *SQLStore) UpdatePath(ctx context.Context, oldPath, newPath string) (string, error) {
	rec, err := s.GetByPath(ctx, oldPath)
	if err != nil {
		return "", err
	}

	query := `UPDATE files SET path = ?, updated_at = ? WHERE id = ?`
	if s.dialect == "postgres" {
		query = convertToPostgresPlaceholders(query)
	}
	if _, err := s.db.ExecContext(ctx, query, newPath, time.Now().UTC(), rec.ID); err != nil {
		return "", fmt.Errorf("failed to update path for %s: %w", rec.ID, err)
	}

	return rec.ID, nil
}

// SoftDelete marks the live record for a path as deleted and returns
// its id. A missing record yields fault.KindNotFound.
func (s *SQLStore) SoftDelete(ctx context.Context, path string) (string, error) {
	rec, err := s.GetByPath(ctx, path)
	if err != nil {
		return "", err
	}

	query := `UPDATE files SET is_deleted = TRUE, updated_at = ? WHERE id = ?`
	if s.dialect == "postgres" {
		query = convertToPostgresPlaceholders(query)
	}
	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), rec.ID); err != nil {
		return "", fmt.Errorf("failed to soft-delete %s: %w", rec.ID, err)
	}

	return rec.ID, nil
}

// ListDeletedSince returns records soft-deleted at or after the cutoff,
// oldest first. The reconciler uses this to re-issue index deletes that
// may have been dropped.
func (s *SQLStore) ListDeletedSince(ctx context.Context, cutoff time.Time) ([]FileRecord, error) {
	query := `SELECT id, path, is_deleted, created_at, updated_at
              FROM files WHERE is_deleted = TRUE AND updated_at >= ?
              ORDER BY updated_at ASC`
	if s.dialect == "postgres" {
		query = convertToPostgresPlaceholders(query)
	}

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted records: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ListLive returns all live records, for reconciliation against the
// filesystem.
func (s *SQLStore) ListLive(ctx context.Context) ([]FileRecord, error) {
	query := `SELECT id, path, is_deleted, created_at, updated_at
              FROM files WHERE is_deleted = FALSE ORDER BY path ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list live records: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// convertToPostgresPlaceholders converts ? to $1, $2, etc. in a single pass.
func convertToPostgresPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 20)
	paramNum := 1
	for _, c := range query {
		if c == '?' {
			b.WriteString(fmt.Sprintf("$%d", paramNum))
			paramNum++
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
