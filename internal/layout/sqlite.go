package layout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/inamate/inamate/layout-go/internal/auth"
	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/typeid"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database file at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, projectID string, records []document.LayoutRecord) (*document.LayoutDocument, error) {
	if projectID == "" {
		return nil, ErrEmptyProject
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM layouts WHERE project_id = ?`,
		projectID,
	).Scan(&version); err != nil {
		return nil, fmt.Errorf("next version: %w", err)
	}

	id := typeid.NewLayoutID()
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO layouts (id, project_id, version, records, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, projectID, version, string(data), now.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("insert layout: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return newDocument(id, projectID, version, records, now), nil
}

func (s *SQLiteStore) Latest(ctx context.Context, projectID string) (*document.LayoutDocument, error) {
	var (
		id, data, created string
		version           int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, version, records, created_at FROM layouts WHERE project_id = ? ORDER BY version DESC LIMIT 1`,
		projectID,
	).Scan(&id, &version, &data, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest layout: %w", err)
	}
	return decodeRow(id, projectID, version, data, created)
}

func (s *SQLiteStore) List(ctx context.Context, projectID string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, records, created_at FROM layouts WHERE project_id = ? ORDER BY version DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	out := []Version{}
	for rows.Next() {
		var (
			id, data, created string
			version           int
		)
		if err := rows.Scan(&id, &version, &data, &created); err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		doc, err := decodeRow(id, projectID, version, data, created)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return out, nil
}

// CreateUser inserts a; an existing email leaves the table untouched.
func (s *SQLiteStore) CreateUser(ctx context.Context, a *auth.Account) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n == 0 {
		return auth.ErrEmailTaken
	}
	return nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var id, displayName, hash, created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, password_hash, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&id, &displayName, &hash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeAccount(id, email, displayName, hash, created)
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}
