// Package layout persists exported layouts as numbered versions per project
// and serves them over HTTP. The same database holds the user accounts that
// sign in to edit them.
package layout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/inamate/layout-go/internal/auth"
	"github.com/inamate/inamate/layout-go/internal/document"
)

var (
	ErrNotFound     = errors.New("layout not found")
	ErrNoSession    = errors.New("no live session for project")
	ErrEmptyProject = errors.New("project id is required")
)

// Store keeps every saved version of a project's layout, and the accounts
// allowed to save them.
type Store interface {
	auth.UserStore

	// Save stores records as the project's next version.
	Save(ctx context.Context, projectID string, records []document.LayoutRecord) (*document.LayoutDocument, error)
	// Latest returns the highest version, or ErrNotFound.
	Latest(ctx context.Context, projectID string) (*document.LayoutDocument, error)
	// List returns version summaries, newest first.
	List(ctx context.Context, projectID string) ([]Version, error)
	Close()
}

// Version summarizes one saved layout.
type Version struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"createdAt"`
}

// schema is shared by the Postgres and SQLite stores. Timestamps are
// RFC 3339 text so both dialects read them back the same way.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS layouts (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	version    INTEGER NOT NULL,
	records    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (project_id, version)
)`,
	`CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL
)`,
}

func newDocument(id, projectID string, version int, records []document.LayoutRecord, createdAt time.Time) *document.LayoutDocument {
	if records == nil {
		records = []document.LayoutRecord{}
	}
	return &document.LayoutDocument{
		ID:        id,
		ProjectID: projectID,
		Version:   version,
		Records:   records,
		CreatedAt: createdAt.UTC(),
	}
}

func decodeAccount(id, email, displayName, hash, created string) (*auth.Account, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("decode user %s time: %w", id, err)
	}
	return &auth.Account{
		User:         auth.User{ID: id, Email: email, DisplayName: displayName},
		PasswordHash: hash,
		CreatedAt:    createdAt,
	}, nil
}
