package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/inamate/layout-go/internal/auth"
	"github.com/inamate/inamate/layout-go/internal/document"
	"github.com/inamate/inamate/layout-go/internal/typeid"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to url and creates the tables if needed.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, projectID string, records []document.LayoutRecord) (*document.LayoutDocument, error) {
	if projectID == "" {
		return nil, ErrEmptyProject
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	id := typeid.NewLayoutID()
	now := time.Now().UTC()
	var version int
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM layouts WHERE project_id = $1`,
			projectID,
		).Scan(&version); err != nil {
			return fmt.Errorf("next version: %w", err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO layouts (id, project_id, version, records, created_at) VALUES ($1, $2, $3, $4, $5)`,
			id, projectID, version, string(data), now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert layout: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newDocument(id, projectID, version, records, now), nil
}

func (s *PostgresStore) Latest(ctx context.Context, projectID string) (*document.LayoutDocument, error) {
	var (
		id, data, created string
		version           int
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, version, records, created_at FROM layouts WHERE project_id = $1 ORDER BY version DESC LIMIT 1`,
		projectID,
	).Scan(&id, &version, &data, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest layout: %w", err)
	}
	return decodeRow(id, projectID, version, data, created)
}

func (s *PostgresStore) List(ctx context.Context, projectID string) ([]Version, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, version, records, created_at FROM layouts WHERE project_id = $1 ORDER BY version DESC`,
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

func (s *PostgresStore) CreateUser(ctx context.Context, a *auth.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Email, a.DisplayName, a.PasswordHash, a.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var id, displayName, hash, created string
	err := s.pool.QueryRow(ctx,
		`SELECT id, display_name, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&id, &displayName, &hash, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeAccount(id, email, displayName, hash, created)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

func decodeRow(id, projectID string, version int, data, created string) (*document.LayoutDocument, error) {
	var records []document.LayoutRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("decode layout %s: %w", id, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("decode layout %s time: %w", id, err)
	}
	return newDocument(id, projectID, version, records, createdAt), nil
}

func summarize(doc *document.LayoutDocument) Version {
	return Version{
		ID:        doc.ID,
		Version:   doc.Version,
		Records:   len(doc.Records),
		CreatedAt: doc.CreatedAt,
	}
}
