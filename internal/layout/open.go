package layout

import (
	"context"
	"strings"
)

// Open picks a store from url: postgres:// and postgresql:// use Postgres,
// anything else is a SQLite file path with an optional sqlite:// prefix.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresStore(ctx, url)
	default:
		return NewSQLiteStore(ctx, strings.TrimPrefix(url, "sqlite://"))
	}
}
