// Package backend opens the credential store named by a connection
// descriptor.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/hongminglow/valentine-be/internal/storage"
	"github.com/hongminglow/valentine-be/internal/storage/postgres"
	"github.com/hongminglow/valentine-be/internal/storage/sqlite"
)

const sqliteScheme = "sqlite://"

// Open selects the store from the descriptor scheme: postgres:// and
// postgresql:// use Postgres, sqlite://<path> and file: use SQLite.
func Open(ctx context.Context, descriptor string) (storage.UserStore, error) {
	descriptor = strings.TrimSpace(descriptor)
	switch {
	case strings.HasPrefix(descriptor, "postgres://"), strings.HasPrefix(descriptor, "postgresql://"):
		store, err := postgres.NewUserStore(ctx, descriptor)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(descriptor, sqliteScheme), strings.HasPrefix(descriptor, "file:"):
		path := strings.TrimPrefix(strings.TrimPrefix(descriptor, sqliteScheme), "file:")
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case descriptor == "":
		return nil, fmt.Errorf("empty connection descriptor")
	default:
		return nil, fmt.Errorf("unsupported connection descriptor scheme in %q", redact(descriptor))
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(descriptor string) string {
	if i := strings.Index(descriptor, "://"); i >= 0 {
		return descriptor[:i+3] + "…"
	}
	if i := strings.Index(descriptor, ":"); i >= 0 {
		return descriptor[:i+1] + "…"
	}
	return "…"
}
