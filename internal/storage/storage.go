// Package storage persists articles behind a backend-neutral Store
// interface. Both backends enforce URL uniqueness at the storage layer
// and serve reverse-chronological paginated listings.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/IshaanNene/StashGoat/internal/config"
	"github.com/IshaanNene/StashGoat/internal/types"
)

// Store is the persistence contract for articles.
type Store interface {
	// Upsert inserts the article unless its URL already exists, in
	// which case the existing row wins and its id is returned with
	// created=false. Content fields are never overwritten.
	Upsert(ctx context.Context, a *types.Article) (id string, created bool, err error)

	// GetByURL returns the article for a normalized URL, or
	// types.ErrNotFound.
	GetByURL(ctx context.Context, url string) (*types.Article, error)

	// GetByID returns the article by id, or types.ErrNotFound.
	GetByID(ctx context.Context, id string) (*types.Article, error)

	// List returns one page of an owner's articles, newest first,
	// plus the token for the next page ("" when exhausted).
	List(ctx context.Context, q ListQuery) ([]types.Article, string, error)

	// Delete removes an article owned by ownerID, or types.ErrNotFound.
	Delete(ctx context.Context, id, ownerID string) error

	// Close releases the connection pool.
	Close() error

	// Name returns the backend identifier.
	Name() string
}

// ListQuery selects a page of one owner's articles.
type ListQuery struct {
	OwnerID   string
	Category  string // optional filter; empty means all
	PageSize  int
	PageToken string
}

// New creates the configured storage backend.
func New(cfg *config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.DBPath, cfg.PoolSize, logger)
	case "mongodb":
		return NewMongoStore(cfg.MongoURI, cfg.MongoDB, cfg.PoolSize, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Page tokens are opaque to callers: base64 over an offset. The public
// surface exposes numbered pages, which need random access, so a
// keyset cursor cannot serve here.

func encodePageToken(offset int) string {
	return base64.URLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

func decodePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("malformed page token: %w", err)
	}
	s, ok := strings.CutPrefix(string(raw), "o:")
	if !ok {
		return 0, fmt.Errorf("malformed page token")
	}
	offset, err := strconv.Atoi(s)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("malformed page token")
	}
	return offset, nil
}

// PageTokenForOffset exposes token encoding for callers that translate
// numbered pages into storage queries.
func PageTokenForOffset(offset int) string {
	if offset <= 0 {
		return ""
	}
	return encodePageToken(offset)
}
