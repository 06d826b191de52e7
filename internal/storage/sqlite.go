package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/IshaanNene/StashGoat/internal/types"
)

// SQLiteStore persists articles in a local SQLite database with a
// bounded connection pool.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string, poolSize int, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_synchronous=NORMAL&_busy_timeout=30000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}

	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "sqlite_storage"),
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("sqlite storage ready", "path", dbPath, "pool_size", poolSize)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id              TEXT PRIMARY KEY,
		url             TEXT NOT NULL,
		owner_id        TEXT NOT NULL,
		title           TEXT NOT NULL DEFAULT '',
		summary         TEXT NOT NULL DEFAULT '',
		category        TEXT NOT NULL DEFAULT 'uncategorized',
		language        TEXT NOT NULL DEFAULT '',
		body_compressed BLOB NOT NULL,
		created_at      DATETIME NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_url ON articles(url);
	CREATE INDEX IF NOT EXISTS idx_articles_owner_created ON articles(owner_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_owner_category ON articles(owner_id, category);`

	if _, err := s.db.Exec(schema); err != nil {
		return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("create schema: %w", err)}
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Upsert relies on the unique url index: a conflicting insert changes
// nothing and the existing row's id is returned. Insert and lookup run
// in one transaction so a concurrent delete cannot slip between them.
func (s *SQLiteStore) Upsert(ctx context.Context, a *types.Article) (string, bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, &types.StorageError{Backend: "sqlite", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (id, url, owner_id, title, summary, category, language, body_compressed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		a.ID, a.URL, a.OwnerID, a.Title, a.Summary, a.Category, a.Language, a.BodyCompressed, a.CreatedAt,
	)
	if err != nil {
		return "", false, &types.StorageError{Backend: "sqlite", Err: err}
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		if err := tx.Commit(); err != nil {
			return "", false, &types.StorageError{Backend: "sqlite", Err: err}
		}
		s.logger.Debug("article stored", "id", a.ID, "url", a.URL)
		return a.ID, true, nil
	}

	var existingID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM articles WHERE url = ?`, a.URL).Scan(&existingID); err != nil {
		return "", false, &types.StorageError{Backend: "sqlite", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return "", false, &types.StorageError{Backend: "sqlite", Err: err}
	}
	return existingID, false, nil
}

func (s *SQLiteStore) GetByURL(ctx context.Context, url string) (*types.Article, error) {
	return s.getOne(ctx, `WHERE url = ?`, url)
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*types.Article, error) {
	return s.getOne(ctx, `WHERE id = ?`, id)
}

func (s *SQLiteStore) getOne(ctx context.Context, where string, arg any) (*types.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, owner_id, title, summary, category, language, body_compressed, created_at
		FROM articles `+where, arg)

	var a types.Article
	err := row.Scan(&a.ID, &a.URL, &a.OwnerID, &a.Title, &a.Summary, &a.Category, &a.Language, &a.BodyCompressed, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: err}
	}
	return &a, nil
}

// List pages through an owner's articles newest first. Ordering ties
// on created_at break by id so consecutive pages never duplicate or
// skip a row.
func (s *SQLiteStore) List(ctx context.Context, q ListQuery) ([]types.Article, string, error) {
	offset, err := decodePageToken(q.PageToken)
	if err != nil {
		return nil, "", &types.StorageError{Backend: "sqlite", Err: err}
	}

	query := `
		SELECT id, url, owner_id, title, summary, category, language, body_compressed, created_at
		FROM articles
		WHERE owner_id = ?`
	args := []any{q.OwnerID}
	if q.Category != "" {
		query += ` AND category = ?`
		args = append(args, q.Category)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, q.PageSize+1, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", &types.StorageError{Backend: "sqlite", Err: err}
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		var a types.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.OwnerID, &a.Title, &a.Summary, &a.Category, &a.Language, &a.BodyCompressed, &a.CreatedAt); err != nil {
			return nil, "", &types.StorageError{Backend: "sqlite", Err: err}
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, "", &types.StorageError{Backend: "sqlite", Err: err}
	}

	var next string
	if len(articles) > q.PageSize {
		articles = articles[:q.PageSize]
		next = encodePageToken(offset + q.PageSize)
	}
	return articles, next, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Close drains the connection pool.
func (s *SQLiteStore) Close() error {
	s.logger.Info("sqlite storage closing")
	return s.db.Close()
}
