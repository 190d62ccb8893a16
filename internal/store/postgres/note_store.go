package postgres

import (
	"context"
	"fmt"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// NoteStore writes analysis records into Postgres.
type NoteStore struct {
	pool  pgxPool
	table string
}

// NewNoteStore constructs a store from an existing pool.
func NewNoteStore(pool pgxPool, table string) (*NoteStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "notes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &NoteStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the notes table when it does not exist.
func (s *NoteStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	cover_image TEXT NOT NULL DEFAULT '',
	like_count INT NOT NULL DEFAULT 0,
	collect_count INT NOT NULL DEFAULT 0,
	comment_count INT NOT NULL DEFAULT 0,
	summary_text TEXT NOT NULL DEFAULT '',
	is_fallback BOOLEAN NOT NULL DEFAULT FALSE,
	blob_uri TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure note schema: %w", err)
	}
	return nil
}

// SaveNote inserts one analysis record.
func (s *NoteStore) SaveNote(ctx context.Context, rec insight.NoteRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	owner_id,
	url,
	title,
	body,
	cover_image,
	like_count,
	collect_count,
	comment_count,
	summary_text,
	is_fallback,
	blob_uri,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)`, s.table)

	args := []any{
		rec.ID,
		rec.OwnerID,
		rec.URL,
		rec.Title,
		rec.Body,
		rec.CoverImage,
		rec.LikeCount,
		rec.CollectCount,
		rec.CommentCount,
		rec.SummaryText,
		rec.IsFallback,
		rec.BlobURI,
		rec.CreatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// ListNotes returns the owner's records, newest first.
func (s *NoteStore) ListNotes(ctx context.Context, ownerID string) ([]insight.NoteRecord, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, url, title, body, cover_image, like_count, collect_count,
	comment_count, summary_text, is_fallback, blob_uri, created_at
FROM %s WHERE owner_id = $1
ORDER BY created_at DESC, id DESC`, s.table)
	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var out []insight.NoteRecord
	for rows.Next() {
		var rec insight.NoteRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.OwnerID,
			&rec.URL,
			&rec.Title,
			&rec.Body,
			&rec.CoverImage,
			&rec.LikeCount,
			&rec.CollectCount,
			&rec.CommentCount,
			&rec.SummaryText,
			&rec.IsFallback,
			&rec.BlobURI,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}
