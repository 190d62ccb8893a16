// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used by the stores.
type Config struct {
	DSN             string
	CredentialTable string
	NoteTable       string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// NewPool builds a pgx pool from the config.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// CredentialStore persists credentials in Postgres. AcquireNext claims the
// least-recently-used active row in one statement, so concurrent selections
// for the same owner cannot claim the same credential while another exists.
type CredentialStore struct {
	pool  pgxPool
	table string
}

// NewCredentialStore constructs a store from an existing pool.
func NewCredentialStore(pool pgxPool, table string) (*CredentialStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "credentials"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &CredentialStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the credentials table when it does not exist.
func (s *CredentialStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	value TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	failure_count INT NOT NULL DEFAULT 0,
	last_used_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure credential schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *CredentialStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Add inserts a credential row.
func (s *CredentialStore) Add(ctx context.Context, cred insight.Credential) error {
	if cred.ID == "" {
		return fmt.Errorf("credential id is required")
	}
	if cred.Status == "" {
		cred.Status = insight.CredentialStatusActive
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, owner_id, value, note, status, failure_count, last_used_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, s.table)
	args := []any{
		cred.ID,
		cred.OwnerID,
		cred.Value,
		cred.Note,
		string(cred.Status),
		cred.FailureCount,
		cred.LastUsedAt,
		cred.CreatedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// Get returns one credential by ID.
func (s *CredentialStore) Get(ctx context.Context, id string) (insight.Credential, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, value, note, status, failure_count, last_used_at, created_at
FROM %s WHERE id = $1`, s.table)
	cred, err := scanCredential(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return insight.Credential{}, insight.ErrCredentialNotFound
		}
		return insight.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

// List returns every credential for the owner, newest first.
func (s *CredentialStore) List(ctx context.Context, ownerID string) ([]insight.Credential, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, value, note, status, failure_count, last_used_at, created_at
FROM %s WHERE owner_id = $1
ORDER BY created_at DESC, id`, s.table)
	return s.queryCredentials(ctx, query, ownerID)
}

// ListActive returns the owner's active credentials, least recently used
// first with never-used rows leading.
func (s *CredentialStore) ListActive(ctx context.Context, ownerID string) ([]insight.Credential, error) {
	query := fmt.Sprintf(`
SELECT id, owner_id, value, note, status, failure_count, last_used_at, created_at
FROM %s WHERE owner_id = $1 AND status = 'active'
ORDER BY last_used_at ASC NULLS FIRST, created_at ASC, id`, s.table)
	return s.queryCredentials(ctx, query, ownerID)
}

// AcquireNext stamps and returns the least-recently-used active credential in
// a single statement. SKIP LOCKED keeps concurrent acquirers from claiming the
// same row while another is available.
func (s *CredentialStore) AcquireNext(ctx context.Context, ownerID string, now time.Time) (insight.Credential, error) {
	query := fmt.Sprintf(`
UPDATE %[1]s SET last_used_at = $2
WHERE id = (
	SELECT id FROM %[1]s
	WHERE owner_id = $1 AND status = 'active'
	ORDER BY last_used_at ASC NULLS FIRST, created_at ASC, id
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, owner_id, value, note, status, failure_count, last_used_at, created_at`, s.table)
	cred, err := scanCredential(s.pool.QueryRow(ctx, query, ownerID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return insight.Credential{}, insight.ErrCredentialNotFound
		}
		return insight.Credential{}, fmt.Errorf("acquire credential: %w", err)
	}
	return cred, nil
}

// RecordUse stamps last_used_at for the credential.
func (s *CredentialStore) RecordUse(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_used_at = $2 WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("record use: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return insight.ErrCredentialNotFound
	}
	return nil
}

// RecordFailure increments failure_count atomically and returns the new value.
func (s *CredentialStore) RecordFailure(ctx context.Context, id string) (int, error) {
	query := fmt.Sprintf(`
UPDATE %s SET failure_count = failure_count + 1
WHERE id = $1
RETURNING failure_count`, s.table)
	var count int
	if err := s.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, insight.ErrCredentialNotFound
		}
		return 0, fmt.Errorf("record failure: %w", err)
	}
	return count, nil
}

// RecordSuccess resets failure_count to zero.
func (s *CredentialStore) RecordSuccess(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET failure_count = 0 WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return insight.ErrCredentialNotFound
	}
	return nil
}

// Invalidate retires the credential. Already-invalid rows are left as-is.
func (s *CredentialStore) Invalidate(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = 'invalid' WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("invalidate credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return insight.ErrCredentialNotFound
	}
	return nil
}

func (s *CredentialStore) queryCredentials(ctx context.Context, query string, args ...any) ([]insight.Credential, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var out []insight.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

func scanCredential(row pgx.Row) (insight.Credential, error) {
	var (
		cred   insight.Credential
		status string
	)
	if err := row.Scan(
		&cred.ID,
		&cred.OwnerID,
		&cred.Value,
		&cred.Note,
		&status,
		&cred.FailureCount,
		&cred.LastUsedAt,
		&cred.CreatedAt,
	); err != nil {
		return insight.Credential{}, err
	}
	cred.Status = insight.CredentialStatus(status)
	return cred, nil
}
