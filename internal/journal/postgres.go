package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateEntry = errors.New("journal entry already recorded")

const postgresSchema = `
CREATE TABLE IF NOT EXISTS history_entries (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	document_id TEXT NOT NULL,
	kind        TEXT NOT NULL,
	version     BIGINT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS history_entries_document ON history_entries (document_id, seq);
`

// PostgresStore keeps the journal in a shared Postgres database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and creates the journal table.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO history_entries (id, document_id, kind, version, label, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Document, string(e.Kind), e.Version, e.Label, e.RecordedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("append %s: %w", e.ID, ErrDuplicateEntry)
		}
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, document string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, document_id, kind, version, label, recorded_at
FROM history_entries
WHERE document_id = $1
ORDER BY seq DESC
LIMIT $2`, document, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e    Entry
			kind string
		)
		err := row.Scan(&e.ID, &e.Document, &kind, &e.Version, &e.Label, &e.RecordedAt)
		e.Kind = Kind(kind)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	return entries, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
