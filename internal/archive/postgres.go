package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id           UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	sha256       TEXT NOT NULL,
	published_at TEXT,
	fetched_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	path         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS extractions (
	id            UUID PRIMARY KEY,
	document_id   UUID NOT NULL REFERENCES documents(id),
	row_count     INTEGER NOT NULL,
	snapshot_path TEXT NOT NULL,
	extracted_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_sha256 ON documents(sha256);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
CREATE INDEX IF NOT EXISTS idx_extractions_document_id ON extractions(document_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) InsertDocument(ctx context.Context, doc Document) (*Document, error) {
	doc.ID = uuid.New().String()
	if doc.FetchedAt.IsZero() {
		doc.FetchedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, source, url, sha256, published_at, fetched_at, path) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Source, doc.URL, doc.SHA256, doc.PublishedAt, doc.FetchedAt, doc.Path,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert document %s", doc.URL)
	}
	return &doc, nil
}

func (s *PostgresStore) FindBySHA256(ctx context.Context, sha string) (*Document, error) {
	return s.findOne(ctx,
		`SELECT id, source, url, sha256, published_at, fetched_at, path FROM documents WHERE sha256 = $1 LIMIT 1`, sha)
}

func (s *PostgresStore) FindByURL(ctx context.Context, url string) (*Document, error) {
	return s.findOne(ctx,
		`SELECT id, source, url, sha256, published_at, fetched_at, path FROM documents WHERE url = $1 LIMIT 1`, url)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*Document, error) {
	var doc Document
	var published *string
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&doc.ID, &doc.Source, &doc.URL, &doc.SHA256, &published, &doc.FetchedAt, &doc.Path,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query document")
	}
	if published != nil {
		doc.PublishedAt = *published
	}
	return &doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, url, sha256, published_at, fetched_at, path FROM documents ORDER BY fetched_at`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var published *string
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.URL, &doc.SHA256, &published, &doc.FetchedAt, &doc.Path); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if published != nil {
			doc.PublishedAt = *published
		}
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: iterate documents")
}

func (s *PostgresStore) RecordExtraction(ctx context.Context, ex Extraction) (*Extraction, error) {
	ex.ID = uuid.New().String()
	if ex.ExtractedAt.IsZero() {
		ex.ExtractedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO extractions (id, document_id, row_count, snapshot_path, extracted_at) VALUES ($1, $2, $3, $4, $5)`,
		ex.ID, ex.DocumentID, ex.RowCount, ex.SnapshotPath, ex.ExtractedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert extraction for %s", ex.DocumentID)
	}
	return &ex, nil
}
