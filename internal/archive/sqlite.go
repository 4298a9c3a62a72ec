package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	url          TEXT NOT NULL UNIQUE,
	sha256       TEXT NOT NULL,
	published_at TEXT,
	fetched_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	path         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS extractions (
	id            TEXT PRIMARY KEY,
	document_id   TEXT NOT NULL REFERENCES documents(id),
	row_count     INTEGER NOT NULL,
	snapshot_path TEXT NOT NULL,
	extracted_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_documents_sha256 ON documents(sha256);
CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
CREATE INDEX IF NOT EXISTS idx_extractions_document_id ON extractions(document_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertDocument(ctx context.Context, doc Document) (*Document, error) {
	doc.ID = uuid.New().String()
	if doc.FetchedAt.IsZero() {
		doc.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, source, url, sha256, published_at, fetched_at, path) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Source, doc.URL, doc.SHA256, doc.PublishedAt, doc.FetchedAt, doc.Path,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert document %s", doc.URL)
	}
	return &doc, nil
}

func (s *SQLiteStore) FindBySHA256(ctx context.Context, sha string) (*Document, error) {
	return s.findOne(ctx,
		`SELECT id, source, url, sha256, published_at, fetched_at, path FROM documents WHERE sha256 = ? LIMIT 1`, sha)
}

func (s *SQLiteStore) FindByURL(ctx context.Context, url string) (*Document, error) {
	return s.findOne(ctx,
		`SELECT id, source, url, sha256, published_at, fetched_at, path FROM documents WHERE url = ? LIMIT 1`, url)
}

func (s *SQLiteStore) findOne(ctx context.Context, query string, arg any) (*Document, error) {
	var doc Document
	var published sql.NullString
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&doc.ID, &doc.Source, &doc.URL, &doc.SHA256, &published, &doc.FetchedAt, &doc.Path,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query document")
	}
	doc.PublishedAt = published.String
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, url, sha256, published_at, fetched_at, path FROM documents ORDER BY fetched_at`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var published sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.URL, &doc.SHA256, &published, &doc.FetchedAt, &doc.Path); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		doc.PublishedAt = published.String
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

func (s *SQLiteStore) RecordExtraction(ctx context.Context, ex Extraction) (*Extraction, error) {
	ex.ID = uuid.New().String()
	if ex.ExtractedAt.IsZero() {
		ex.ExtractedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, document_id, row_count, snapshot_path, extracted_at) VALUES (?, ?, ?, ?, ?)`,
		ex.ID, ex.DocumentID, ex.RowCount, ex.SnapshotPath, ex.ExtractedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert extraction for %s", ex.DocumentID)
	}
	return &ex, nil
}
