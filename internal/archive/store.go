// Package archive indexes every source PDF the fetcher has retrieved, so
// re-fetching an unchanged document is a no-op and each extraction can be
// traced back to the exact file it came from.
package archive

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/rouki-watch/rouki-cli/internal/config"
)

// Document is one fetched source PDF.
type Document struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"` // latest, wayback, hcrisis
	URL         string    `json:"url"`
	SHA256      string    `json:"sha256"`
	PublishedAt string    `json:"published_at"` // YYYY-MM-DD, may be empty
	FetchedAt   time.Time `json:"fetched_at"`
	Path        string    `json:"path"`
}

// Extraction records one snapshot produced from a document.
type Extraction struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	RowCount     int       `json:"row_count"`
	SnapshotPath string    `json:"snapshot_path"`
	ExtractedAt  time.Time `json:"extracted_at"`
}

// Store defines the persistence interface for the document index.
type Store interface {
	// Documents
	InsertDocument(ctx context.Context, doc Document) (*Document, error)
	FindBySHA256(ctx context.Context, sha string) (*Document, error)
	FindByURL(ctx context.Context, url string) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)

	// Extractions
	RecordExtraction(ctx context.Context, ex Extraction) (*Extraction, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store based on config.
func Open(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("archive: postgres driver requires database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("archive: unknown driver %q", cfg.Driver)
	}
}
