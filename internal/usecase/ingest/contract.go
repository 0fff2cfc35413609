package ingest

import (
	"context"

	"github.com/cinedex/cinedex/internal/domain/record"
)

// Fetcher lists and resolves movies from the remote catalog. Pages are
// 1-based; an empty page means the listing is exhausted.
type Fetcher interface {
	Popular(ctx context.Context, page int) ([]int, error)
	Details(ctx context.Context, id int) (map[string]any, error)
}

// Writer persists records to a catalog file.
type Writer interface {
	Save(path string, records []record.Record) error
}
