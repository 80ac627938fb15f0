package pipeline

import (
	"context"
	"io"

	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// BlocklistFetcher opens a blocklist source as decompressed text.
type BlocklistFetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
}

// CounterSource reads live counters of one table.
type CounterSource interface {
	Counters(ctx context.Context, family, table string) ([]domain.CounterObservation, error)
}

// RulesetStore persists the generated statements and reads them back.
type RulesetStore interface {
	WriteLines(lines []string) error
	Open() (io.ReadCloser, error)
}
