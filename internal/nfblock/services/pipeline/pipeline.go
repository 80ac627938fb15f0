// Package pipeline orchestrates the download and list-stats modes.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/haukened/nfblock/internal/nfblock/common/clock"
	"github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
	"github.com/haukened/nfblock/internal/nfblock/repos/blocklist"
	"github.com/haukened/nfblock/internal/nfblock/repos/blocklist/parsers"
	"github.com/haukened/nfblock/internal/nfblock/repos/ruleset"
	"github.com/haukened/nfblock/internal/nfblock/services/stats"
)

type Pipeline struct {
	blooms   blocklist.BloomFactory
	clock    clock.Clock
	counters CounterSource
	fetcher  BlocklistFetcher
	locator  stats.CountryLocator
	logger   log.Logger
	names    domain.RulesetNames
	store    RulesetStore
}

type Options struct {
	// Blooms enables the duplicate-start report when set.
	Blooms   blocklist.BloomFactory
	Clock    clock.Clock
	Counters CounterSource
	Fetcher  BlocklistFetcher
	// Locator enables country enrichment of the stats report when set.
	Locator stats.CountryLocator
	Logger  log.Logger
	Names   domain.RulesetNames
	Store   RulesetStore
}

func New(opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Pipeline{
		blooms:   opts.Blooms,
		clock:    opts.Clock,
		counters: opts.Counters,
		fetcher:  opts.Fetcher,
		locator:  opts.Locator,
		logger:   opts.Logger,
		names:    opts.Names,
		store:    opts.Store,
	}
}

// Download fetches and parses every source in order, then writes the
// generated ruleset. Any failure aborts before the store is touched.
func (p *Pipeline) Download(ctx context.Context, sources []string) error {
	if err := p.names.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: no blocklist sources configured", domain.ErrConfig)
	}

	var records []domain.RangeRecord
	for _, source := range sources {
		recs, err := p.load(ctx, source)
		if err != nil {
			return err
		}
		records = append(records, recs...)
	}

	if p.blooms != nil {
		if dups := blocklist.DuplicateStarts(records, p.blooms, blocklist.DefaultFPRate, p.logger); len(dups) > 0 {
			p.logger.Warn(map[string]any{"starts": len(dups), "first": dups[0].Start}, "duplicate_range_starts")
		}
	}

	lines := ruleset.Emit(records, p.names)
	p.logger.Info(map[string]any{"statements": len(lines), "records": len(records)}, "writing_nftables_config")
	if err := p.store.WriteLines(lines); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) load(ctx context.Context, source string) ([]domain.RangeRecord, error) {
	started := p.clock.Now()
	body, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, err := parsers.ParseP2P(body, source, p.logger)
	if err != nil {
		return nil, err
	}
	p.logger.Info(map[string]any{
		"source":  source,
		"entries": len(records),
		"elapsed": p.clock.Now().Sub(started).Round(time.Millisecond).String(),
	}, "blocklist_loaded")
	return records, nil
}

// Stats correlates live counters with the generated ruleset and writes the
// ranked report to w.
func (p *Pipeline) Stats(ctx context.Context, w io.Writer) error {
	rows, err := p.Report(ctx)
	if err != nil {
		return err
	}
	return stats.WriteReport(w, rows)
}

// Report builds the ranked report rows without printing them.
func (p *Pipeline) Report(ctx context.Context) ([]domain.ReportRow, error) {
	rc, err := p.store.Open()
	if err != nil {
		return nil, err
	}
	lookup, err := ruleset.Reflect(rc, p.logger)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read ruleset file: %w", err)
	}

	counters, err := p.counters.Counters(ctx, p.names.Family, p.names.Table)
	if err != nil {
		return nil, err
	}

	rows := stats.Correlate(counters, lookup, p.names.Family, p.names.Table)
	if p.locator != nil {
		stats.Enrich(rows, p.locator)
	}
	p.logger.Debug(map[string]any{
		"elements": len(lookup),
		"counters": len(counters),
		"rows":     len(rows),
	}, "stats_correlated")
	return rows, nil
}
