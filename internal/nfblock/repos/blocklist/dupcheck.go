package blocklist

import (
	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// DefaultFPRate is the Bloom false-positive target for DuplicateStarts.
const DefaultFPRate = 0.001

// Duplicate describes a range start that appears on more than one record.
// Counters and reflected labels are keyed by start, so only the last of these
// records stays attributable in the stats report.
type Duplicate struct {
	Start  string
	Count  int
	Labels []string // labels in record order
}

// DuplicateStarts finds range starts shared by several records. A Bloom pass
// narrows the candidates; only those are counted exactly, so memory stays
// proportional to the number of collisions rather than the list size.
// The records are not modified.
func DuplicateStarts(records []domain.RangeRecord, factory BloomFactory, fpRate float64, logger logpkg.Logger) []Duplicate {
	if len(records) < 2 {
		return nil
	}

	// 1) bloom pass: remember starts that might have been seen before
	bf := factory.New(uint64(len(records)), fpRate)
	candidates := make(map[string]*Duplicate)
	for _, r := range records {
		key := []byte(r.Start)
		if bf.MightContain(key) {
			candidates[r.Start] = &Duplicate{Start: r.Start}
			continue
		}
		bf.Add(key)
	}
	if len(candidates) == 0 {
		return nil
	}

	// 2) exact pass over candidates only, preserving first-seen order
	order := make([]string, 0, len(candidates))
	for _, r := range records {
		d, ok := candidates[r.Start]
		if !ok {
			continue
		}
		if d.Count == 0 {
			order = append(order, r.Start)
		}
		d.Count++
		d.Labels = append(d.Labels, r.Label)
	}

	var out []Duplicate
	for _, start := range order {
		d := candidates[start]
		if d.Count < 2 {
			continue // bloom false positive
		}
		out = append(out, *d)
		logger.Debug(map[string]any{"start": d.Start, "count": d.Count, "labels": d.Labels}, "duplicate_range_start")
	}
	return out
}
