// Package stats turns live counter observations into the ranked hit report.
package stats

import (
	"bufio"
	"io"
	"sort"

	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// Placeholders for counters that have no element in the ruleset file.
const (
	UnknownEnd   = "?"
	UnknownLabel = "(unknown)"
)

// CountryLocator resolves an address to an ISO country code, or "".
type CountryLocator interface {
	Country(addr string) string
}

// Correlate joins the counters of one family/table against the lookup
// recovered from the ruleset file. Counters that never matched are dropped.
// Rows are ordered by packets, highest first; ties keep counter order.
func Correlate(counters []domain.CounterObservation, lookup domain.Lookup, family, table string) []domain.ReportRow {
	rows := make([]domain.ReportRow, 0, len(counters))
	for _, c := range counters {
		if !c.InScope(family, table) || !c.Hit() {
			continue
		}
		row := domain.ReportRow{
			Start:   c.Name,
			End:     UnknownEnd,
			Label:   UnknownLabel,
			Packets: c.Packets,
			Bytes:   c.Bytes,
		}
		if e, ok := lookup[c.Name]; ok {
			row.End = e.End
			row.Label = e.Label
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Packets > rows[j].Packets
	})
	return rows
}

// Enrich fills the Country of every row from its range start.
func Enrich(rows []domain.ReportRow, locator CountryLocator) {
	if locator == nil {
		return
	}
	for i := range rows {
		rows[i].Country = locator.Country(rows[i].Start)
	}
}

// WriteReport prints one row per line.
func WriteReport(w io.Writer, rows []domain.ReportRow) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		if _, err := bw.WriteString(r.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
