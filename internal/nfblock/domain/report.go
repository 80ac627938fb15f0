package domain

import "fmt"

// ReportRow is one line of the hit statistics report.
type ReportRow struct {
	Start   string
	End     string
	Label   string
	Packets uint64
	Bytes   uint64
	Country string // ISO code, set only when GeoIP enrichment is enabled
}

// String renders the row as "<start>-<end> <label> packets: <N> bytes: <N>".
func (r ReportRow) String() string {
	s := fmt.Sprintf("%s-%s %s packets: %d bytes: %d", r.Start, r.End, r.Label, r.Packets, r.Bytes)
	if r.Country != "" {
		s += " country: " + r.Country
	}
	return s
}
