package domain

import (
	"fmt"
	"strings"

	"github.com/haukened/nfblock/internal/nfblock/common/ipv4"
)

// RangeRecord represents a single blocklist entry: an inclusive IPv4 range and
// the label the feed attached to it.
//
// Notes:
// - Start and End are kept as the literal text from the feed. They are never
//   renumbered or reformatted, so octets above 255 survive untouched.
// - Label is opaque and carried through verbatim for display.
type RangeRecord struct {
	Start string // first address, e.g. "10.0.0.1"
	End   string // last address; equal to Start for a single host
	Label string // feed label, any text without a newline
}

// NewRangeRecord constructs a RangeRecord and validates its fields.
func NewRangeRecord(start, end, label string) (RangeRecord, error) {
	r := RangeRecord{Start: start, End: end, Label: label}
	if err := r.Validate(); err != nil {
		return RangeRecord{}, err
	}
	return r, nil
}

// Validate checks that both bounds are IPv4 literals and that the label is
// present and single-line.
func (r RangeRecord) Validate() error {
	if !ipv4.IsLiteral(r.Start) {
		return fmt.Errorf("range start %q is not an IPv4 literal", r.Start)
	}
	if !ipv4.IsLiteral(r.End) {
		return fmt.Errorf("range end %q is not an IPv4 literal", r.End)
	}
	if r.Label == "" {
		return fmt.Errorf("range label must not be empty")
	}
	if strings.ContainsAny(r.Label, "\r\n") {
		return fmt.Errorf("range label must not contain a newline")
	}
	return nil
}

// IsSingleHost reports whether the record covers exactly one address.
func (r RangeRecord) IsSingleHost() bool { return r.Start == r.End }

// Element returns the nft set-element literal for the record: the bare
// address for a single host, otherwise "start-end".
func (r RangeRecord) Element() string {
	if r.IsSingleHost() {
		return r.Start
	}
	return r.Start + "-" + r.End
}

// Ordered reports whether Start <= End numerically. Records whose bounds carry
// octets above 255 cannot be ordered and report false.
func (r RangeRecord) Ordered() bool {
	s, ok := ipv4.ToUint32(r.Start)
	if !ok {
		return false
	}
	e, ok := ipv4.ToUint32(r.End)
	if !ok {
		return false
	}
	return s <= e
}
