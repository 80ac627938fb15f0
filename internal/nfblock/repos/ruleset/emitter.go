package ruleset

import (
	"bufio"
	"io"

	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// Emit renders records as nft statements, in record order.
//
// Output shape:
//
//	flush set <family> <table> <set>
//	[flush map <family> <table> <counter_map>]
//	add element <family> <table> <set> { <element> } # <label>
//	[add counter <family> <table> <start>]
//	[add element <family> <table> <counter_map> { <element> : <start> }]
//
// The flush lines are always present, even for an empty record list. Counters
// are named after the range start. Emit does not validate addresses.
func Emit(records []domain.RangeRecord, names domain.RulesetNames) []string {
	perRecord := 1
	if names.HasCounterMap() {
		perRecord = 3
	}
	lines := make([]string, 0, 2+perRecord*len(records))

	lines = append(lines, flushSet(names))
	if names.HasCounterMap() {
		lines = append(lines, flushMap(names))
	}
	for _, r := range records {
		lines = append(lines, addSetElement(names, r))
		if names.HasCounterMap() {
			lines = append(lines, addCounter(names, r), addMapElement(names, r))
		}
	}
	return lines
}

// Write writes one statement per line, each terminated by '\n'.
func Write(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
