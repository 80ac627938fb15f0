package ruleset

import (
	"bufio"
	"io"

	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

const maxStatementBytes = 1 << 20

// Reflect rebuilds the start → (end, label) lookup from a previously emitted
// ruleset. It is the inverse of Emit for the labelled set elements: every
// other line is ignored. When a start appears twice the later line wins.
// Only read errors are returned.
func Reflect(r io.Reader, logger logpkg.Logger) (domain.Lookup, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStatementBytes)

	lookup := make(domain.Lookup)
	lineNum, skipped := 0, 0
	for scanner.Scan() {
		lineNum++
		st, ok := ParseElementStatement(scanner.Text())
		if !ok {
			skipped++
			continue
		}
		if lookup.Put(st.Start, domain.LookupEntry{End: st.End, Label: st.Label}) {
			logger.Debug(map[string]any{"line": lineNum, "start": st.Start, "label": st.Label}, "reflect_duplicate_start")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Debug(map[string]any{"entries": len(lookup), "skipped": skipped}, "reflect_done")
	return lookup, nil
}
