package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// ParseP2P parses a decompressed p2p-format blocklist into RangeRecord values.
//
// Rules:
// - Each line is trimmed; empty lines and lines starting with '#' are skipped
// - Every other line must be "<label>:<start>-<end>" with dotted-quad literals
// - The first line that does not match aborts the parse with a *domain.ParseError
// - Records keep file order; nothing is de-duplicated, merged or sorted
// - Read failures (including corrupt compressed input) wrap domain.ErrRetrieval
func ParseP2P(r io.Reader, source string, logger logpkg.Logger) ([]domain.RangeRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	out := make([]domain.RangeRecord, 0, 1024)
	logger.Debug(map[string]any{"source": source}, "parse_p2p_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(stripLineBOM(scanner.Text()))

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}

		label, start, end, ok := splitP2P(line)
		if !ok {
			logger.Debug(map[string]any{"source": source, "line": lineNum}, "parse_p2p_reject")
			return nil, &domain.ParseError{Source: source, Line: lineNum, Text: line}
		}

		rec, err := domain.NewRangeRecord(start, end, label)
		if err != nil {
			// labels the model refuses are malformed lines too
			return nil, &domain.ParseError{Source: source, Line: lineNum, Text: line}
		}
		if !rec.Ordered() && numeric(rec) {
			logger.Warn(map[string]any{"source": source, "line": lineNum, "text": line}, "parse_p2p_inverted_range")
		}
		out = append(out, rec)
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_p2p_scan_error")
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrRetrieval, source, err)
	}

	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_p2p_done")
	return out, nil
}
