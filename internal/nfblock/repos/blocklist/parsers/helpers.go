package parsers

import (
	"strings"

	"github.com/haukened/nfblock/internal/nfblock/common/ipv4"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// maxLineBytes bounds a single blocklist line.
const maxLineBytes = 1 << 20

// stripLineBOM removes a UTF-8 byte order mark from the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// classifyLine reports whether a trimmed line is empty or a whole-line comment.
func classifyLine(trimmed string) (isEmpty, isComment bool) {
	if trimmed == "" {
		return true, false
	}
	return false, strings.HasPrefix(trimmed, "#")
}

// numeric reports whether both bounds of r have every octet <= 255, so that
// their order is meaningful.
func numeric(r domain.RangeRecord) bool {
	_, okStart := ipv4.ToUint32(r.Start)
	_, okEnd := ipv4.ToUint32(r.End)
	return okStart && okEnd
}

// splitP2P matches a trimmed line against the p2p grammar
//
//	line := label ":" literal "-" literal
//
// The separator is the last ':' of the line, since neither literal contains
// one; the label is everything before it and must not be empty.
func splitP2P(line string) (label, start, end string, ok bool) {
	idx := strings.LastIndexByte(line, ':')
	if idx <= 0 {
		return "", "", "", false
	}
	label, addrs := line[:idx], line[idx+1:]

	start, rest, ok := ipv4.Scan(addrs)
	if !ok || len(rest) == 0 || rest[0] != '-' {
		return "", "", "", false
	}
	if !ipv4.IsLiteral(rest[1:]) {
		return "", "", "", false
	}
	return label, start, rest[1:], true
}
