package ruleset

import (
	"strings"

	"github.com/haukened/nfblock/internal/nfblock/common/ipv4"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

const (
	kwFlushSet   = "flush set"
	kwFlushMap   = "flush map"
	kwAddElement = "add element"
	kwAddCounter = "add counter"
)

func flushSet(n domain.RulesetNames) string {
	return kwFlushSet + " " + n.Family + " " + n.Table + " " + n.Set
}

func flushMap(n domain.RulesetNames) string {
	return kwFlushMap + " " + n.Family + " " + n.Table + " " + n.CounterMap
}

func addSetElement(n domain.RulesetNames, r domain.RangeRecord) string {
	return kwAddElement + " " + n.Family + " " + n.Table + " " + n.Set + " { " + r.Element() + " } # " + r.Label
}

func addCounter(n domain.RulesetNames, r domain.RangeRecord) string {
	return kwAddCounter + " " + n.Family + " " + n.Table + " " + r.Start
}

func addMapElement(n domain.RulesetNames, r domain.RangeRecord) string {
	return kwAddElement + " " + n.Family + " " + n.Table + " " + n.CounterMap + " { " + r.Element() + " : " + r.Start + " }"
}

// ElementStatement is a labelled set-element statement recovered from text.
type ElementStatement struct {
	Family string
	Table  string
	Set    string
	Start  string
	End    string // equals Start for a single host
	Label  string
}

// ParseElementStatement matches one line against the labelled element grammar
//
//	stmt := "add" ws "element" ws ident ws ident ws ident ws "{" ws? range ws? "}" ws? "#" label
//	range := literal [ "-" literal ]
//
// where ident is a run of non-space characters and label is the rest of the
// line, trimmed. It reports false for every other statement, including the
// counter-map elements, which carry ": <counter>" instead of a comment.
func ParseElementStatement(line string) (ElementStatement, bool) {
	var st ElementStatement

	s := strings.TrimSpace(line)
	var ok bool
	if s, ok = keyword(s, "add"); !ok {
		return st, false
	}
	if s, ok = keyword(s, "element"); !ok {
		return st, false
	}
	if st.Family, s, ok = ident(s); !ok {
		return st, false
	}
	if st.Table, s, ok = ident(s); !ok {
		return st, false
	}
	if st.Set, s, ok = ident(s); !ok {
		return st, false
	}
	if s, ok = punct(s, '{'); !ok {
		return st, false
	}

	var start, end string
	start, end, s, _, ok = ipv4.ScanRange(strings.TrimLeft(s, " \t"))
	if !ok {
		return st, false
	}
	if s, ok = punct(s, '}'); !ok {
		return st, false
	}
	if s, ok = punct(s, '#'); !ok {
		return st, false
	}

	st.Start, st.End = start, end
	st.Label = strings.TrimSpace(s)
	return st, true
}

// keyword consumes word followed by at least one blank.
func keyword(s, word string) (string, bool) {
	if !strings.HasPrefix(s, word) {
		return s, false
	}
	rest := s[len(word):]
	trimmed := strings.TrimLeft(rest, " \t")
	if len(trimmed) == len(rest) {
		return s, false
	}
	return trimmed, true
}

// ident consumes a run of non-blank characters and the blanks after it.
func ident(s string) (string, string, bool) {
	end := strings.IndexAny(s, " \t")
	if end <= 0 {
		return "", s, false
	}
	return s[:end], strings.TrimLeft(s[end:], " \t"), true
}

// punct consumes optional blanks followed by c.
func punct(s string, c byte) (string, bool) {
	s = strings.TrimLeft(s, " \t")
	if len(s) == 0 || s[0] != c {
		return s, false
	}
	return s[1:], true
}
