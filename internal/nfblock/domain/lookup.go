package domain

// LookupEntry is what the reflector recovers for one set element.
type LookupEntry struct {
	End   string // range end, or the start itself for a single host
	Label string // trimmed label from the trailing comment
}

// Lookup maps range-start text to the element recovered from a generated
// ruleset file.
type Lookup map[string]LookupEntry

// Put stores the entry for start and reports whether an earlier entry was
// replaced. Later entries always win.
func (l Lookup) Put(start string, e LookupEntry) (replaced bool) {
	_, replaced = l[start]
	l[start] = e
	return replaced
}
