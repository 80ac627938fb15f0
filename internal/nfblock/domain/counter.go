package domain

// CounterObservation is one named nft counter as reported by the live
// firewall. Counters created by nfblock are named after the range start.
type CounterObservation struct {
	Family  string
	Table   string
	Name    string
	Packets uint64
	Bytes   uint64
}

// Hit reports whether the counter has matched any packet.
func (c CounterObservation) Hit() bool { return c.Packets > 0 }

// InScope reports whether the counter belongs to the given family and table.
func (c CounterObservation) InScope(family, table string) bool {
	return c.Family == family && c.Table == table
}
