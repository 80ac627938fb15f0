package domain

import "fmt"

// RulesetNames addresses the nft objects a generated ruleset populates.
// An empty CounterMap disables per-range counters.
type RulesetNames struct {
	Family     string
	Table      string
	Set        string
	CounterMap string
}

// HasCounterMap reports whether per-range counters are emitted.
func (n RulesetNames) HasCounterMap() bool { return n.CounterMap != "" }

// Validate checks the names that are always required.
func (n RulesetNames) Validate() error {
	if n.Family == "" {
		return fmt.Errorf("ruleset family must not be empty")
	}
	if n.Table == "" {
		return fmt.Errorf("ruleset table must not be empty")
	}
	if n.Set == "" {
		return fmt.Errorf("ruleset set name must not be empty")
	}
	return nil
}
