package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrieval marks failures fetching or decompressing a blocklist source.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrParse marks blocklist lines that do not match the p2p grammar.
	ErrParse = errors.New("parse error")
	// ErrQuery marks failures of the live firewall counter query.
	ErrQuery = errors.New("counter query failed")
	// ErrConfig marks invalid configuration or missing inputs.
	ErrConfig = errors.New("configuration error")
)

// ParseError reports the first offending line of a blocklist source.
type ParseError struct {
	Source string // source identifier the stream came from
	Line   int    // 1-based line number
	Text   string // the trimmed offending line, verbatim
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s line %d: %s", e.Source, e.Line, e.Text)
}

// Unwrap lets callers match with errors.Is(err, ErrParse).
func (e *ParseError) Unwrap() error { return ErrParse }
