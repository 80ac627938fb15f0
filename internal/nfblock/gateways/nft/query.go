package nft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
)

const (
	DefaultBinary  = "nft"
	DefaultTimeout = 30 * time.Second
)

// Error message constants for consistent error handling
const (
	errRun    = "%s %s: %w"
	errStderr = "%s %s: %w: %s"
	errDecode = "decode nft json: %w"
)

// Runner executes a command and returns its stdout and stderr separately.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Options configures a CounterQuery. Zero values fall back to the defaults.
type Options struct {
	Binary  string
	Timeout time.Duration
	Logger  logpkg.Logger
	// options to inject for testing purposes
	Runner Runner
}

// CounterQuery reads named counters from the live ruleset via the nft JSON
// interface.
type CounterQuery struct {
	binary  string
	timeout time.Duration
	runner  Runner
	logger  logpkg.Logger
}

// NewCounterQuery creates a CounterQuery.
func NewCounterQuery(opts Options) *CounterQuery {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	return &CounterQuery{
		binary:  opts.Binary,
		timeout: opts.Timeout,
		runner:  opts.Runner,
		logger:  opts.Logger,
	}
}

// Counters lists the named counters of one table. Errors wrap domain.ErrQuery.
func (q *CounterQuery) Counters(ctx context.Context, family, table string) ([]domain.CounterObservation, error) {
	args := []string{"-j", "list", "counters", "table", family, table}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	q.logger.Debug(map[string]any{"binary": q.binary, "args": args}, "nft_query_start")
	stdout, stderr, err := q.runner.Run(ctx, q.binary, args...)
	if err != nil {
		cmdline := strings.Join(args, " ")
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return nil, fmt.Errorf("%w: "+errStderr, domain.ErrQuery, q.binary, cmdline, err, msg)
		}
		return nil, fmt.Errorf("%w: "+errRun, domain.ErrQuery, q.binary, cmdline, err)
	}

	counters, err := DecodeCounters(stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}
	q.logger.Debug(map[string]any{"family": family, "table": table, "counters": len(counters)}, "nft_query_done")
	return counters, nil
}

type document struct {
	Nftables []object `json:"nftables"`
}

// object is one entry of the top-level nftables array; only counters matter.
type object struct {
	Counter *counterJSON `json:"counter,omitempty"`
}

type counterJSON struct {
	Family  string `json:"family"`
	Name    string `json:"name"`
	Table   string `json:"table"`
	Handle  uint64 `json:"handle"`
	Packets uint64 `json:"packets"`
	Bytes   uint64 `json:"bytes"`
}

// DecodeCounters extracts counter objects from `nft -j` output. Metainfo and
// any other object kinds are skipped. Empty output yields no counters.
func DecodeCounters(data []byte) ([]domain.CounterObservation, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf(errDecode, err)
	}
	out := make([]domain.CounterObservation, 0, len(doc.Nftables))
	for _, o := range doc.Nftables {
		if o.Counter == nil {
			continue
		}
		out = append(out, domain.CounterObservation{
			Family:  o.Counter.Family,
			Table:   o.Counter.Table,
			Name:    o.Counter.Name,
			Packets: o.Counter.Packets,
			Bytes:   o.Counter.Bytes,
		})
	}
	return out, nil
}
