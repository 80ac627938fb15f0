package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haukened/nfblock/internal/nfblock/common/clock"
	"github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/config"
	"github.com/haukened/nfblock/internal/nfblock/gateways/fetch"
	"github.com/haukened/nfblock/internal/nfblock/gateways/geoip"
	"github.com/haukened/nfblock/internal/nfblock/gateways/nft"
	"github.com/haukened/nfblock/internal/nfblock/gateways/rulesetfile"
	"github.com/haukened/nfblock/internal/nfblock/repos/blocklist/bloom"
	"github.com/haukened/nfblock/internal/nfblock/services/pipeline"
)

const appName = "nfblock"

// Version information, overridden at build time with -ldflags "-X main.version=...".
var (
	version   = "0.1.0-dev"
	buildDate = "unknown"
)

// errNoMode is returned when neither --download nor --list-stats is given.
var errNoMode = errors.New("no mode selected")

// configKeys maps flag names onto AppConfig koanf keys. Flags absent here
// select a mode or point at the config file and never reach koanf.
var configKeys = map[string]string{
	"blocklist":        "blocklists",
	"family":           "family",
	"table":            "table",
	"set-name":         "set_name",
	"counter-map-name": "counter_map_name",
	"output-file":      "output_file",
	"verbose":          "verbose",
	"url-template":     "url_template",
	"timeout":          "timeout",
	"max-bytes":        "max_bytes",
	"nft-path":         "nft_path",
	"query-timeout":    "query_timeout",
	"geoip-db":         "geoip_db",
	"log-format":       "env",
}

type modeFlags struct {
	download   bool
	listStats  bool
	configFile string
}

func main() {
	cmd := newRootCommand(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errNoMode) {
			fmt.Fprintf(os.Stderr, "E: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var modes modeFlags
	d := config.DEFAULT_APP_CONFIG

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Maintain an nftables IP blocklist",
		Long: `Maintain an nftables IP blocklist.

In download mode the configured p2p blocklists are fetched,
converted into nftables statements and written to the output
file, ready to be loaded with "nft -f". In list-stats mode the
output file is read back and the live per-range counters are
reported, most hits first.`,
		Example: `  nfblock -d -b bt_level1 -b bt_level2 -c blockcount
  nfblock -l -c blockcount`,
		Args:          cobra.NoArgs,
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !modes.download && !modes.listStats {
				cmd.SetOut(stderr)
				_ = cmd.Usage()
				return errNoMode
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, modes, flagOverrides(cmd.Flags()), stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	f := cmd.Flags()
	f.SortFlags = false
	f.BoolVarP(&modes.download, "download", "d", false, "download the blocklists and write the nftables file")
	f.BoolVarP(&modes.listStats, "list-stats", "l", false, "list per-range hit counters from the live ruleset")
	f.StringSliceP("blocklist", "b", d.Blocklists, "blocklist name or URL, repeatable")
	f.StringP("family", "f", d.Family, "nftables family")
	f.StringP("table", "t", d.Table, `nftables table, or the combined form "inet filter"`)
	f.StringP("set-name", "s", d.SetName, "nftables set receiving the ranges")
	f.StringP("counter-map-name", "c", d.CounterMapName, "nftables map of per-range counters, empty for none")
	f.StringP("output-file", "o", d.OutputFile, "generated nftables file")
	f.CountP("verbose", "v", "increase verbosity, repeatable")
	f.StringVar(&modes.configFile, "config", "", "optional TOML config file")
	f.String("url-template", d.URLTemplate, "download URL with a {list} placeholder")
	f.Duration("timeout", d.Timeout, "per-blocklist download timeout")
	f.Int64("max-bytes", d.MaxBytes, "maximum decompressed size of one blocklist")
	f.String("nft-path", d.NftPath, "nft binary")
	f.Duration("query-timeout", d.QueryTimeout, "timeout of the live counter query")
	f.String("geoip-db", d.GeoIPDB, "MaxMind database used to add countries to the stats report")
	f.String("log-format", d.Env, `log encoder: "dev" (console) or "prod" (JSON)`)
	f.BoolP("version", "V", false, "print the version and exit")
	return cmd
}

// flagOverrides returns the config values of flags the user actually set, so
// unset flags do not mask the config file or the environment.
func flagOverrides(fs *pflag.FlagSet) map[string]any {
	out := make(map[string]any)
	fs.Visit(func(fl *pflag.Flag) {
		key, ok := configKeys[fl.Name]
		if !ok {
			return
		}
		switch fl.Value.Type() {
		case "stringSlice":
			v, _ := fs.GetStringSlice(fl.Name)
			out[key] = v
		case "count":
			v, _ := fs.GetCount(fl.Name)
			out[key] = v
		case "duration":
			v, _ := fs.GetDuration(fl.Name)
			out[key] = v
		case "int64":
			v, _ := fs.GetInt64(fl.Name)
			out[key] = v
		default:
			out[key] = fl.Value.String()
		}
	})
	return out
}

func run(ctx context.Context, modes modeFlags, flags map[string]any, stdout io.Writer) error {
	cfg, err := config.Load(config.LoadOptions{File: modes.configFile, Flags: flags})
	if err != nil {
		return err
	}

	logger, err := log.New(cfg.Env, log.LevelForVerbosity(cfg.Verbose))
	if err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}
	logger.Debug(map[string]any{
		"version":     version,
		"blocklists":  cfg.Blocklists,
		"family":      cfg.Family,
		"table":       cfg.Table,
		"set":         cfg.SetName,
		"counter_map": cfg.CounterMapName,
		"output_file": cfg.OutputFile,
	}, "nfblock_starting")

	app, err := buildApplication(cfg, logger, modes.listStats && !modes.download)
	if err != nil {
		return err
	}
	defer app.Close()

	if modes.download {
		if modes.listStats {
			logger.Warn(nil, "both modes requested, running download only")
		}
		return app.pipeline.Download(ctx, cfg.Blocklists)
	}
	return app.pipeline.Stats(ctx, stdout)
}

// Application holds the wired pipeline and the resources it owns.
type Application struct {
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

// Close releases resources opened while building the application.
func (a *Application) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// buildApplication constructs all components and wires them together. The
// GeoIP database is only opened for the stats report.
func buildApplication(cfg *config.AppConfig, logger log.Logger, stats bool) (*Application, error) {
	app := &Application{}

	fetcher, err := fetch.NewFetcher(fetch.Options{
		URLTemplate: cfg.URLTemplate,
		Timeout:     cfg.Timeout,
		MaxBytes:    cfg.MaxBytes,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	counters := nft.NewCounterQuery(nft.Options{
		Binary:  cfg.NftPath,
		Timeout: cfg.QueryTimeout,
		Logger:  logger,
	})

	opts := pipeline.Options{
		Blooms:   bloom.NewFactory(),
		Clock:    &clock.RealClock{},
		Counters: counters,
		Fetcher:  fetcher,
		Logger:   logger,
		Names:    cfg.RulesetNames(),
		Store:    rulesetfile.New(cfg.OutputFile, logger),
	}

	if stats && cfg.GeoIPDB != "" {
		locator, err := geoip.Open(cfg.GeoIPDB, logger)
		if err != nil {
			return nil, err
		}
		opts.Locator = locator
		app.closers = append(app.closers, locator)
		logger.Info(map[string]any{"path": cfg.GeoIPDB}, "geoip_enabled")
	}

	app.pipeline = pipeline.New(opts)
	return app, nil
}
