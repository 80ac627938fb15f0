package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/nfblock/internal/nfblock/domain"
)

// EnvPrefix is the prefix of environment overrides, e.g. NFBLOCK_OUTPUT_FILE.
const EnvPrefix = "NFBLOCK_"

// AppConfig holds the resolved nfblock configuration.
type AppConfig struct {
	// Env selects the log encoder: "dev" for console, "prod" for JSON.
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// Verbose is the -v count; see log.LevelForVerbosity.
	Verbose int `koanf:"verbose" validate:"gte=0"`

	// Blocklists are list names or URLs, fetched in order.
	Blocklists []string `koanf:"blocklists" validate:"required,min=1,dive,required"`

	Family         string `koanf:"family" validate:"required,oneof=ip ip6 inet arp bridge netdev"`
	Table          string `koanf:"table" validate:"required,nft_ident"`
	SetName        string `koanf:"set_name" validate:"required,nft_ident"`
	CounterMapName string `koanf:"counter_map_name" validate:"omitempty,nft_ident"`

	// OutputFile is the generated ruleset, loaded by the operator with nft -f.
	OutputFile string `koanf:"output_file" validate:"required"`

	URLTemplate string        `koanf:"url_template" validate:"required,contains={list}"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxBytes    int64         `koanf:"max_bytes" validate:"gt=0"`

	NftPath      string        `koanf:"nft_path" validate:"required"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`

	// GeoIPDB is an optional MaxMind country or city database.
	GeoIPDB string `koanf:"geoip_db" validate:"omitempty,file"`
}

// DEFAULT_APP_CONFIG holds the values used when nothing else is configured.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:            "dev",
	Verbose:        0,
	Blocklists:     []string{"bt_level1"},
	Family:         "inet",
	Table:          "filter",
	SetName:        "blocklist",
	CounterMapName: "",
	OutputFile:     "/var/lib/nfblock/nfblock.nft",
	URLTemplate:    "http://list.iblocklist.com/?list={list}&fileformat=p2p&archiveformat=gz",
	Timeout:        2 * time.Minute,
	MaxBytes:       512 << 20,
	NftPath:        "nft",
	QueryTimeout:   30 * time.Second,
	GeoIPDB:        "",
}

// LoadOptions are the inputs that do not come from the environment.
type LoadOptions struct {
	// File is an optional TOML config file.
	File string
	// Flags holds command-line values keyed like AppConfig's koanf tags.
	// Only flags the user actually set belong here.
	Flags map[string]any
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-/]*$`)

// validNftIdent accepts names nft can parse unquoted in the generated file.
func validNftIdent(fl validator.FieldLevel) bool {
	return identPattern.MatchString(fl.Field().String())
}

// listKeys are split on commas and spaces when set from the environment.
var listKeys = map[string]bool{"blocklists": true}

// envLoader loads NFBLOCK_* variables and can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			value = strings.TrimSpace(value)

			if value == "" || !listKeys[key] {
				return key, value
			}
			return key, strings.FieldsFunc(value, func(r rune) bool {
				return r == ' ' || r == ','
			})
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

var fileLoader = func(k *koanf.Koanf, path string) error {
	return k.Load(file.Provider(path), toml.Parser())
}

var flagLoader = func(k *koanf.Koanf, flags map[string]any) error {
	return k.Load(confmap.Provider(flags, "."), nil)
}

var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("nft_ident", validNftIdent)
}

// Load resolves the configuration from defaults, the optional file, the
// environment and finally the flags, each layer overriding the previous one.
// All errors wrap domain.ErrConfig.
func Load(opts LoadOptions) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("%w: error loading default config: %w", domain.ErrConfig, err)
	}
	if opts.File != "" {
		if err := fileLoader(k, opts.File); err != nil {
			return nil, fmt.Errorf("%w: error loading config file %s: %w", domain.ErrConfig, opts.File, err)
		}
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("%w: error loading env: %w", domain.ErrConfig, err)
	}
	if len(opts.Flags) > 0 {
		if err := flagLoader(k, opts.Flags); err != nil {
			return nil, fmt.Errorf("%w: error loading flags: %w", domain.ErrConfig, err)
		}
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling config: %w", domain.ErrConfig, err)
	}
	cfg.splitLegacyTable()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("%w: error registering validation: %w", domain.ErrConfig, err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: validation failed: %w", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// splitLegacyTable accepts the combined "<family> <table>" form of the table
// setting, as in "inet filter".
func (c *AppConfig) splitLegacyTable() {
	parts := strings.Fields(c.Table)
	if len(parts) == 2 {
		c.Family, c.Table = parts[0], parts[1]
	}
}

// RulesetNames returns the nft object names of the generated ruleset.
func (c *AppConfig) RulesetNames() domain.RulesetNames {
	return domain.RulesetNames{
		Family:     c.Family,
		Table:      c.Table,
		Set:        c.SetName,
		CounterMap: c.CounterMapName,
	}
}
