package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"

	"github.com/haukened/nfblock/internal/nfblock/domain"
)

func writeTOML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nfblock.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if len(cfg.Blocklists) != 1 || cfg.Blocklists[0] != "bt_level1" {
		t.Errorf("expected Blocklists=[bt_level1], got %v", cfg.Blocklists)
	}
	if cfg.Family != "inet" || cfg.Table != "filter" {
		t.Errorf("expected inet filter, got %q %q", cfg.Family, cfg.Table)
	}
	if cfg.SetName != "blocklist" {
		t.Errorf("expected SetName=blocklist, got %q", cfg.SetName)
	}
	if cfg.CounterMapName != "" {
		t.Errorf("expected no counter map, got %q", cfg.CounterMapName)
	}
	if cfg.OutputFile != "/var/lib/nfblock/nfblock.nft" {
		t.Errorf("expected default output file, got %q", cfg.OutputFile)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("expected Timeout=2m, got %v", cfg.Timeout)
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("expected QueryTimeout=30s, got %v", cfg.QueryTimeout)
	}
	if cfg.NftPath != "nft" {
		t.Errorf("expected NftPath=nft, got %q", cfg.NftPath)
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTOML(t, `
set_name = "fromfile"
table = "fromfile"
counter_map_name = "fromfile"
timeout = "45s"
blocklists = ["level1", "level2"]
`)
	t.Setenv("NFBLOCK_TABLE", "fromenv")
	t.Setenv("NFBLOCK_COUNTER_MAP_NAME", "fromenv")

	cfg, err := Load(LoadOptions{
		File:  path,
		Flags: map[string]any{"counter_map_name": "fromflag"},
	})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.SetName != "fromfile" {
		t.Errorf("file should override default, got SetName=%q", cfg.SetName)
	}
	if cfg.Table != "fromenv" {
		t.Errorf("env should override file, got Table=%q", cfg.Table)
	}
	if cfg.CounterMapName != "fromflag" {
		t.Errorf("flag should override env, got CounterMapName=%q", cfg.CounterMapName)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("expected Timeout=45s from file, got %v", cfg.Timeout)
	}
	if len(cfg.Blocklists) != 2 || cfg.Blocklists[1] != "level2" {
		t.Errorf("expected two blocklists from file, got %v", cfg.Blocklists)
	}
}

func TestLoad_EnvListSplitting(t *testing.T) {
	t.Setenv("NFBLOCK_BLOCKLISTS", "level1, level2 level3")
	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	want := []string{"level1", "level2", "level3"}
	if len(cfg.Blocklists) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Blocklists)
	}
	for i := range want {
		if cfg.Blocklists[i] != want[i] {
			t.Errorf("Blocklists[%d]=%q, want %q", i, cfg.Blocklists[i], want[i])
		}
	}
}

func TestLoad_LegacyCombinedTable(t *testing.T) {
	cfg, err := Load(LoadOptions{Flags: map[string]any{"table": "ip raw"}})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Family != "ip" || cfg.Table != "raw" {
		t.Errorf("expected family=ip table=raw, got %q %q", cfg.Family, cfg.Table)
	}

	t.Setenv("NFBLOCK_TABLE", "inet filter")
	cfg, err = Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Family != "inet" || cfg.Table != "filter" {
		t.Errorf("expected family=inet table=filter, got %q %q", cfg.Family, cfg.Table)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]any
	}{
		{"bad family", map[string]any{"family": "ipx"}},
		{"bad set name", map[string]any{"set_name": "has space;"}},
		{"bad counter map", map[string]any{"counter_map_name": "{oops}"}},
		{"empty output", map[string]any{"output_file": ""}},
		{"template without placeholder", map[string]any{"url_template": "http://example.invalid/list"}},
		{"zero timeout", map[string]any{"timeout": "0s"}},
		{"no blocklists", map[string]any{"blocklists": []string{}}},
		{"bad env", map[string]any{"env": "staging"}},
		{"missing geoip db", map[string]any{"geoip_db": "/nonexistent/GeoLite2-Country.mmdb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(LoadOptions{Flags: tt.flags})
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "absent.toml")})
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{File: writeTOML(t, "set_name = [unterminated")})
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestLoad_LoaderErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("defaults", func(t *testing.T) {
		orig := defaultLoader
		defer func() { defaultLoader = orig }()
		defaultLoader = func(*koanf.Koanf) error { return boom }
		if _, err := Load(LoadOptions{}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})

	t.Run("env", func(t *testing.T) {
		orig := envLoader
		defer func() { envLoader = orig }()
		envLoader = func(*koanf.Koanf) error { return boom }
		if _, err := Load(LoadOptions{}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})

	t.Run("flags", func(t *testing.T) {
		orig := flagLoader
		defer func() { flagLoader = orig }()
		flagLoader = func(*koanf.Koanf, map[string]any) error { return boom }
		if _, err := Load(LoadOptions{Flags: map[string]any{"verbose": 1}}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})

	t.Run("validation registration", func(t *testing.T) {
		orig := registerValidation
		defer func() { registerValidation = orig }()
		registerValidation = func(*validator.Validate) error { return boom }
		if _, err := Load(LoadOptions{}); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	})
}

func TestValidNftIdent(t *testing.T) {
	v := validator.New()
	if err := v.RegisterValidation("nft_ident", validNftIdent); err != nil {
		t.Fatalf("register: %v", err)
	}
	type probe struct {
		Name string `validate:"nft_ident"`
	}
	good := []string{"blocklist", "filter", "block_count", "set-1", "_x"}
	bad := []string{"", "1abc", "has space", "semi;colon", "{brace}", "quote\""}
	for _, s := range good {
		if err := v.Struct(probe{Name: s}); err != nil {
			t.Errorf("expected %q to be valid: %v", s, err)
		}
	}
	for _, s := range bad {
		if err := v.Struct(probe{Name: s}); err == nil {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestAppConfig_RulesetNames(t *testing.T) {
	cfg := DEFAULT_APP_CONFIG
	cfg.CounterMapName = "blockcount"
	names := cfg.RulesetNames()
	if names.Family != "inet" || names.Table != "filter" || names.Set != "blocklist" || names.CounterMap != "blockcount" {
		t.Errorf("unexpected names: %+v", names)
	}
}
