package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.HTTPAddr = " " }},
		{"bad provider", func(c *Config) { c.Translation.Provider = "babelfish" }},
		{"zero timeout", func(c *Config) { c.Translation.TimeoutSec = 0 }},
		{"huge timeout", func(c *Config) { c.Translation.TimeoutSec = 600 }},
		{"zero daily limit", func(c *Config) { c.Quota.DailyLimit = 0 }},
		{"negative cooldown", func(c *Config) { c.Quota.CooldownMillis = -1 }},
		{"deepl without endpoint", func(c *Config) {
			c.Translation.Provider = "deepl"
			c.Translation.Endpoint = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairtalk.json")

	cfg, created, err := Ensure(path)
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Fatal("expected file to be created")
	}
	if cfg.Server.HTTPAddr != ":3000" {
		t.Fatalf("unexpected default addr %q", cfg.Server.HTTPAddr)
	}

	// Second call loads, does not recreate.
	_, created, err = Ensure(path)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Fatal("expected existing file to be loaded")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairtalk.json")
	if err := os.WriteFile(path, []byte(`{"server":{"http_addr":":9000"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPAddr != ":9000" {
		t.Fatalf("override lost: %q", cfg.Server.HTTPAddr)
	}
	if cfg.Quota.DailyLimit != 500 {
		t.Fatalf("missing fields should keep defaults, got %d", cfg.Quota.DailyLimit)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairtalk.json")
	body := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"server":{"http_addr":":8080"}}`)...)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("BOM handling broken: %q", cfg.Server.HTTPAddr)
	}
}
