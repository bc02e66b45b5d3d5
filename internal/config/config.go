package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Server      Server      `json:"server"`
	Translation Translation `json:"translation"`
	Quota       Quota       `json:"quota"`
	Storage     Storage     `json:"storage"`
}

type Server struct {
	HTTPAddr string `json:"http_addr"`

	// Directory of static assets to serve at /. Empty disables static
	// serving (the relay then exposes only /ws and /health).
	StaticDir string `json:"static_dir"`
}

type Translation struct {
	// Provider selects the upstream capability: "deepl" or "stub".
	Provider string `json:"provider"`

	// Endpoint is the DeepL API base URL. Default is the free tier;
	// point it at api.deepl.com for a paid key.
	Endpoint string `json:"endpoint"`

	// AuthKey is usually supplied via the DEEPL_AUTH_KEY environment
	// variable instead of the config file.
	AuthKey string `json:"auth_key"`

	TimeoutSec int `json:"timeout_seconds"`
}

type Quota struct {
	DailyLimit       int   `json:"daily_limit"`
	MonthlyCharLimit int64 `json:"monthly_char_limit"`
	CooldownMillis   int   `json:"cooldown_millis"`
}

type Storage struct {
	// SQLite file for persisted language preferences. Relative to the
	// data directory. Empty disables persistence.
	PrefsDBPath string `json:"prefs_db_path"`
}

func Default() Config {
	return Config{
		Server: Server{
			HTTPAddr:  ":3000",
			StaticDir: "public",
		},
		Translation: Translation{
			Provider:   "stub",
			Endpoint:   "https://api-free.deepl.com",
			TimeoutSec: 10,
		},
		Quota: Quota{
			DailyLimit:       500,
			MonthlyCharLimit: 500000,
			CooldownMillis:   1000,
		},
		Storage: Storage{
			PrefsDBPath: "data/prefs.db",
		},
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.HTTPAddr) == "" {
		return errors.New("server.http_addr is required")
	}

	switch c.Translation.Provider {
	case "deepl", "stub":
	default:
		return fmt.Errorf("translation.provider must be deepl or stub, got %q", c.Translation.Provider)
	}
	if c.Translation.Provider == "deepl" && strings.TrimSpace(c.Translation.Endpoint) == "" {
		return errors.New("translation.endpoint is required for the deepl provider")
	}
	if c.Translation.TimeoutSec <= 0 || c.Translation.TimeoutSec > 120 {
		return errors.New("translation.timeout_seconds must be 1..120")
	}

	if c.Quota.DailyLimit <= 0 {
		return errors.New("quota.daily_limit must be > 0")
	}
	if c.Quota.MonthlyCharLimit <= 0 {
		return errors.New("quota.monthly_char_limit must be > 0")
	}
	if c.Quota.CooldownMillis < 0 {
		return errors.New("quota.cooldown_millis must be >= 0")
	}

	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
