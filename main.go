// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pairtalk/pairtalk/internal/config"
	"github.com/pairtalk/pairtalk/internal/hub"
	"github.com/pairtalk/pairtalk/internal/registry"
	"github.com/pairtalk/pairtalk/internal/server"
	"github.com/pairtalk/pairtalk/internal/storage"
	"github.com/pairtalk/pairtalk/internal/translate"
	"github.com/pairtalk/pairtalk/internal/usage"
)

var (
	showHelp = flag.Bool("h", false, "Show help")
	version  = flag.Bool("version", false, "Show version")
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pairtalk v%s\n", appVersion)
		return
	}
	if *showHelp {
		showUsage()
		return
	}

	dataDir := "."
	if args := flag.Args(); len(args) > 0 {
		dataDir = args[0]
	}

	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		log.Fatalf("Invalid data directory: %v", err)
	}
	if stat, err := os.Stat(absDir); err != nil || !stat.IsDir() {
		log.Fatalf("Data directory does not exist: %s", absDir)
	}

	// .env is optional; it usually carries DEEPL_AUTH_KEY and PORT.
	if err := godotenv.Load(filepath.Join(absDir, ".env")); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: error loading .env file: %v", err)
	}

	cfgPath := filepath.Join(absDir, "pairtalk.json")
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if created {
		log.Printf("Created default config at %s", cfgPath)
	}
	applyEnvOverrides(&cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, absDir, cfg); err != nil {
		log.Fatalf("Relay failed: %v", err)
	}
}

func run(ctx context.Context, dataDir string, cfg config.Config) error {
	gov := usage.NewGovernor(usage.Limits{
		DailyLimit:   cfg.Quota.DailyLimit,
		MonthlyChars: cfg.Quota.MonthlyCharLimit,
		Cooldown:     time.Duration(cfg.Quota.CooldownMillis) * time.Millisecond,
	})
	gov.StartDailyReset(ctx)

	var tr translate.Translator
	switch cfg.Translation.Provider {
	case "deepl":
		tr = translate.NewDeepLClient(cfg.Translation.Endpoint, cfg.Translation.AuthKey)
	default:
		log.Printf("TRANSLATE: using stub provider (no upstream credentials)")
		tr = &translate.Stub{}
	}
	gw := translate.NewGateway(tr, gov, time.Duration(cfg.Translation.TimeoutSec)*time.Second)

	var prefs *storage.PrefStore
	if cfg.Storage.PrefsDBPath != "" {
		path := cfg.Storage.PrefsDBPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dataDir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		var err error
		prefs, err = storage.Open(path)
		if err != nil {
			return fmt.Errorf("open preference store: %w", err)
		}
		defer prefs.Close()
	}

	h := hub.New(registry.New(), gw, gov, prefs)
	defer h.Close()

	if cfg.Server.StaticDir != "" && !filepath.IsAbs(cfg.Server.StaticDir) {
		cfg.Server.StaticDir = filepath.Join(dataDir, cfg.Server.StaticDir)
	}
	if cfg.Server.StaticDir != "" {
		if stat, err := os.Stat(cfg.Server.StaticDir); err != nil || !stat.IsDir() {
			log.Printf("SERVER: static dir %s missing, serving API only", cfg.Server.StaticDir)
			cfg.Server.StaticDir = ""
		}
	}

	return server.New(cfg, h).Run(ctx)
}

// applyEnvOverrides lets the environment win over the config file for the
// two values that are deployment secrets in practice.
func applyEnvOverrides(cfg *config.Config) {
	if key := os.Getenv("DEEPL_AUTH_KEY"); key != "" {
		cfg.Translation.AuthKey = key
		if cfg.Translation.Provider == "stub" {
			cfg.Translation.Provider = "deepl"
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.HTTPAddr = ":" + port
	}
}

func showUsage() {
	fmt.Println("pairtalk - realtime translated chat relay")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pairtalk [<data-directory>]")
	fmt.Println()
	fmt.Println("The data directory holds pairtalk.json (created on first run),")
	fmt.Println("an optional .env file, the static assets dir, and the")
	fmt.Println("preference database.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h        Show this help message")
	fmt.Println("  -version  Show version information")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  DEEPL_AUTH_KEY  DeepL API key (enables the deepl provider)")
	fmt.Println("  PORT            Listen port, overrides server.http_addr")
}
