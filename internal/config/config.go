// Package config loads server configuration.
//
// Sources, lowest to highest precedence: built-in defaults, a config file,
// environment variables, command-line flags. The config file is either the
// one passed explicitly or, when GCP_PROJECT_ID is unset, the first legacy
// file found (see LegacyPaths).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultLocation is the GCP region used when none is configured.
const DefaultLocation = "us-central1"

// legacyFileName is looked up in the Claude desktop config directory.
const legacyFileName = "mcp-dataplex-config.json"

// ErrNotFound is returned when no source supplies a project ID and no
// config file exists.
var ErrNotFound = errors.New("configuration not found")

// Replaceable in tests.
var (
	userHomeDir = os.UserHomeDir
	goos        = runtime.GOOS
)

// Config holds all server configuration.
type Config struct {
	GCP     GCPConfig     `koanf:"gcp"`
	Cache   CacheConfig   `koanf:"cache"`
	Journal JournalConfig `koanf:"journal"`
	Debug   bool          `koanf:"debug"`

	// FileUsed is the config file that was read, if any.
	FileUsed string `koanf:"-"`
}

// GCPConfig identifies the project the tools operate on.
type GCPConfig struct {
	ProjectID string `koanf:"projectId"`
	Location  string `koanf:"location"`
}

// CacheConfig controls the in-memory result cache.
type CacheConfig struct {
	Enabled bool `koanf:"enabled"`
}

// JournalConfig controls the local tool-call journal.
type JournalConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"GCP_PROJECT_ID":  "gcp.projectId",
	"GCP_LOCATION":    "gcp.location",
	"CACHE_ENABLED":   "cache.enabled",
	"DEBUG":           "debug",
	"JOURNAL_ENABLED": "journal.enabled",
	"JOURNAL_DIR":     "journal.dir",
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"project":     "gcp.projectId",
	"location":    "gcp.location",
	"cache":       "cache.enabled",
	"debug":       "debug",
	"journal":     "journal.enabled",
	"journal-dir": "journal.dir",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (JSON or YAML)")
	fs.String("project", "", "GCP project ID (overrides GCP_PROJECT_ID)")
	fs.String("location", "", "GCP location for Dataplex and Data Lineage (default "+DefaultLocation+")")
	fs.Bool("cache", true, "cache tool results for the life of the process")
	fs.Bool("debug", false, "enable debug logging")
	fs.Bool("journal", true, "record tool calls in a local SQLite journal")
	fs.String("journal-dir", "", "directory for the journal database")
}

// Load reads configuration. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Config file
	fileUsed := cfgFile
	if fileUsed == "" && strings.TrimSpace(os.Getenv("GCP_PROJECT_ID")) == "" {
		fileUsed = findLegacyFile()
	}
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", fileUsed, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.FileUsed = fileUsed
	cfg.GCP.ProjectID = strings.TrimSpace(cfg.GCP.ProjectID)
	if cfg.GCP.Location == "" {
		cfg.GCP.Location = DefaultLocation
	}

	if cfg.GCP.ProjectID == "" && fileUsed == "" {
		return nil, notFoundError()
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.GCP.ProjectID == "" {
		return errors.New("configuration error: gcp.projectId is required")
	}
	return nil
}

func defaults() map[string]interface{} {
	journalDir := ""
	if home, err := userHomeDir(); err == nil {
		journalDir = filepath.Join(home, ".mcp-dataplex")
	}
	return map[string]interface{}{
		"gcp.location":    DefaultLocation,
		"cache.enabled":   true,
		"debug":           false,
		"journal.enabled": true,
		"journal.dir":     journalDir,
	}
}

// envValue maps a known environment variable to its config key and typed
// value. Unknown variables are skipped.
func envValue(name, value string) (string, interface{}) {
	key, ok := envKeys[name]
	if !ok {
		return "", nil
	}
	value = strings.TrimSpace(value)
	switch name {
	case "CACHE_ENABLED":
		// Only the literal "true" enables the cache once the variable is set.
		return key, value == "true"
	case "DEBUG", "JOURNAL_ENABLED":
		return key, value == "true" || value == "1"
	}
	if value == "" {
		return "", nil
	}
	return key, value
}

// LegacyPaths lists the config files consulted when GCP_PROJECT_ID is
// unset, in order: the Claude desktop config directory, then ./config.json.
func LegacyPaths() []string {
	var paths []string
	if dir := claudeConfigDir(); dir != "" {
		paths = append(paths, filepath.Join(dir, legacyFileName))
	}
	return append(paths, "config.json")
}

func claudeConfigDir() string {
	if goos == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Claude")
		}
		return ""
	}
	home, err := userHomeDir()
	if err != nil {
		return ""
	}
	if goos == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Claude")
	}
	return filepath.Join(home, ".config", "Claude")
}

func findLegacyFile() string {
	for _, p := range LegacyPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func notFoundError() error {
	var sb strings.Builder
	sb.WriteString("Please ensure either:\n")
	sb.WriteString("1. Environment variable is set:\n")
	sb.WriteString("   - GCP_PROJECT_ID\n")
	sb.WriteString("   - GCP_LOCATION (optional, default " + DefaultLocation + ")\n")
	sb.WriteString("   - CACHE_ENABLED (optional)\n")
	sb.WriteString("2. Or config file exists at one of:\n")
	for _, p := range LegacyPaths() {
		sb.WriteString("   " + p + "\n")
	}
	sb.WriteString("\nAuthentication: Run 'gcloud auth application-default login' to authenticate with GCP.")
	return fmt.Errorf("%w. %s", ErrNotFound, sb.String())
}
