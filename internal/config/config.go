// Package config loads askdb settings from defaults, a YAML file, ASKDB_
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"askdb/internal/store"
)

// Defaults
const (
	DefaultEndpoint     = "http://localhost:5000"
	DefaultStorage      = "file"
	DefaultHistoryLimit = 200
	DefaultLogLevel     = "info"
	DefaultLogFileName  = "askdb.log"
	EnvPrefix           = "ASKDB_"
)

// configNames are looked up in the working directory, then in the config dir
var configNames = []string{"askdb.yaml", "askdb.yml"}

// Config holds all askdb options
type Config struct {
	Endpoint      string `koanf:"endpoint" validate:"required,url"`
	Storage       string `koanf:"storage" validate:"oneof=file redis"`
	StoragePath   string `koanf:"storage_path"`
	RedisAddr     string `koanf:"redis_addr" validate:"required_if=Storage redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	HistoryLimit  int    `koanf:"history_limit" validate:"gte=1"`
	LogLevel      string `koanf:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFile       string `koanf:"log_file"`

	// FileUsed is the config file that was read, if any
	FileUsed string `koanf:"-"`
}

var validate = validator.New()

// Validate checks the loaded values
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fieldKey(fe.StructField()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func fieldKey(structField string) string {
	switch structField {
	case "Endpoint":
		return "endpoint"
	case "Storage":
		return "storage"
	case "RedisAddr":
		return "redis_addr"
	case "RedisDB":
		return "redis_db"
	case "HistoryLimit":
		return "history_limit"
	case "LogLevel":
		return "log_level"
	default:
		return structField
	}
}

// LoadEnvFiles loads .env.local then .env from dir (or the working directory)
// without overriding variables already set.
func LoadEnvFiles(dir string) {
	for _, name := range []string{".env.local", ".env"} {
		p := name
		if dir != "" {
			p = filepath.Join(dir, name)
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// findConfigFile picks the config file to use.
// Priority: explicit path > ./askdb.yaml > ./askdb.yml > <config dir>/config.yaml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	if dir, err := store.ConfigDir(); err == nil {
		p := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"endpoint":      DefaultEndpoint,
		"storage":       DefaultStorage,
		"history_limit": DefaultHistoryLimit,
		"log_level":     DefaultLogLevel,
		"redis_db":      0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// ASKDB_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// only flags the user actually set, and never --config itself
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LogFilePath returns the TUI log destination: log_file, or askdb.log in the
// config dir.
func (c *Config) LogFilePath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	dir, err := store.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultLogFileName), nil
}
