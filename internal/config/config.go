package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables mapped onto config keys.
// A double underscore separates nesting levels: MDSQL_SERVER__ADDR.
const EnvPrefix = "MDSQL_"

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Ollama   OllamaConfig   `koanf:"ollama"`
	Log      LogConfig      `koanf:"log"`
	Output   string         `koanf:"output"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr   string `koanf:"addr"`
	APIKey string `koanf:"api_key"`
}

// DatabaseConfig describes the target database. DSN, when set, takes
// precedence over the individual connection fields.
type DatabaseConfig struct {
	Driver            string `koanf:"driver"`
	DSN               string `koanf:"dsn"`
	User              string `koanf:"user"`
	Password          string `koanf:"password"`
	Host              string `koanf:"host"`
	Port              int    `koanf:"port"`
	Name              string `koanf:"name"`
	AuthPlugin        string `koanf:"auth_plugin"`
	ConnectionTimeout int    `koanf:"connection_timeout"`
}

// OllamaConfig configures the natural language assistant.
type OllamaConfig struct {
	URL         string  `koanf:"url"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxAttempts int     `koanf:"max_attempts"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Options selects the sources Load reads besides defaults and the environment.
type Options struct {
	// File is an explicit YAML config path. When empty, mdsql.yaml or
	// mdsql.yml in the working directory is used if present.
	File string
	// EnvFile is a dotenv file loaded into the process environment. A missing
	// file is not an error.
	EnvFile string
	// Flags are applied last; only flags the user set are read.
	Flags *pflag.FlagSet
}

var defaults = map[string]any{
	"server.addr":                 ":8000",
	"server.api_key":              "",
	"database.driver":             "mysql",
	"database.dsn":                "",
	"database.host":               "localhost",
	"database.port":               3306,
	"database.connection_timeout": 10,
	"ollama.url":                  "http://localhost:11434",
	"ollama.model":                "llama3.2",
	"ollama.temperature":          0.2,
	"ollama.max_attempts":         5,
	"log.level":                   "info",
	"log.format":                  "console",
	"output":                      "table",
}

// legacyEnv maps the variable names used by earlier deployments onto keys.
var legacyEnv = map[string]string{
	"MYSQL_USER":               "database.user",
	"MYSQL_PASSWORD":           "database.password",
	"MYSQL_HOST":               "database.host",
	"MYSQL_PORT":               "database.port",
	"MYSQL_DATABASE":           "database.name",
	"MYSQL_AUTH_PLUGIN":        "database.auth_plugin",
	"MYSQL_CONNECTION_TIMEOUT": "database.connection_timeout",
	"DATABASE_URL":             "database.dsn",
	"API_KEY":                  "server.api_key",
	"OLLAMA_URL":               "ollama.url",
	"OLLAMA_MODEL":             "ollama.model",
	"MAX_ATTEMPTS":             "ollama.max_attempts",
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"dsn":       "database.dsn",
	"driver":    "database.driver",
	"log-level": "log.level",
	"addr":      "server.addr",
	"api-key":   "server.api_key",
	"model":     "ollama.model",
}

// findConfigFile returns the config file to use, or "" when there is none.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"mdsql.yaml", "mdsql.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > .env > config file > defaults
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(opts.File); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file %s: %w", opts.EnvFile, err)
		}
	}

	legacy := make(map[string]any)
	for name, key := range legacyEnv {
		if v := os.Getenv(name); v != "" {
			legacy[key] = v
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy env vars: %w", err)
	}

	// MDSQL_DATABASE__AUTH_PLUGIN -> database.auth_plugin
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" && c.Database.Host == "" {
			return errors.New("database.host or database.dsn is required")
		}
		if c.Database.DSN == "" && (c.Database.Port <= 0 || c.Database.Port > 65535) {
			return fmt.Errorf("database.port %d is out of range", c.Database.Port)
		}
	case "sqlite":
		if c.Database.DSN == "" && c.Database.Name == "" {
			return errors.New("database.dsn or database.name is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Database.ConnectionTimeout < 0 {
		return fmt.Errorf("database.connection_timeout must not be negative")
	}
	if c.Ollama.MaxAttempts <= 0 {
		return fmt.Errorf("ollama.max_attempts must be positive, got %d", c.Ollama.MaxAttempts)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log.format %q", c.Log.Format)
	}

	switch c.Output {
	case "table", "json", "markdown", "md", "csv":
	default:
		return fmt.Errorf("unsupported output %q", c.Output)
	}
	return nil
}
