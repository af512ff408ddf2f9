// Package platform wires configuration, the Treasure Data clients, the access
// gate and the toolkits into one MCP server.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/treasure-data/td-mcp-server-sub000/pkg/audit"
	"github.com/treasure-data/td-mcp-server-sub000/pkg/client"
)

// Config holds the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	TD        TDConfig        `yaml:"td"`
	Trino     TrinoConfig     `yaml:"trino"`
	Hive      HiveConfig      `yaml:"hive"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	CDP       CDPConfig       `yaml:"cdp"`
	Audit     audit.Config    `yaml:"audit"`
	Resources ResourcesConfig `yaml:"resources"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	Transport string `yaml:"transport"` // "stdio", "http"
	Address   string `yaml:"address"`
}

// TDConfig holds the Treasure Data account settings shared by all toolkits.
type TDConfig struct {
	APIKey        string        `yaml:"api_key"`
	Site          string        `yaml:"site"`
	Database      string        `yaml:"database"`
	EnableUpdates bool          `yaml:"enable_updates"`
	Timeout       time.Duration `yaml:"timeout"`
}

// TrinoConfig configures the Trino toolkit.
type TrinoConfig struct {
	Disabled     bool   `yaml:"disabled"`
	Host         string `yaml:"host"` // overrides the site-derived endpoint
	Port         int    `yaml:"port"`
	Catalog      string `yaml:"catalog"`
	DefaultLimit int    `yaml:"default_limit"`
	MaxLimit     int    `yaml:"max_limit"`
}

// HiveConfig configures the Hive toolkit.
type HiveConfig struct {
	Disabled     bool          `yaml:"disabled"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// WorkflowConfig configures the workflow toolkit.
type WorkflowConfig struct {
	Disabled bool `yaml:"disabled"`
}

// CDPConfig configures the CDP toolkit.
type CDPConfig struct {
	Disabled bool `yaml:"disabled"`
}

// ResourcesConfig configures MCP resource templates.
type ResourcesConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig loads configuration from a file, expands ${VAR} references and
// applies environment overrides and defaults.
// The path is expected to come from command line arguments, controlled by the
// administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// LoadFromEnv builds a configuration from environment variables alone. This
// is the zero-config path used when no file is given.
func LoadFromEnv() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyEnv overlays TD_* environment variables. Set variables win over file
// values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TD_API_KEY"); v != "" {
		cfg.TD.APIKey = v
	}
	if v := os.Getenv("TD_SITE"); v != "" {
		cfg.TD.Site = v
	}
	if v := os.Getenv("TD_DATABASE"); v != "" {
		cfg.TD.Database = v
	}
	if v := os.Getenv("TD_ENABLE_UPDATES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TD.EnableUpdates = b
		}
	}
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "td-mcp-server"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.TD.Site == "" {
		cfg.TD.Site = string(client.SiteUS01)
	}
	if cfg.TD.Timeout == 0 {
		cfg.TD.Timeout = 30 * time.Second
	}
	if cfg.Trino.Catalog == "" {
		cfg.Trino.Catalog = "td"
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 90
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.TD.APIKey == "" {
		errs = append(errs, "td.api_key is required (or set TD_API_KEY)")
	}
	if !client.Site(c.TD.Site).Valid() {
		errs = append(errs, fmt.Sprintf("td.site %q is not a known site", c.TD.Site))
	}
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		errs = append(errs, fmt.Sprintf("server.transport %q must be stdio or http", c.Server.Transport))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
