// Package appconfig loads process wide settings for ora2pgconf.
//
// Settings are read once at startup and passed into constructors; nothing in
// the module reads them from a global.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andrejsstepanovs/ora2pgconf/logging"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix           = "ORA2PG_"
	DefaultTemplateName = "ora2pg-config-file.tmpl"
	catalogFileName     = ".ora2pg-catalog.db"
	maxConfigFileSize   = 1024 * 1024
)

// Config holds the two directory roots plus ambient settings.
type Config struct {
	ProjectDirectory  string         `koanf:"project_directory"`
	ResourceDirectory string         `koanf:"resource_directory"`
	TemplateName      string         `koanf:"template_name"`
	Catalog           CatalogConfig  `koanf:"catalog"`
	Fetch             FetchConfig    `koanf:"fetch"`
	Log               logging.Config `koanf:"log"`
}

// CatalogConfig controls the sqlite project catalog. An empty Path means
// .ora2pg-catalog.db in the project directory.
type CatalogConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// FetchConfig applies when ResourceDirectory is an http(s) URL.
type FetchConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// Default returns the built in settings.
func Default() Config {
	return Config{
		ProjectDirectory:  "/project",
		ResourceDirectory: "resources",
		TemplateName:      DefaultTemplateName,
		Catalog:           CatalogConfig{Enabled: true},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			RetryInterval: time.Second,
		},
		Log: logging.Config{Level: "info", Format: "console"},
	}
}

// Load reads settings with this precedence, highest first:
//  1. ORA2PG_* environment variables (ORA2PG_PROJECT_DIRECTORY -> project_directory,
//     ORA2PG_CATALOG_PATH -> catalog.path, ORA2PG_LOG_LEVEL -> log.level)
//  2. the YAML file at configPath, when configPath is set
//  3. Default()
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps ORA2PG_SECTION_FIELD_NAME to section.field_name for the nested
// sections and to field_name for top level keys.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"catalog", "fetch", "log"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func (c *Config) applyDefaults() {
	if c.TemplateName == "" {
		c.TemplateName = DefaultTemplateName
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.ProjectDirectory == "" {
		errs = append(errs, errors.New("project_directory is required"))
	}
	if c.ResourceDirectory == "" {
		errs = append(errs, errors.New("resource_directory is required"))
	}
	if c.Fetch.RetryInterval <= 0 {
		errs = append(errs, errors.New("fetch.retry_interval must be positive"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// CatalogPath is catalog.path, or a hidden file in the project root when unset.
func (c *Config) CatalogPath() string {
	if c.Catalog.Path != "" {
		return c.Catalog.Path
	}
	return filepath.Join(c.ProjectDirectory, catalogFileName)
}

// RemoteResources reports whether templates are fetched over HTTP.
func (c *Config) RemoteResources() bool {
	return strings.HasPrefix(c.ResourceDirectory, "http://") || strings.HasPrefix(c.ResourceDirectory, "https://")
}
