// Package config loads the receiver configuration from YAML with
// environment-variable overrides. Every integration is optional: an
// unset bucket, API key, or URL disables that reconciliation branch
// instead of erroring.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Manifest  ManifestConfig  `yaml:"manifest"`
	Directory DirectoryConfig `yaml:"directory"`
	Notify    NotifyConfig    `yaml:"notify"`
	Audit     AuditConfig     `yaml:"audit"`
	OTEL      OTELConfig      `yaml:"otel"`
	Log       LogConfig       `yaml:"log"`
}

// ListenConfig holds HTTP server settings.
type ListenConfig struct {
	Addr string `yaml:"addr"`
}

// ManifestConfig holds the object-store settings for manifests. Bucket
// and Region together enable the storage branch.
type ManifestConfig struct {
	Catalog         string `yaml:"catalog"`
	Folder          string `yaml:"folder"`
	DefaultIncluded string `yaml:"default_included"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
}

// Enabled reports whether the manifest storage branch runs.
func (c ManifestConfig) Enabled() bool {
	return c.Bucket != "" && c.Region != ""
}

// DirectoryConfig holds the MDM directory API settings. APIKey enables
// the directory branch.
type DirectoryConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Enabled reports whether the directory branch runs.
func (c DirectoryConfig) Enabled() bool {
	return c.APIKey != ""
}

// NotifyConfig holds the chat webhook settings. URL enables the
// notification branch.
type NotifyConfig struct {
	URL string `yaml:"url"`
}

// Enabled reports whether the notification branch runs.
func (c NotifyConfig) Enabled() bool {
	return c.URL != ""
}

// AuditConfig holds trail archival settings. LogBucket archives to the
// object store; DBPath archives to a local database. Neither is required.
type AuditConfig struct {
	LogBucket string `yaml:"log_bucket"`
	LogPrefix string `yaml:"log_prefix"`
	DBPath    string `yaml:"db_path"`
}

// OTELConfig holds tracing settings. Endpoint enables tracing.
type OTELConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file at path, then applies environment overrides
// and defaults. An empty path skips the file and configures from the
// environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Environment overrides mirror the variable names the service has always
// been deployed with.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Listen.Addr, "MDMHOOK_LISTEN_ADDR")
	overrideString(&cfg.Manifest.Catalog, "MDMHOOK_CATALOG")
	overrideString(&cfg.Manifest.Folder, "MDMHOOK_MANIFEST_FOLDER")
	overrideString(&cfg.Manifest.DefaultIncluded, "MDMHOOK_DEFAULT_INCLUDED")
	overrideString(&cfg.Manifest.Bucket, "MDMHOOK_MANIFEST_BUCKET")
	overrideString(&cfg.Manifest.Region, "MDMHOOK_BUCKET_REGION")
	overrideString(&cfg.Directory.BaseURL, "MDMHOOK_DIRECTORY_URL")
	overrideString(&cfg.Directory.APIKey, "MDMHOOK_DIRECTORY_API_KEY")
	overrideString(&cfg.Notify.URL, "MDMHOOK_NOTIFY_URL")
	overrideString(&cfg.Audit.LogBucket, "MDMHOOK_LOG_BUCKET")
	overrideString(&cfg.Audit.DBPath, "MDMHOOK_AUDIT_DB")
	overrideString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	overrideString(&cfg.Log.Level, "MDMHOOK_LOG_LEVEL")
}

func overrideString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Listen.Addr == "" {
		cfg.Listen.Addr = ":8080"
	}
	if cfg.Manifest.Catalog == "" {
		cfg.Manifest.Catalog = "production"
	}
	if cfg.Manifest.Folder == "" {
		cfg.Manifest.Folder = "manifests"
	}
	cfg.Manifest.Folder = strings.Trim(cfg.Manifest.Folder, "/")
	if cfg.Manifest.DefaultIncluded == "" {
		cfg.Manifest.DefaultIncluded = "site_default"
	}
	if cfg.Audit.LogPrefix == "" {
		cfg.Audit.LogPrefix = "webhook-logs"
	}
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = "mdmhook"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate ensures enabled integrations have what they need.
func (c *Config) Validate() error {
	if c.Directory.Enabled() && c.Directory.BaseURL == "" {
		return fmt.Errorf("directory: base_url is required when api_key is set")
	}
	if c.Manifest.Bucket != "" && c.Manifest.Region == "" {
		return fmt.Errorf("manifest: region is required when bucket is set")
	}
	if c.Audit.LogBucket != "" && c.Manifest.Region == "" {
		return fmt.Errorf("audit: manifest.region is required when log_bucket is set")
	}
	return nil
}
