package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Secrets (store tokens, the magic-link secret, the mail API key) may also
// arrive via environment variables; [ApplyEnv] overlays them after the file
// is parsed so deployments never need to write secrets to disk.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Links    LinksConfig    `toml:"links"`
	Mail     MailConfig     `toml:"mail"`
	Import   ImportConfig   `toml:"import"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// StoreConfig identifies the hosted content store and its access tokens.
type StoreConfig struct {
	ProjectID  string `toml:"project_id"`
	Dataset    string `toml:"dataset"`
	APIVersion string `toml:"api_version"`
	ReadToken  string `toml:"read_token"`
	WriteToken string `toml:"write_token"`
}

// LinksConfig controls magic-link issuance.
type LinksConfig struct {
	Secret  string `toml:"secret"`
	BaseURL string `toml:"base_url"`
}

// MailConfig contains mail provider settings. An empty APIKey switches the
// mailer into dev-preview mode (links are returned, not sent).
type MailConfig struct {
	APIKey string `toml:"api_key"`
	From   string `toml:"from"`
}

// ImportConfig holds defaults for the import pipeline.
type ImportConfig struct {
	DryRun bool `toml:"dry_run"`
}

// DatabaseConfig contains settings for the local run-journal database.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadDotenv loads .env.local first and .env second, matching the precedence
// the deployment environment uses. Missing files are not an error.
func LoadDotenv() {
	_ = godotenv.Overload(".env.local")
	_ = godotenv.Load()
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays recognized environment variables onto the config.
// Environment values win over file values so secrets can stay out of TOML.
func ApplyEnv(c *Config) {
	overlay := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	overlay(&c.Store.ProjectID, "SANITY_PROJECT_ID", "NEXT_PUBLIC_SANITY_PROJECT_ID")
	overlay(&c.Store.Dataset, "SANITY_DATASET", "NEXT_PUBLIC_SANITY_DATASET")
	overlay(&c.Store.APIVersion, "SANITY_API_VERSION")
	overlay(&c.Store.WriteToken, "SANITY_WRITE_TOKEN")
	overlay(&c.Store.ReadToken, "SANITY_API_TOKEN", "SANITY_TOKEN")
	overlay(&c.Links.Secret, "MAGIC_LINK_SECRET")
	overlay(&c.Links.BaseURL, "PUBLIC_BASE_URL")
	overlay(&c.Mail.APIKey, "RESEND_API_KEY")
	overlay(&c.Mail.From, "FROM_EMAIL")

	if v := os.Getenv("DRY_RUN"); v != "" {
		c.Import.DryRun = v != "false"
	}
}

// ValidateStore checks that the config names a reachable store. Endpoints
// that write also need a token; callers pass needsToken accordingly.
func (c *Config) ValidateStore(needsToken bool) error {
	if c.Store.ProjectID == "" || c.Store.Dataset == "" {
		return fmt.Errorf("%w: store project_id and dataset are required", ErrInvalidConfig)
	}
	if needsToken && c.Store.WriteToken == "" && c.Store.ReadToken == "" {
		return ErrMissingCredentials
	}
	return nil
}
