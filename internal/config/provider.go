package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

const defaultProviderPath = "configs/dns-provider.yaml"

// Environment variables read when no provider file exists.
const (
	EnvAPIKey    = "GODADDY_API_KEY"
	EnvAPISecret = "GODADDY_API_SECRET"
	EnvBaseURL   = "GODADDY_BASE_URL"
)

// ProviderConfig holds the DNS provider type, app-level options, and
// provider-specific connection settings.
type ProviderConfig struct {
	Provider string            `yaml:"provider"`
	Upsert   bool              `yaml:"upsert"`
	Settings map[string]string `yaml:"settings"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. With no
// arguments ".env" is tried and may be absent; explicitly named files must
// exist.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading env file .env: %w", err)
		}
		return nil
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading env file %s: %w", p, err)
		}
	}
	return nil
}

// LoadProviderConfig reads the DNS provider configuration from the path
// specified by the DNS_PROVIDER_PATH environment variable, defaulting to
// "configs/dns-provider.yaml". When that file does not exist and
// DNS_PROVIDER_PATH is unset, the configuration is built from the GODADDY_*
// environment variables instead.
func LoadProviderConfig() (*ProviderConfig, error) {
	path := os.Getenv("DNS_PROVIDER_PATH")
	if path == "" {
		if _, err := os.Stat(defaultProviderPath); errors.Is(err, fs.ErrNotExist) {
			return ProviderConfigFromEnv()
		}
		path = defaultProviderPath
	}
	return LoadProviderConfigFromPath(path)
}

// LoadProviderConfigFromPath reads the DNS provider configuration from the
// given file path.
func LoadProviderConfigFromPath(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider config file: %w", err)
	}

	var cfg ProviderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing provider config file: %w", err)
	}

	if cfg.Provider == "" {
		return nil, fmt.Errorf("provider config: missing required field 'provider'")
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]string{}
	}

	// Expand ${ENV_VAR} references in setting values.
	for k, v := range cfg.Settings {
		cfg.Settings[k] = os.ExpandEnv(v)
	}

	return &cfg, nil
}

// ProviderConfigFromEnv builds a godaddy provider configuration from
// GODADDY_API_KEY, GODADDY_API_SECRET and the optional GODADDY_BASE_URL.
// Upsert is always enabled: the GoDaddy API only offers replace semantics.
func ProviderConfigFromEnv() (*ProviderConfig, error) {
	key, secret := os.Getenv(EnvAPIKey), os.Getenv(EnvAPISecret)
	if key == "" || secret == "" {
		return nil, fmt.Errorf("provider config: no config file and %s/%s are not set", EnvAPIKey, EnvAPISecret)
	}
	settings := map[string]string{
		"api_key":    key,
		"api_secret": secret,
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		settings["base_url"] = v
	}
	return &ProviderConfig{Provider: "godaddy", Upsert: true, Settings: settings}, nil
}
