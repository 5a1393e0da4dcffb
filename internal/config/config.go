// Package config holds operator-level configuration for a vikunja-mcp
// process: the upstream Vikunja API, the credential used against it,
// the listen address, and log settings. Set via env vars with the
// VIKUNJA_MCP_ prefix or a vikunja-mcp.config.yaml file.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the VIKUNJA_MCP_ prefix
// (e.g. "api_url" → VIKUNJA_MCP_API_URL) and to a YAML field in
// vikunja-mcp.config.yaml.
const (
	KeyAPIURL       = "api_url"
	KeyAPIToken     = "api_token"
	KeyAuthType     = "auth_type"
	KeyPort         = "port"
	KeyEventsFile   = "events_file"
	KeyAPIKeys      = "api_keys"
	KeyGlobalRPM    = "global_rpm"
	KeyPerCallerRPM = "per_caller_rpm"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyOTelEnabled  = "otel_enabled"
)

const (
	DefaultPort         = 8790
	DefaultGlobalRPM    = 600
	DefaultPerCallerRPM = 120
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config holds resolved configuration for a vikunja-mcp process.
type Config struct {
	APIURL       string            // Vikunja API base URL, e.g. https://try.vikunja.io/api/v1
	APIToken     string            // API token or JWT presented to Vikunja
	AuthType     string            // "api-token", "jwt", or "" to detect from the token shape
	Port         int               // HTTP listen port
	EventsFile   string            // optional YAML override for the webhook event fallback list
	APIKeys      map[string]string // inbound API key -> caller name; empty disables auth
	GlobalRPM    int               // total requests/minute across callers; 0 disables limiting
	PerCallerRPM int               // per-caller requests/minute
	LogLevel     string
	LogFormat    string // "console" or "json"
	OTelEnabled  bool
}

func init() {
	viper.SetEnvPrefix("VIKUNJA_MCP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyGlobalRPM, DefaultGlobalRPM)
	viper.SetDefault(KeyPerCallerRPM, DefaultPerCallerRPM)
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
	viper.SetDefault(KeyLogFormat, DefaultLogFormat)
}

// Load reads configuration from Viper (which merges env vars, config
// file, and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		APIURL:       viper.GetString(KeyAPIURL),
		APIToken:     viper.GetString(KeyAPIToken),
		AuthType:     viper.GetString(KeyAuthType),
		Port:         viper.GetInt(KeyPort),
		EventsFile:   viper.GetString(KeyEventsFile),
		APIKeys:      viper.GetStringMapString(KeyAPIKeys),
		GlobalRPM:    viper.GetInt(KeyGlobalRPM),
		PerCallerRPM: viper.GetInt(KeyPerCallerRPM),
		LogLevel:     viper.GetString(KeyLogLevel),
		LogFormat:    viper.GetString(KeyLogFormat),
		OTelEnabled:  viper.GetBool(KeyOTelEnabled),
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required; set VIKUNJA_MCP_API_URL")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute URL (got %q)", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url scheme must be http or https (got %q)", u.Scheme)
	}
	switch c.AuthType {
	case "", "api-token", "jwt":
	default:
		return fmt.Errorf("auth_type must be api-token or jwt (got %q)", c.AuthType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535 (got %d)", c.Port)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json (got %q)", c.LogFormat)
	}
	return nil
}
