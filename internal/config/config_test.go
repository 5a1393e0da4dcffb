package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	t.Setenv("VIKUNJA_MCP_API_URL", "")
	t.Setenv("VIKUNJA_MCP_API_TOKEN", "")
	t.Setenv("VIKUNJA_MCP_AUTH_TYPE", "")
	t.Setenv("VIKUNJA_MCP_PORT", "")
	t.Setenv("VIKUNJA_MCP_EVENTS_FILE", "")
	t.Setenv("VIKUNJA_MCP_LOG_LEVEL", "")
	t.Setenv("VIKUNJA_MCP_LOG_FORMAT", "")
	viper.Reset()
	viper.SetEnvPrefix("VIKUNJA_MCP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyGlobalRPM, DefaultGlobalRPM)
	viper.SetDefault(KeyPerCallerRPM, DefaultPerCallerRPM)
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
	viper.SetDefault(KeyLogFormat, DefaultLogFormat)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)
	t.Setenv("VIKUNJA_MCP_API_URL", "https://try.vikunja.io/api/v1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://try.vikunja.io/api/v1", cfg.APIURL)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultGlobalRPM, cfg.GlobalRPM)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Empty(t, cfg.APIKeys)
}

func TestLoad_MissingAPIURL(t *testing.T) {
	resetViper(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_url is required")
}

func TestLoad_RelativeAPIURL(t *testing.T) {
	resetViper(t)
	t.Setenv("VIKUNJA_MCP_API_URL", "vikunja.local/api/v1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute URL")
}

func TestLoad_BadAuthType(t *testing.T) {
	resetViper(t)
	t.Setenv("VIKUNJA_MCP_API_URL", "https://try.vikunja.io/api/v1")
	t.Setenv("VIKUNJA_MCP_AUTH_TYPE", "basic")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_type")
}

func TestLoad_BadPort(t *testing.T) {
	resetViper(t)
	t.Setenv("VIKUNJA_MCP_API_URL", "https://try.vikunja.io/api/v1")
	t.Setenv("VIKUNJA_MCP_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestLoad_BadLogFormat(t *testing.T) {
	resetViper(t)
	t.Setenv("VIKUNJA_MCP_API_URL", "https://try.vikunja.io/api/v1")
	t.Setenv("VIKUNJA_MCP_LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestLoad_APIKeysFromConfig(t *testing.T) {
	resetViper(t)
	t.Setenv("VIKUNJA_MCP_API_URL", "https://try.vikunja.io/api/v1")
	viper.Set(KeyAPIKeys, map[string]string{"secret": "ci"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"secret": "ci"}, cfg.APIKeys)
}
