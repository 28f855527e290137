// Package config loads the server configuration once at startup.
// Nothing else in julesmcp reads the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"julesmcp/julesapi"
	loggerv2 "julesmcp/logger/v2"
	"julesmcp/tools"
)

// Defaults.
const (
	DefaultPort         = 3000
	DefaultEndpointPath = "/sse"
	DefaultServerName   = "google-jules-mcp-sse"
)

// EnvPrefix prefixes every environment variable except PORT and
// JULES_API_BASE_URL, which keep their conventional names.
const EnvPrefix = "JULES_MCP"

// Config is the complete server configuration.
type Config struct {
	Port         int
	EndpointPath string
	BaseURL      string
	ResultFormat string
	// Stateless disables MCP session tracking on the transport.
	Stateless bool
	// UpstreamTimeout bounds each upstream request. Zero keeps the
	// net/http default of no timeout.
	UpstreamTimeout time.Duration
	Log             loggerv2.Config
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	logDefaults := loggerv2.DefaultConfig()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("endpoint", DefaultEndpointPath)
	v.SetDefault("base-url", julesapi.DefaultBaseURL)
	v.SetDefault("result-format", string(tools.ResultStructured))
	v.SetDefault("stateless", false)
	v.SetDefault("upstream-timeout", time.Duration(0))
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("log.file", logDefaults.FilePath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	// Conventional names without the prefix.
	_ = v.BindEnv("port", "PORT", EnvPrefix+"_PORT")
	_ = v.BindEnv("base-url", "JULES_API_BASE_URL", EnvPrefix+"_BASE_URL")
}

// Load reads the configuration from v, which must have been prepared with
// SetDefaults, and validates it.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:            v.GetInt("port"),
		EndpointPath:    v.GetString("endpoint"),
		BaseURL:         v.GetString("base-url"),
		ResultFormat:    v.GetString("result-format"),
		Stateless:       v.GetBool("stateless"),
		UpstreamTimeout: v.GetDuration("upstream-timeout"),
		Log: loggerv2.Config{
			Level:    v.GetString("log.level"),
			Format:   v.GetString("log.format"),
			Output:   v.GetString("log.output"),
			FilePath: v.GetString("log.file"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg for values the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if !strings.HasPrefix(c.EndpointPath, "/") {
		return fmt.Errorf("invalid endpoint %q: must start with /", c.EndpointPath)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL %q: must be an absolute http(s) URL", c.BaseURL)
	}
	if _, err := tools.ParseResultFormat(c.ResultFormat); err != nil {
		return err
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("invalid upstream timeout %s: must not be negative", c.UpstreamTimeout)
	}
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
