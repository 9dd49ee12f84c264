package config

import "time"

// Config holds cardfix configuration.
// Stored at: ./config.yaml or ~/.cardfix/config.yaml
type Config struct {
	Home     string     `mapstructure:"home" yaml:"home"`           // Fixture root (default ./test_data)
	LogLevel string     `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn, error
	Service  ServiceCfg `mapstructure:"service" yaml:"service"`
	Fetch    FetchCfg   `mapstructure:"fetch" yaml:"fetch"`
	Encode   EncodeCfg  `mapstructure:"encode" yaml:"encode"`
	Post     PostCfg    `mapstructure:"post" yaml:"post"`
}

// ServiceCfg configures the remote grading service.
type ServiceCfg struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	AuthToken      string `mapstructure:"auth_token" yaml:"auth_token"` // Supports ${ENV_VAR} syntax
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelayMS   int    `mapstructure:"retry_delay_ms" yaml:"retry_delay_ms"`
}

// FetchCfg configures the fetch command.
type FetchCfg struct {
	ImageName string `mapstructure:"image_name" yaml:"image_name"`
}

// EncodeCfg configures image encoding for the second input.
type EncodeCfg struct {
	Quality int  `mapstructure:"quality" yaml:"quality"`   // JPEG quality 1-100
	MaxSide int  `mapstructure:"max_side" yaml:"max_side"` // 0 = keep original size
	Workers int  `mapstructure:"workers" yaml:"workers"`   // 0 = one per CPU
	Raw     bool `mapstructure:"raw" yaml:"raw"`           // Skip re-encoding
}

// PostCfg configures the post command.
type PostCfg struct {
	FillRate float64 `mapstructure:"fill_rate" yaml:"fill_rate"`
}

// Timeout returns the HTTP timeout as a duration.
func (s ServiceCfg) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base retry delay as a duration.
func (s ServiceCfg) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMS) * time.Millisecond
}

// ResolvedAuthToken returns the auth token with ${ENV_VAR} references expanded.
func (s ServiceCfg) ResolvedAuthToken() string {
	return ResolveEnvVars(s.AuthToken)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Home:     "test_data",
		LogLevel: "info",
		Service: ServiceCfg{
			BaseURL:        "https://scanstat.17zuoye.net/unipus_staging",
			AuthToken:      "${CARDFIX_AUTH_TOKEN}",
			TimeoutSeconds: 60,
			MaxRetries:     3,
			RetryDelayMS:   500,
		},
		Fetch: FetchCfg{
			ImageName: "test.jpg",
		},
		Encode: EncodeCfg{
			Quality: 95,
		},
		Post: PostCfg{
			FillRate: 0.5,
		},
	}
}
