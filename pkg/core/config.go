package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default endpoints.
const (
	DefaultBaseURL       = "https://api.kraken.com"
	DefaultWSPublicURL   = "wss://ws.kraken.com"
	DefaultWSAuthURL     = "wss://ws-auth.kraken.com"
	DefaultWSV2PublicURL = "wss://ws.kraken.com/v2"
	DefaultWSV2AuthURL   = "wss://ws-auth.kraken.com/v2"
	DefaultUserAgent     = "krakenkit"
)

// Config contains all configuration options for a Kraken client.
type Config struct {
	BaseURL       string `json:"base_url" validate:"required,url"`
	WSPublicURL   string `json:"ws_public_url" validate:"required,url"`
	WSAuthURL     string `json:"ws_auth_url" validate:"required,url"`
	WSV2PublicURL string `json:"ws_v2_public_url" validate:"required,url"`
	WSV2AuthURL   string `json:"ws_v2_auth_url" validate:"required,url"`
	UserAgent     string `json:"user_agent" validate:"required"`

	// Tier fixes the private and trading rate limits for the lifetime of the client.
	Tier VerificationTier `json:"tier" validate:"min=0,max=2"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`

	// KeyEnv and SecretEnv name the environment variables read by the env secrets provider.
	KeyEnv    string `json:"key_env" validate:"required"`
	SecretEnv string `json:"secret_env" validate:"required"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
}

// DefaultConfig returns a Config for the production endpoints at the Intermediate tier.
// The circuit breaker is off; there are no automatic retries either way.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		WSPublicURL:   DefaultWSPublicURL,
		WSAuthURL:     DefaultWSAuthURL,
		WSV2PublicURL: DefaultWSV2PublicURL,
		WSV2AuthURL:   DefaultWSV2AuthURL,
		UserAgent:     DefaultUserAgent,
		Tier:          TierIntermediate,
		Timeout:       10 * time.Second,
		KeyEnv:        "KRAKEN_KEY",
		SecretEnv:     "KRAKEN_SECRET",

		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithBaseURL sets the REST base URL and returns the config for chaining.
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// WithUserAgent overrides the User-Agent header and returns the config for chaining.
func (c *Config) WithUserAgent(userAgent string) *Config {
	c.UserAgent = userAgent
	return c
}

// WithTier sets the verification tier and returns the config for chaining.
func (c *Config) WithTier(tier VerificationTier) *Config {
	c.Tier = tier
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithWebSocketURLs overrides the v1 and v2 endpoints and returns the config
// for chaining. Empty arguments keep the current value.
func (c *Config) WithWebSocketURLs(v1Public, v1Auth, v2Public, v2Auth string) *Config {
	for dst, src := range map[*string]string{
		&c.WSPublicURL:   v1Public,
		&c.WSAuthURL:     v1Auth,
		&c.WSV2PublicURL: v2Public,
		&c.WSV2AuthURL:   v2Auth,
	} {
		if src != "" {
			*dst = src
		}
	}
	return c
}

// WithCircuitBreaker enables the REST circuit breaker and returns the config for chaining.
func (c *Config) WithCircuitBreaker(failThreshold, successThreshold int, timeout time.Duration) *Config {
	c.CircuitBreakerEnabled = true
	c.CircuitBreakerFailThreshold = failThreshold
	c.CircuitBreakerSuccessThreshold = successThreshold
	c.CircuitBreakerTimeout = timeout
	return c
}

// LoadConfig reads configuration from an optional file and KRAKEN_* environment
// variables on top of DefaultConfig. An empty path searches for kraken.yaml in
// the working directory and ./configs; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kraken")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// e.g. KRAKEN_BASE_URL, KRAKEN_TIER
	v.SetEnvPrefix("kraken")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("ws_public_url", def.WSPublicURL)
	v.SetDefault("ws_auth_url", def.WSAuthURL)
	v.SetDefault("ws_v2_public_url", def.WSV2PublicURL)
	v.SetDefault("ws_v2_auth_url", def.WSV2AuthURL)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("tier", def.Tier.String())
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("key_env", def.KeyEnv)
	v.SetDefault("secret_env", def.SecretEnv)
	v.SetDefault("circuit_breaker_enabled", def.CircuitBreakerEnabled)
	v.SetDefault("circuit_breaker_fail_threshold", def.CircuitBreakerFailThreshold)
	v.SetDefault("circuit_breaker_success_threshold", def.CircuitBreakerSuccessThreshold)
	v.SetDefault("circuit_breaker_timeout", def.CircuitBreakerTimeout)
	v.SetDefault("log_level", def.LogLevel)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	tier, err := ParseTier(v.GetString("tier"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:                        v.GetString("base_url"),
		WSPublicURL:                    v.GetString("ws_public_url"),
		WSAuthURL:                      v.GetString("ws_auth_url"),
		WSV2PublicURL:                  v.GetString("ws_v2_public_url"),
		WSV2AuthURL:                    v.GetString("ws_v2_auth_url"),
		UserAgent:                      v.GetString("user_agent"),
		Tier:                           tier,
		Timeout:                        v.GetDuration("timeout"),
		KeyEnv:                         v.GetString("key_env"),
		SecretEnv:                      v.GetString("secret_env"),
		CircuitBreakerEnabled:          v.GetBool("circuit_breaker_enabled"),
		CircuitBreakerFailThreshold:    v.GetInt("circuit_breaker_fail_threshold"),
		CircuitBreakerSuccessThreshold: v.GetInt("circuit_breaker_success_threshold"),
		CircuitBreakerTimeout:          v.GetDuration("circuit_breaker_timeout"),
		LogLevel:                       v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
