// Package config loads the crawler configuration from defaults, an optional
// YAML file and TAGNET_* environment variables, and validates the result.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Defaults for optional settings.
const (
	DefaultLogLevel          = "info"
	DefaultRequestDelay      = 3 * time.Second
	DefaultMaxProfilesPerTag = 20
	DefaultMinFollowers      = 1000
	DefaultMaxFollowers      = 1000000
	DefaultFollowerTarget    = 200
	DefaultPageAttempts      = 20
	DefaultRetryAttempts     = 3
	DefaultRetryDelay        = 2 * time.Second
	DefaultCacheTTL          = 30 * time.Minute
	DefaultOutputDir         = "output"
	DefaultGeminiModel       = "gemini-2.0-flash"
)

// ErrConfiguration wraps every configuration failure.
var ErrConfiguration = errors.New("configuration error")

// Config holds every tunable of a crawl run.
type Config struct {
	LogLevel string   `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Hashtags []string `mapstructure:"hashtags"`

	// SessionID is an explicit Instagram session cookie. When empty the
	// session is taken from the environment or a local browser profile.
	SessionID string `mapstructure:"session_id"`

	RequestDelay      time.Duration `mapstructure:"request_delay"       validate:"min=0"`
	MaxProfilesPerTag int           `mapstructure:"max_profiles_per_tag" validate:"gt=0"`
	MinFollowers      int           `mapstructure:"min_followers"        validate:"min=0"`
	MaxFollowers      int           `mapstructure:"max_followers"        validate:"gtefield=MinFollowers"`
	FollowerTarget    int           `mapstructure:"follower_target"      validate:"gt=0"`
	PageAttempts      int           `mapstructure:"page_attempts"        validate:"gt=0"`

	RetryAttempts int           `mapstructure:"retry_attempts" validate:"gt=0"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"    validate:"gt=0"`

	CacheTTL  time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
	OutputDir string        `mapstructure:"output_dir" validate:"required"`

	// GeminiAPIKey enables the analysis step; analysis is skipped when empty.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

// Load reads configuration from defaults, the given YAML file (optional; pass
// "" for the default ./config.yaml lookup) and TAGNET_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TAGNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: read config file: %w", ErrConfiguration, err)
		}
		// No config file is fine, defaults and environment apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	// Keys without a meaningful default still get one so AutomaticEnv can
	// surface them during Unmarshal.
	v.SetDefault("hashtags", []string{})
	v.SetDefault("session_id", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("request_delay", DefaultRequestDelay)
	v.SetDefault("max_profiles_per_tag", DefaultMaxProfilesPerTag)
	v.SetDefault("min_followers", DefaultMinFollowers)
	v.SetDefault("max_followers", DefaultMaxFollowers)
	v.SetDefault("follower_target", DefaultFollowerTarget)
	v.SetDefault("page_attempts", DefaultPageAttempts)
	v.SetDefault("retry_attempts", DefaultRetryAttempts)
	v.SetDefault("retry_delay", DefaultRetryDelay)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("gemini_model", DefaultGeminiModel)
}
