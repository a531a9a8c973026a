/**
 * @description
 * This package handles configuration for the payflow client and the stub
 * backend. It uses the Viper library to read configuration from environment
 * variables (with optional .env support), providing defaults for every
 * protocol tuning knob.
 *
 * @dependencies
 * - github.com/spf13/viper: environment-based configuration.
 */
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the payflow client. The protocol
// defaults encode the production schedule: 20 poll attempts at 1500 ms ×1.5
// capped at 10 s with up to 300 ms jitter, five verification attempts on a
// fixed 3/5/7/9/10 s schedule, and ten reconciliation polls 2.5 s apart.
type Config struct {
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	ClientID   string `mapstructure:"CLIENT_ID"`

	PollMaxAttempts    int     `mapstructure:"POLL_MAX_ATTEMPTS"`
	PollInitialDelayMs int     `mapstructure:"POLL_INITIAL_DELAY_MS"`
	PollMaxDelayMs     int     `mapstructure:"POLL_MAX_DELAY_MS"`
	PollBackoffFactor  float64 `mapstructure:"POLL_BACKOFF_FACTOR"`
	PollJitterMs       int     `mapstructure:"POLL_JITTER_MS"`

	VerifyMaxAttempts int    `mapstructure:"VERIFY_MAX_ATTEMPTS"`
	VerifyDelaysMs    string `mapstructure:"VERIFY_DELAYS_MS"`

	ReconcileIntervalMs  int `mapstructure:"RECONCILE_INTERVAL_MS"`
	ReconcileMaxAttempts int `mapstructure:"RECONCILE_MAX_ATTEMPTS"`

	PremiumStatusPath string `mapstructure:"PREMIUM_STATUS_PATH"`

	// Stub backend settings (cmd/stubgym only).
	ServerPort          string `mapstructure:"SERVER_PORT"`
	StubPollsToComplete int    `mapstructure:"STUB_POLLS_TO_COMPLETE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("API_BASE_URL", "http://localhost:8080")
	viper.SetDefault("POLL_MAX_ATTEMPTS", 20)
	viper.SetDefault("POLL_INITIAL_DELAY_MS", 1500)
	viper.SetDefault("POLL_MAX_DELAY_MS", 10000)
	viper.SetDefault("POLL_BACKOFF_FACTOR", 1.5)
	viper.SetDefault("POLL_JITTER_MS", 300)
	viper.SetDefault("VERIFY_MAX_ATTEMPTS", 5)
	viper.SetDefault("VERIFY_DELAYS_MS", "3000,5000,7000,9000,10000")
	viper.SetDefault("RECONCILE_INTERVAL_MS", 2500)
	viper.SetDefault("RECONCILE_MAX_ATTEMPTS", 10)
	viper.SetDefault("PREMIUM_STATUS_PATH", "/user_premium/premium-status")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STUB_POLLS_TO_COMPLETE", 2)

	_ = viper.BindEnv("API_BASE_URL")
	_ = viper.BindEnv("CLIENT_ID")
	_ = viper.BindEnv("POLL_MAX_ATTEMPTS")
	_ = viper.BindEnv("POLL_INITIAL_DELAY_MS")
	_ = viper.BindEnv("POLL_MAX_DELAY_MS")
	_ = viper.BindEnv("POLL_BACKOFF_FACTOR")
	_ = viper.BindEnv("POLL_JITTER_MS")
	_ = viper.BindEnv("VERIFY_MAX_ATTEMPTS")
	_ = viper.BindEnv("VERIFY_DELAYS_MS")
	_ = viper.BindEnv("RECONCILE_INTERVAL_MS")
	_ = viper.BindEnv("RECONCILE_MAX_ATTEMPTS")
	_ = viper.BindEnv("PREMIUM_STATUS_PATH")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("STUB_POLLS_TO_COMPLETE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	// If a platform-provided PORT is set, prefer it.
	if port := strings.TrimSpace(viper.GetString("PORT")); port != "" {
		config.ServerPort = port
	}

	// Clamp nonsense values back to the protocol defaults.
	if config.PollMaxAttempts <= 0 {
		config.PollMaxAttempts = 20
	}
	if config.PollInitialDelayMs <= 0 {
		config.PollInitialDelayMs = 1500
	}
	if config.PollMaxDelayMs <= 0 {
		config.PollMaxDelayMs = 10000
	}
	if config.PollBackoffFactor <= 1.0 {
		config.PollBackoffFactor = 1.5
	}
	if config.PollJitterMs < 0 {
		config.PollJitterMs = 300
	}
	if config.VerifyMaxAttempts <= 0 {
		config.VerifyMaxAttempts = 5
	}
	if config.ReconcileIntervalMs <= 0 {
		config.ReconcileIntervalMs = 2500
	}
	if config.ReconcileMaxAttempts <= 0 {
		config.ReconcileMaxAttempts = 10
	}
	if config.StubPollsToComplete < 0 {
		config.StubPollsToComplete = 2
	}

	return
}

// VerifyDelays parses the comma-separated verification delay schedule.
func (c Config) VerifyDelays() ([]time.Duration, error) {
	parts := strings.Split(c.VerifyDelaysMs, ",")
	delays := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ms, err := strconv.Atoi(part)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid verify delay %q", part)
		}
		delays = append(delays, time.Duration(ms)*time.Millisecond)
	}
	if len(delays) == 0 {
		return nil, fmt.Errorf("verify delay schedule is empty")
	}
	return delays, nil
}

// PollInitialDelay returns the initial poll backoff as a duration.
func (c Config) PollInitialDelay() time.Duration {
	return time.Duration(c.PollInitialDelayMs) * time.Millisecond
}

// PollMaxDelay returns the poll backoff cap as a duration.
func (c Config) PollMaxDelay() time.Duration {
	return time.Duration(c.PollMaxDelayMs) * time.Millisecond
}

// PollJitter returns the poll jitter bound as a duration.
func (c Config) PollJitter() time.Duration {
	return time.Duration(c.PollJitterMs) * time.Millisecond
}

// ReconcileInterval returns the reconciliation poll interval as a duration.
func (c Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalMs) * time.Millisecond
}
