// Package config loads and guards the process-wide configuration
// options of the printer fleet connection core.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bestcode/printer-fleet-core/pkg/model"
)

// Config holds every process-wide option. Fields are set once at
// startup from YAML; after that, callers mutate through the setter
// methods, which hold a mutex so the orchestration packages can read
// a torn-free snapshot at any time.
type Config struct {
	mu sync.RWMutex

	availabilityInterval time.Duration
	offlineThreshold     int
	pollingInterval      time.Duration
	clockPollingInterval time.Duration
	commandTimeout       time.Duration
	postConnectSettle    time.Duration
	probeInterGap        time.Duration
	commandLogCapacity   int

	fallbackPasswordHash string
}

// fileShape is the YAML document shape; durations are expressed in
// milliseconds to match the option names in the external interface.
type fileShape struct {
	AvailabilityIntervalMS int    `yaml:"availability_interval_ms"`
	OfflineThreshold       int    `yaml:"offline_threshold"`
	PollingIntervalMS      int    `yaml:"polling_interval_ms"`
	ClockPollingIntervalMS int    `yaml:"clock_polling_interval_ms"`
	CommandTimeoutMS       int    `yaml:"command_timeout_ms"`
	PostConnectSettleMS    int    `yaml:"post_connect_settle_ms"`
	ProbeInterGapMS        int    `yaml:"probe_inter_gap_ms"`
	CommandLogCapacity     int    `yaml:"command_log_capacity"`
	FallbackPasswordHash   string `yaml:"fallback_password_hash"`
}

func defaults() *Config {
	return &Config{
		availabilityInterval: 5000 * time.Millisecond,
		offlineThreshold:     5,
		pollingInterval:      3000 * time.Millisecond,
		clockPollingInterval: 5000 * time.Millisecond,
		commandTimeout:       8000 * time.Millisecond,
		postConnectSettle:    1000 * time.Millisecond,
		probeInterGap:        800 * time.Millisecond,
		commandLogCapacity:   1000,
	}
}

// Load reads configPath and applies it over the documented defaults.
// A missing file is not an error — it yields pure defaults, the same
// tolerance the teacher's config loader extends.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: read config file: %v", model.ErrConfigInvalid, err)
	}

	var shape fileShape
	if err := yaml.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("%w: parse config file: %v", model.ErrConfigInvalid, err)
	}
	cfg.applyShape(shape)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyShape(s fileShape) {
	if s.AvailabilityIntervalMS > 0 {
		c.availabilityInterval = time.Duration(s.AvailabilityIntervalMS) * time.Millisecond
	}
	if s.OfflineThreshold > 0 {
		c.offlineThreshold = s.OfflineThreshold
	}
	if s.PollingIntervalMS > 0 {
		c.pollingInterval = time.Duration(s.PollingIntervalMS) * time.Millisecond
	}
	if s.ClockPollingIntervalMS > 0 {
		c.clockPollingInterval = time.Duration(s.ClockPollingIntervalMS) * time.Millisecond
	}
	if s.CommandTimeoutMS > 0 {
		c.commandTimeout = time.Duration(s.CommandTimeoutMS) * time.Millisecond
	}
	if s.PostConnectSettleMS > 0 {
		c.postConnectSettle = time.Duration(s.PostConnectSettleMS) * time.Millisecond
	}
	if s.ProbeInterGapMS > 0 {
		c.probeInterGap = time.Duration(s.ProbeInterGapMS) * time.Millisecond
	}
	if s.CommandLogCapacity > 0 {
		c.commandLogCapacity = s.CommandLogCapacity
	}
	c.fallbackPasswordHash = s.FallbackPasswordHash
}

// Validate rejects values that would make a downstream loop or dialer
// misbehave (zero/negative durations, a non-positive ring capacity).
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.availabilityInterval <= 0:
		return fmt.Errorf("%w: availability_interval_ms must be positive", model.ErrConfigInvalid)
	case c.offlineThreshold <= 0:
		return fmt.Errorf("%w: offline_threshold must be positive", model.ErrConfigInvalid)
	case c.pollingInterval <= 0:
		return fmt.Errorf("%w: polling_interval_ms must be positive", model.ErrConfigInvalid)
	case c.clockPollingInterval <= 0:
		return fmt.Errorf("%w: clock_polling_interval_ms must be positive", model.ErrConfigInvalid)
	case c.commandTimeout <= 0:
		return fmt.Errorf("%w: command_timeout_ms must be positive", model.ErrConfigInvalid)
	case c.postConnectSettle < 0:
		return fmt.Errorf("%w: post_connect_settle_ms must be non-negative", model.ErrConfigInvalid)
	case c.probeInterGap < 0:
		return fmt.Errorf("%w: probe_inter_gap_ms must be non-negative", model.ErrConfigInvalid)
	case c.commandLogCapacity <= 0:
		return fmt.Errorf("%w: command_log_capacity must be positive", model.ErrConfigInvalid)
	}
	return nil
}

// Default returns a Config populated with pure defaults, for tests and
// for binaries that do not load a config file.
func Default() *Config { return defaults() }

func (c *Config) AvailabilityInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.availabilityInterval
}

func (c *Config) SetAvailabilityInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.availabilityInterval = d
}

func (c *Config) OfflineThreshold() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offlineThreshold
}

func (c *Config) SetOfflineThreshold(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offlineThreshold = n
}

func (c *Config) PollingInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pollingInterval
}

func (c *Config) ClockPollingInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clockPollingInterval
}

func (c *Config) CommandTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.commandTimeout
}

func (c *Config) SetCommandTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commandTimeout = d
}

func (c *Config) PostConnectSettle() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.postConnectSettle
}

func (c *Config) SetPostConnectSettle(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postConnectSettle = d
}

func (c *Config) ProbeInterGap() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.probeInterGap
}

func (c *Config) CommandLogCapacity() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.commandLogCapacity
}

// FallbackPasswordHash returns the bcrypt hash sign_in compares
// against when the device rejects ^LG. Empty means no local fallback
// is configured.
func (c *Config) FallbackPasswordHash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallbackPasswordHash
}

func (c *Config) SetFallbackPasswordHash(hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbackPasswordHash = hash
}
