// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package xanthos

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig provides dynamic configuration reload capabilities using Argus.
// It watches a configuration file and automatically retunes cache settings
// when changes are detected.
type HotConfig struct {
	cache   Cache
	watcher *argus.Watcher
	mu      sync.RWMutex
	config  Config
	logger  Logger

	// OnReload is called after configuration is successfully reloaded.
	// This callback is optional and must be fast and non-blocking.
	OnReload func(oldConfig, newConfig Config)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldConfig, newConfig Config)

	// Logger for hot reload operations.
	// If nil, uses NoOpLogger.
	Logger Logger
}

// NewHotConfig creates a new hot-reloadable configuration for a cache.
// It starts watching the configuration file immediately.
//
// Example configuration file (YAML):
//
//	cache:
//	  capacity: 10000
//	  ttl: "1h"
//
// Supported configuration keys:
//   - cache.capacity (int): maximum number of entries
//   - cache.ttl (duration string): expire-after-write window (e.g. "1h")
//
// Capacity changes require cache reconstruction and are recorded but not
// applied dynamically; TTL changes take effect through Cache.SetTTL on
// caches built with a fixed TTL policy.
func NewHotConfig(cache Cache, opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}

	hc := &HotConfig{
		cache:    cache,
		OnReload: opts.OnReload,
		logger:   opts.Logger,
		config:   DefaultConfig(),
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error {
	return hc.watcher.Stop()
}

// GetConfig returns the current configuration (thread-safe).
func (hc *HotConfig) GetConfig() Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

// handleConfigChange is called by Argus when configuration changes.
func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	oldConfig := hc.config
	newConfig := hc.parseConfig(configData)
	hc.config = newConfig
	hc.mu.Unlock()

	hc.applyChanges(oldConfig, newConfig)

	if hc.OnReload != nil {
		hc.OnReload(oldConfig, newConfig)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}

// parseDuration extracts a time.Duration from a string value.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

// parseConfig extracts cache configuration from Argus config data.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Config {
	config := DefaultConfig()

	// Extract cache section - Argus might nest it or provide it directly
	cacheSection, ok := data["cache"].(map[string]interface{})
	if !ok {
		if _, hasCapacity := data["capacity"]; hasCapacity {
			cacheSection = data
		} else {
			return config
		}
	}

	if capacity, ok := parsePositiveInt(cacheSection["capacity"]); ok {
		config.Capacity = capacity
	}

	if ttl, ok := parseDuration(cacheSection["ttl"]); ok {
		config.ExpireAfterWrite = ttl
	}

	return config
}

// applyChanges applies configuration changes to the running cache. Only the
// TTL can be retuned in place; a capacity change needs a rebuilt segment
// layout and sketch, so it is logged and left to the caller.
func (hc *HotConfig) applyChanges(old, updated Config) {
	if updated.ExpireAfterWrite != old.ExpireAfterWrite && updated.ExpireAfterWrite > 0 {
		if err := hc.cache.SetTTL(updated.ExpireAfterWrite); err != nil {
			hc.logger.Warn("hot reload could not apply TTL", "error", err)
		} else {
			hc.logger.Info("hot reload applied TTL", "ttl", updated.ExpireAfterWrite)
		}
	}

	if updated.Capacity != old.Capacity {
		hc.logger.Info("capacity change requires cache reconstruction",
			"old", old.Capacity, "new", updated.Capacity)
	}
}
