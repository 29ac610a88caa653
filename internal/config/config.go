package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcjkula/bittensor-scripts/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Gateway struct {
		Endpoint string `yaml:"endpoint"`
		APIKey   string `yaml:"api_key"`
		Proxy    string `yaml:"proxy"`
	} `yaml:"gateway"`
	Wallet struct {
		Coldkey    string `yaml:"coldkey"`
		RootHotkey string `yaml:"root_hotkey"`
	} `yaml:"wallet"`
	Staking struct {
		MinRootStake      float64              `yaml:"min_root_stake"`
		MinStakeThreshold float64              `yaml:"min_stake_threshold"`
		ManualConfirm     bool                 `yaml:"manual_confirm"`
		Subnets           []model.SubnetConfig `yaml:"subnets"`
	} `yaml:"staking"`
	Schedule struct {
		Store         string `yaml:"store"` // "bolt" or "file"
		Path          string `yaml:"path"`
		SeedImmediate bool   `yaml:"seed_immediate"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Dashboard struct {
		Disabled bool `yaml:"disabled"`
	} `yaml:"dashboard"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("GATEWAY_ENDPOINT"); v != "" {
		cfg.Gateway.Endpoint = v
	}
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Gateway.Proxy = v
	}
	if v := os.Getenv("COLDKEY_SS58"); v != "" {
		cfg.Wallet.Coldkey = v
	}
	if v := os.Getenv("ROOT_HOTKEY_SS58"); v != "" {
		cfg.Wallet.RootHotkey = v
	}
	if v := os.Getenv("MIN_ROOT_STAKE"); v != "" {
		var floor float64
		if _, err := fmt.Sscanf(v, "%f", &floor); err == nil {
			cfg.Staking.MinRootStake = floor
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// Defaults
	if cfg.Staking.MinRootStake == 0 {
		cfg.Staking.MinRootStake = 1.0
	}
	if cfg.Staking.MinStakeThreshold == 0 {
		cfg.Staking.MinStakeThreshold = 0.0005
	}
	if cfg.Schedule.Store == "" {
		cfg.Schedule.Store = "bolt"
	}
	if cfg.Schedule.Path == "" {
		if cfg.Schedule.Store == "file" {
			cfg.Schedule.Path = "data/schedule.json"
		} else {
			cfg.Schedule.Path = "data/schedule.db"
		}
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stakebot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "staking_operations.log"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Gateway.Endpoint == "" {
		return fmt.Errorf("gateway.endpoint is required")
	}
	if c.Wallet.Coldkey == "" {
		return fmt.Errorf("wallet.coldkey is required")
	}
	if c.Wallet.RootHotkey == "" {
		return fmt.Errorf("wallet.root_hotkey is required")
	}
	if c.Staking.MinRootStake < 0 {
		return fmt.Errorf("staking.min_root_stake must not be negative")
	}
	if len(c.Staking.Subnets) == 0 {
		return fmt.Errorf("staking.subnets must list at least one subnet")
	}
	seen := make(map[int]bool)
	for _, s := range c.Staking.Subnets {
		if s.NetUID == model.RootNetUID {
			return fmt.Errorf("staking.subnets: netuid %d is reserved for root", model.RootNetUID)
		}
		if seen[s.NetUID] {
			return fmt.Errorf("staking.subnets: duplicate netuid %d", s.NetUID)
		}
		seen[s.NetUID] = true
		if s.Amount <= 0 {
			return fmt.Errorf("staking.subnets: netuid %d amount must be positive", s.NetUID)
		}
		if s.Validator == "" {
			return fmt.Errorf("staking.subnets: netuid %d validator is required", s.NetUID)
		}
	}
	if c.Schedule.Store != "bolt" && c.Schedule.Store != "file" {
		return fmt.Errorf("schedule.store must be \"bolt\" or \"file\"")
	}
	return nil
}
