// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/btckit/internal/bitcoin"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Debug      DebugConfig      `yaml:"debug"`
	Network    NetworkConfig    `yaml:"network"`
	State      StateConfig      `yaml:"state"`
	Import     ImportConfig     `yaml:"import"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"DEBUG_PORT"`
}

type MetricsConfig struct {
	ListenAddress string `yaml:"address" envconfig:"METRICS_LISTEN_ADDRESS"`
	ListenPort    uint   `yaml:"port"    envconfig:"METRICS_LISTEN_PORT"`
}

type NetworkConfig struct {
	Name string `yaml:"name" envconfig:"NETWORK"`
}

type StateConfig struct {
	Directory string `yaml:"dir" envconfig:"STATE_DIR"`
}

type ImportConfig struct {
	File          string `yaml:"file"          envconfig:"IMPORT_FILE"`
	VerifyWorkers int    `yaml:"verifyWorkers" envconfig:"IMPORT_VERIFY_WORKERS"`
}

type CheckpointConfig struct {
	Profile string `yaml:"profile" envconfig:"CHECKPOINT_PROFILE"`
}

// Singleton config instance with default values
var globalConfig = &Config{
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Metrics: MetricsConfig{
		ListenAddress: "",
		ListenPort:    0,
	},
	Network: NetworkConfig{
		Name: string(bitcoin.Mainnet),
	},
	State: StateConfig{
		Directory: "./.state",
	},
	Import: ImportConfig{
		VerifyWorkers: 4,
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	network := bitcoin.SelectNetwork(bitcoin.NetworkType(globalConfig.Network.Name))
	if network == nil {
		return nil, fmt.Errorf(
			"unknown network: %s: available networks: %s",
			globalConfig.Network.Name,
			strings.Join(availableNetworks(), ","),
		)
	}
	if globalConfig.Import.VerifyWorkers < 1 {
		return nil, fmt.Errorf(
			"invalid verify worker count: %d",
			globalConfig.Import.VerifyWorkers,
		)
	}
	// Provide default checkpoint for network
	if globalConfig.Checkpoint.Profile == "" {
		globalConfig.Checkpoint.Profile = globalConfig.Network.Name + "-genesis"
	}
	profile, ok := Profiles[globalConfig.Checkpoint.Profile]
	if !ok {
		return nil, fmt.Errorf(
			"unknown checkpoint profile: %s: available profiles: %s",
			globalConfig.Checkpoint.Profile,
			strings.Join(GetAvailableProfiles(), ","),
		)
	}
	if profile.Network != globalConfig.Network.Name {
		return nil, fmt.Errorf(
			"conflicting networks configured: %s and %s",
			globalConfig.Network.Name,
			profile.Network,
		)
	}
	if err := profile.validate(network); err != nil {
		return nil, fmt.Errorf(
			"invalid checkpoint profile %s: %w",
			globalConfig.Checkpoint.Profile,
			err,
		)
	}
	return globalConfig, nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}

// SelectedNetwork returns the parameters for the configured network
func (c *Config) SelectedNetwork() *bitcoin.Network {
	return bitcoin.SelectNetwork(bitcoin.NetworkType(c.Network.Name))
}

// SelectedProfile returns the configured checkpoint profile
func (c *Config) SelectedProfile() (Profile, bool) {
	profile, ok := Profiles[c.Checkpoint.Profile]
	return profile, ok
}

func availableNetworks() []string {
	ret := make([]string, 0, len(bitcoin.Networks))
	for k := range bitcoin.Networks {
		ret = append(ret, string(k))
	}
	return ret
}
