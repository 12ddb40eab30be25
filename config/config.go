// Package config holds the chain constants consumed by the round
// lifecycle, with defaults matching the main network and optional
// loading from a config file or flags.
package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RewardMilestone sets the per-block reward for all heights at or above
// Height, until the next milestone.
type RewardMilestone struct {
	Height uint64 `mapstructure:"height"`
	Reward int64  `mapstructure:"reward"`
}

// Config are the chain constants of the round lifecycle.
type Config struct {
	// ActiveDelegates is the number of forging slots per round.
	ActiveDelegates uint64 `mapstructure:"active-delegates"`

	// DPoSV2FirstHeight is the height at and after which the weighted
	// stochastic slate selection applies. Zero disables v2.
	DPoSV2FirstHeight uint64 `mapstructure:"dposv2-first-height"`

	// RewardSchedule is the block reward table, ordered by ascending
	// milestone height.
	RewardSchedule []RewardMilestone `mapstructure:"reward-schedule"`

	// SlateCacheSize bounds the per-round slate cache.
	SlateCacheSize int `mapstructure:"slate-cache-size"`
}

// Default returns the main network constants.
func Default() Config {
	return Config{
		ActiveDelegates:   101,
		DPoSV2FirstHeight: 0,
		RewardSchedule: []RewardMilestone{
			{Height: 1, Reward: 0},
			{Height: 10, Reward: 1_500_000_000},
			{Height: 11, Reward: 30_000_000},
			{Height: 12, Reward: 20_000_000},
			{Height: 13, Reward: 1_500_000_000},
			{Height: 1_054_080, Reward: 1_200_000_000},
			{Height: 1_054_080 * 2, Reward: 900_000_000},
		},
		SlateCacheSize: 16,
	}
}

// Load reads the config file at the given path, falling back to the
// defaults for any unset key. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("active-delegates", cfg.ActiveDelegates)
	v.SetDefault("dposv2-first-height", cfg.DPoSV2FirstHeight)
	v.SetDefault("slate-cache-size", cfg.SlateCacheSize)

	err := v.ReadInConfig()
	if err != nil {
		return Config{}, fmt.Errorf("could not read config %s: %w", path, err)
	}
	err = v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("could not unmarshal config %s: %w", path, err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BindFlags registers the scalar constants on the given flag set, with
// the current values as defaults.
func (c *Config) BindFlags(flags *pflag.FlagSet) {
	flags.Uint64Var(&c.ActiveDelegates, "active-delegates", c.ActiveDelegates, "number of forging slots per round")
	flags.Uint64Var(&c.DPoSV2FirstHeight, "dposv2-first-height", c.DPoSV2FirstHeight, "first height of weighted stochastic delegate selection")
}

// Validate checks the constants for internal consistency, reporting
// all violations at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.ActiveDelegates == 0 {
		result = multierror.Append(result, fmt.Errorf("active delegates must be positive"))
	}
	if c.SlateCacheSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("slate cache size must be positive"))
	}
	if !sort.SliceIsSorted(c.RewardSchedule, func(i, j int) bool {
		return c.RewardSchedule[i].Height < c.RewardSchedule[j].Height
	}) {
		result = multierror.Append(result, fmt.Errorf("reward schedule must be ordered by ascending height"))
	}
	return result.ErrorOrNil()
}

// RewardAt returns the block reward for the given height according to
// the milestone schedule.
func (c Config) RewardAt(height uint64) int64 {
	reward := int64(0)
	for _, milestone := range c.RewardSchedule {
		if height < milestone.Height {
			break
		}
		reward = milestone.Reward
	}
	return reward
}
