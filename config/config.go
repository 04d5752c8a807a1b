// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config defines the yaml configuration of the settlement engine.
package config

import (
	"bytes"
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/slashing"
)

type Config struct {
	Eras       Eras       `yaml:"eras"`
	Slashing   Slashing   `yaml:"slashing"`
	Rewards    Rewards    `yaml:"rewards"`
	Inflation  Inflation  `yaml:"inflation"`
	Settlement Settlement `yaml:"settlement"`
	Bridge     Bridge     `yaml:"bridge"`
	Storage    Storage    `yaml:"storage"`
}

type Eras struct {
	BondingDuration    uint32 `yaml:"bonding_duration"`
	SlashDeferDuration uint32 `yaml:"slash_defer_duration"`
	HistoryDepth       uint32 `yaml:"history_depth"`
	SessionsPerEra     uint32 `yaml:"sessions_per_era"`
	BlocksPerSession   uint32 `yaml:"blocks_per_session"`
	BlockTimeMs        uint64 `yaml:"block_time_ms"`
}

type Slashing struct {
	// QueueLimit is the number of queued slashes sent per block.
	QueueLimit    int                  `yaml:"queue_limit"`
	MaxWad        *big.Int             `yaml:"max_wad"`
	Mode          string               `yaml:"mode"`
	PruneLimit    int                  `yaml:"prune_limit"`
	Strategies    []primitives.Address `yaml:"strategies"`
	Invulnerables []primitives.Address `yaml:"invulnerables"`
	Gas           uint64               `yaml:"gas"`
}

type Rewards struct {
	BaseRewardPoints uint32               `yaml:"base_reward_points"`
	Whitelist        []primitives.Address `yaml:"whitelist"`
	CacheSize        int                  `yaml:"cache_size"`
}

type Inflation struct {
	AnnualInflation    *big.Int           `yaml:"annual_inflation"`
	MinPercent         Percent            `yaml:"min_percent"`
	MaxPercent         Percent            `yaml:"max_percent"`
	TreasuryProportion Percent            `yaml:"treasury_proportion"`
	Treasury           primitives.Address `yaml:"treasury"`
	RewardsPool        primitives.Address `yaml:"rewards_pool"`
}

type Strategy struct {
	Address    primitives.Address `yaml:"address"`
	Multiplier *big.Int           `yaml:"multiplier"`
}

type Settlement struct {
	GenesisTimestamp uint64             `yaml:"genesis_timestamp"`
	Period           uint64             `yaml:"period"`
	TokenID          primitives.Bytes32 `yaml:"token_id"`
	Token            primitives.Address `yaml:"token"`
	ServiceManager   primitives.Address `yaml:"service_manager"`
	RewardsAgent     primitives.Address `yaml:"rewards_agent"`
	Strategies       []Strategy         `yaml:"strategies"`
	Description      string             `yaml:"description"`
	Gas              uint64             `yaml:"gas"`
}

type Bridge struct {
	MaxMessageSize int      `yaml:"max_message_size"`
	BaseFee        *big.Int `yaml:"base_fee"`
	FeePerByte     *big.Int `yaml:"fee_per_byte"`
	FeeBudget      *big.Int `yaml:"fee_budget"`
}

type Storage struct {
	Path    string `yaml:"path"`
	CacheMB int    `yaml:"cache_mb"`
}

// Default returns a configuration with one era per day, 6 sessions of 2400 six second blocks.
func Default() *Config {
	return &Config{
		Eras: Eras{
			BondingDuration:    28,
			SlashDeferDuration: 27,
			HistoryDepth:       84,
			SessionsPerEra:     6,
			BlocksPerSession:   2400,
			BlockTimeMs:        6000,
		},
		Slashing: Slashing{
			QueueLimit: 20,
			MaxWad:     new(big.Int).SetUint64(primitives.WadUnit),
			Mode:       slashing.Enabled.String(),
			PruneLimit: 1000,
			Gas:        1_000_000,
		},
		Rewards: Rewards{
			BaseRewardPoints: 320,
			CacheSize:        16,
		},
		Inflation: Inflation{
			AnnualInflation:    new(big.Int).Mul(big.NewInt(100_000_000), big.NewInt(primitives.WadUnit)),
			MinPercent:         Percent(primitives.PerbillFromPercent(90)),
			MaxPercent:         Percent(primitives.PerbillOne),
			TreasuryProportion: Percent(primitives.PerbillFromPercent(20)),
		},
		Settlement: Settlement{
			Period:      86_400,
			Description: "validator rewards",
			Gas:         1_000_000,
		},
		Bridge: Bridge{
			MaxMessageSize: 64 * 1024,
		},
		Storage: Storage{
			CacheMB: 64,
		},
	}
}

// Load decodes yaml on top of the defaults. Unknown fields are rejected.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the config at path, the defaults when path is empty.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	return Load(bytes.NewReader(content))
}

// Encode writes the config as yaml.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks the config ranges.
func (c *Config) Validate() error {
	switch {
	case c.Eras.BondingDuration == 0:
		return errors.New("eras.bonding_duration must be positive")
	case c.Eras.SlashDeferDuration >= c.Eras.BondingDuration:
		return errors.New("eras.slash_defer_duration must be less than eras.bonding_duration")
	case c.Eras.HistoryDepth == 0:
		return errors.New("eras.history_depth must be positive")
	case c.Eras.SessionsPerEra == 0 || c.Eras.BlocksPerSession == 0:
		return errors.New("eras.sessions_per_era and eras.blocks_per_session must be positive")
	case c.Eras.BlockTimeMs == 0:
		return errors.New("eras.block_time_ms must be positive")
	case c.Slashing.QueueLimit <= 0:
		return errors.New("slashing.queue_limit must be positive")
	case c.Slashing.MaxWad == nil || c.Slashing.MaxWad.Sign() <= 0 || c.Slashing.MaxWad.BitLen() > 256:
		return errors.New("slashing.max_wad must be a positive 256 bit integer")
	case c.Inflation.AnnualInflation == nil || c.Inflation.AnnualInflation.Sign() < 0:
		return errors.New("inflation.annual_inflation must not be negative")
	case c.Inflation.MinPercent > c.Inflation.MaxPercent:
		return errors.New("inflation.min_percent must not exceed inflation.max_percent")
	case c.Inflation.MaxPercent.Perbill() > primitives.PerbillOne || c.Inflation.TreasuryProportion.Perbill() > primitives.PerbillOne:
		return errors.New("inflation percentages must not exceed 100%")
	case c.Settlement.Period == 0:
		return errors.New("settlement.period must be positive")
	case c.Rewards.CacheSize <= 0:
		return errors.New("rewards.cache_size must be positive")
	}
	if _, err := slashing.ParseMode(c.Slashing.Mode); err != nil {
		return errors.Wrap(err, "slashing.mode")
	}
	for _, s := range c.Settlement.Strategies {
		if s.Multiplier == nil || s.Multiplier.Sign() < 0 {
			return errors.Errorf("settlement.strategies: invalid multiplier for %v", s.Address)
		}
	}
	return nil
}
