// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"
	"slices"

	"github.com/vechain/settlement/primitives"
)

// ValidatorPoints is one row of an era rewards table.
type ValidatorPoints struct {
	Validator primitives.Address
	Points    uint32
}

// RewardsMessage is the payload of the rewards adapter.
type RewardsMessage struct {
	Era               uint32
	TotalPoints       uint64
	InflationAmount   *big.Int
	RewardsMerkleRoot primitives.Bytes32
	Points            []ValidatorPoints
}

// Share is the amount owed to one operator.
type Share struct {
	Operator primitives.Address
	Amount   *big.Int
}

// ComputeShares splits inflation proportionally to points, floor(points * inflation / total).
// Zero shares are dropped and the result is sorted by operator. The returned dust is the part of
// inflation not attributed to anybody, so that the sum of shares plus dust equals inflation.
func ComputeShares(points []ValidatorPoints, totalPoints uint64, inflation *big.Int) (shares []Share, dust *big.Int) {
	dust = new(big.Int).Set(inflation)
	if totalPoints == 0 || inflation.Sign() <= 0 {
		return nil, dust
	}

	total := new(big.Int).SetUint64(totalPoints)
	for _, p := range points {
		amount := new(big.Int).SetUint64(uint64(p.Points))
		amount.Mul(amount, inflation)
		amount.Quo(amount, total)
		if amount.Sign() == 0 {
			continue
		}
		dust.Sub(dust, amount)
		shares = append(shares, Share{Operator: p.Validator, Amount: amount})
	}
	slices.SortFunc(shares, func(a, b Share) int {
		return a.Operator.Compare(b.Operator)
	})
	return shares, dust
}

// RewardsConfig configures the rewards message.
type RewardsConfig struct {
	ServiceManager   primitives.Address
	RewardsAgent     primitives.Address
	Token            primitives.Address
	Strategies       []StrategyAndMultiplier
	GenesisTimestamp uint64
	Period           uint64
	Description      string
	Gas              uint64
}

// RewardsBuilder builds the rewards submission of an era.
type RewardsBuilder struct {
	config   RewardsConfig
	registry TokenRegistry
	clock    Clock
}

func NewRewardsBuilder(config RewardsConfig, registry TokenRegistry, clock Clock) *RewardsBuilder {
	return &RewardsBuilder{config: config, registry: registry, clock: clock}
}

// Build returns a message minting the distributed amount to the rewards agent, followed by the
// submitRewards call. It returns nil, and logs why, when nothing can be sent.
func (b *RewardsBuilder) Build(data *RewardsMessage) *Message {
	tokenID, ok := b.registry.NativeTokenID()
	if !ok {
		logger.Error("rewards not built: native token not registered", "era", data.Era)
		return nil
	}
	if b.config.ServiceManager.IsZero() || b.config.RewardsAgent.IsZero() || b.config.Token.IsZero() {
		logger.Error("rewards not built: settlement or token address not set", "era", data.Era)
		return nil
	}
	if data.InflationAmount == nil || data.InflationAmount.Sign() <= 0 || data.TotalPoints == 0 {
		logger.Error("rewards not built: nothing to distribute", "era", data.Era, "inflation", data.InflationAmount, "points", data.TotalPoints)
		return nil
	}

	shares, dust := ComputeShares(data.Points, data.TotalPoints, data.InflationAmount)
	if len(shares) == 0 {
		logger.Error("rewards not built: empty operator rewards", "era", data.Era)
		return nil
	}

	distributed := new(big.Int).Sub(data.InflationAmount, dust)
	// the mint command carries a uint128 amount
	if !fitsUint(distributed, 128) {
		logger.Error("rewards not built: amount overflows uint128", "era", data.Era, "amount", distributed)
		return nil
	}

	start := AlignSubmissionStart(b.config.GenesisTimestamp, b.clock.Now(), b.config.Period)
	if !fitsUint32(start) || !fitsUint32(b.config.Period) {
		logger.Error("rewards not built: timestamp overflows uint32", "era", data.Era, "start", start, "period", b.config.Period)
		return nil
	}

	submission := RewardsSubmission{
		Token:          b.config.Token.Common(),
		StartTimestamp: uint32(start),
		Duration:       uint32(b.config.Period),
		Description:    b.config.Description,
	}
	for _, s := range b.config.Strategies {
		if !fitsUint(s.Multiplier, 96) {
			logger.Error("rewards not built: multiplier overflows uint96", "era", data.Era, "strategy", s.Strategy, "multiplier", s.Multiplier)
			return nil
		}
		submission.StrategiesAndMultipliers = append(submission.StrategiesAndMultipliers, s)
	}
	for _, s := range shares {
		if !fitsUint(s.Amount, 256) {
			logger.Error("rewards not built: reward overflows uint256", "era", data.Era, "operator", s.Operator)
			return nil
		}
		submission.OperatorRewards = append(submission.OperatorRewards, OperatorReward{
			Operator: s.Operator.Common(),
			Amount:   s.Amount,
		})
	}

	calldata, err := EncodeSubmitRewards(submission)
	if err != nil {
		logger.Error("rewards not built: failed to encode submission", "era", data.Era, "err", err)
		return nil
	}

	logger.Debug("rewards message built",
		"era", data.Era,
		"operators", len(shares),
		"amount", distributed,
		"dust", dust,
		"start", start,
	)
	return &Message{
		Commands: []*Command{
			NewMintCommand(tokenID, b.config.RewardsAgent, distributed),
			NewCallCommand(b.config.ServiceManager, calldata, b.config.Gas),
		},
	}
}
