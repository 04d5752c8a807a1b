// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/settlement"
)

// OnEraEnd releases the inflation of an ending era. Nothing happens when no points were awarded.
// Otherwise the performance scaled inflation is minted, and the rewards share is sent with the
// merkle root of the era table. Minting failures are returned and nothing is sent; delivery
// failures are logged and the message is lost.
func (l *Ledger) OnEraEnd(ended uint32) error {
	utils, err := l.GenerateEraRewardsUtils(ended, nil)
	if err != nil {
		return err
	}
	if utils == nil || utils.TotalPoints == 0 {
		logger.Info("no reward points in era, release suppressed", "era", ended)
		return nil
	}
	if l.config.Inflation == nil {
		return errors.New("no inflation distributor")
	}

	produced, err := l.BlocksProducedInEra(ended)
	if err != nil {
		return err
	}
	calc := l.config.Inflation.Calculator()
	scaled := calc.ScaledEraInflation(produced)
	logger.Debug("releasing era rewards", "era", ended, "produced", produced, "percent", calc.InflationPercent(produced), "amount", scaled)

	_, rewardsAmount, err := l.config.Inflation.Mint(ended, scaled)
	if err != nil {
		return errors.Wrapf(err, "failed to mint inflation of era %d", ended)
	}
	l.config.Events.Emit(events.EraRewardsReleased{
		Era:             ended,
		InflationAmount: rewardsAmount,
		TotalPoints:     utils.TotalPoints,
	})

	if l.config.Adapter == nil {
		logger.Warn("no rewards adapter, message not sent", "era", ended)
		return nil
	}
	msg := &settlement.RewardsMessage{
		Era:               ended,
		TotalPoints:       utils.TotalPoints,
		InflationAmount:   new(big.Int).Set(rewardsAmount),
		RewardsMerkleRoot: utils.RewardsMerkleRoot,
		Points:            utils.Points,
	}
	id, err := settlement.Send(l.config.Adapter, msg)
	if err != nil {
		logger.Error("rewards message dropped", "era", ended, "root", utils.RewardsMerkleRoot, "err", err)
		return nil
	}

	_, dust := settlement.ComputeShares(utils.Points, utils.TotalPoints, rewardsAmount)
	l.config.Events.Emit(events.RewardsMessageSent{
		MessageID:         id,
		Era:               ended,
		RewardsMerkleRoot: utils.RewardsMerkleRoot,
		TotalPoints:       utils.TotalPoints,
		InflationAmount:   rewardsAmount,
		Dust:              dust,
	})
	logger.Info("era rewards released", "era", ended, "id", id, "amount", rewardsAmount, "dust", dust)
	return nil
}
