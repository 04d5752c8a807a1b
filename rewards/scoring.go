// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/pkg/errors"

	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
)

// Score weights, in billionths. They add up to one.
const (
	blockWeight    = 500_000_000
	livenessWeight = 300_000_000
	baseWeight     = 200_000_000
)

// ExpectedBlocksPerValidator is the fair share of the session blocks, at least one.
func ExpectedBlocksPerValidator(sessionBlocks uint32, validators int) uint32 {
	if validators <= 0 {
		return max(sessionBlocks, 1)
	}
	return max(sessionBlocks/uint32(validators), 1)
}

// WeightedScore is half the block production ratio, capped at one, plus 30% when online plus a
// 20% base.
func WeightedScore(authored, expected uint32, online bool) primitives.Perbill {
	expected = max(expected, 1)
	block := primitives.PerbillFromRational(uint64(min(authored, expected)), uint64(expected))

	parts := uint64(block.Parts()) * blockWeight / primitives.PerbillAccuracy
	if online {
		parts += livenessWeight
	}
	parts += baseWeight
	return primitives.Perbill(min(parts, primitives.PerbillAccuracy))
}

// SessionPoints converts a score into points, floor(score * base).
func SessionPoints(score primitives.Perbill, base uint32) uint32 {
	return uint32(score.MulFloorUint64(uint64(base)))
}

// OnSessionEnd scores every active validator for the ending session, awards the points in the
// active era and resets the session counters. Whitelisted validators are not scored and validators
// slashed in the active era get nothing.
func (l *Ledger) OnSessionEnd() error {
	current, err := l.activeEra()
	if err != nil {
		return err
	}
	validators, err := l.config.Validators.ActiveValidators()
	if err != nil {
		return errors.Wrap(err, "failed to get active validators")
	}
	sessionBlocks, err := l.sessionBlocks.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get session blocks")
	}
	expected := ExpectedBlocksPerValidator(sessionBlocks, len(validators))
	logger.Debug("scoring session", "era", current, "validators", len(validators), "blocks", sessionBlocks, "expected", expected)

	var awards []settlement.ValidatorPoints
	for _, v := range validators {
		if primitives.ContainsAddress(l.config.Whitelist, v) {
			continue
		}
		if l.config.Slashing != nil {
			slashed, err := l.config.Slashing.HasSlashInEra(current, v)
			if err != nil {
				return errors.Wrap(err, "failed to check slash in era")
			}
			if slashed {
				logger.Debug("session reward nullified", "era", current, "validator", v)
				continue
			}
		}
		authored, err := l.authored.Get(v)
		if err != nil {
			return errors.Wrap(err, "failed to get authored blocks")
		}
		points := SessionPoints(WeightedScore(authored, expected, l.config.Validators.IsOnline(v)), l.config.BaseRewardPoints)
		if points > 0 {
			awards = append(awards, settlement.ValidatorPoints{Validator: v, Points: points})
		}
	}
	if err := l.RewardByIDs(awards); err != nil {
		return err
	}

	if _, _, err := l.authored.Clear(0); err != nil {
		return errors.Wrap(err, "failed to clear authored blocks")
	}
	if err := l.sessionBlocks.Delete(); err != nil {
		return errors.Wrap(err, "failed to clear session blocks")
	}
	logger.Info("session scored", "era", current, "awarded", len(awards))
	return nil
}
