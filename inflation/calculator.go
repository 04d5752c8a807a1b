// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package inflation computes the per era inflation and mints it to the treasury and the rewards pool.
package inflation

import (
	"math/big"

	"github.com/vechain/settlement/primitives"
)

// MillisecondsPerYear is the length of a julian year, 365.25 days.
const MillisecondsPerYear = 31_557_600_000

// Params configure the Calculator.
type Params struct {
	// AnnualInflation is the fixed amount minted per year at full performance.
	AnnualInflation *big.Int
	// MinPercent and MaxPercent bound the share of the era inflation actually minted,
	// depending on the fraction of expected blocks produced.
	MinPercent primitives.Perbill
	MaxPercent primitives.Perbill
	// TreasuryProportion is the share of the minted amount going to the treasury.
	TreasuryProportion primitives.Perbill

	SessionsPerEra   uint32
	BlocksPerSession uint32
	BlockTimeMs      uint64
}

// Calculator implements a linear, supply independent, inflation schedule.
type Calculator struct {
	params Params
}

func NewCalculator(params Params) *Calculator {
	if params.AnnualInflation == nil {
		params.AnnualInflation = new(big.Int)
	}
	return &Calculator{params: params}
}

// ExpectedBlocks is the number of blocks of an era.
func (c *Calculator) ExpectedBlocks() uint64 {
	return uint64(c.params.SessionsPerEra) * uint64(c.params.BlocksPerSession)
}

// ErasPerYear derives the number of eras per year from the era length, at least one.
func (c *Calculator) ErasPerYear() uint64 {
	eraMs := c.ExpectedBlocks() * c.params.BlockTimeMs
	if eraMs == 0 {
		return 1
	}
	return max(MillisecondsPerYear/eraMs, 1)
}

// EraInflation is the unscaled amount of one era.
func (c *Calculator) EraInflation() *big.Int {
	return new(big.Int).Quo(c.params.AnnualInflation, new(big.Int).SetUint64(c.ErasPerYear()))
}

// PerformanceRatio is min(produced, expected) / expected, one when nothing is expected.
func (c *Calculator) PerformanceRatio(produced uint64) primitives.Perbill {
	expected := c.ExpectedBlocks()
	if expected == 0 {
		return primitives.PerbillOne
	}
	return primitives.PerbillFromRational(min(produced, expected), expected)
}

// InflationPercent interpolates between the minimum and maximum percent by the performance ratio.
func (c *Calculator) InflationPercent(produced uint64) primitives.Perbill {
	lo, hi := c.params.MinPercent, c.params.MaxPercent
	if hi < lo {
		hi = lo
	}
	span := uint64(hi.SaturatingSub(lo))
	return lo.SaturatingAdd(primitives.Perbill(c.PerformanceRatio(produced).MulFloorUint64(span)))
}

// Scale applies the performance dependent percent to base.
func (c *Calculator) Scale(base *big.Int, produced uint64) *big.Int {
	return c.InflationPercent(produced).MulFloor(base)
}

// ScaledEraInflation is Scale applied to EraInflation.
func (c *Calculator) ScaledEraInflation(produced uint64) *big.Int {
	return c.Scale(c.EraInflation(), produced)
}

// Split divides total into the treasury share, floored, and the rest for the rewards pool.
func (c *Calculator) Split(total *big.Int) (treasury, rewards *big.Int) {
	treasury = c.params.TreasuryProportion.MulFloor(total)
	rewards = new(big.Int).Sub(total, treasury)
	return treasury, rewards
}
