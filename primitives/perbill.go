// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package primitives

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// PerbillAccuracy is the number of parts in one whole Perbill.
const PerbillAccuracy = 1_000_000_000

var bigAccuracy = big.NewInt(PerbillAccuracy)

// Perbill is a fraction in [0, 1] expressed in billionths.
type Perbill uint32

// PerbillOne is the whole, 100%.
const PerbillOne = Perbill(PerbillAccuracy)

// PerbillFromPercent returns p%, saturating at 100%.
func PerbillFromPercent(p uint32) Perbill {
	if p > 100 {
		p = 100
	}
	return Perbill(p * (PerbillAccuracy / 100))
}

// PerbillFromParts returns the fraction parts/1e9, saturating at one.
func PerbillFromParts(parts uint32) Perbill {
	if parts > PerbillAccuracy {
		return PerbillOne
	}
	return Perbill(parts)
}

// PerbillFromRational returns the largest fraction not greater than n/d.
// A zero denominator, or n >= d, yields one.
func PerbillFromRational(n, d uint64) Perbill {
	if d == 0 || n >= d {
		return PerbillOne
	}
	q := new(big.Int).Mul(new(big.Int).SetUint64(n), bigAccuracy)
	q.Quo(q, new(big.Int).SetUint64(d))
	return Perbill(q.Uint64())
}

// Parts returns the raw billionths.
func (p Perbill) Parts() uint32 {
	return uint32(p)
}

// IsZero reports whether the fraction is zero.
func (p Perbill) IsZero() bool {
	return p == 0
}

// SaturatingAdd adds two fractions, capping at one.
func (p Perbill) SaturatingAdd(o Perbill) Perbill {
	sum := uint64(p) + uint64(o)
	if sum > PerbillAccuracy {
		return PerbillOne
	}
	return Perbill(sum)
}

// SaturatingSub subtracts o, flooring at zero.
func (p Perbill) SaturatingSub(o Perbill) Perbill {
	if o >= p {
		return 0
	}
	return p - o
}

// MulFloor returns floor(p * v). v is not modified.
func (p Perbill) MulFloor(v *big.Int) *big.Int {
	r := new(big.Int).Mul(v, big.NewInt(int64(p)))
	return r.Quo(r, bigAccuracy)
}

// MulFloorUint64 returns floor(p * v).
func (p Perbill) MulFloorUint64(v uint64) uint64 {
	return p.MulFloor(new(big.Int).SetUint64(v)).Uint64()
}

// MulFloorUint256 returns floor(p * v).
func (p Perbill) MulFloorUint256(v *uint256.Int) *uint256.Int {
	// p <= 1, the result never exceeds v
	z, _ := new(uint256.Int).MulDivOverflow(v, uint256.NewInt(uint64(p)), uint256.NewInt(PerbillAccuracy))
	return z
}

func (p Perbill) String() string {
	return fmt.Sprintf("%d.%07d%%", p/10_000_000, p%10_000_000)
}
