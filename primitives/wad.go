// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package primitives

import (
	"github.com/holiman/uint256"
)

// WadUnit is the 1e18 fixed-point scale used by the settlement contract.
const WadUnit = 1_000_000_000_000_000_000

// MaxWad returns 1e18, the WAD value of a whole.
func MaxWad() *uint256.Int {
	return uint256.NewInt(WadUnit)
}

// PerbillToWad converts a fraction to the WAD scale, truncating:
// wad = parts * maxWad / 1e9.
func PerbillToWad(p Perbill, maxWad *uint256.Int) *uint256.Int {
	return p.MulFloorUint256(maxWad)
}
