// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import (
	"math/big"

	"github.com/holiman/uint256"
)

// go-ethereum packs any *big.Int into uint96 or uint128 fields without complaint,
// so widths are checked before encoding.

func fitsUint(x *big.Int, bits int) bool {
	if x == nil || x.Sign() < 0 {
		return false
	}
	if bits == 256 {
		_, overflow := uint256.FromBig(x)
		return !overflow
	}
	return x.BitLen() <= bits
}

func fitsUint32(x uint64) bool {
	return x <= uint64(^uint32(0))
}
