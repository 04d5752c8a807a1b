// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import "github.com/vechain/settlement/primitives"

// TokenRegistry resolves the bridge registration of the native token.
type TokenRegistry interface {
	NativeTokenID() (primitives.Bytes32, bool)
}

// StaticTokenRegistry is a TokenRegistry with a fixed id. The zero id means unregistered.
type StaticTokenRegistry primitives.Bytes32

func (r StaticTokenRegistry) NativeTokenID() (primitives.Bytes32, bool) {
	id := primitives.Bytes32(r)
	return id, !id.IsZero()
}
