// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"slices"

	"github.com/vechain/settlement/primitives"
)

func RandAddress() (addr primitives.Address) {
	rand.Read(addr[:])
	return
}

// RandAddresses returns n distinct random addresses in ascending order.
func RandAddresses(n int) []primitives.Address {
	seen := make(map[primitives.Address]struct{}, n)
	addrs := make([]primitives.Address, 0, n)
	for len(addrs) < n {
		a := RandAddress()
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		addrs = append(addrs, a)
	}
	slices.SortFunc(addrs, primitives.Address.Compare)
	return addrs
}
