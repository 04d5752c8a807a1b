// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package primitives

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestPerbillFromPercent(t *testing.T) {
	assert.Equal(t, Perbill(0), PerbillFromPercent(0))
	assert.Equal(t, Perbill(500_000_000), PerbillFromPercent(50))
	assert.Equal(t, PerbillOne, PerbillFromPercent(100))
	assert.Equal(t, PerbillOne, PerbillFromPercent(250))
}

func TestPerbillFromRational(t *testing.T) {
	tests := []struct {
		n, d uint64
		want Perbill
	}{
		{0, 10, 0},
		{1, 3, 333_333_333},
		{2, 3, 666_666_666},
		{5, 5, PerbillOne},
		{7, 5, PerbillOne},
		{1, 0, PerbillOne},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PerbillFromRational(tt.n, tt.d), "%d/%d", tt.n, tt.d)
	}
}

func TestPerbillSaturating(t *testing.T) {
	assert.Equal(t, PerbillOne, PerbillFromPercent(70).SaturatingAdd(PerbillFromPercent(40)))
	assert.Equal(t, PerbillFromPercent(90), PerbillFromPercent(50).SaturatingAdd(PerbillFromPercent(40)))
	assert.Equal(t, Perbill(0), PerbillFromPercent(10).SaturatingSub(PerbillFromPercent(40)))
	assert.Equal(t, PerbillFromPercent(30), PerbillFromPercent(70).SaturatingSub(PerbillFromPercent(40)))
}

func TestPerbillMulFloor(t *testing.T) {
	assert.Equal(t, big.NewInt(33), PerbillFromRational(1, 3).MulFloor(big.NewInt(100)))
	assert.Equal(t, uint64(0), PerbillFromRational(1, 3).MulFloorUint64(1))
	assert.Equal(t, uint64(75), PerbillFromPercent(75).MulFloorUint64(100))

	v := big.NewInt(1000)
	PerbillFromPercent(10).MulFloor(v)
	assert.Equal(t, big.NewInt(1000), v, "input must not be mutated")
}

func TestPerbillString(t *testing.T) {
	assert.Equal(t, "50.0000000%", PerbillFromPercent(50).String())
	assert.Equal(t, "0.0000001%", Perbill(1).String())
}

func TestPerbillToWad(t *testing.T) {
	maxWad := MaxWad()
	for _, p := range []uint32{0, 50, 75, 100} {
		want := new(uint256.Int).Div(new(uint256.Int).Mul(uint256.NewInt(uint64(p)), maxWad), uint256.NewInt(100))
		assert.Equal(t, want, PerbillToWad(PerbillFromPercent(p), maxWad), "percent %d", p)
	}

	// truncation of a non-terminating fraction
	got := PerbillToWad(PerbillFromRational(1, 3), uint256.NewInt(10))
	assert.Equal(t, uint256.NewInt(3), got)
}
