// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package inflation

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
)

var (
	treasuryAccount = primitives.MustParseAddress("0x0000000000000000000000000000000000007ea5")
	poolAccount     = primitives.MustParseAddress("0x0000000000000000000000000000000000000001")
)

func TestBalancesMint(t *testing.T) {
	b := NewBalances(kv.NewMem())

	bal, err := b.BalanceOf(poolAccount)
	require.NoError(t, err)
	assert.Equal(t, 0, bal.Sign())

	require.NoError(t, b.Mint(poolAccount, big.NewInt(10)))
	require.NoError(t, b.Mint(poolAccount, big.NewInt(5)))
	require.NoError(t, b.Mint(treasuryAccount, big.NewInt(1)))

	bal, err = b.BalanceOf(poolAccount)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(15), bal)

	total, err := b.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(16), total)
}

func TestBalancesOverflow(t *testing.T) {
	b := NewBalances(kv.NewMem())
	maxU256 := new(uint256.Int).SetAllOne().ToBig()

	require.NoError(t, b.Mint(poolAccount, maxU256))
	assert.ErrorIs(t, b.CheckMint(treasuryAccount, big.NewInt(1)), ErrBalanceOverflow)
	assert.ErrorIs(t, b.Mint(poolAccount, big.NewInt(1)), ErrBalanceOverflow)
	assert.ErrorIs(t, b.CheckMint(poolAccount, big.NewInt(-1)), ErrBalanceOverflow)
}

func TestDistributorMint(t *testing.T) {
	balances := NewBalances(kv.NewMem())
	rec := events.NewRecorder()
	d := NewDistributor(newTestCalculator(), balances, treasuryAccount, poolAccount, rec)

	treasury, rewards, err := d.Mint(3, big.NewInt(1001))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(200), treasury)
	assert.Equal(t, big.NewInt(801), rewards)

	got, err := balances.BalanceOf(treasuryAccount)
	require.NoError(t, err)
	assert.Equal(t, treasury, got)
	got, err = balances.BalanceOf(poolAccount)
	require.NoError(t, err)
	assert.Equal(t, rewards, got)

	minted := events.Filter[events.InflationMinted](rec)
	require.Len(t, minted, 1)
	assert.Equal(t, uint32(3), minted[0].Era)

	_, _, err = d.Mint(4, big.NewInt(0))
	assert.ErrorIs(t, err, ErrZeroInflation)
}

func TestDistributorMintIsAllOrNothing(t *testing.T) {
	balances := NewBalances(kv.NewMem())
	d := NewDistributor(newTestCalculator(), balances, treasuryAccount, poolAccount, nil)

	// the pool is full, the treasury share must not be minted either
	require.NoError(t, balances.Mint(poolAccount, new(uint256.Int).SetAllOne().ToBig()))
	before, err := balances.BalanceOf(treasuryAccount)
	require.NoError(t, err)

	_, _, err = d.Mint(1, big.NewInt(100))
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	after, err := balances.BalanceOf(treasuryAccount)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
