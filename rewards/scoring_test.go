// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
)

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name     string
		authored uint32
		expected uint32
		online   bool
		want     primitives.Perbill
	}{
		{"perfect", 4, 4, true, primitives.PerbillOne},
		{"over production is capped", 9, 4, true, primitives.PerbillOne},
		{"offline producer", 4, 4, false, primitives.PerbillFromPercent(70)},
		{"online idle", 0, 4, true, primitives.PerbillFromPercent(50)},
		{"offline idle keeps the base", 0, 4, false, primitives.PerbillFromPercent(20)},
		{"half production", 1, 2, false, primitives.PerbillFromPercent(45)},
		{"zero expected", 0, 0, false, primitives.PerbillFromPercent(20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeightedScore(tt.authored, tt.expected, tt.online))
		})
	}
}

func TestExpectedBlocksPerValidator(t *testing.T) {
	assert.Equal(t, uint32(1), ExpectedBlocksPerValidator(0, 4))
	assert.Equal(t, uint32(1), ExpectedBlocksPerValidator(3, 4))
	assert.Equal(t, uint32(2), ExpectedBlocksPerValidator(9, 4))
	assert.Equal(t, uint32(9), ExpectedBlocksPerValidator(9, 0))
}

func TestSessionPoints(t *testing.T) {
	assert.Equal(t, uint32(320), SessionPoints(primitives.PerbillOne, 320))
	assert.Equal(t, uint32(224), SessionPoints(primitives.PerbillFromPercent(70), 320))
	assert.Equal(t, uint32(0), SessionPoints(primitives.PerbillFromPercent(20), 4))
}

func TestOnSessionEnd(t *testing.T) {
	whitelisted := addr(4)
	env := newTestEnv(t, 4, whitelisted)
	env.eras.set(2)
	env.validators.active = []primitives.Address{addr(1), addr(2), addr(3), whitelisted, addr(5)}
	env.validators.online[addr(1)] = true
	env.validators.online[addr(3)] = true
	env.validators.online[addr(5)] = true
	env.slashing[2] = []primitives.Address{addr(5)}

	author := func(v primitives.Address, n int) {
		for range n {
			require.NoError(t, env.ledger.NoteBlockAuthor(v))
		}
	}
	author(addr(1), 2)
	author(addr(2), 4)
	author(whitelisted, 2)
	author(addr(5), 2)

	require.NoError(t, env.ledger.OnSessionEnd())

	table, err := env.ledger.EraRewardPoints(2)
	require.NoError(t, err)
	assert.Equal(t, []settlement.ValidatorPoints{
		{Validator: addr(1), Points: 320},
		{Validator: addr(2), Points: 224},
		{Validator: addr(3), Points: 160},
	}, table.Individual)
	assert.Equal(t, uint32(704), table.Total)

	authored, err := env.ledger.BlocksAuthoredInSession(addr(2))
	require.NoError(t, err)
	assert.Zero(t, authored)

	// the era counter survives the session
	produced, err := env.ledger.BlocksProducedInEra(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), produced)

	// an empty session still grants the base and liveness parts
	require.NoError(t, env.ledger.OnSessionEnd())
	table, err = env.ledger.EraRewardPoints(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(704+160+64+160), table.Total)
}
