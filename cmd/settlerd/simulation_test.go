// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/config"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Eras = config.Eras{
		BondingDuration:    4,
		SlashDeferDuration: 1,
		HistoryDepth:       8,
		SessionsPerEra:     2,
		BlocksPerSession:   5,
		BlockTimeMs:        6000,
	}
	strategy := primitives.MustParseAddress("0x00000000000000000000000000000000000000b1")
	cfg.Slashing.Strategies = []primitives.Address{strategy}
	cfg.Settlement.ServiceManager = primitives.MustParseAddress("0x00000000000000000000000000000000000000a1")
	cfg.Settlement.RewardsAgent = primitives.MustParseAddress("0x00000000000000000000000000000000000000a2")
	cfg.Settlement.Token = primitives.MustParseAddress("0x00000000000000000000000000000000000000c1")
	cfg.Settlement.TokenID = primitives.Keccak256([]byte("native"))
	cfg.Settlement.Strategies = []config.Strategy{{Address: strategy, Multiplier: big.NewInt(1)}}
	return cfg
}

func newTestSimulator(t *testing.T, db kv.Store, offenceRate float64) *simulator {
	sim, err := newSimulator(db, testConfig(), simulationOptions{
		Validators:  4,
		OffenceRate: offenceRate,
		Seed:        7,
	})
	require.NoError(t, err)
	return sim
}

func TestSimulationReleasesEveryEra(t *testing.T) {
	sim := newTestSimulator(t, kv.NewMem(), 0)
	require.NoError(t, sim.Run(context.Background(), 3))

	assert.Equal(t, uint32(3), sim.nextEra)
	assert.Equal(t, uint32(6), sim.nextSession)
	assert.Equal(t, uint64(30), sim.blocks)
	assert.Zero(t, sim.offences)

	delivered, err := sim.outbox.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), delivered)
}

func TestSimulationSlashes(t *testing.T) {
	sim := newTestSimulator(t, kv.NewMem(), 1)
	require.NoError(t, sim.Run(context.Background(), 4))

	assert.Equal(t, uint64(40), sim.offences)
	nextID, err := sim.engine.Slashing().NextSlashID()
	require.NoError(t, err)
	assert.Positive(t, nextID)

	// slashes of era 0 were confirmed when era 2 started and drained since
	slashes, err := sim.engine.Slashing().Slashes(2)
	require.NoError(t, err)
	require.NotEmpty(t, slashes)
	assert.True(t, slashes[0].Confirmed)
}

func TestSimulationResumes(t *testing.T) {
	db := kv.NewMem()
	require.NoError(t, newTestSimulator(t, db, 0).Run(context.Background(), 2))

	resumed := newTestSimulator(t, db, 0)
	assert.Equal(t, uint32(2), resumed.nextEra)
	assert.Equal(t, uint32(4), resumed.nextSession)
	require.NoError(t, resumed.Run(context.Background(), 1))

	delivered, err := resumed.outbox.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), delivered)
}

func TestSimulationStopsOnCancel(t *testing.T) {
	sim := newTestSimulator(t, kv.NewMem(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sim.Run(ctx, 3))
	assert.Zero(t, sim.blocks)
}

func TestValidatorSet(t *testing.T) {
	set := newValidatorSet(3)
	all, err := set.ActiveValidators()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.NotEqual(t, all[0], all[1])

	set.online[all[1]] = false
	assert.False(t, set.IsOnline(all[1]))
	assert.Equal(t, []primitives.Address{all[0], all[2]}, set.onlineValidators())
}
