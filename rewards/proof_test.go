// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/merkle"
	"github.com/vechain/settlement/settlement"
	"github.com/vechain/settlement/test/datagen"
)

func TestEncodeLeaf(t *testing.T) {
	leaf := EncodeLeaf(addr(0xaa), 0x01020304)
	require.Len(t, leaf, LeafSize)
	assert.Equal(t, byte(0xaa), leaf[19])
	assert.Equal(t, []byte{1, 2, 3, 4}, leaf[20:])
}

func TestRewardsProofRoundTrip(t *testing.T) {
	env := newTestEnv(t, 4)
	env.eras.set(1)

	validators := datagen.RandAddresses(7)
	var awards []settlement.ValidatorPoints
	// reverse order, the table is sorted anyway
	for i := len(validators) - 1; i >= 0; i-- {
		awards = append(awards, settlement.ValidatorPoints{Validator: validators[i], Points: uint32(10 + i)})
	}
	require.NoError(t, env.ledger.RewardByIDs(awards))

	utils, err := env.ledger.GenerateEraRewardsUtils(1, &validators[3])
	require.NoError(t, err)
	require.NotNil(t, utils.LeafIndex)
	assert.Equal(t, uint64(3), *utils.LeafIndex)
	assert.Len(t, utils.LeavesHashes, 7)
	assert.Equal(t, merkle.RootFromHashes(utils.LeavesHashes), utils.RewardsMerkleRoot)

	var leaves [][]byte
	for i, v := range validators {
		leaves = append(leaves, EncodeLeaf(v, uint32(10+i)))
	}
	assert.Equal(t, merkle.Root(leaves), utils.RewardsMerkleRoot)

	for _, v := range validators {
		proof, err := env.ledger.GenerateRewardsProof(1, v)
		require.NoError(t, err)
		require.NotNil(t, proof)
		ok, err := env.ledger.VerifyRewardsProof(1, proof)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	proof, err := env.ledger.GenerateRewardsProof(1, addr(0xff))
	require.NoError(t, err)
	assert.Nil(t, proof)

	proof, err = env.ledger.GenerateRewardsProof(1, validators[0])
	require.NoError(t, err)
	ok, err := env.ledger.VerifyRewardsProof(2, proof)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRewardsUtilsFollowAccrual(t *testing.T) {
	env := newTestEnv(t, 4)
	env.eras.set(1)

	utils, err := env.ledger.GenerateEraRewardsUtils(1, nil)
	require.NoError(t, err)
	assert.Nil(t, utils)

	require.NoError(t, env.ledger.RewardByIDs([]settlement.ValidatorPoints{{Validator: addr(1), Points: 1}}))
	first, err := env.ledger.GenerateEraRewardsUtils(1, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, env.ledger.RewardByIDs([]settlement.ValidatorPoints{{Validator: addr(1), Points: 1}}))
	second, err := env.ledger.GenerateEraRewardsUtils(1, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.RewardsMerkleRoot, second.RewardsMerkleRoot)
	assert.Equal(t, uint64(2), second.TotalPoints)
}
