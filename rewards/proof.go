// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"encoding/binary"
	"slices"

	"github.com/vechain/settlement/merkle"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
)

// LeafSize is the size of an encoded leaf, the validator address followed by its points.
const LeafSize = primitives.AddressLength + 4

// EncodeLeaf encodes a (validator, points) pair as a merkle leaf.
func EncodeLeaf(validator primitives.Address, points uint32) []byte {
	leaf := make([]byte, LeafSize)
	copy(leaf, validator[:])
	binary.BigEndian.PutUint32(leaf[primitives.AddressLength:], points)
	return leaf
}

// bundle is the memoised merkle tree of an era.
type bundle struct {
	total  uint32
	points []settlement.ValidatorPoints
	leaves [][]byte
	hashes []primitives.Bytes32
	root   primitives.Bytes32
}

func (b *bundle) index(validator primitives.Address) (int, bool) {
	return slices.BinarySearchFunc(b.points, validator, func(p settlement.ValidatorPoints, v primitives.Address) int {
		return p.Validator.Compare(v)
	})
}

func (l *Ledger) loadBundle(e uint32) (*bundle, error) {
	return l.bundles.GetOrLoad(e, func(e uint32) (*bundle, error) {
		table, err := l.EraRewardPoints(e)
		if err != nil {
			return nil, err
		}
		b := &bundle{total: table.Total, points: table.Individual}
		for _, p := range table.Individual {
			b.leaves = append(b.leaves, EncodeLeaf(p.Validator, p.Points))
		}
		b.hashes = merkle.HashLeaves(b.leaves)
		b.root = merkle.RootFromHashes(b.hashes)
		return b, nil
	})
}

// EraRewardsUtils is the merkle commitment of an era rewards table.
type EraRewardsUtils struct {
	RewardsMerkleRoot primitives.Bytes32
	LeavesHashes      []primitives.Bytes32
	// LeafIndex is the position of the queried validator, nil when not queried or absent.
	LeafIndex   *uint64
	TotalPoints uint64
	Points      []settlement.ValidatorPoints
}

// GenerateEraRewardsUtils commits to the era table. It returns nil when nothing was awarded in the
// era. When validator is not nil its leaf index is looked up.
func (l *Ledger) GenerateEraRewardsUtils(e uint32, validator *primitives.Address) (*EraRewardsUtils, error) {
	b, err := l.loadBundle(e)
	if err != nil {
		return nil, err
	}
	if len(b.points) == 0 {
		return nil, nil
	}
	utils := &EraRewardsUtils{
		RewardsMerkleRoot: b.root,
		LeavesHashes:      slices.Clone(b.hashes),
		TotalPoints:       uint64(b.total),
		Points:            slices.Clone(b.points),
	}
	if validator != nil {
		if i, ok := b.index(*validator); ok {
			idx := uint64(i)
			utils.LeafIndex = &idx
		}
	}
	return utils, nil
}

// GenerateRewardsProof proves the points of validator in era, nil if it has none.
func (l *Ledger) GenerateRewardsProof(e uint32, validator primitives.Address) (*merkle.Proof, error) {
	b, err := l.loadBundle(e)
	if err != nil {
		return nil, err
	}
	i, ok := b.index(validator)
	if !ok {
		return nil, nil
	}
	return merkle.Prove(b.leaves, i), nil
}

// VerifyRewardsProof checks a proof against the committed root of era.
func (l *Ledger) VerifyRewardsProof(e uint32, proof *merkle.Proof) (bool, error) {
	if proof == nil {
		return false, nil
	}
	b, err := l.loadBundle(e)
	if err != nil {
		return false, err
	}
	if len(b.points) == 0 || proof.Root != b.root {
		return false, nil
	}
	return proof.Verify(), nil
}
