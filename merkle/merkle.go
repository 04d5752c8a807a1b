// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package merkle implements a keccak256 binary merkle tree with inclusion proofs.
//
// Leaves are hashed before insertion, inner nodes are keccak256(left || right), and the last
// node of a level with an odd number of nodes is promoted to the next level unchanged.
// The root of an empty tree is the zero hash.
package merkle

import (
	"github.com/vechain/settlement/primitives"
)

// Proof proves the inclusion of Leaf at LeafIndex in a tree of NumberOfLeaves leaves.
type Proof struct {
	Root           primitives.Bytes32
	Path           []primitives.Bytes32
	NumberOfLeaves uint64
	LeafIndex      uint64
	Leaf           []byte
}

// HashLeaves returns the leaf hashes of leaves.
func HashLeaves(leaves [][]byte) []primitives.Bytes32 {
	hashes := make([]primitives.Bytes32, len(leaves))
	for i, leaf := range leaves {
		hashes[i] = primitives.Keccak256(leaf)
	}
	return hashes
}

func hashNode(left, right primitives.Bytes32) primitives.Bytes32 {
	return primitives.Keccak256(left[:], right[:])
}

func nextLevel(level []primitives.Bytes32) []primitives.Bytes32 {
	next := make([]primitives.Bytes32, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 == len(level) {
			next = append(next, level[i])
			continue
		}
		next = append(next, hashNode(level[i], level[i+1]))
	}
	return next
}

// RootFromHashes returns the root over already hashed leaves.
func RootFromHashes(hashes []primitives.Bytes32) primitives.Bytes32 {
	if len(hashes) == 0 {
		return primitives.Bytes32{}
	}
	level := hashes
	for len(level) > 1 {
		level = nextLevel(level)
	}
	return level[0]
}

// Root returns the merkle root of leaves.
func Root(leaves [][]byte) primitives.Bytes32 {
	return RootFromHashes(HashLeaves(leaves))
}

// Prove returns the inclusion proof of leaves[index], or nil if index is out of range.
func Prove(leaves [][]byte, index int) *Proof {
	if index < 0 || index >= len(leaves) {
		return nil
	}

	level := HashLeaves(leaves)
	var path []primitives.Bytes32
	pos := index
	for len(level) > 1 {
		sibling := pos ^ 1
		if sibling < len(level) {
			path = append(path, level[sibling])
		}
		level = nextLevel(level)
		pos /= 2
	}

	return &Proof{
		Root:           level[0],
		Path:           path,
		NumberOfLeaves: uint64(len(leaves)),
		LeafIndex:      uint64(index),
		Leaf:           leaves[index],
	}
}

// Verify checks that leaf sits at leafIndex of a tree of numberOfLeaves leaves with the given root.
func Verify(root primitives.Bytes32, path []primitives.Bytes32, numberOfLeaves, leafIndex uint64, leaf []byte) bool {
	if numberOfLeaves == 0 || leafIndex >= numberOfLeaves {
		return false
	}

	computed := primitives.Keccak256(leaf)
	pos, width := leafIndex, numberOfLeaves
	for width > 1 {
		// the last node of an odd level is promoted without a sibling
		if !(pos == width-1 && width%2 == 1) {
			if len(path) == 0 {
				return false
			}
			sibling := path[0]
			path = path[1:]
			if pos%2 == 1 {
				computed = hashNode(sibling, computed)
			} else {
				computed = hashNode(computed, sibling)
			}
		}
		pos /= 2
		width = (width + 1) / 2
	}
	return len(path) == 0 && computed == root
}

// Verify checks the proof against its own root.
func (p *Proof) Verify() bool {
	return Verify(p.Root, p.Path, p.NumberOfLeaves, p.LeafIndex, p.Leaf)
}
