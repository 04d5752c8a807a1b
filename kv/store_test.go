// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelStore(t *testing.T) {
	s := NewMem()
	defer s.Close()

	_, err := s.Get([]byte("missing"))
	assert.True(t, s.IsNotFound(err))

	require.NoError(t, s.Put([]byte("a"), []byte("1")))
	v, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	has, err := s.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Delete([]byte("a")))
	has, err = s.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLevelStoreBulk(t *testing.T) {
	s := NewMem()
	defer s.Close()

	bulk := s.Bulk()
	require.NoError(t, bulk.Put([]byte("x"), []byte("1")))
	require.NoError(t, bulk.Put([]byte("y"), []byte("2")))

	has, _ := s.Has([]byte("x"))
	assert.False(t, has, "bulk must not apply before write")

	require.NoError(t, bulk.Write())
	has, _ = s.Has([]byte("y"))
	assert.True(t, has)
}

func TestBucketStoreIterate(t *testing.T) {
	s := NewMem()
	defer s.Close()

	a := Bucket("a").NewStore(s)
	b := Bucket("b").NewStore(s)

	require.NoError(t, a.Put([]byte{2}, []byte("a2")))
	require.NoError(t, a.Put([]byte{1}, []byte("a1")))
	require.NoError(t, b.Put([]byte{1}, []byte("b1")))

	iter := a.Iterate(Range{})
	var keys [][]byte
	var vals []string
	for iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()...))
		vals = append(vals, string(iter.Value()))
	}
	iter.Release()
	require.NoError(t, iter.Error())

	assert.Equal(t, [][]byte{{1}, {2}}, keys)
	assert.Equal(t, []string{"a1", "a2"}, vals)

	iter = a.Iterate(PrefixRange([]byte{2}))
	count := 0
	for iter.Next() {
		count++
		assert.Equal(t, []byte{2}, iter.Key())
	}
	iter.Release()
	assert.Equal(t, 1, count)

	bulk := b.Bulk()
	require.NoError(t, bulk.Delete([]byte{1}))
	require.NoError(t, bulk.Write())
	has, _ := s.Has([]byte("b\x01"))
	assert.False(t, has)
}
