// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/test/datagen"
)

type testStruct struct {
	Field1 uint64
	Addr1  primitives.Address
	Bytes1 primitives.Bytes32
	Flag   bool
}

func newRandomStruct() *testStruct {
	return &testStruct{
		Field1: 100,
		Addr1:  datagen.RandAddress(),
		Bytes1: datagen.RandomHash(),
		Flag:   true,
	}
}

func TestValue(t *testing.T) {
	db := kv.NewMem()
	v := NewValue[uint32](db, "counter")

	got, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)

	exists, err := v.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, v.Set(42))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got)

	require.NoError(t, v.Delete())
	exists, err = v.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestValue_PointerNeverNil(t *testing.T) {
	v := NewValue[*testStruct](kv.NewMem(), "struct")

	got, err := v.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, &testStruct{}, got)

	value := newRandomStruct()
	require.NoError(t, v.Set(value))
	got, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestMapping_SetGetTake(t *testing.T) {
	m := NewMapping[primitives.Address, *testStruct](kv.NewMem(), "structs")
	key := datagen.RandAddress()
	value := newRandomStruct()

	t.Run("absent key returns zero value", func(t *testing.T) {
		got, err := m.Get(key)
		require.NoError(t, err)
		assert.Equal(t, &testStruct{}, got)

		has, err := m.Has(key)
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, m.Set(key, value))
		got, err := m.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("take removes the entry", func(t *testing.T) {
		got, found, err := m.Take(key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, value, got)

		_, found, err = m.Take(key)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestMapping_IterateInKeyOrder(t *testing.T) {
	m := NewMapping[Uint32Key, string](kv.NewMem(), "names")
	for _, k := range []uint32{300, 1, 20, 256} {
		require.NoError(t, m.Set(Uint32Key(k), "v"))
	}

	var keys []uint32
	require.NoError(t, m.Iterate(func(key []byte, value string) error {
		keys = append(keys, DecodeUint32Key(key))
		assert.Equal(t, "v", value)
		return nil
	}))
	assert.Equal(t, []uint32{1, 20, 256, 300}, keys)
}

func TestMapping_BucketsDoNotOverlap(t *testing.T) {
	db := kv.NewMem()
	a := NewMapping[Uint32Key, uint64](db, "slashes")
	b := NewMapping[Uint32Key, uint64](db, "slashes-in-era")

	require.NoError(t, a.Set(1, 10))
	require.NoError(t, b.Set(1, 20))

	removed, complete, err := a.Clear(0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, complete)

	got, err := b.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), got)
}

func TestMapping_ClearWithLimit(t *testing.T) {
	m := NewMapping[Uint64Key, uint64](kv.NewMem(), "numbers")
	for i := range uint64(5) {
		require.NoError(t, m.Set(Uint64Key(i), i))
	}

	removed, complete, err := m.Clear(3)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.False(t, complete)

	removed, complete, err = m.Clear(3)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.True(t, complete)
}

func TestDoubleMapping(t *testing.T) {
	m := NewDoubleMapping[Uint32Key, primitives.Address, uint32](kv.NewMem(), "parts")
	addrs := datagen.RandAddresses(4)

	for i, a := range addrs {
		require.NoError(t, m.Set(7, a, uint32(i+1)))
	}
	require.NoError(t, m.Set(8, addrs[0], 99))

	got, err := m.Get(7, addrs[2])
	require.NoError(t, err)
	assert.Equal(t, uint32(3), got)

	var seen []primitives.Address
	require.NoError(t, m.IteratePrefix(7, func(k2 []byte, _ uint32) error {
		seen = append(seen, primitives.BytesToAddress(k2))
		return nil
	}))
	assert.Equal(t, addrs, seen)

	removed, complete, err := m.ClearPrefix(7, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.False(t, complete)

	removed, complete, err = m.ClearPrefix(7, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, complete)

	got, found, err := m.Take(8, addrs[0])
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(99), got)
}

func TestMapping_Poisoned(t *testing.T) {
	db := kv.NewMem()
	m := NewMapping[Uint32Key, *testStruct](db, "poison")

	// write raw bytes that cannot be decoded into the struct
	require.NoError(t, kv.Bucket("poison/").NewPutter(db).Put(Uint32Key(1).Bytes(), []byte{0xff, 0x01}))

	_, err := m.Get(1)
	assert.ErrorContains(t, err, "failed to decode")

	_, _, err = m.Take(1)
	assert.ErrorContains(t, err, "failed to decode")

	err = m.Iterate(func([]byte, *testStruct) error { return nil })
	assert.ErrorContains(t, err, "failed to decode")
}

func TestDoubleMapping_ClearBefore(t *testing.T) {
	m := NewDoubleMapping[Uint32Key, primitives.Address, uint32](kv.NewMem(), "tags")
	addrs := datagen.RandAddresses(2)
	for _, session := range []Uint32Key{3, 4, 5, 256} {
		for _, a := range addrs {
			require.NoError(t, m.Set(session, a, uint32(session)))
		}
	}

	removed, complete, err := m.ClearBefore(5, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.False(t, complete)

	removed, complete, err = m.ClearBefore(5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, complete)

	for _, a := range addrs {
		has, err := m.Has(4, a)
		require.NoError(t, err)
		assert.False(t, has)
		has, err = m.Has(5, a)
		require.NoError(t, err)
		assert.True(t, has)
		has, err = m.Has(256, a)
		require.NoError(t, err)
		assert.True(t, has)
	}
}
