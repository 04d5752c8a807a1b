// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRU_InvalidSize(t *testing.T) {
	_, err := NewLRU[uint32, string](0)
	assert.Error(t, err)
}

func TestLRU_Evicts(t *testing.T) {
	c, err := NewLRU[uint32, string](2)
	require.NoError(t, err)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")

	_, ok := c.Get(1)
	assert.False(t, ok)
	v, ok := c.Get(3)
	assert.True(t, ok)
	assert.Equal(t, "c", v)
	assert.Equal(t, 2, c.Len())

	c.Remove(3)
	assert.Equal(t, 1, c.Len())
	c.Purge()
	assert.Equal(t, 0, c.Len())

	hit, miss := c.Stats().Counts()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(1), miss)
}

func TestLRU_GetOrLoad(t *testing.T) {
	c, err := NewLRU[uint32, int](4)
	require.NoError(t, err)

	loads := 0
	loader := func(k uint32) (int, error) {
		loads++
		return int(k) * 10, nil
	}

	for range 3 {
		v, err := c.GetOrLoad(5, loader)
		require.NoError(t, err)
		assert.Equal(t, 50, v)
	}
	assert.Equal(t, 1, loads)

	failing := func(uint32) (int, error) { return 0, errors.New("boom") }
	_, err = c.GetOrLoad(6, failing)
	assert.EqualError(t, err, "boom")
	_, ok := c.Get(6)
	assert.False(t, ok)
}
