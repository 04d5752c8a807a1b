// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/vechain/settlement/kv"
)

// DoubleMapping maps (K1, K2) to V. Entries sharing K1 are stored contiguously, so they
// can be iterated or cleared together. K1 must encode to a fixed length.
type DoubleMapping[K1 Key, K2 Key, V any] struct {
	store kv.Store
}

func NewDoubleMapping[K1 Key, K2 Key, V any](s kv.Store, name string) *DoubleMapping[K1, K2, V] {
	return &DoubleMapping[K1, K2, V]{store: kv.Bucket(name + "/").NewStore(s)}
}

func (m *DoubleMapping[K1, K2, V]) key(k1 K1, k2 K2) []byte {
	return concat(k1.Bytes(), k2.Bytes())
}

func (m *DoubleMapping[K1, K2, V]) Get(k1 K1, k2 K2) (V, error) {
	value, _, err := load[V](m.store, m.key(k1, k2))
	return value, err
}

func (m *DoubleMapping[K1, K2, V]) Has(k1 K1, k2 K2) (bool, error) {
	return m.store.Has(m.key(k1, k2))
}

func (m *DoubleMapping[K1, K2, V]) Set(k1 K1, k2 K2, value V) error {
	return save(m.store, m.key(k1, k2), value)
}

func (m *DoubleMapping[K1, K2, V]) Delete(k1 K1, k2 K2) error {
	return m.store.Delete(m.key(k1, k2))
}

// Take removes the value for (k1, k2) and returns it.
func (m *DoubleMapping[K1, K2, V]) Take(k1 K1, k2 K2) (value V, found bool, err error) {
	key := m.key(k1, k2)
	value, found, err = load[V](m.store, key)
	if err != nil || !found {
		return
	}
	err = m.store.Delete(key)
	return
}

// IteratePrefix calls fn for every entry under k1, with the encoded second key.
func (m *DoubleMapping[K1, K2, V]) IteratePrefix(k1 K1, fn func(k2 []byte, value V) error) error {
	prefix := k1.Bytes()
	return iterate(m.store, kv.PrefixRange(prefix), func(key []byte, value V) error {
		return fn(key[len(prefix):], value)
	})
}

// ClearPrefix removes up to limit entries under k1, all of them if limit <= 0.
// complete is false when entries remain.
func (m *DoubleMapping[K1, K2, V]) ClearPrefix(k1 K1, limit int) (removed int, complete bool, err error) {
	return clearRange(m.store, kv.PrefixRange(k1.Bytes()), limit)
}

// ClearBefore removes up to limit entries whose first key orders before k1, all of them if
// limit <= 0. complete is false when entries remain.
func (m *DoubleMapping[K1, K2, V]) ClearBefore(k1 K1, limit int) (removed int, complete bool, err error) {
	return clearRange(m.store, kv.Range{Limit: k1.Bytes()}, limit)
}
