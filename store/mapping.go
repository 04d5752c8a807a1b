// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/vechain/settlement/kv"
)

// Mapping is a key/value storage abstraction, similar to the mapping in Solidity,
// but iterable in ascending key order.
type Mapping[K Key, V any] struct {
	store kv.Store
}

// NewMapping declares a mapping under its own bucket of s.
func NewMapping[K Key, V any](s kv.Store, name string) *Mapping[K, V] {
	return &Mapping[K, V]{store: kv.Bucket(name + "/").NewStore(s)}
}

// Get returns the value for key, or the zero value if absent.
func (m *Mapping[K, V]) Get(key K) (V, error) {
	value, _, err := load[V](m.store, key.Bytes())
	return value, err
}

// Lookup is like Get but also reports whether the key exists.
func (m *Mapping[K, V]) Lookup(key K) (V, bool, error) {
	return load[V](m.store, key.Bytes())
}

func (m *Mapping[K, V]) Has(key K) (bool, error) {
	return m.store.Has(key.Bytes())
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return save(m.store, key.Bytes(), value)
}

func (m *Mapping[K, V]) Delete(key K) error {
	return m.store.Delete(key.Bytes())
}

// Take removes the value for key and returns it.
// found is false, and value the zero value, if the key was absent.
func (m *Mapping[K, V]) Take(key K) (value V, found bool, err error) {
	value, found, err = load[V](m.store, key.Bytes())
	if err != nil || !found {
		return
	}
	err = m.store.Delete(key.Bytes())
	return
}

// Iterate calls fn for each entry in ascending key order. The key slice is only valid during the call.
func (m *Mapping[K, V]) Iterate(fn func(key []byte, value V) error) error {
	return iterate(m.store, kv.Range{}, fn)
}

// Clear removes up to limit entries, all of them if limit <= 0.
// complete reports whether the mapping is empty afterwards.
func (m *Mapping[K, V]) Clear(limit int) (removed int, complete bool, err error) {
	return clearRange(m.store, kv.Range{}, limit)
}

func iterate[V any](s kv.Store, r kv.Range, fn func(key []byte, value V) error) error {
	iter := s.Iterate(r)
	defer iter.Release()

	for iter.Next() {
		value, err := decode[V](iter.Value())
		if err != nil {
			return err
		}
		if err := fn(iter.Key(), value); err != nil {
			return err
		}
	}
	return iter.Error()
}

func clearRange(s kv.Store, r kv.Range, limit int) (int, bool, error) {
	iter := s.Iterate(r)
	var keys [][]byte
	complete := true
	for iter.Next() {
		if limit > 0 && len(keys) == limit {
			complete = false
			break
		}
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	err := iter.Error()
	iter.Release()
	if err != nil {
		return 0, false, err
	}

	bulk := s.Bulk()
	for _, k := range keys {
		if err := bulk.Delete(k); err != nil {
			return 0, false, err
		}
	}
	if err := bulk.Write(); err != nil {
		return 0, false, err
	}
	return len(keys), complete, nil
}
