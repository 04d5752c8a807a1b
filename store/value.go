// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/vechain/settlement/kv"
)

// Value is a single storage slot.
type Value[V any] struct {
	store kv.Store
	key   []byte
}

func NewValue[V any](s kv.Store, name string) *Value[V] {
	return &Value[V]{store: s, key: []byte(name)}
}

// Get returns the stored value, or the zero value if the slot is empty.
func (v *Value[V]) Get() (V, error) {
	value, _, err := load[V](v.store, v.key)
	return value, err
}

// Lookup is like Get but also reports whether the slot has been written.
func (v *Value[V]) Lookup() (V, bool, error) {
	return load[V](v.store, v.key)
}

// Exists reports whether the slot has been written.
func (v *Value[V]) Exists() (bool, error) {
	return v.store.Has(v.key)
}

func (v *Value[V]) Set(value V) error {
	return save(v.store, v.key, value)
}

func (v *Value[V]) Delete() error {
	return v.store.Delete(v.key)
}
