// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store provides typed storage containers, similar to the value and mapping
// declarations of a solidity contract, on top of a kv.Store. Values are RLP encoded.
package store

import (
	"encoding/binary"
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/settlement/kv"
)

// Key is anything that can be turned into a fixed length storage key.
type Key interface {
	Bytes() []byte
}

// Uint32Key is a big-endian encoded uint32 key, e.g. an era or a session index.
type Uint32Key uint32

func (k Uint32Key) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(k))
}

// Uint64Key is a big-endian encoded uint64 key.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// DecodeUint32Key is the inverse of Uint32Key.Bytes.
func DecodeUint32Key(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// zero returns the zero value of V, allocating pointee for pointer types
// so callers never get a nil pointer for an empty slot.
func zero[V any]() (value V) {
	if t := reflect.TypeOf(value); t != nil && t.Kind() == reflect.Ptr {
		value = reflect.New(t.Elem()).Interface().(V)
	}
	return
}

func load[V any](g kv.Getter, key []byte) (V, bool, error) {
	raw, err := g.Get(key)
	if err != nil {
		if g.IsNotFound(err) {
			return zero[V](), false, nil
		}
		return zero[V](), false, err
	}
	value, err := decode[V](raw)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

func decode[V any](raw []byte) (V, error) {
	value := zero[V]()
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return zero[V](), errors.Wrap(err, "failed to decode")
	}
	return value, nil
}

func save[V any](p kv.Putter, key []byte, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "failed to encode")
	}
	return p.Put(key, raw)
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
