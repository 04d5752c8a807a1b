// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"github.com/pkg/errors"

	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/store"
)

// queue is a FIFO of confirmed slashes awaiting delivery. Entries live at
// [head, tail), so push and pop touch a constant number of keys.
type queue struct {
	head    *store.Value[uint64]
	tail    *store.Value[uint64]
	entries *store.Mapping[store.Uint64Key, *Slash]
}

func newQueue(db kv.Store, name string) *queue {
	return &queue{
		head:    store.NewValue[uint64](db, name+"-head"),
		tail:    store.NewValue[uint64](db, name+"-tail"),
		entries: store.NewMapping[store.Uint64Key, *Slash](db, name),
	}
}

func (q *queue) bounds() (head, tail uint64, err error) {
	if head, err = q.head.Get(); err != nil {
		return 0, 0, errors.Wrap(err, "failed to get queue head")
	}
	if tail, err = q.tail.Get(); err != nil {
		return 0, 0, errors.Wrap(err, "failed to get queue tail")
	}
	return head, tail, nil
}

func (q *queue) Len() (uint64, error) {
	head, tail, err := q.bounds()
	if err != nil {
		return 0, err
	}
	return tail - head, nil
}

func (q *queue) Push(slash *Slash) error {
	tail, err := q.tail.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get queue tail")
	}
	if err := q.entries.Set(store.Uint64Key(tail), slash); err != nil {
		return errors.Wrap(err, "failed to push slash")
	}
	return q.tail.Set(tail + 1)
}

// PopN removes and returns up to n entries from the front.
func (q *queue) PopN(n int) ([]*Slash, error) {
	head, tail, err := q.bounds()
	if err != nil {
		return nil, err
	}

	var out []*Slash
	for head < tail && len(out) < n {
		slash, _, err := q.entries.Take(store.Uint64Key(head))
		if err != nil {
			return nil, errors.Wrap(err, "failed to pop slash")
		}
		out = append(out, slash)
		head++
	}
	if len(out) == 0 {
		return nil, nil
	}
	if err := q.head.Set(head); err != nil {
		return nil, errors.Wrap(err, "failed to set queue head")
	}
	return out, nil
}

// Iterate visits the queued slashes front to back.
func (q *queue) Iterate(fn func(*Slash) error) error {
	return q.entries.Iterate(func(_ []byte, slash *Slash) error {
		return fn(slash)
	})
}
