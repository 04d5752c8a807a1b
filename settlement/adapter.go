// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package settlement turns rewards and slashes into messages for the external settlement contract,
// and hands them to the outbound bridge in two phases: validate, then deliver.
package settlement

import (
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/primitives"
)

var (
	logger = log.WithContext("pkg", "settlement")

	metricMessages = metrics.LazyLoadCounterVec("settlement_messages_count", []string{"kind", "outcome"})
)

func SetLogger(l log.Logger) {
	logger = l
}

// Sender is the outbound bridge.
type Sender interface {
	Validate(msg *Message) (*Ticket, error)
	Deliver(ticket *Ticket) (primitives.Bytes32, error)
}

// Builder builds the message for some payload. It returns nil when no message should be sent.
type Builder[T any] interface {
	Build(data T) *Message
}

// MessageAdapter is the build, validate, deliver pipeline for payloads of type T.
type MessageAdapter[T any] interface {
	Kind() string
	Build(data T) *Message
	Validate(msg *Message) (*Ticket, error)
	Deliver(ticket *Ticket) (primitives.Bytes32, error)
}

// Adapter binds a Builder to a Sender.
type Adapter[T any] struct {
	kind    string
	builder Builder[T]
	sender  Sender
}

func NewAdapter[T any](kind string, builder Builder[T], sender Sender) *Adapter[T] {
	return &Adapter[T]{kind: kind, builder: builder, sender: sender}
}

func (a *Adapter[T]) Kind() string { return a.kind }

func (a *Adapter[T]) Build(data T) *Message {
	return a.builder.Build(data)
}

func (a *Adapter[T]) Validate(msg *Message) (*Ticket, error) {
	return a.sender.Validate(msg)
}

func (a *Adapter[T]) Deliver(ticket *Ticket) (primitives.Bytes32, error) {
	return a.sender.Deliver(ticket)
}

// Send runs the whole pipeline once. Failures are counted and returned, never retried.
func Send[T any](a MessageAdapter[T], data T) (primitives.Bytes32, error) {
	kind := a.Kind()
	msg := a.Build(data)
	if msg == nil {
		metricMessages().AddWithLabel(1, map[string]string{"kind": kind, "outcome": "not_built"})
		return primitives.Bytes32{}, ErrNotBuilt
	}

	ticket, err := a.Validate(msg)
	if err != nil {
		metricMessages().AddWithLabel(1, map[string]string{"kind": kind, "outcome": "invalid"})
		return primitives.Bytes32{}, err
	}

	id, err := a.Deliver(ticket)
	if err != nil {
		metricMessages().AddWithLabel(1, map[string]string{"kind": kind, "outcome": "failed"})
		return primitives.Bytes32{}, err
	}

	metricMessages().AddWithLabel(1, map[string]string{"kind": kind, "outcome": "delivered"})
	logger.Debug("message delivered", "kind", kind, "id", id, "commands", len(msg.Commands))
	return id, nil
}
