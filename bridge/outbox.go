// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bridge implements a local outbound bridge. Delivered messages are kept in a kv store,
// where a relayer, or a test, can pick them up.
package bridge

import (
	"encoding/binary"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
	"github.com/vechain/settlement/store"
)

var (
	logger = log.WithContext("pkg", "bridge")

	metricDelivered      = metrics.LazyLoadCounter("bridge_messages_delivered_count")
	metricDeliveredBytes = metrics.LazyLoadCounter("bridge_delivered_bytes_count")
)

func SetLogger(l log.Logger) {
	logger = l
}

// Config of the outbox.
type Config struct {
	// MaxMessageSize is the largest accepted encoded message, zero means unbounded.
	MaxMessageSize int
	// BaseFee is charged per message and FeePerByte per encoded byte.
	BaseFee    *big.Int
	FeePerByte *big.Int
	// FeeBudget is the total amount of fees the outbox may spend, nil means unbounded.
	FeeBudget *big.Int
}

// Envelope is a delivered message.
type Envelope struct {
	Nonce   uint64
	ID      primitives.Bytes32
	Payload []byte
	Fee     *big.Int
}

// storedEnvelope is the persisted form of an envelope, the payload snappy compressed.
type storedEnvelope struct {
	Nonce      uint64
	ID         primitives.Bytes32
	Compressed []byte
	Fee        *big.Int
}

// EncodeRLP implements rlp.Encoder
func (e *Envelope) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &storedEnvelope{
		Nonce:      e.Nonce,
		ID:         e.ID,
		Compressed: snappy.Encode(nil, e.Payload),
		Fee:        e.Fee,
	})
}

// DecodeRLP implements rlp.Decoder
func (e *Envelope) DecodeRLP(s *rlp.Stream) error {
	var stored storedEnvelope
	if err := s.Decode(&stored); err != nil {
		return err
	}
	payload, err := snappy.Decode(nil, stored.Compressed)
	if err != nil {
		return errors.Wrap(err, "failed to decompress payload")
	}
	*e = Envelope{
		Nonce:   stored.Nonce,
		ID:      stored.ID,
		Payload: payload,
		Fee:     stored.Fee,
	}
	return nil
}

// Message decodes the payload.
func (e *Envelope) Message() (*settlement.Message, error) {
	return settlement.DecodeMessage(e.Payload)
}

// Outbox implements settlement.Sender.
type Outbox struct {
	config Config

	nonce     *store.Value[uint64]
	feesSpent *store.Value[*big.Int]
	halted    *store.Value[bool]
	envelopes *store.Mapping[store.Uint64Key, *Envelope]
	idToNonce *store.Mapping[primitives.Bytes32, uint64]
}

var _ settlement.Sender = (*Outbox)(nil)

func NewOutbox(db kv.Store, config Config) *Outbox {
	if config.BaseFee == nil {
		config.BaseFee = new(big.Int)
	}
	if config.FeePerByte == nil {
		config.FeePerByte = new(big.Int)
	}
	return &Outbox{
		config:    config,
		nonce:     store.NewValue[uint64](db, "outbox-nonce"),
		feesSpent: store.NewValue[*big.Int](db, "outbox-fees-spent"),
		halted:    store.NewValue[bool](db, "outbox-halted"),
		envelopes: store.NewMapping[store.Uint64Key, *Envelope](db, "outbox-envelopes"),
		idToNonce: store.NewMapping[primitives.Bytes32, uint64](db, "outbox-ids"),
	}
}

func (o *Outbox) fee(size int) *big.Int {
	fee := new(big.Int).Mul(o.config.FeePerByte, big.NewInt(int64(size)))
	return fee.Add(fee, o.config.BaseFee)
}

func (o *Outbox) checkBudget(fee *big.Int) error {
	if o.config.FeeBudget == nil {
		return nil
	}
	spent, err := o.feesSpent.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get fees spent")
	}
	if new(big.Int).Add(spent, fee).Cmp(o.config.FeeBudget) > 0 {
		return settlement.NewSendError(settlement.Fees, "fee %v exceeds remaining budget", fee)
	}
	return nil
}

// Validate encodes the message and checks it can be paid for.
func (o *Outbox) Validate(msg *settlement.Message) (*settlement.Ticket, error) {
	if msg == nil || len(msg.Commands) == 0 {
		return nil, settlement.NewSendError(settlement.Unroutable, "empty message")
	}
	payload, err := msg.Encode()
	if err != nil {
		return nil, settlement.NewSendError(settlement.Unroutable, "failed to encode message: %v", err)
	}
	if o.config.MaxMessageSize > 0 && len(payload) > o.config.MaxMessageSize {
		return nil, settlement.NewSendError(settlement.MessageTooLarge, "%d bytes, max %d", len(payload), o.config.MaxMessageSize)
	}
	fee := o.fee(len(payload))
	if err := o.checkBudget(fee); err != nil {
		return nil, err
	}
	return &settlement.Ticket{
		ID:      primitives.Keccak256(payload),
		Payload: payload,
		Fee:     fee,
	}, nil
}

// Deliver stores the ticket payload and charges its fee. The message id commits to the outbox
// nonce, so identical payloads get distinct ids.
func (o *Outbox) Deliver(ticket *settlement.Ticket) (primitives.Bytes32, error) {
	halted, err := o.halted.Get()
	if err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to get outbox status")
	}
	if halted {
		return primitives.Bytes32{}, settlement.NewSendError(settlement.Transport, "outbox halted")
	}
	if ticket == nil || len(ticket.Payload) == 0 {
		return primitives.Bytes32{}, settlement.NewSendError(settlement.Unroutable, "empty ticket")
	}
	fee := ticket.Fee
	if fee == nil {
		fee = o.fee(len(ticket.Payload))
	}
	// the budget may have been consumed since validation
	if err := o.checkBudget(fee); err != nil {
		return primitives.Bytes32{}, err
	}

	nonce, err := o.nonce.Get()
	if err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to get outbox nonce")
	}
	id := primitives.Keccak256(binary.BigEndian.AppendUint64(nil, nonce), ticket.Payload)
	envelope := &Envelope{Nonce: nonce, ID: id, Payload: ticket.Payload, Fee: fee}

	if err := o.envelopes.Set(store.Uint64Key(nonce), envelope); err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to set envelope")
	}
	if err := o.idToNonce.Set(id, nonce); err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to set envelope id")
	}
	if err := o.nonce.Set(nonce + 1); err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to set outbox nonce")
	}
	spent, err := o.feesSpent.Get()
	if err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to get fees spent")
	}
	if err := o.feesSpent.Set(spent.Add(spent, fee)); err != nil {
		return primitives.Bytes32{}, errors.Wrap(err, "failed to set fees spent")
	}

	metricDelivered().Add(1)
	metricDeliveredBytes().Add(int64(len(ticket.Payload)))
	logger.Debug("message stored", "nonce", nonce, "id", id, "size", len(ticket.Payload), "fee", fee)
	return id, nil
}

// Halt makes every delivery fail with a transport error until Resume is called.
func (o *Outbox) Halt() error {
	logger.Warn("outbox halted")
	return o.halted.Set(true)
}

func (o *Outbox) Resume() error {
	logger.Info("outbox resumed")
	return o.halted.Delete()
}

// Len is the number of delivered messages.
func (o *Outbox) Len() (uint64, error) {
	return o.nonce.Get()
}

func (o *Outbox) FeesSpent() (*big.Int, error) {
	return o.feesSpent.Get()
}

// Get returns the envelope of a message id, nil if unknown.
func (o *Outbox) Get(id primitives.Bytes32) (*Envelope, error) {
	nonce, ok, err := o.idToNonce.Lookup(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get envelope id")
	}
	if !ok {
		return nil, nil
	}
	envelope, err := o.envelopes.Get(store.Uint64Key(nonce))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get envelope")
	}
	return envelope, nil
}

// List returns up to limit envelopes in delivery order, starting at nonce from.
func (o *Outbox) List(from uint64, limit int) ([]*Envelope, error) {
	var list []*Envelope
	for nonce := from; limit <= 0 || len(list) < limit; nonce++ {
		envelope, ok, err := o.envelopes.Lookup(store.Uint64Key(nonce))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get envelope")
		}
		if !ok {
			break
		}
		list = append(list, envelope)
	}
	return list, nil
}
