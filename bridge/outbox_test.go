// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bridge

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
	"github.com/vechain/settlement/test/datagen"
)

func newMessage(calldataLen int) *settlement.Message {
	return &settlement.Message{Commands: []*settlement.Command{
		settlement.NewCallCommand(datagen.RandAddress(), make([]byte, calldataLen), 21000),
	}}
}

func TestOutboxDeliver(t *testing.T) {
	outbox := NewOutbox(kv.NewMem(), Config{})

	msg := newMessage(4)
	var ids []primitives.Bytes32
	for range 3 {
		id, err := settlement.Send[*settlement.Message](settlement.NewAdapter[*settlement.Message]("raw", identity{}, outbox), msg)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])

	n, err := outbox.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	envelope, err := outbox.Get(ids[1])
	require.NoError(t, err)
	require.NotNil(t, envelope)
	assert.Equal(t, uint64(1), envelope.Nonce)
	decoded, err := envelope.Message()
	require.NoError(t, err)
	assert.Equal(t, msg.Commands[0].Target, decoded.Commands[0].Target)

	unknown, err := outbox.Get(datagen.RandomHash())
	require.NoError(t, err)
	assert.Nil(t, unknown)

	list, err := outbox.List(1, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[1].ID)

	list, err = outbox.List(0, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[0], list[0].ID)
}

type identity struct{}

func (identity) Build(msg *settlement.Message) *settlement.Message { return msg }

func TestOutboxValidate(t *testing.T) {
	outbox := NewOutbox(kv.NewMem(), Config{MaxMessageSize: 128})

	_, err := outbox.Validate(&settlement.Message{})
	assert.True(t, settlement.IsSendError(err, settlement.Unroutable))

	_, err = outbox.Validate(newMessage(256))
	assert.True(t, settlement.IsSendError(err, settlement.MessageTooLarge))

	ticket, err := outbox.Validate(newMessage(8))
	require.NoError(t, err)
	assert.Equal(t, primitives.Keccak256(ticket.Payload), ticket.ID)
}

func TestOutboxFeeBudget(t *testing.T) {
	sized, err := NewOutbox(kv.NewMem(), Config{}).Validate(newMessage(4))
	require.NoError(t, err)
	fee := int64(10 + len(sized.Payload))

	outbox := NewOutbox(kv.NewMem(), Config{
		BaseFee:    big.NewInt(10),
		FeePerByte: big.NewInt(1),
		FeeBudget:  big.NewInt(fee + fee/2),
	})

	ticket, err := outbox.Validate(newMessage(4))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(fee), ticket.Fee)

	// both fit the budget when validated, only the first one is delivered
	again, err := outbox.Validate(newMessage(4))
	require.NoError(t, err)
	_, err = outbox.Deliver(ticket)
	require.NoError(t, err)
	_, err = outbox.Deliver(again)
	assert.True(t, settlement.IsSendError(err, settlement.Fees))

	spent, err := outbox.FeesSpent()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(fee), spent)

	_, err = outbox.Validate(newMessage(4))
	assert.True(t, settlement.IsSendError(err, settlement.Fees))
}

func TestOutboxHalt(t *testing.T) {
	outbox := NewOutbox(kv.NewMem(), Config{})
	ticket, err := outbox.Validate(newMessage(1))
	require.NoError(t, err)

	require.NoError(t, outbox.Halt())
	_, err = outbox.Deliver(ticket)
	assert.True(t, settlement.IsSendError(err, settlement.Transport))

	require.NoError(t, outbox.Resume())
	_, err = outbox.Deliver(ticket)
	assert.NoError(t, err)

	n, err := outbox.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestEnvelopeCompressedAtRest(t *testing.T) {
	db := kv.NewMem()
	outbox := NewOutbox(db, Config{})

	msg := newMessage(4096)
	ticket, err := outbox.Validate(msg)
	require.NoError(t, err)
	id, err := outbox.Deliver(ticket)
	require.NoError(t, err)

	var stored int
	it := db.Iterate(kv.PrefixRange([]byte("outbox-envelopes")))
	for it.Next() {
		stored = max(stored, len(it.Value()))
	}
	it.Release()
	require.NoError(t, it.Error())
	// the zero filled calldata compresses well
	assert.Less(t, stored, len(ticket.Payload)/4)

	envelope, err := outbox.Get(id)
	require.NoError(t, err)
	require.NotNil(t, envelope)
	assert.Equal(t, ticket.Payload, envelope.Payload)
	decoded, err := envelope.Message()
	require.NoError(t, err)
	require.Len(t, decoded.Commands, 1)
}
