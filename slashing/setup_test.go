// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/era"
	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
)

const sessionsPerEra = 10

var (
	serviceManager = primitives.MustParseAddress("0x00000000000000000000000000000000000000a1")
	strategy       = primitives.MustParseAddress("0x00000000000000000000000000000000000000b1")
)

type recordingSender struct {
	fail     bool
	messages []*settlement.Message
}

func (r *recordingSender) Validate(msg *settlement.Message) (*settlement.Ticket, error) {
	payload, err := msg.Encode()
	if err != nil {
		return nil, err
	}
	r.messages = append(r.messages, msg)
	return &settlement.Ticket{ID: primitives.Keccak256(payload), Payload: payload}, nil
}

func (r *recordingSender) Deliver(ticket *settlement.Ticket) (primitives.Bytes32, error) {
	if r.fail {
		return primitives.Bytes32{}, &settlement.SendError{Kind: settlement.Transport, Err: errors.New("bridge down")}
	}
	return ticket.ID, nil
}

type testEnv struct {
	db     kv.Store
	ledger *era.Ledger
	svc    *Service
	events *events.Recorder
	sender *recordingSender
}

func newTestEnv(t *testing.T, deferDuration, bondingDuration uint32, invulnerables ...primitives.Address) *testEnv {
	db := kv.NewMem()
	env := &testEnv{
		db:     db,
		ledger: era.New(db, bondingDuration),
		events: events.NewRecorder(),
		sender: &recordingSender{},
	}
	builder := settlement.NewSlashesBuilder(settlement.SlashesConfig{
		ServiceManager: serviceManager,
		Strategies:     []primitives.Address{strategy},
		Gas:            1_000_000,
	})
	env.svc = New(db, Config{
		DeferDuration: deferDuration,
		Eras:          env.ledger,
		Invulnerables: InvulnerablesFunc(func() []primitives.Address { return invulnerables }),
		Adapter:       settlement.NewAdapter("slashes", builder, env.sender),
		Events:        env.events,
	})
	env.ledger.AddPruner(env.svc)
	return env
}

// startEra starts era e the way a host does: era bookkeeping first, then confirmations.
func (env *testEnv) startEra(t *testing.T, e uint32) {
	require.NoError(t, env.ledger.OnEraStart(e, e*sessionsPerEra, uint64(e)))
	require.NoError(t, env.svc.ConfirmUnconfirmedSlashes(e))
}

func (env *testEnv) startEras(t *testing.T, from, to uint32) {
	for e := from; e <= to; e++ {
		env.startEra(t, e)
	}
}

func addr(b byte) primitives.Address {
	return primitives.Address{19: b}
}
