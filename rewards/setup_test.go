// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/settlement/era"
	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/inflation"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
)

var (
	treasury     = primitives.MustParseAddress("0x0000000000000000000000000000000000007ea5")
	rewardsPool  = primitives.MustParseAddress("0x0000000000000000000000000000000000000f00")
	agent        = primitives.MustParseAddress("0x00000000000000000000000000000000000000a2")
	manager      = primitives.MustParseAddress("0x00000000000000000000000000000000000000a1")
	token        = primitives.MustParseAddress("0x00000000000000000000000000000000000000c1")
	strategyAddr = primitives.MustParseAddress("0x00000000000000000000000000000000000000b1")
)

func addr(b byte) primitives.Address {
	return primitives.BytesToAddress([]byte{b})
}

type fakeEras struct {
	active *uint32
}

func (f *fakeEras) ActiveEra() (era.ActiveEraInfo, bool, error) {
	if f.active == nil {
		return era.ActiveEraInfo{}, false, nil
	}
	return era.ActiveEraInfo{Index: *f.active}, true, nil
}

func (f *fakeEras) set(e uint32) { f.active = &e }

type fakeValidators struct {
	active []primitives.Address
	online map[primitives.Address]bool
}

func (f *fakeValidators) ActiveValidators() ([]primitives.Address, error) { return f.active, nil }
func (f *fakeValidators) IsOnline(v primitives.Address) bool              { return f.online[v] }

type fakeSlashing map[uint32][]primitives.Address

func (f fakeSlashing) HasSlashInEra(e uint32, v primitives.Address) (bool, error) {
	return primitives.ContainsAddress(f[e], v), nil
}

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
		return primitives.Bytes32{}, settlement.NewSendError(settlement.Transport, "bridge down")
	}
	return ticket.ID, nil
}

type testEnv struct {
	ledger     *Ledger
	eras       *fakeEras
	validators *fakeValidators
	slashing   fakeSlashing
	balances   *inflation.Balances
	sender     *recordingSender
	events     *events.Recorder
}

func newTestEnv(t *testing.T, historyDepth uint32, whitelist ...primitives.Address) *testEnv {
	db := kv.NewMem()
	env := &testEnv{
		eras:       &fakeEras{},
		validators: &fakeValidators{online: map[primitives.Address]bool{}},
		slashing:   fakeSlashing{},
		balances:   inflation.NewBalances(db),
		sender:     &recordingSender{},
		events:     events.NewRecorder(),
	}

	calc := inflation.NewCalculator(inflation.Params{
		AnnualInflation:    big.NewInt(3_650_000_000),
		MinPercent:         primitives.PerbillFromPercent(50),
		MaxPercent:         primitives.PerbillFromPercent(100),
		TreasuryProportion: primitives.PerbillFromPercent(20),
		SessionsPerEra:     1,
		BlocksPerSession:   10,
		BlockTimeMs:        8_640_000,
	})
	builder := settlement.NewRewardsBuilder(settlement.RewardsConfig{
		ServiceManager: manager,
		RewardsAgent:   agent,
		Token:          token,
		Strategies: []settlement.StrategyAndMultiplier{
			{Strategy: strategyAddr.Common(), Multiplier: big.NewInt(1)},
		},
		GenesisTimestamp: 1_700_000_000,
		Period:           86_400,
		Description:      "era rewards",
		Gas:              500_000,
	}, settlement.StaticTokenRegistry(primitives.Keccak256([]byte("token"))), settlement.ClockFunc(func() uint64 { return 1_700_200_000 }))

	ledger, err := New(db, Config{
		HistoryDepth:     historyDepth,
		BaseRewardPoints: 320,
		Whitelist:        whitelist,
		Eras:             env.eras,
		Validators:       env.validators,
		Slashing:         env.slashing,
		Inflation:        inflation.NewDistributor(calc, env.balances, treasury, rewardsPool, env.events),
		Adapter:          settlement.NewAdapter[*settlement.RewardsMessage]("rewards", builder, env.sender),
		Events:           env.events,
	})
	require.NoError(t, err)
	env.ledger = ledger
	return env
}
