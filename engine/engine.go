// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package engine wires the era ledger, slashing, rewards and inflation together, and exposes the
// lifecycle hooks a host calls at era, session and block boundaries.
package engine

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/settlement/config"
	"github.com/vechain/settlement/era"
	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/inflation"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/merkle"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/rewards"
	"github.com/vechain/settlement/settlement"
	"github.com/vechain/settlement/slashing"
	"github.com/vechain/settlement/store"
)

var logger = log.WithContext("pkg", "engine")

func SetLogger(l log.Logger) {
	logger = l
}

// Config holds the parameters and every collaborator of the engine.
type Config struct {
	Params *config.Config

	Invulnerables slashing.InvulnerablesProvider
	Validators    rewards.ValidatorSet
	Sender        settlement.Sender
	Minter        inflation.Minter
	Clock         settlement.Clock
	Tokens        settlement.TokenRegistry
	Events        events.Sink
}

// Engine is the host facing entry point. Calls must be serialised by the host.
type Engine struct {
	params *config.Config

	eras      *era.Ledger
	slashing  *slashing.Service
	rewards   *rewards.Ledger
	inflation *inflation.Distributor
	reporters map[slashing.OffenceKind]slashing.Reporter

	initialized *store.Value[bool]
}

// New creates the engine. On first use of db, the configured slashing mode is applied.
func New(db kv.Store, cfg Config) (*Engine, error) {
	p := cfg.Params
	if p == nil {
		p = config.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg.Validators == nil {
		return nil, errors.New("no validator set")
	}
	if cfg.Sender == nil {
		return nil, errors.New("no settlement sender")
	}
	if cfg.Clock == nil {
		cfg.Clock = settlement.SystemClock
	}
	if cfg.Tokens == nil {
		cfg.Tokens = settlement.StaticTokenRegistry(p.Settlement.TokenID)
	}
	if cfg.Events == nil {
		cfg.Events = events.Discard
	}
	if cfg.Invulnerables == nil {
		invulnerables := p.Slashing.Invulnerables
		cfg.Invulnerables = slashing.InvulnerablesFunc(func() []primitives.Address { return invulnerables })
	}
	if cfg.Minter == nil {
		cfg.Minter = inflation.NewBalances(kv.Bucket("balances/").NewStore(db))
	}

	maxWad, overflow := uint256.FromBig(p.Slashing.MaxWad)
	if overflow {
		return nil, errors.New("max wad overflows 256 bits")
	}

	e := &Engine{
		params:      p,
		eras:        era.New(kv.Bucket("era/").NewStore(db), p.Eras.BondingDuration),
		reporters:   make(map[slashing.OffenceKind]slashing.Reporter),
		initialized: store.NewValue[bool](db, "engine-initialized"),
	}

	slashesBuilder := settlement.NewSlashesBuilder(settlement.SlashesConfig{
		ServiceManager: p.Settlement.ServiceManager,
		Strategies:     p.Slashing.Strategies,
		Gas:            p.Slashing.Gas,
	})
	e.slashing = slashing.New(kv.Bucket("slashing/").NewStore(db), slashing.Config{
		DeferDuration: p.Eras.SlashDeferDuration,
		MaxWad:        maxWad,
		PruneLimit:    p.Slashing.PruneLimit,
		Eras:          e.eras,
		Invulnerables: cfg.Invulnerables,
		Adapter:       settlement.NewAdapter[*settlement.SlashesMessage]("slashes", slashesBuilder, cfg.Sender),
		Events:        cfg.Events,
	})
	e.eras.AddPruner(e.slashing)

	calc := inflation.NewCalculator(inflation.Params{
		AnnualInflation:    p.Inflation.AnnualInflation,
		MinPercent:         p.Inflation.MinPercent.Perbill(),
		MaxPercent:         p.Inflation.MaxPercent.Perbill(),
		TreasuryProportion: p.Inflation.TreasuryProportion.Perbill(),
		SessionsPerEra:     p.Eras.SessionsPerEra,
		BlocksPerSession:   p.Eras.BlocksPerSession,
		BlockTimeMs:        p.Eras.BlockTimeMs,
	})
	e.inflation = inflation.NewDistributor(calc, cfg.Minter, p.Inflation.Treasury, p.Inflation.RewardsPool, cfg.Events)

	strategies := make([]settlement.StrategyAndMultiplier, 0, len(p.Settlement.Strategies))
	for _, s := range p.Settlement.Strategies {
		strategies = append(strategies, settlement.StrategyAndMultiplier{Strategy: s.Address.Common(), Multiplier: s.Multiplier})
	}
	rewardsBuilder := settlement.NewRewardsBuilder(settlement.RewardsConfig{
		ServiceManager:   p.Settlement.ServiceManager,
		RewardsAgent:     p.Settlement.RewardsAgent,
		Token:            p.Settlement.Token,
		Strategies:       strategies,
		GenesisTimestamp: p.Settlement.GenesisTimestamp,
		Period:           p.Settlement.Period,
		Description:      p.Settlement.Description,
		Gas:              p.Settlement.Gas,
	}, cfg.Tokens, cfg.Clock)

	rewardsLedger, err := rewards.New(kv.Bucket("rewards/").NewStore(db), rewards.Config{
		HistoryDepth:     p.Eras.HistoryDepth,
		BaseRewardPoints: p.Rewards.BaseRewardPoints,
		Whitelist:        p.Rewards.Whitelist,
		CacheSize:        p.Rewards.CacheSize,
		Eras:             e.eras,
		Validators:       cfg.Validators,
		Slashing:         e.slashing,
		Inflation:        e.inflation,
		Adapter:          settlement.NewAdapter[*settlement.RewardsMessage]("rewards", rewardsBuilder, cfg.Sender),
		Events:           cfg.Events,
	})
	if err != nil {
		return nil, err
	}
	e.rewards = rewardsLedger

	for _, kind := range []slashing.OffenceKind{
		slashing.BabeEquivocation,
		slashing.GrandpaEquivocation,
		slashing.BeefyEquivocation,
		slashing.LivenessFailure,
		slashing.Manual,
	} {
		e.reporters[kind] = e.slashing.EquivocationReporter(kind, e.slashing.OffenceReporter())
	}

	if err := e.init(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) init() error {
	done, err := e.initialized.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get engine status")
	}
	if done {
		return nil
	}
	mode, err := slashing.ParseMode(e.params.Slashing.Mode)
	if err != nil {
		return err
	}
	if err := e.slashing.SetSlashingMode(mode); err != nil {
		return err
	}
	return e.initialized.Set(true)
}

func (e *Engine) Eras() *era.Ledger                 { return e.eras }
func (e *Engine) Slashing() *slashing.Service       { return e.slashing }
func (e *Engine) Rewards() *rewards.Ledger          { return e.rewards }
func (e *Engine) Inflation() *inflation.Distributor { return e.inflation }

// StartEra runs the era start hooks: era bookkeeping and pruning, confirmation of the slashes
// stored under the era, then reward history pruning.
func (e *Engine) StartEra(index, sessionStart uint32, externalIndex uint64) error {
	logger.Debug("starting era", "era", index, "session", sessionStart)
	if err := e.eras.OnEraStart(index, sessionStart, externalIndex); err != nil {
		return err
	}
	if err := e.slashing.ConfirmUnconfirmedSlashes(index); err != nil {
		return err
	}
	if err := e.rewards.OnEraStart(index); err != nil {
		return err
	}
	logger.Info("era started", "era", index, "session", sessionStart)
	return nil
}

// EndEra releases the rewards of the active era.
func (e *Engine) EndEra() error {
	active, ok, err := e.eras.ActiveEra()
	if err != nil {
		return err
	}
	if !ok {
		return slashing.ErrActiveEraNotSet
	}
	return e.rewards.OnEraEnd(active.Index)
}

// EndSession scores the validators for the ending session.
func (e *Engine) EndSession() error {
	return e.rewards.OnSessionEnd()
}

// OnInitialize drains the slashes queue, at most the configured number of slashes per block.
func (e *Engine) OnInitialize() (int, error) {
	return e.slashing.ProcessSlashesQueue(e.params.Slashing.QueueLimit)
}

// OnBlock runs the per block hooks for a block authored by author.
func (e *Engine) OnBlock(author primitives.Address) error {
	if _, err := e.OnInitialize(); err != nil {
		return err
	}
	return e.rewards.NoteBlockAuthor(author)
}

func (e *Engine) NoteBlockAuthor(author primitives.Address) error {
	return e.rewards.NoteBlockAuthor(author)
}

// ReportOffence reports an offence of the given kind through the matching reporter.
func (e *Engine) ReportOffence(kind slashing.OffenceKind, offence *slashing.Offence) error {
	reporter, ok := e.reporters[kind]
	if !ok {
		return errors.Errorf("unknown offence kind %d", kind)
	}
	return reporter.ReportOffence(offence)
}

func (e *Engine) ForceInjectSlash(offenceEra uint32, validator primitives.Address, fraction primitives.Perbill) error {
	return e.slashing.ForceInjectSlash(offenceEra, validator, fraction, slashing.Manual)
}

func (e *Engine) CancelDeferredSlash(slashEra uint32, indices []uint32) error {
	return e.slashing.CancelDeferredSlash(slashEra, indices)
}

func (e *Engine) SetSlashingMode(mode slashing.Mode) error {
	return e.slashing.SetSlashingMode(mode)
}

func (e *Engine) RewardsProof(index uint32, validator primitives.Address) (*merkle.Proof, error) {
	return e.rewards.GenerateRewardsProof(index, validator)
}
