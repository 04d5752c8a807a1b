// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/settlement/bridge"
	"github.com/vechain/settlement/config"
	"github.com/vechain/settlement/engine"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/slashing"
)

var logger = log.WithContext("pkg", "settlerd")

type simulationOptions struct {
	Validators  int
	OffenceRate float64
	OfflineRate float64
	Seed        uint64
}

// validatorSet is the simulated committee. The online flags are redrawn every session.
type validatorSet struct {
	all    []primitives.Address
	online map[primitives.Address]bool
}

func newValidatorSet(n int) *validatorSet {
	set := &validatorSet{online: make(map[primitives.Address]bool, n)}
	for i := range n {
		h := primitives.Keccak256([]byte("validator"), binary.BigEndian.AppendUint32(nil, uint32(i)))
		v := primitives.BytesToAddress(h[12:])
		set.all = append(set.all, v)
		set.online[v] = true
	}
	return set
}

func (s *validatorSet) ActiveValidators() ([]primitives.Address, error) { return s.all, nil }
func (s *validatorSet) IsOnline(v primitives.Address) bool              { return s.online[v] }

func (s *validatorSet) onlineValidators() []primitives.Address {
	var out []primitives.Address
	for _, v := range s.all {
		if s.online[v] {
			out = append(out, v)
		}
	}
	return out
}

var equivocations = []slashing.OffenceKind{
	slashing.BabeEquivocation,
	slashing.GrandpaEquivocation,
	slashing.BeefyEquivocation,
}

// simulator plays eras against the engine. mu serialises the engine between the simulation and
// the api.
type simulator struct {
	mu sync.Mutex

	cfg        *config.Config
	opts       simulationOptions
	rng        *rand.Rand
	validators *validatorSet
	engine     *engine.Engine
	outbox     *bridge.Outbox

	nextEra     uint32
	nextSession uint32
	blocks      uint64
	offences    uint64

	onEraDone func()
}

func newSimulator(db kv.Store, cfg *config.Config, opts simulationOptions) (*simulator, error) {
	if opts.Validators <= 0 {
		return nil, errors.New("at least one validator is required")
	}
	validators := newValidatorSet(opts.Validators)
	e, outbox, err := newEngine(db, cfg, validators)
	if err != nil {
		return nil, err
	}
	sim := &simulator{
		cfg:        cfg,
		opts:       opts,
		rng:        rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5e771e)),
		validators: validators,
		engine:     e,
		outbox:     outbox,
	}

	// resume after the last started era of a persistent store
	active, ok, err := e.Eras().ActiveEra()
	if err != nil {
		return nil, err
	}
	if ok {
		start, _, err := e.Eras().EraToSessionStart(active.Index)
		if err != nil {
			return nil, err
		}
		sim.nextEra = active.Index + 1
		sim.nextSession = start + cfg.Eras.SessionsPerEra
		logger.Info("resuming simulation", "era", sim.nextEra, "session", sim.nextSession)
	}
	return sim, nil
}

// Run plays n eras. It stops early, without error, when ctx is done.
func (s *simulator) Run(ctx context.Context, n uint32) error {
	for range n {
		if err := s.playEra(ctx); err != nil {
			if ctx.Err() != nil {
				logger.Info("simulation interrupted", "era", s.nextEra)
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *simulator) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *simulator) playEra(ctx context.Context) error {
	index := s.nextEra
	if err := s.locked(func() error {
		return s.engine.StartEra(index, s.nextSession, uint64(index))
	}); err != nil {
		return err
	}

	for range s.cfg.Eras.SessionsPerEra {
		if err := s.playSession(ctx); err != nil {
			return err
		}
	}

	if err := s.locked(s.engine.EndEra); err != nil {
		// a failed release loses the era rewards, the simulation goes on
		logger.Error("era rewards not released", "era", index, "err", err)
	}
	s.nextEra++
	if s.onEraDone != nil {
		s.onEraDone()
	}
	return nil
}

func (s *simulator) playSession(ctx context.Context) error {
	for _, v := range s.validators.all {
		s.validators.online[v] = s.rng.Float64() >= s.opts.OfflineRate
	}
	online := s.validators.onlineValidators()
	if len(online) == 0 {
		online = s.validators.all[:1]
	}

	for block := range s.cfg.Eras.BlocksPerSession {
		if err := ctx.Err(); err != nil {
			return err
		}
		author := online[int(block)%len(online)]
		if err := s.locked(func() error { return s.playBlock(author) }); err != nil {
			return err
		}
	}

	if err := s.locked(s.engine.EndSession); err != nil {
		return err
	}
	s.nextSession++
	return nil
}

func (s *simulator) playBlock(author primitives.Address) error {
	if err := s.engine.OnBlock(author); err != nil {
		return err
	}
	s.blocks++

	if s.rng.Float64() >= s.opts.OffenceRate {
		return nil
	}
	offender := s.validators.all[s.rng.IntN(len(s.validators.all))]
	kind := equivocations[s.rng.IntN(len(equivocations))]
	fraction := primitives.PerbillFromPercent(uint32(1 + s.rng.IntN(20)))
	s.offences++
	return s.engine.ReportOffence(kind, &slashing.Offence{
		Session:   s.nextSession,
		Offenders: []primitives.Address{offender},
		Reporters: []primitives.Address{author},
		Fraction:  fraction,
	})
}

func (s *simulator) LogSummary() {
	s.mu.Lock()
	defer s.mu.Unlock()

	delivered, err := s.outbox.Len()
	if err != nil {
		logger.Error("failed to read outbox", "err", err)
		return
	}
	nextID, err := s.engine.Slashing().NextSlashID()
	if err != nil {
		logger.Error("failed to read slashing state", "err", err)
		return
	}
	queued, err := s.engine.Slashing().UnreportedQueueLength()
	if err != nil {
		logger.Error("failed to read slashing state", "err", err)
		return
	}
	logger.Info("simulation done",
		"eras", s.nextEra,
		"blocks", s.blocks,
		"offences", s.offences,
		"slashes", nextID,
		"queued", queued,
		"messages", delivered,
	)
}
