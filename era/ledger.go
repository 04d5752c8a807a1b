// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package era tracks era boundaries and the bonding window of eras which are still slashable.
package era

import (
	"github.com/pkg/errors"

	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/store"
)

var (
	logger = log.WithContext("pkg", "era")

	metricErasPruned = metrics.LazyLoadCounter("era_pruned_count")
)

func SetLogger(l log.Logger) {
	logger = l
}

// BondedEra is an era still inside the bonding window.
type BondedEra struct {
	Era           uint32
	SessionStart  uint32
	ExternalIndex uint64
}

// ActiveEraInfo describes the era currently in progress.
// Start is the timestamp in milliseconds of the first block of the era, zero until known.
type ActiveEraInfo struct {
	Index uint32
	Start uint64
}

// Pruner clears state kept per era once the era leaves the bonding window.
// Pruning is best-effort: a returned error is logged and never stops era advancement.
type Pruner interface {
	PruneEra(era uint32) error
}

// PrunerFunc implements Pruner.
type PrunerFunc func(era uint32) error

func (f PrunerFunc) PruneEra(era uint32) error { return f(era) }

// Ledger keeps the bonded eras and their session starts.
type Ledger struct {
	bonded       *store.Value[[]BondedEra]
	active       *store.Value[*ActiveEraInfo]
	sessionStart *store.Mapping[store.Uint32Key, uint32]

	bondingDuration uint32
	pruners         []Pruner
}

func New(db kv.Store, bondingDuration uint32, pruners ...Pruner) *Ledger {
	return &Ledger{
		bonded:          store.NewValue[[]BondedEra](db, "era-bonded"),
		active:          store.NewValue[*ActiveEraInfo](db, "era-active"),
		sessionStart:    store.NewMapping[store.Uint32Key, uint32](db, "era-session-start"),
		bondingDuration: bondingDuration,
		pruners:         pruners,
	}
}

// AddPruner registers a pruner invoked for every era leaving the bonding window.
func (l *Ledger) AddPruner(p Pruner) {
	l.pruners = append(l.pruners, p)
}

func (l *Ledger) BondingDuration() uint32 {
	return l.bondingDuration
}

// OnEraStart records the start of era and prunes the eras falling out of the bonding window.
func (l *Ledger) OnEraStart(era uint32, sessionStart uint32, externalIndex uint64) error {
	logger.Debug("starting era", "era", era, "sessionStart", sessionStart, "externalIndex", externalIndex)

	bonded, err := l.bonded.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get bonded eras")
	}
	bonded = append(bonded, BondedEra{Era: era, SessionStart: sessionStart, ExternalIndex: externalIndex})

	var pruned []uint32
	if era > l.bondingDuration {
		firstKept := era - l.bondingDuration
		n := 0
		for n < len(bonded) && bonded[n].Era < firstKept {
			pruned = append(pruned, bonded[n].Era)
			n++
		}
		bonded = bonded[n:]
	}

	if err := l.bonded.Set(bonded); err != nil {
		return errors.Wrap(err, "failed to set bonded eras")
	}
	if err := l.sessionStart.Set(store.Uint32Key(era), sessionStart); err != nil {
		return errors.Wrap(err, "failed to set era session start")
	}
	if err := l.active.Set(&ActiveEraInfo{Index: era}); err != nil {
		return errors.Wrap(err, "failed to set active era")
	}

	for _, e := range pruned {
		l.prune(e)
	}

	logger.Info("era started", "era", era, "bonded", len(bonded), "pruned", len(pruned))
	return nil
}

func (l *Ledger) prune(era uint32) {
	if err := l.sessionStart.Delete(store.Uint32Key(era)); err != nil {
		logger.Error("failed to remove era session start", "era", era, "err", err)
	}
	for _, p := range l.pruners {
		if err := p.PruneEra(era); err != nil {
			logger.Error("failed to prune era", "era", era, "err", err)
		}
	}
	metricErasPruned().Add(1)
}

// NoteEraStartTime sets the start timestamp of the active era if it is not known yet.
func (l *Ledger) NoteEraStartTime(timestampMs uint64) error {
	active, ok, err := l.active.Lookup()
	if err != nil {
		return errors.Wrap(err, "failed to get active era")
	}
	if !ok || active.Start != 0 {
		return nil
	}
	active.Start = timestampMs
	return l.active.Set(active)
}

// ActiveEra returns the era in progress. ok is false before the first era started.
func (l *Ledger) ActiveEra() (ActiveEraInfo, bool, error) {
	active, ok, err := l.active.Lookup()
	if err != nil {
		return ActiveEraInfo{}, false, errors.Wrap(err, "failed to get active era")
	}
	return *active, ok, nil
}

// EraToSessionStart returns the first session of era, if the era is still bonded.
func (l *Ledger) EraToSessionStart(era uint32) (uint32, bool, error) {
	session, ok, err := l.sessionStart.Lookup(store.Uint32Key(era))
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get era session start")
	}
	return session, ok, nil
}

// BondedEras returns the bonded eras, oldest first.
func (l *Ledger) BondedEras() ([]BondedEra, error) {
	bonded, err := l.bonded.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bonded eras")
	}
	return bonded, nil
}

// FirstBondedSession returns the session start of the oldest bonded era.
func (l *Ledger) FirstBondedSession() (uint32, bool, error) {
	bonded, err := l.BondedEras()
	if err != nil || len(bonded) == 0 {
		return 0, false, err
	}
	return bonded[0].SessionStart, true, nil
}

// EraOfSession returns the bonded era containing session, searching backwards from the newest era.
// ok is false when the session predates the bonding window.
func (l *Ledger) EraOfSession(session uint32) (era uint32, ok bool, err error) {
	bonded, err := l.BondedEras()
	if err != nil {
		return 0, false, err
	}
	for i := len(bonded) - 1; i >= 0; i-- {
		if bonded[i].SessionStart <= session {
			return bonded[i].Era, true, nil
		}
	}
	return 0, false, nil
}
