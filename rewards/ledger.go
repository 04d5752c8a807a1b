// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards accrues validator points per era, scores validators at session end and releases
// the era inflation to the settlement contract when an era ends.
package rewards

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/settlement/cache"
	"github.com/vechain/settlement/era"
	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/inflation"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
	"github.com/vechain/settlement/store"
)

var (
	logger = log.WithContext("pkg", "rewards")

	metricPointsAwarded = metrics.LazyLoadCounter("reward_points_awarded_count")
)

func SetLogger(l log.Logger) {
	logger = l
}

// ErrActiveEraNotSet is returned when points are accrued before the first era started.
var ErrActiveEraNotSet = errors.New("active era not set")

// EraIndexProvider returns the active era.
type EraIndexProvider interface {
	ActiveEra() (era.ActiveEraInfo, bool, error)
}

// ValidatorSet is the current committee and its liveness.
type ValidatorSet interface {
	ActiveValidators() ([]primitives.Address, error)
	IsOnline(validator primitives.Address) bool
}

// SlashingCheck reports whether a validator was slashed in an era.
type SlashingCheck interface {
	HasSlashInEra(era uint32, validator primitives.Address) (bool, error)
}

// Config holds the parameters and collaborators of the ledger.
type Config struct {
	// HistoryDepth is the number of eras whose points are kept.
	HistoryDepth uint32
	// BaseRewardPoints are the points of a perfect session.
	BaseRewardPoints uint32
	// Whitelist holds validators that are never scored.
	Whitelist []primitives.Address
	// CacheSize bounds the number of era merkle bundles kept in memory.
	CacheSize int

	Eras       EraIndexProvider
	Validators ValidatorSet
	Slashing   SlashingCheck
	Inflation  *inflation.Distributor
	Adapter    settlement.MessageAdapter[*settlement.RewardsMessage]
	Events     events.Sink
}

// Ledger implements the reward points ledger.
type Ledger struct {
	config Config

	points        *store.DoubleMapping[store.Uint32Key, primitives.Address, uint32]
	totals        *store.Mapping[store.Uint32Key, uint32]
	authored      *store.Mapping[primitives.Address, uint32]
	sessionBlocks *store.Value[uint32]
	producedInEra *store.Mapping[store.Uint32Key, uint64]
	bundles       *cache.LRU[uint32, *bundle]
}

func New(db kv.Store, config Config) (*Ledger, error) {
	if config.CacheSize <= 0 {
		config.CacheSize = 16
	}
	if config.Events == nil {
		config.Events = events.Discard
	}
	bundles, err := cache.NewLRU[uint32, *bundle](config.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bundle cache")
	}
	return &Ledger{
		config:        config,
		points:        store.NewDoubleMapping[store.Uint32Key, primitives.Address, uint32](db, "reward-points"),
		totals:        store.NewMapping[store.Uint32Key, uint32](db, "reward-points-total"),
		authored:      store.NewMapping[primitives.Address, uint32](db, "blocks-authored-in-session"),
		sessionBlocks: store.NewValue[uint32](db, "blocks-in-session"),
		producedInEra: store.NewMapping[store.Uint32Key, uint64](db, "blocks-produced-in-era"),
		bundles:       bundles,
	}, nil
}

func saturatingAdd32(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func (l *Ledger) activeEra() (uint32, error) {
	active, ok, err := l.config.Eras.ActiveEra()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrActiveEraNotSet
	}
	return active.Index, nil
}

// RewardByIDs adds points to validators in the active era. Individual and total points saturate.
func (l *Ledger) RewardByIDs(rewards []settlement.ValidatorPoints) error {
	current, err := l.activeEra()
	if err != nil {
		return err
	}
	if len(rewards) == 0 {
		return nil
	}
	key := store.Uint32Key(current)

	total, err := l.totals.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get era total points")
	}
	for _, r := range rewards {
		points, err := l.points.Get(key, r.Validator)
		if err != nil {
			return errors.Wrap(err, "failed to get validator points")
		}
		if err := l.points.Set(key, r.Validator, saturatingAdd32(points, r.Points)); err != nil {
			return errors.Wrap(err, "failed to set validator points")
		}
		total = saturatingAdd32(total, r.Points)
		metricPointsAwarded().Add(int64(r.Points))
	}
	if err := l.totals.Set(key, total); err != nil {
		return errors.Wrap(err, "failed to set era total points")
	}
	l.bundles.Remove(current)
	return nil
}

// NoteBlockAuthor counts a block for its author in the session and for the active era.
func (l *Ledger) NoteBlockAuthor(author primitives.Address) error {
	current, err := l.activeEra()
	if err != nil {
		return err
	}
	authored, err := l.authored.Get(author)
	if err != nil {
		return errors.Wrap(err, "failed to get authored blocks")
	}
	if err := l.authored.Set(author, saturatingAdd32(authored, 1)); err != nil {
		return errors.Wrap(err, "failed to set authored blocks")
	}
	inSession, err := l.sessionBlocks.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get session blocks")
	}
	if err := l.sessionBlocks.Set(saturatingAdd32(inSession, 1)); err != nil {
		return errors.Wrap(err, "failed to set session blocks")
	}
	produced, err := l.producedInEra.Get(store.Uint32Key(current))
	if err != nil {
		return errors.Wrap(err, "failed to get produced blocks")
	}
	if produced < math.MaxUint64 {
		produced++
	}
	if err := l.producedInEra.Set(store.Uint32Key(current), produced); err != nil {
		return errors.Wrap(err, "failed to set produced blocks")
	}
	return nil
}

// OnEraStart drops the points of the era falling out of the history.
func (l *Ledger) OnEraStart(started uint32) error {
	if started < l.config.HistoryDepth {
		return nil
	}
	stale := started - l.config.HistoryDepth
	logger.Debug("pruning reward points", "era", stale)

	if _, _, err := l.points.ClearPrefix(store.Uint32Key(stale), 0); err != nil {
		return errors.Wrap(err, "failed to clear validator points")
	}
	if err := l.totals.Delete(store.Uint32Key(stale)); err != nil {
		return errors.Wrap(err, "failed to delete era total points")
	}
	if err := l.producedInEra.Delete(store.Uint32Key(stale)); err != nil {
		return errors.Wrap(err, "failed to delete produced blocks")
	}
	l.bundles.Remove(stale)
	return nil
}

// EraPoints is the points table of an era, sorted by validator.
type EraPoints struct {
	Total      uint32
	Individual []settlement.ValidatorPoints
}

// EraRewardPoints returns the points table of an era, empty when nothing was awarded.
func (l *Ledger) EraRewardPoints(e uint32) (*EraPoints, error) {
	total, err := l.totals.Get(store.Uint32Key(e))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get era total points")
	}
	table := &EraPoints{Total: total}
	if err := l.points.IteratePrefix(store.Uint32Key(e), func(k2 []byte, points uint32) error {
		table.Individual = append(table.Individual, settlement.ValidatorPoints{
			Validator: primitives.BytesToAddress(k2),
			Points:    points,
		})
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "failed to iterate validator points")
	}
	slices.SortFunc(table.Individual, func(a, b settlement.ValidatorPoints) int {
		return a.Validator.Compare(b.Validator)
	})
	return table, nil
}

func (l *Ledger) BlocksProducedInEra(e uint32) (uint64, error) {
	produced, err := l.producedInEra.Get(store.Uint32Key(e))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get produced blocks")
	}
	return produced, nil
}

func (l *Ledger) BlocksAuthoredInSession(validator primitives.Address) (uint32, error) {
	authored, err := l.authored.Get(validator)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get authored blocks")
	}
	return authored, nil
}
