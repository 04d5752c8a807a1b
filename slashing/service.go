// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slashing owns the deferred slash lifecycle: slashes are recorded when offences are
// reported, may be cancelled while deferred, get confirmed when their era starts and are finally
// drained, a bounded number per block, towards the settlement contract.
package slashing

import (
	"slices"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/settlement/era"
	"github.com/vechain/settlement/events"
	"github.com/vechain/settlement/kv"
	"github.com/vechain/settlement/log"
	"github.com/vechain/settlement/metrics"
	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/settlement"
	"github.com/vechain/settlement/store"
)

var (
	logger = log.WithContext("pkg", "slashing")

	metricSlashesRecorded  = metrics.LazyLoadCounter("slashes_recorded_count")
	metricSlashesConfirmed = metrics.LazyLoadCounter("slashes_confirmed_count")
	metricQueueLength      = metrics.LazyLoadGauge("slashes_queue_length")
)

func SetLogger(l log.Logger) {
	logger = l
}

// EraIndexProvider exposes the era bookkeeping the slashing service depends on.
type EraIndexProvider interface {
	ActiveEra() (era.ActiveEraInfo, bool, error)
	EraToSessionStart(era uint32) (uint32, bool, error)
	EraOfSession(session uint32) (uint32, bool, error)
	FirstBondedSession() (uint32, bool, error)
}

// InvulnerablesProvider returns the validators exempt from slashing.
type InvulnerablesProvider interface {
	Invulnerables() []primitives.Address
}

// InvulnerablesFunc implements InvulnerablesProvider.
type InvulnerablesFunc func() []primitives.Address

func (f InvulnerablesFunc) Invulnerables() []primitives.Address { return f() }

// Config holds the parameters and collaborators of the service.
type Config struct {
	// DeferDuration is the number of eras a slash can be cancelled before it is confirmed.
	DeferDuration uint32
	// MaxWad is the WAD value of a 100% slash.
	MaxWad *uint256.Int
	// PruneLimit bounds the entries removed per pruned era, zero means unbounded.
	PruneLimit int

	Eras          EraIndexProvider
	Invulnerables InvulnerablesProvider
	Adapter       settlement.MessageAdapter[*settlement.SlashesMessage]
	Events        events.Sink
}

// Service implements the slashing state machine.
type Service struct {
	config Config

	slashes     *store.Mapping[store.Uint32Key, []*Slash]
	slashInEra  *store.DoubleMapping[store.Uint32Key, primitives.Address, primitives.Perbill]
	pendingKind *store.DoubleMapping[store.Uint32Key, primitives.Address, OffenceKind]
	nextSlashID *store.Value[uint32]
	mode        *store.Value[Mode]
	queue       *queue
}

func New(db kv.Store, config Config) *Service {
	if config.MaxWad == nil {
		config.MaxWad = primitives.MaxWad()
	}
	if config.Invulnerables == nil {
		config.Invulnerables = InvulnerablesFunc(func() []primitives.Address { return nil })
	}
	if config.Events == nil {
		config.Events = events.Discard
	}
	return &Service{
		config:      config,
		slashes:     store.NewMapping[store.Uint32Key, []*Slash](db, "slashes"),
		slashInEra:  store.NewDoubleMapping[store.Uint32Key, primitives.Address, primitives.Perbill](db, "slashes-validator-in-era"),
		pendingKind: store.NewDoubleMapping[store.Uint32Key, primitives.Address, OffenceKind](db, "slashes-pending-kind"),
		nextSlashID: store.NewValue[uint32](db, "slashes-next-id"),
		mode:        store.NewValue[Mode](db, "slashes-mode"),
		queue:       newQueue(db, "slashes-queue"),
	}
}

// SlashParams are the inputs of ComputeSlash.
type SlashParams struct {
	Fraction      primitives.Perbill
	SlashID       uint32
	Era           uint32
	Validator     primitives.Address
	DeferDuration uint32
	Kind          OffenceKind
}

// ComputeSlash returns a slash only if fraction strictly exceeds the highest fraction already
// recorded for the validator in era, and records the new maximum. Otherwise it returns nil.
func (s *Service) ComputeSlash(p SlashParams) (*Slash, error) {
	prior, err := s.slashInEra.Get(store.Uint32Key(p.Era), p.Validator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator slash in era")
	}
	if p.Fraction <= prior {
		return nil, nil
	}
	if err := s.slashInEra.Set(store.Uint32Key(p.Era), p.Validator, p.Fraction); err != nil {
		return nil, errors.Wrap(err, "failed to set validator slash in era")
	}
	return &Slash{
		Validator:   p.Validator,
		SlashID:     p.SlashID,
		Percentage:  p.Fraction,
		Confirmed:   p.DeferDuration == 0,
		OffenceKind: p.Kind,
	}, nil
}

// confirmationEra is the era under which a slash for offenceEra is stored. It is always a future
// era, so that every slash is confirmed exactly once, when that era starts.
func (s *Service) confirmationEra(offenceEra, activeEra uint32) uint32 {
	if s.config.DeferDuration == 0 {
		return activeEra + 1
	}
	return max(offenceEra+s.config.DeferDuration+1, activeEra+1)
}

func (s *Service) activeEra() (uint32, error) {
	active, ok, err := s.config.Eras.ActiveEra()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrActiveEraNotSet
	}
	return active.Index, nil
}

func (s *Service) appendSlash(slashEra uint32, slash *Slash) error {
	list, err := s.slashes.Get(store.Uint32Key(slashEra))
	if err != nil {
		return errors.Wrap(err, "failed to get slashes")
	}
	if err := s.slashes.Set(store.Uint32Key(slashEra), append(list, slash)); err != nil {
		return errors.Wrap(err, "failed to set slashes")
	}
	metricSlashesRecorded().Add(1)
	return nil
}

// ForceInjectSlash records a slash for validator in a past, still bonded, era.
func (s *Service) ForceInjectSlash(offenceEra uint32, validator primitives.Address, fraction primitives.Perbill, kind OffenceKind) error {
	logger.Debug("injecting slash", "era", offenceEra, "validator", validator, "fraction", fraction, "kind", kind)

	if fraction > primitives.PerbillOne {
		return ErrInvalidFraction
	}
	active, err := s.activeEra()
	if err != nil {
		return err
	}
	if offenceEra > active {
		return ErrProvidedFutureEra
	}
	if _, ok, err := s.config.Eras.EraToSessionStart(active); err != nil {
		return err
	} else if !ok {
		return ErrEraNotFound
	}
	if _, ok, err := s.config.Eras.EraToSessionStart(offenceEra); err != nil {
		return err
	} else if !ok {
		return ErrProvidedNonSlashableEra
	}

	id, err := s.nextSlashID.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get next slash id")
	}
	slash, err := s.ComputeSlash(SlashParams{
		Fraction:      fraction,
		SlashID:       id,
		Era:           offenceEra,
		Validator:     validator,
		DeferDuration: s.config.DeferDuration,
		Kind:          kind,
	})
	if err != nil {
		return err
	}
	if slash == nil {
		return ErrErrorComputingSlash
	}

	slashEra := s.confirmationEra(offenceEra, active)
	if err := s.appendSlash(slashEra, slash); err != nil {
		return err
	}
	if err := s.nextSlashID.Set(id + 1); err != nil {
		return errors.Wrap(err, "failed to set next slash id")
	}

	s.config.Events.Emit(events.SlashReported{
		Validator:  validator,
		Kind:       kind.String(),
		Fraction:   fraction,
		OffenceEra: offenceEra,
		SlashEra:   slashEra,
		SlashID:    id,
	})
	logger.Info("slash injected", "era", offenceEra, "slashEra", slashEra, "validator", validator, "id", id)
	return nil
}

// CancelDeferredSlash removes the slashes at the given indices of the list stored under slashEra.
// It is only allowed while the slashes are still deferred, active < slashEra <= active+defer+1.
func (s *Service) CancelDeferredSlash(slashEra uint32, indices []uint32) error {
	logger.Debug("cancelling deferred slashes", "era", slashEra, "indices", indices)

	if len(indices) == 0 {
		return ErrEmptyTargets
	}
	for i := 1; i < len(indices); i++ {
		if indices[i-1] >= indices[i] {
			return ErrNotSortedAndUnique
		}
	}

	active, err := s.activeEra()
	if err != nil {
		return err
	}
	if slashEra <= active || uint64(slashEra) > uint64(active)+uint64(s.config.DeferDuration)+1 {
		return ErrDeferPeriodIsOver
	}

	list, err := s.slashes.Get(store.Uint32Key(slashEra))
	if err != nil {
		return errors.Wrap(err, "failed to get slashes")
	}
	if int(indices[len(indices)-1]) >= len(list) {
		return ErrInvalidSlashIndex
	}

	// highest first, so that lower indices stay valid
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		removed := list[idx]
		list = slices.Delete(list, int(idx), int(idx)+1)
		s.config.Events.Emit(events.SlashCancelled{
			SlashEra:  slashEra,
			Validator: removed.Validator,
			SlashID:   removed.SlashID,
		})
	}
	if err := s.slashes.Set(store.Uint32Key(slashEra), list); err != nil {
		return errors.Wrap(err, "failed to set slashes")
	}

	logger.Info("deferred slashes cancelled", "era", slashEra, "count", len(indices))
	return nil
}

// SetSlashingMode updates the mode gating OnOffence.
func (s *Service) SetSlashingMode(mode Mode) error {
	if err := s.mode.Set(mode); err != nil {
		return errors.Wrap(err, "failed to set slashing mode")
	}
	s.config.Events.Emit(events.SlashingModeChanged{Mode: mode.String()})
	logger.Info("slashing mode updated", "mode", mode)
	return nil
}

// OnOffence handles offences reported for slashSession, fractions[i] applying to offenders[i].
// Offences predating the bonding window are dropped silently.
func (s *Service) OnOffence(offenders []OffenceDetails, fractions []primitives.Perbill, slashSession uint32) error {
	mode, err := s.Mode()
	if err != nil {
		return err
	}

	// the tags are consumed whatever happens to the offence
	kinds, err := s.takePendingKinds(offenders, slashSession)
	if err != nil {
		return err
	}

	if mode == Disabled {
		logger.Debug("offence ignored, slashing disabled", "session", slashSession, "offenders", len(offenders))
		return nil
	}

	info, ok, err := s.config.Eras.ActiveEra()
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("offence ignored, no active era", "session", slashSession)
		return nil
	}
	activeEra := info.Index
	activeStart, ok, err := s.config.Eras.EraToSessionStart(activeEra)
	if err != nil {
		return err
	}
	if !ok {
		logger.Error("offence ignored, active era session start unknown", "era", activeEra)
		return nil
	}

	offenceEra := activeEra
	if slashSession < activeStart {
		e, found, err := s.config.Eras.EraOfSession(slashSession)
		if err != nil {
			return err
		}
		if !found {
			logger.Debug("offence predates bonding window", "session", slashSession)
			return nil
		}
		offenceEra = e
	}
	slashEra := s.confirmationEra(offenceEra, activeEra)

	invulnerables := s.config.Invulnerables.Invulnerables()
	nextID, err := s.nextSlashID.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get next slash id")
	}
	startID := nextID

	for i, details := range offenders {
		if i >= len(fractions) {
			break
		}
		fraction := primitives.PerbillFromParts(fractions[i].Parts())
		kind := kinds[i]

		if primitives.ContainsAddress(invulnerables, details.Offender) {
			continue
		}

		if mode == LogOnly {
			s.config.Events.Emit(events.SlashReported{
				Validator:  details.Offender,
				Kind:       kind.String(),
				Fraction:   fraction,
				OffenceEra: offenceEra,
				SlashEra:   slashEra,
				LogOnly:    true,
			})
			continue
		}

		slash, err := s.ComputeSlash(SlashParams{
			Fraction:      fraction,
			SlashID:       nextID,
			Era:           offenceEra,
			Validator:     details.Offender,
			DeferDuration: s.config.DeferDuration,
			Kind:          kind,
		})
		if err != nil {
			return err
		}
		if slash == nil {
			continue
		}
		slash.Reporters = details.Reporters

		if err := s.appendSlash(slashEra, slash); err != nil {
			return err
		}
		s.config.Events.Emit(events.SlashReported{
			Validator:  details.Offender,
			Kind:       kind.String(),
			Fraction:   fraction,
			OffenceEra: offenceEra,
			SlashEra:   slashEra,
			SlashID:    nextID,
		})
		nextID++
	}

	if nextID != startID {
		if err := s.nextSlashID.Set(nextID); err != nil {
			return errors.Wrap(err, "failed to set next slash id")
		}
		logger.Info("offence slashes recorded", "era", offenceEra, "slashEra", slashEra, "count", nextID-startID)
	}
	return nil
}

// takePendingKinds removes the kind tagged for every offender of slashSession. Offenders not
// tagged by an equivocation reporter come from liveness tracking.
func (s *Service) takePendingKinds(offenders []OffenceDetails, slashSession uint32) ([]OffenceKind, error) {
	kinds := make([]OffenceKind, len(offenders))
	for i, details := range offenders {
		kind, found, err := s.pendingKind.Take(store.Uint32Key(slashSession), details.Offender)
		if err != nil {
			return nil, errors.Wrap(err, "failed to take pending offence kind")
		}
		if !found {
			kind = LivenessFailure
		}
		kinds[i] = kind
	}
	return kinds, nil
}

// ConfirmUnconfirmedSlashes confirms the slashes stored under slashEra and moves them to the
// delivery queue. It runs once, when slashEra starts.
func (s *Service) ConfirmUnconfirmedSlashes(slashEra uint32) error {
	list, err := s.slashes.Get(store.Uint32Key(slashEra))
	if err != nil {
		return errors.Wrap(err, "failed to get slashes")
	}
	if len(list) == 0 {
		return nil
	}

	for _, slash := range list {
		slash.Confirmed = true
		if err := s.queue.Push(slash); err != nil {
			return err
		}
	}
	if err := s.slashes.Set(store.Uint32Key(slashEra), list); err != nil {
		return errors.Wrap(err, "failed to set slashes")
	}

	metricSlashesConfirmed().Add(int64(len(list)))
	s.updateQueueGauge()
	logger.Info("slashes confirmed", "era", slashEra, "count", len(list))
	return nil
}

// ProcessSlashesQueue sends up to limit queued slashes in one message. A batch that fails to
// build, validate or deliver is dropped. It returns the number of slashes taken from the queue.
func (s *Service) ProcessSlashesQueue(limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	batch, err := s.queue.PopN(limit)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}
	defer s.updateQueueGauge()

	msg := &settlement.SlashesMessage{}
	ids := make([]uint32, 0, len(batch))
	for _, slash := range batch {
		msg.Slashes = append(msg.Slashes, settlement.SlashData{
			Validator:   slash.Validator,
			WadToSlash:  primitives.PerbillToWad(slash.Percentage, s.config.MaxWad).ToBig(),
			Description: slash.OffenceKind.String(),
		})
		ids = append(ids, slash.SlashID)
	}

	if s.config.Adapter == nil {
		logger.Error("slashes dropped, no settlement adapter", "ids", ids)
		return len(batch), nil
	}
	id, err := settlement.Send(s.config.Adapter, msg)
	if err != nil {
		logger.Error("slashes dropped", "ids", ids, "err", err)
		return len(batch), nil
	}

	s.config.Events.Emit(events.SlashesMessageSent{MessageID: id, SlashIDs: ids})
	logger.Info("slashes sent", "id", id, "count", len(batch))
	return len(batch), nil
}

func (s *Service) updateQueueGauge() {
	if n, err := s.queue.Len(); err == nil {
		metricQueueLength().Set(int64(n))
	}
}

// PruneEra clears the per era state of an era leaving the bonding window. It implements era.Pruner.
func (s *Service) PruneEra(e uint32) error {
	removed, complete, err := s.slashInEra.ClearPrefix(store.Uint32Key(e), s.config.PruneLimit)
	if err != nil {
		return errors.Wrap(err, "failed to clear validator slashes in era")
	}
	if !complete {
		logger.Error("validator slashes in era not fully cleared", "era", e, "removed", removed)
	}
	if err := s.slashes.Delete(store.Uint32Key(e)); err != nil {
		return errors.Wrap(err, "failed to remove slashes")
	}

	// tags of sessions older than the bonding window can no longer be consumed
	first, ok, err := s.config.Eras.FirstBondedSession()
	if err != nil {
		return err
	}
	if ok {
		tags, complete, err := s.pendingKind.ClearBefore(store.Uint32Key(first), s.config.PruneLimit)
		if err != nil {
			return errors.Wrap(err, "failed to clear pending offence kinds")
		}
		if !complete {
			logger.Error("pending offence kinds not fully cleared", "era", e, "removed", tags)
		}
	}
	logger.Debug("era pruned", "era", e, "removed", removed)
	return nil
}

// HasSlashInEra reports whether validator has been slashed for an offence in era.
func (s *Service) HasSlashInEra(e uint32, validator primitives.Address) (bool, error) {
	return s.slashInEra.Has(store.Uint32Key(e), validator)
}

// Slashes returns the slashes stored under era.
func (s *Service) Slashes(e uint32) ([]*Slash, error) {
	list, err := s.slashes.Get(store.Uint32Key(e))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slashes")
	}
	return list, nil
}

// QueuedSlashes returns the slashes awaiting delivery, oldest first.
func (s *Service) QueuedSlashes() ([]*Slash, error) {
	var out []*Slash
	err := s.queue.Iterate(func(slash *Slash) error {
		out = append(out, slash)
		return nil
	})
	return out, err
}

func (s *Service) UnreportedQueueLength() (uint64, error) {
	return s.queue.Len()
}

func (s *Service) NextSlashID() (uint32, error) {
	id, err := s.nextSlashID.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get next slash id")
	}
	return id, nil
}

func (s *Service) Mode() (Mode, error) {
	mode, err := s.mode.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get slashing mode")
	}
	return mode, nil
}
