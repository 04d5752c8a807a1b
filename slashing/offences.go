// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"github.com/pkg/errors"

	"github.com/vechain/settlement/primitives"
	"github.com/vechain/settlement/store"
)

// Offence is a misconduct report as produced by a consensus engine.
type Offence struct {
	Session   uint32
	Offenders []primitives.Address
	Reporters []primitives.Address
	Fraction  primitives.Perbill
}

// Reporter reports offences.
type Reporter interface {
	ReportOffence(offence *Offence) error
}

// ReporterFunc implements Reporter.
type ReporterFunc func(offence *Offence) error

func (f ReporterFunc) ReportOffence(offence *Offence) error { return f(offence) }

// EquivocationReporter tags the offenders of every report with its offence kind before
// handing the report over to the inner reporter.
type EquivocationReporter struct {
	kind    OffenceKind
	inner   Reporter
	service *Service
}

// EquivocationReporter wraps inner for offences of the given kind.
func (s *Service) EquivocationReporter(kind OffenceKind, inner Reporter) *EquivocationReporter {
	return &EquivocationReporter{kind: kind, inner: inner, service: s}
}

func (r *EquivocationReporter) Kind() OffenceKind {
	return r.kind
}

// ReportOffence discards offences older than the bonding window, which can no longer be
// slashed. If the inner reporter fails, the tags written for the offence are removed.
func (r *EquivocationReporter) ReportOffence(offence *Offence) error {
	first, ok, err := r.service.config.Eras.FirstBondedSession()
	if err != nil {
		return err
	}
	if !ok || offence.Session < first {
		logger.Debug("offence outside bonding window discarded", "kind", r.kind, "session", offence.Session)
		return nil
	}

	session := store.Uint32Key(offence.Session)
	tagged := make([]primitives.Address, 0, len(offence.Offenders))
	for _, offender := range offence.Offenders {
		if err := r.service.pendingKind.Set(session, offender, r.kind); err != nil {
			r.rollback(session, tagged)
			return errors.Wrap(err, "failed to set pending offence kind")
		}
		tagged = append(tagged, offender)
	}

	if err := r.inner.ReportOffence(offence); err != nil {
		r.rollback(session, tagged)
		return err
	}
	return nil
}

func (r *EquivocationReporter) rollback(session store.Uint32Key, tagged []primitives.Address) {
	for _, offender := range tagged {
		if err := r.service.pendingKind.Delete(session, offender); err != nil {
			logger.Error("failed to roll back pending offence kind", "session", uint32(session), "offender", offender, "err", err)
		}
	}
}

// PendingOffenceKind returns the kind tagged for offender in session, if any.
func (s *Service) PendingOffenceKind(session uint32, offender primitives.Address) (OffenceKind, bool, error) {
	has, err := s.pendingKind.Has(store.Uint32Key(session), offender)
	if err != nil || !has {
		return 0, false, err
	}
	kind, err := s.pendingKind.Get(store.Uint32Key(session), offender)
	return kind, err == nil, err
}

// OffenceReporter returns the reporter feeding offences into OnOffence, the same fraction
// applying to every offender.
func (s *Service) OffenceReporter() Reporter {
	return ReporterFunc(func(offence *Offence) error {
		details := make([]OffenceDetails, 0, len(offence.Offenders))
		fractions := make([]primitives.Perbill, 0, len(offence.Offenders))
		for _, offender := range offence.Offenders {
			details = append(details, OffenceDetails{Offender: offender, Reporters: offence.Reporters})
			fractions = append(fractions, offence.Fraction)
		}
		return s.OnOffence(details, fractions, offence.Session)
	})
}
