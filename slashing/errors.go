// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import "github.com/vechain/settlement/reverts"

var (
	ErrActiveEraNotSet         = reverts.New("active era not set")
	ErrEraNotFound             = reverts.New("era not found")
	ErrProvidedFutureEra       = reverts.New("provided era is in the future")
	ErrProvidedNonSlashableEra = reverts.New("provided era is not slashable")
	ErrDeferPeriodIsOver       = reverts.New("defer period is over")
	ErrEmptyTargets            = reverts.New("empty targets")
	ErrNotSortedAndUnique      = reverts.New("slash indices not sorted and unique")
	ErrInvalidSlashIndex       = reverts.New("invalid slash index")
	ErrErrorComputingSlash     = reverts.New("error computing slash")
	ErrInvalidFraction         = reverts.New("slash fraction exceeds one")
)
