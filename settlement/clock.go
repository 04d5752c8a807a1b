// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package settlement

import "time"

// Clock returns the current unix time in seconds.
type Clock interface {
	Now() uint64
}

// ClockFunc implements Clock.
type ClockFunc func() uint64

func (f ClockFunc) Now() uint64 { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(func() uint64 { return uint64(time.Now().Unix()) })

// AlignSubmissionStart returns the start of the most recently completed period counted from
// genesis, or genesis itself while the first period is still running.
func AlignSubmissionStart(genesis, now, period uint64) uint64 {
	if period == 0 || now < genesis {
		return genesis
	}
	completed := (now - genesis) / period
	if completed == 0 {
		return genesis
	}
	return genesis + (completed-1)*period
}
