// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"fmt"
	"strings"

	"github.com/vechain/settlement/primitives"
)

// OffenceKind classifies validator misconduct.
type OffenceKind uint8

const (
	BabeEquivocation OffenceKind = iota + 1
	GrandpaEquivocation
	BeefyEquivocation
	LivenessFailure
	Manual
)

var offenceKindNames = map[OffenceKind]string{
	BabeEquivocation:    "BabeEquivocation",
	GrandpaEquivocation: "GrandpaEquivocation",
	BeefyEquivocation:   "BeefyEquivocation",
	LivenessFailure:     "LivenessFailure",
	Manual:              "Manual",
}

func (k OffenceKind) String() string {
	if name, ok := offenceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OffenceKind(%d)", uint8(k))
}

// Mode gates whether offences produce slashes.
type Mode uint8

const (
	// Enabled records slashes. It is the zero value, so an unset mode means enabled.
	Enabled Mode = iota
	// LogOnly emits events for offences without recording slashes.
	LogOnly
	// Disabled ignores offences entirely.
	Disabled
)

func (m Mode) String() string {
	switch m {
	case Enabled:
		return "Enabled"
	case LogOnly:
		return "LogOnly"
	case Disabled:
		return "Disabled"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode parses a mode name, case insensitive.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Enabled, LogOnly, Disabled} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown slashing mode %q", s)
}

// Slash is a recorded penalty. It waits in the per era list until its era starts,
// then moves to the delivery queue.
type Slash struct {
	Validator   primitives.Address
	Reporters   []primitives.Address
	SlashID     uint32
	Percentage  primitives.Perbill
	Confirmed   bool
	OffenceKind OffenceKind
}

// OffenceDetails identifies one offender of an offence and who reported it.
type OffenceDetails struct {
	Offender  primitives.Address
	Reporters []primitives.Address
}
