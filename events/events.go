// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines the observable events emitted by the settlement subsystem.
package events

import (
	"math/big"

	"github.com/vechain/settlement/primitives"
)

// Event is implemented by every emitted event.
type Event interface {
	Name() string
}

// Sink receives emitted events. Emit must not fail.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc implements Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// SlashReported is emitted when a slash is recorded for an offender.
// In log-only mode the event is emitted without recording anything, and SlashID is zero.
type SlashReported struct {
	Validator  primitives.Address
	Kind       string
	Fraction   primitives.Perbill
	OffenceEra uint32
	SlashEra   uint32
	SlashID    uint32
	LogOnly    bool
}

// SlashCancelled is emitted when a deferred slash is removed by a privileged call.
type SlashCancelled struct {
	SlashEra  uint32
	Validator primitives.Address
	SlashID   uint32
}

// SlashingModeChanged is emitted on every mode update.
type SlashingModeChanged struct {
	Mode string
}

// SlashesMessageSent is emitted after a slashes batch has been delivered.
type SlashesMessageSent struct {
	MessageID primitives.Bytes32
	SlashIDs  []uint32
}

// RewardsMessageSent is emitted after the rewards message of an era has been delivered.
type RewardsMessageSent struct {
	MessageID         primitives.Bytes32
	Era               uint32
	RewardsMerkleRoot primitives.Bytes32
	TotalPoints       uint64
	InflationAmount   *big.Int
	Dust              *big.Int
}

// EraRewardsReleased is emitted when an era ends and its inflation has been minted.
type EraRewardsReleased struct {
	Era             uint32
	InflationAmount *big.Int
	TotalPoints     uint64
}

// InflationMinted is emitted once per era with the treasury and rewards pool shares.
type InflationMinted struct {
	Era      uint32
	Treasury *big.Int
	Rewards  *big.Int
}

func (SlashReported) Name() string       { return "SlashReported" }
func (SlashCancelled) Name() string      { return "SlashCancelled" }
func (SlashingModeChanged) Name() string { return "SlashingModeChanged" }
func (SlashesMessageSent) Name() string  { return "SlashesMessageSent" }
func (RewardsMessageSent) Name() string  { return "RewardsMessageSent" }
func (EraRewardsReleased) Name() string  { return "EraRewardsReleased" }
func (InflationMinted) Name() string     { return "InflationMinted" }
