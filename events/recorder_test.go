// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Emit(SlashingModeChanged{Mode: "LogOnly"})
	r.Emit(SlashCancelled{SlashEra: 3})
	r.Emit(SlashingModeChanged{Mode: "Enabled"})

	assert.Len(t, r.Events(), 3)
	assert.Equal(t, "SlashCancelled", r.Events()[1].Name())

	modes := Filter[SlashingModeChanged](r)
	assert.Equal(t, []SlashingModeChanged{{Mode: "LogOnly"}, {Mode: "Enabled"}}, modes)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Emit(SlashReported{}) })
}
