// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandlerRendersNumbers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewHandler(&buf, false, LevelInfo))
	l.Info("minted", "amount", big.NewInt(1234), "wad", uint256.NewInt(99))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "minted", out["msg"])
	assert.Equal(t, "1234", out["amount"])
	assert.Equal(t, "99", out["wad"])
	assert.Equal(t, "info", out["lvl"])
}

func TestLogfmtHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewHandler(&buf, true, LevelWarn))
	l.Info("hidden")
	l.Warn("shown", "era", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "era=3")
}

func TestWithContextFollowsRoot(t *testing.T) {
	pkgLogger := WithContext("pkg", "test")

	var buf bytes.Buffer
	prev := Root()
	SetDefault(NewLogger(NewHandler(&buf, true, LevelInfo)))
	defer SetDefault(prev)

	pkgLogger.With("era", 7).Info("era started")
	assert.True(t, strings.Contains(buf.String(), "pkg=test"))
	assert.True(t, strings.Contains(buf.String(), "era=7"))
}

func TestOddArguments(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewHandler(&buf, true, LevelInfo))
	l.Info("odd", "key")
	assert.Contains(t, buf.String(), errorKey)
}

func TestRootAliases(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	SetDefault(NewLogger(NewHandler(&buf, true, LevelTrace)))
	defer SetDefault(prev)

	Trace("t")
	Debug("d")
	Info("i", "dir", "/tmp")
	Warn("w")
	Error("e")

	out := buf.String()
	for _, lvl := range []string{"trace", "debug", "info", "warn", "error"} {
		assert.Contains(t, out, "lvl="+lvl)
	}
	assert.Contains(t, out, "dir=/tmp")
}

func TestNilAmountsRender(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewHandler(&buf, true, LevelInfo))
	var amount *big.Int
	var wad *uint256.Int
	l.Info("empty", "amount", amount, "wad", wad, "time", "not a time")

	out := buf.String()
	assert.Contains(t, out, "amount=<nil>")
	assert.Contains(t, out, "wad=<nil>")
	assert.Contains(t, out, `time="not a time"`)
}

func TestDiscardHandler(t *testing.T) {
	l := NewLogger(discardHandler{})
	assert.False(t, l.Enabled(context.Background(), LevelCrit))
	l.With("era", 1).Error("dropped")
}
