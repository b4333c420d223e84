// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/builtin/staker/position"
	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/safecast"
	"github.com/stakelock/stakelock/stakelock"
)

func traceLevel() *slog.LevelVar {
	var lvl slog.LevelVar
	lvl.Set(log.LevelTrace)
	return &lvl
}

func halfEtherPosition(end uint64) *position.Position {
	token, _ := new(big.Int).SetString("82500000000000000000000000000", 10)
	return &position.Position{
		ETHAmount:   big.NewInt(500_000_000_000_000_000),
		TokenAmount: token,
		StartTime:   1_700_000_000,
		EndTime:     end,
	}
}

func TestJSONLedgerValues(t *testing.T) {
	owner := stakelock.BytesToAddress([]byte("alice"))
	amount, err := safecast.ToUint104(big.NewInt(1_000_000))
	require.NoError(t, err)
	end, err := safecast.ToUint48(big.NewInt(1_700_003_600))
	require.NoError(t, err)

	out := new(bytes.Buffer)
	l := log.NewLogger(log.JSONHandlerWithLevel(out, traceLevel()))
	l.Debug("staked",
		"owner", owner,
		"ownerRef", &owner,
		"amount", amount,
		"end", end,
		"position", halfEtherPosition(1_700_003_600),
		"closed", halfEtherPosition(0),
		"missing", (*position.Position)(nil),
	)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, owner.String(), m["owner"])
	assert.Equal(t, owner.String(), m["ownerRef"])
	assert.Equal(t, "1000000", m["amount"])
	assert.Equal(t, "1700003600", m["end"])
	assert.Equal(t, "500000000000000000/82500000000000000000000000000@1700003600", m["position"])
	assert.Equal(t, "500000000000000000/82500000000000000000000000000@closed", m["closed"])
	assert.Equal(t, "<nil>", m["missing"])
}

func TestTerminalLedgerValues(t *testing.T) {
	owner := stakelock.BytesToAddress([]byte("alice"))
	amount, err := safecast.ToUint104(big.NewInt(1_000_000))
	require.NoError(t, err)

	out := new(bytes.Buffer)
	l := log.NewLogger(log.NewTerminalHandlerWithLevel(out, traceLevel(), false))
	l.Debug("unstaked", "owner", owner, "tokens", amount, "position", halfEtherPosition(0))

	line := out.String()
	assert.Contains(t, line, "owner="+owner.String())
	assert.Contains(t, line, "tokens=1,000,000")
	assert.Contains(t, line, "position=500,000,000,000,000,000/82,500,000,000,000,000,000,000,000,000@closed")
}

func TestTerminalOpenPosition(t *testing.T) {
	out := new(bytes.Buffer)
	l := log.NewLogger(log.NewTerminalHandlerWithLevel(out, traceLevel(), false))
	l.Info("opened", "position", halfEtherPosition(1_700_003_600))

	assert.Contains(t, out.String(), "/82,500,000,000,000,000,000,000,000,000@1700003600")
}
