// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakelock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0xF913dA8d4725988cDF1Ae6BfaF3c3b7836AE8faa")
	require.NoError(t, err)
	assert.Equal(t, "0xf913da8d4725988cdf1ae6bfaf3c3b7836ae8faa", addr.String())

	_, err = ParseAddress("0xF913dA8d")
	assert.EqualError(t, err, "invalid length")

	_, err = ParseAddress("1xF913dA8d4725988cDF1Ae6BfaF3c3b7836AE8faa")
	assert.EqualError(t, err, "invalid prefix")
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("staker"))
	data, err := json.Marshal(&addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
	assert.False(t, decoded.IsZero())
}

func TestBytes32JSON(t *testing.T) {
	original := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var b Bytes32
	require.NoError(t, json.Unmarshal([]byte(original), &b))

	data, err := json.Marshal(&b)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
	assert.Equal(t, BytesToBytes32([]byte("master")), b)
}
