// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/builtin/staker"
	"github.com/stakelock/stakelock/stakelock"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "stakelock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	params, err := cfg.stakerParams()
	require.NoError(t, err)
	assert.Equal(t, staker.DefaultParams(), params)
	assert.Equal(t, stakelock.PriceFreshness, cfg.Oracle.PriceFreshness)

	answer, err := cfg.mockAnswer()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(165000000000), answer)

	gen, err := cfg.genesis()
	require.NoError(t, err)
	assert.Empty(t, gen.Balances)
	assert.Empty(t, gen.Rejecting)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
staker:
  minimumStakingPeriod: 86400
  scaling: decimals
oracle:
  priceFreshness: 600
  mock:
    decimals: 6
    answer: "0x3b9aca00"
genesis:
  balances:
    "0x0000000000000000000000000000000000000001": "1000000000000000000"
    "0x0000000000000000000000000000000000000002": "0xde0b6b3a7640000"
  rejecting:
    - "0x0000000000000000000000000000000000000002"
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	params, err := cfg.stakerParams()
	require.NoError(t, err)
	assert.Equal(t, uint64(86400), params.MinimumStakingPeriod)
	assert.Equal(t, staker.ScaleDecimals, params.Scaling)
	assert.Equal(t, uint64(600), cfg.Oracle.PriceFreshness)
	assert.Equal(t, uint8(6), cfg.Oracle.Mock.Decimals)

	answer, err := cfg.mockAnswer()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000), answer)

	gen, err := cfg.genesis()
	require.NoError(t, err)
	one := stakelock.BytesToAddress([]byte{1})
	two := stakelock.BytesToAddress([]byte{2})
	assert.Equal(t, stakelock.Ether, gen.Balances[one])
	assert.Equal(t, stakelock.Ether, gen.Balances[two])
	assert.Equal(t, []stakelock.Address{two}, gen.Rejecting)
}

func TestInvalidConfig(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(writeConfig(t, "staker: ["))
	assert.Error(t, err)

	cfg, err := loadConfig(writeConfig(t, "staker:\n  scaling: cubic\n"))
	require.NoError(t, err)
	_, err = cfg.stakerParams()
	assert.ErrorContains(t, err, "unknown scaling")

	cfg, err = loadConfig(writeConfig(t, "staker:\n  minimumStakingPeriod: 0\n"))
	require.NoError(t, err)
	_, err = cfg.stakerParams()
	assert.Error(t, err)

	cfg, err = loadConfig(writeConfig(t, "genesis:\n  balances:\n    \"0x01\": \"1\"\n"))
	require.NoError(t, err)
	_, err = cfg.genesis()
	assert.Error(t, err)

	cfg, err = loadConfig(writeConfig(t, "genesis:\n  balances:\n    \"0x0000000000000000000000000000000000000001\": \"lots\"\n"))
	require.NoError(t, err)
	_, err = cfg.genesis()
	assert.ErrorContains(t, err, "invalid amount")

	cfg, err = loadConfig(writeConfig(t, "oracle:\n  mock:\n    answer: \"-\"\n"))
	require.NoError(t, err)
	_, err = cfg.mockAnswer()
	assert.Error(t, err)
}

func TestDevGenesis(t *testing.T) {
	accounts := devAccounts()
	require.Len(t, accounts, 5)
	assert.Equal(t, accounts, devAccounts())

	seen := make(map[stakelock.Address]bool)
	for _, a := range accounts {
		assert.False(t, a.IsZero())
		assert.False(t, seen[a])
		seen[a] = true
	}

	cfg, err := loadConfig("")
	require.NoError(t, err)
	gen, err := cfg.genesis()
	require.NoError(t, err)
	gen.Balances[accounts[0]] = big.NewInt(1)

	gen = devGenesis(gen)
	assert.Len(t, gen.Balances, 5)
	assert.Equal(t, big.NewInt(1), gen.Balances[accounts[0]])
	assert.Equal(t, new(big.Int).Mul(big.NewInt(10000), stakelock.Ether), gen.Balances[accounts[1]])
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.GreaterOrEqual(t, normalizeCacheSize(0), 1)
	assert.LessOrEqual(t, normalizeCacheSize(64), 64)
}
