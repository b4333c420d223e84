// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/lvldb"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
	"github.com/stakelock/stakelock/xenv"
)

var (
	tokenAddr = stakelock.BytesToAddress([]byte("Token"))
	owner     = stakelock.BytesToAddress([]byte("owner"))
	vani      = stakelock.BytesToAddress([]byte("vani"))
	alice     = stakelock.BytesToAddress([]byte("alice"))
)

func newToken(t *testing.T) (*Token, *xenv.Environment) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	env := xenv.New(st, &xenv.CallContext{Caller: owner})
	tok := New(tokenAddr, st, env)
	require.NoError(t, tok.Initialize(owner))
	return tok, env
}

func mustBig(t *testing.T) func(v *big.Int, err error) *big.Int {
	return func(v *big.Int, err error) *big.Int {
		require.NoError(t, err)
		return v
	}
}

func TestDeployment(t *testing.T) {
	tok, _ := newToken(t)

	got, err := tok.Owner()
	assert.NoError(t, err)
	assert.Equal(t, owner, got)
	assert.Equal(t, 0, mustBig(t)(tok.TotalSupply()).Sign())

	// owner can't be replaced
	assert.NoError(t, tok.Initialize(owner))
	assert.Error(t, tok.Initialize(vani))
}

func TestMint(t *testing.T) {
	tok, env := newToken(t)
	amount := big.NewInt(1000)

	require.NoError(t, tok.Mint(owner, vani, amount))
	assert.Equal(t, amount, mustBig(t)(tok.TotalSupply()))
	assert.Equal(t, amount, mustBig(t)(tok.BalanceOf(vani)))

	require.Len(t, env.Events(), 1)
	ev := env.Events()[0]
	assert.Equal(t, tokenAddr, ev.Address)
	assert.Equal(t, transferEvent.ID(), ev.Topics[0])
	decoded, err := transferEvent.Decode(ev.Data, ev.Topics[1:])
	require.NoError(t, err)
	assert.Equal(t, amount, decoded["value"])

	// only owner
	err = tok.Mint(vani, vani, amount)
	assert.ErrorIs(t, err, reverts.NotAuthorized)
	assert.Equal(t, amount, mustBig(t)(tok.TotalSupply()))

	assert.Error(t, tok.Mint(owner, vani, big.NewInt(-1)))
}

func TestBurn(t *testing.T) {
	tok, env := newToken(t)
	amount := big.NewInt(1000)

	require.NoError(t, tok.Mint(owner, vani, amount))

	// no allowance
	assert.ErrorIs(t, tok.Burn(owner, vani, amount), reverts.InsufficientAllowance)

	require.NoError(t, tok.Approve(vani, owner, amount))
	assert.Equal(t, amount, mustBig(t)(tok.Allowance(vani, owner)))

	// only owner
	assert.ErrorIs(t, tok.Burn(vani, vani, amount), reverts.NotAuthorized)

	require.NoError(t, tok.Burn(owner, vani, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), mustBig(t)(tok.TotalSupply()))
	assert.Equal(t, big.NewInt(600), mustBig(t)(tok.BalanceOf(vani)))
	assert.Equal(t, big.NewInt(600), mustBig(t)(tok.Allowance(vani, owner)))

	last := env.Events()[len(env.Events())-1]
	decoded, err := transferEvent.Decode(last.Data, last.Topics[1:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), decoded["value"])
	assert.Equal(t, stakelock.BytesToBytes32(stakelock.Address{}.Bytes()), last.Topics[2])
}

func TestBurnInsufficientBalance(t *testing.T) {
	tok, _ := newToken(t)

	require.NoError(t, tok.Mint(owner, vani, big.NewInt(10)))
	require.NoError(t, tok.Mint(owner, alice, big.NewInt(10)))
	require.NoError(t, tok.Approve(vani, owner, big.NewInt(100)))

	assert.ErrorIs(t, tok.Burn(owner, vani, big.NewInt(11)), reverts.InsufficientBalance)
	assert.Equal(t, big.NewInt(20), mustBig(t)(tok.TotalSupply()))
}

func TestInfiniteAllowance(t *testing.T) {
	tok, _ := newToken(t)

	require.NoError(t, tok.Mint(owner, vani, big.NewInt(10)))
	require.NoError(t, tok.Approve(vani, owner, math.MaxBig256))
	require.NoError(t, tok.Burn(owner, vani, big.NewInt(10)))

	assert.Equal(t, math.MaxBig256, mustBig(t)(tok.Allowance(vani, owner)))
	assert.Equal(t, 0, mustBig(t)(tok.BalanceOf(vani)).Sign())
}

func TestReadOnly(t *testing.T) {
	tok, env := newToken(t)
	require.NoError(t, tok.Mint(owner, vani, big.NewInt(10)))

	// a token without emitter can be read, and mutations emit nothing
	ro := New(tokenAddr, env.State(), nil)
	assert.Equal(t, big.NewInt(10), mustBig(t)(ro.BalanceOf(vani)))
	assert.NoError(t, ro.Approve(vani, owner, big.NewInt(1)))
	assert.Len(t, env.Events(), 1)
}
