// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/builtin/solidity"
	"github.com/stakelock/stakelock/lvldb"
	"github.com/stakelock/stakelock/safecast"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	return New(solidity.NewContext(stakelock.BytesToAddress([]byte("staker")), st))
}

func TestPacked(t *testing.T) {
	p := &Position{
		ETHAmount:   big.NewInt(5e17),
		TokenAmount: new(big.Int).Mul(big.NewInt(5e17), big.NewInt(165000000000)),
		StartTime:   1_700_000_000,
		EndTime:     1_700_003_600,
	}
	word := p.Packed()

	got := Unpack(word)
	assert.Equal(t, p.ETHAmount, got.ETHAmount)
	assert.Equal(t, p.TokenAmount, got.TokenAmount)
	assert.Equal(t, p.EndTime, got.EndTime)
	assert.Zero(t, got.StartTime)

	// widest values occupy the whole word
	full := &Position{
		ETHAmount:   safecast.Max(stakelock.AmountBits).ToBig(),
		TokenAmount: safecast.Max(stakelock.AmountBits).ToBig(),
		EndTime:     safecast.Max(stakelock.TimeBits).Uint64(),
	}
	for _, b := range full.Packed() {
		assert.Equal(t, byte(0xff), b)
	}

	// end time sits in the top 48 bits
	onlyEnd := (&Position{EndTime: 1}).Packed()
	assert.Equal(t, byte(0x01), onlyEnd[5])
	assert.True(t, (&Position{}).Packed().IsZero())
}

func TestIsOpen(t *testing.T) {
	var p *Position
	assert.False(t, p.IsOpen())
	assert.False(t, (&Position{ETHAmount: big.NewInt(1)}).IsOpen())
	assert.True(t, (&Position{EndTime: 1}).IsOpen())
}

func TestKey(t *testing.T) {
	owner := stakelock.BytesToAddress([]byte("owner"))
	assert.NotEqual(t, Key(owner, 0), Key(owner, 1))
	assert.NotEqual(t, Key(owner, 0), Key(stakelock.BytesToAddress([]byte("other")), 0))

	var index stakelock.Bytes32
	index[31] = 7
	assert.Equal(t, stakelock.Keccak256(owner.Bytes(), index.Bytes()), Key(owner, 7))
}

func TestServiceOpenClose(t *testing.T) {
	svc := newService(t)
	owner := stakelock.BytesToAddress([]byte("owner"))

	next, err := svc.NextIndex(owner)
	require.NoError(t, err)
	assert.Zero(t, next)

	// missing positions read as closed
	p, err := svc.Get(owner, 3)
	require.NoError(t, err)
	assert.False(t, p.IsOpen())
	assert.Equal(t, 0, p.ETHAmount.Sign())

	_, err = svc.Open(owner, &Position{ETHAmount: big.NewInt(1)})
	assert.Error(t, err)

	for i := range 3 {
		index, err := svc.Open(owner, &Position{
			ETHAmount:   big.NewInt(int64(i + 1)),
			TokenAmount: big.NewInt(int64(10 * (i + 1))),
			StartTime:   100,
			EndTime:     200,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), index)
	}
	next, _ = svc.NextIndex(owner)
	assert.Equal(t, uint64(3), next)

	closed, err := svc.Close(owner, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), closed.EndTime)
	assert.Equal(t, big.NewInt(2), closed.ETHAmount)

	p, _ = svc.Get(owner, 1)
	assert.False(t, p.IsOpen())
	assert.Equal(t, big.NewInt(2), p.ETHAmount)
	assert.Equal(t, big.NewInt(20), p.TokenAmount)
	assert.Equal(t, uint64(100), p.StartTime)

	_, err = svc.Close(owner, 1)
	assert.Error(t, err)

	// closing does not free the slot
	next, _ = svc.NextIndex(owner)
	assert.Equal(t, uint64(3), next)
}
