// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/builtin/staker"
	"github.com/stakelock/stakelock/lvldb"
	"github.com/stakelock/stakelock/oracle"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
	"github.com/stakelock/stakelock/transfer"
	"github.com/stakelock/stakelock/xenv"
)

func TestBindings(t *testing.T) {
	assert.Equal(t, "Staker", Staker.Name())
	assert.Equal(t, stakelock.BytesToAddress([]byte("Staker")), Staker.Address)
	assert.Equal(t, stakelock.BytesToAddress([]byte("Token")), Token.Address)
	assert.NotEqual(t, Staker.Address, Token.Address)

	ev, ok := Staker.ABI.EventByName("Staked")
	require.True(t, ok)
	assert.Equal(t, "Staked(address,uint256,uint256,uint256)", ev.Signature())

	ev, ok = Token.ABI.EventByName("Transfer")
	require.True(t, ok)
	assert.Equal(t, "ddf252ad", common.Bytes2Hex(ev.ID().Bytes()[:4]))

	name, ok := Staker.ABI.ErrorBySelector(common.FromHex("0x1e003781"))
	require.True(t, ok)
	assert.Equal(t, "ZeroStakingAmount", name)
}

func TestNative(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := state.New(db, nil)
	require.NoError(t, Token.Native(st, nil).Initialize(Staker.Address))

	now := uint64(1_700_000_000)
	deps := &StakerDeps{
		Params:    staker.DefaultParams(),
		Oracle:    oracle.NewAdapter(oracle.NewMockAggregator(8, big.NewInt(2000), now), stakelock.OracleAddress, stakelock.PriceFreshness),
		Receivers: transfer.NewRegistry(),
	}

	caller := stakelock.BytesToAddress([]byte("caller"))
	require.NoError(t, st.SetBalance(Staker.Address, big.NewInt(10)))
	env := xenv.New(st, &xenv.CallContext{Caller: caller, Value: big.NewInt(10), Time: now})

	s := Staker.Native(st, env, deps)
	assert.Equal(t, Token.Address, s.Token())

	index, err := s.Stake(context.Background(), env, 3600)
	require.NoError(t, err)
	assert.Zero(t, index)

	bal, err := Token.Native(st, nil).BalanceOf(caller)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20000), bal)
	assert.Len(t, env.Events(), 2)
}
