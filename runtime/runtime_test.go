// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/builtin"
	"github.com/stakelock/stakelock/builtin/staker"
	"github.com/stakelock/stakelock/builtin/staker/position"
	"github.com/stakelock/stakelock/kv"
	"github.com/stakelock/stakelock/logdb"
	"github.com/stakelock/stakelock/lvldb"
	"github.com/stakelock/stakelock/oracle"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/transfer"
)

const now = uint64(1_700_000_000)

var (
	alice = stakelock.BytesToAddress([]byte("alice"))
	bob   = stakelock.BytesToAddress([]byte("bob"))
	carol = stakelock.BytesToAddress([]byte("carol"))

	price = big.NewInt(165000000000)
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), stakelock.Ether)
}

type fixture struct {
	rt    *Runtime
	feed  *oracle.MockAggregator
	logDB *logdb.LogDB
	clock uint64
}

func newRuntime(t *testing.T, db kv.Store, logDB *logdb.LogDB) *fixture {
	f := &fixture{
		feed:  oracle.NewMockAggregator(8, price, now),
		logDB: logDB,
		clock: now,
	}
	deps := &builtin.StakerDeps{
		Params: staker.DefaultParams(),
		Oracle: oracle.NewAdapter(f.feed, stakelock.OracleAddress, stakelock.PriceFreshness),
	}
	rt, err := New(db, logDB, deps, 256)
	require.NoError(t, err)
	rt.SetClock(func() uint64 { return f.clock })
	f.rt = rt

	_, err = rt.Initialize(&Genesis{
		Balances:  map[stakelock.Address]*big.Int{alice: ether(10), bob: ether(10), carol: ether(10)},
		Rejecting: []stakelock.Address{carol},
	})
	require.NoError(t, err)
	return f
}

func newMemFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })
	return newRuntime(t, db, logDB)
}

func (f *fixture) advance(seconds uint64) {
	f.clock += seconds
	f.feed.UpdateAnswer(price, f.clock)
}

func (f *fixture) position(t *testing.T, owner stakelock.Address, index uint64) *position.Position {
	var p *position.Position
	require.NoError(t, f.rt.View(func(c *Contracts) (err error) {
		p, err = c.Staker.GetStakePosition(owner, index)
		return
	}))
	return p
}

func (f *fixture) totalStaked(t *testing.T) *big.Int {
	var total *big.Int
	require.NoError(t, f.rt.View(func(c *Contracts) (err error) {
		total, err = c.Staker.TotalStaked()
		return
	}))
	return total
}

func (f *fixture) tokenBalance(t *testing.T, addr stakelock.Address) *big.Int {
	var bal *big.Int
	require.NoError(t, f.rt.View(func(c *Contracts) (err error) {
		bal, err = c.Token.BalanceOf(addr)
		return
	}))
	return bal
}

func TestInitialize(t *testing.T) {
	f := newMemFixture(t)

	bal, err := f.rt.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, ether(10), bal)

	// second initialization keeps state
	done, err := f.rt.Initialize(&Genesis{Balances: map[stakelock.Address]*big.Int{alice: ether(1)}})
	require.NoError(t, err)
	assert.False(t, done)
	bal, _ = f.rt.Balance(alice)
	assert.Equal(t, ether(10), bal)

	require.NoError(t, f.rt.View(func(c *Contracts) error {
		owner, err := c.Token.Owner()
		assert.Equal(t, builtin.Staker.Address, owner)
		return err
	}))
}

func TestStakeUnstake(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	index, receipt, err := f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
	require.NoError(t, err)
	assert.Zero(t, index)
	assert.Equal(t, uint64(1), receipt.Seq)
	assert.Equal(t, now, receipt.Time)
	assert.Len(t, receipt.Events, 2)

	tokens := new(big.Int).Mul(ether(1), price)
	assert.Equal(t, tokens, f.tokenBalance(t, alice))
	assert.Equal(t, ether(1), f.totalStaked(t))

	custody, _ := f.rt.Balance(builtin.Staker.Address)
	assert.Equal(t, ether(1), custody)
	bal, _ := f.rt.Balance(alice)
	assert.Equal(t, ether(9), bal)

	_, err = f.rt.Approve(ctx, &Call{Caller: alice}, tokens)
	require.NoError(t, err)

	_, err = f.rt.Unstake(ctx, &Call{Caller: alice}, 0)
	assert.ErrorIs(t, err, reverts.StakingPeriodNotPassed)
	assert.True(t, IsRevert(err))

	f.advance(3600)
	receipt, err = f.rt.Unstake(ctx, &Call{Caller: alice}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), receipt.Seq)

	bal, _ = f.rt.Balance(alice)
	assert.Equal(t, ether(10), bal)
	assert.Equal(t, 0, f.totalStaked(t).Sign())
	assert.False(t, f.position(t, alice, 0).IsOpen())
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	// the value is not kept on failure
	_, _, err := f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 60)
	assert.ErrorIs(t, err, reverts.MinimumStakingPeriodTooShort)
	bal, _ := f.rt.Balance(alice)
	assert.Equal(t, ether(10), bal)

	// more than the caller has
	_, _, err = f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(11)}, 3600)
	assert.ErrorIs(t, err, reverts.InsufficientBalance)

	_, err = f.rt.Approve(ctx, &Call{Caller: alice, Value: big.NewInt(1)}, big.NewInt(1))
	assert.Error(t, err)
	assert.False(t, IsRevert(err))

	_, err = f.rt.Execute(ctx, "panic", &Call{Caller: alice}, func(context.Context, *Contracts) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "boom")

	events, err := f.logDB.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUnstakeToRejectingAccount(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	_, _, err := f.rt.Stake(ctx, &Call{Caller: carol, Value: ether(2)}, 3600)
	require.NoError(t, err)
	tokens := new(big.Int).Mul(ether(2), price)
	_, err = f.rt.Approve(ctx, &Call{Caller: carol}, tokens)
	require.NoError(t, err)

	f.advance(3600)
	_, err = f.rt.Unstake(ctx, &Call{Caller: carol}, 0)
	assert.ErrorIs(t, err, reverts.EtherTransferFailed)

	assert.True(t, f.position(t, carol, 0).IsOpen())
	assert.Equal(t, ether(2), f.totalStaked(t))
	assert.Equal(t, tokens, f.tokenBalance(t, carol))
	require.NoError(t, f.rt.View(func(c *Contracts) error {
		allowance, err := c.Token.Allowance(carol, builtin.Staker.Address)
		assert.Equal(t, tokens, allowance)
		return err
	}))
}

func TestEventsPersisted(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	for range 3 {
		_, _, err := f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
		require.NoError(t, err)
	}
	_, _, err := f.rt.Stake(ctx, &Call{Caller: bob, Value: ether(1)}, 3600)
	require.NoError(t, err)

	stakedID := builtin.Staker.ABI.MustEventByName("Staked").ID()
	aliceTopic := stakelock.BytesToBytes32(alice.Bytes())
	events, err := f.logDB.FilterEvents(ctx, &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Topics: [4]*stakelock.Bytes32{&stakedID, &aliceTopic}}},
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, alice, ev.Caller)
		assert.Equal(t, builtin.Staker.Address, ev.Address)
		assert.Equal(t, uint32(1), ev.Index)
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	open := func() (*lvldb.LevelDB, *logdb.LogDB) {
		db, err := lvldb.New(filepath.Join(dir, "state"), lvldb.Options{})
		require.NoError(t, err)
		logDB, err := logdb.New(filepath.Join(dir, "logs.db"))
		require.NoError(t, err)
		return db, logDB
	}

	db, logDB := open()
	f := newRuntime(t, db, logDB)
	_, _, err := f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(3)}, 7200)
	require.NoError(t, err)
	require.NoError(t, logDB.Close())
	require.NoError(t, db.Close())

	db, logDB = open()
	defer db.Close()
	defer logDB.Close()
	f = newRuntime(t, db, logDB)

	assert.Equal(t, ether(3), f.totalStaked(t))
	p := f.position(t, alice, 0)
	assert.Equal(t, now+7200, p.EndTime)
	bal, _ := f.rt.Balance(alice)
	assert.Equal(t, ether(7), bal)

	// sequence continues
	_, receipt, err := f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), receipt.Seq)
}

func TestConcurrentStakes(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	indexes := make(chan uint64, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			index, _, err := f.rt.Stake(ctx, &Call{Caller: bob, Value: big.NewInt(1e17)}, 3600)
			assert.NoError(t, err)
			indexes <- index
		}()
	}
	wg.Wait()
	close(indexes)

	seen := make(map[uint64]bool)
	for index := range indexes {
		assert.False(t, seen[index])
		seen[index] = true
	}
	assert.Len(t, seen, 20)
	assert.Equal(t, ether(2), f.totalStaked(t))

	custody, _ := f.rt.Balance(builtin.Staker.Address)
	assert.Equal(t, ether(2), custody)
}

func TestDefaultReceivers(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	deps := &builtin.StakerDeps{Params: staker.DefaultParams()}
	_, err = New(db, nil, deps, 16)
	require.NoError(t, err)
	assert.IsType(t, &transfer.Registry{}, deps.Receivers)
}

func TestOnCommit(t *testing.T) {
	f := newMemFixture(t)
	ctx := context.Background()

	var committed []uint64
	f.rt.OnCommit(func(r *Receipt) { committed = append(committed, r.Seq) })

	_, _, err := f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
	require.NoError(t, err)
	_, _, err = f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 10)
	require.Error(t, err)

	assert.Equal(t, []uint64{1}, committed)
	assert.Equal(t, uint64(1), f.rt.Seq())
}

// flakyStore fails writes while failing is set.
type flakyStore struct {
	*logdb.LogDB
	failing bool
}

func (s *flakyStore) Write(events []*logdb.Event) error {
	if s.failing {
		return errors.New("disk full")
	}
	return s.LogDB.Write(events)
}

func TestEventWriteRetried(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	defer logDB.Close()

	store := &flakyStore{LogDB: logDB}
	f := newRuntime(t, db, logDB)
	rt, err := New(db, store, f.rt.Deps(), 16)
	require.NoError(t, err)
	rt.SetClock(func() uint64 { return now })
	ctx := context.Background()

	var unwritten []int
	rt.OnCommit(func(r *Receipt) { unwritten = append(unwritten, r.UnwrittenEvents) })

	store.failing = true
	_, receipt, err := rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.UnwrittenEvents)
	assert.Equal(t, 2, rt.UnwrittenEvents())

	// committed state is not affected
	bal, _ := rt.Balance(alice)
	assert.Equal(t, ether(9), bal)

	events, err := logDB.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	store.failing = false
	_, receipt, err = rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
	require.NoError(t, err)
	assert.Zero(t, receipt.UnwrittenEvents)
	assert.Zero(t, rt.UnwrittenEvents())
	assert.Equal(t, []int{2, 0}, unwritten)

	events, err = logDB.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, uint64(2), events[3].Seq)
}

func TestSeqKeptInState(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	defer logDB.Close()

	f := newRuntime(t, db, logDB)
	ctx := context.Background()
	_, _, err = f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 3600)
	require.NoError(t, err)
	_, _, err = f.rt.Stake(ctx, &Call{Caller: alice, Value: ether(1)}, 10)
	require.Error(t, err)

	// a store that lost its events does not make the sequence go back
	empty, err := logdb.NewMem()
	require.NoError(t, err)
	defer empty.Close()
	rt, err := New(db, empty, f.rt.Deps(), 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rt.Seq())

	rt, err = New(db, nil, f.rt.Deps(), 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rt.Seq())
}

func TestViewHasZeroValue(t *testing.T) {
	f := newMemFixture(t)
	require.NoError(t, f.rt.View(func(c *Contracts) error {
		assert.Equal(t, 0, c.Env.Value().Sign())
		assert.Equal(t, now, c.Env.Time())
		return nil
	}))
}
