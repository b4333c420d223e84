// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes ledger calls as atomic transactions over the persistent state.
package runtime

import (
	"context"
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/builtin"
	"github.com/stakelock/stakelock/builtin/staker"
	"github.com/stakelock/stakelock/builtin/token"
	"github.com/stakelock/stakelock/cache"
	"github.com/stakelock/stakelock/kv"
	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/logdb"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
	"github.com/stakelock/stakelock/transfer"
	"github.com/stakelock/stakelock/xenv"
)

var logger = log.WithContext("pkg", "runtime")

// the sequence of the last committed call is kept in state, committed together with the call
var (
	metaAddress = stakelock.BytesToAddress([]byte("runtime"))
	seqKey      = stakelock.BytesToBytes32([]byte("seq"))
)

// EventStore persists the events of committed calls. *logdb.LogDB is the production store.
type EventStore interface {
	Write(events []*logdb.Event) error
	LastSeq(ctx context.Context) (uint64, error)
}

// Call describes who calls the ledger, with how much value and when.
type Call struct {
	Caller stakelock.Address
	Value  *big.Int
	// Time of the call in unix seconds, the runtime clock is used when zero.
	Time uint64
}

// Receipt is the outcome of a committed call.
type Receipt struct {
	Seq    uint64
	Time   uint64
	Events []*xenv.Event
	// UnwrittenEvents counts events, of this and earlier calls, the event store has not accepted yet.
	UnwrittenEvents int
}

// Contracts are the built-in contracts bound to the state of one call.
type Contracts struct {
	Staker *staker.Staker
	Token  *token.Token
	Env    *xenv.Environment
}

// Runtime serializes calls to the ledger. Every call runs on a fresh view of the committed state,
// and is either committed as a whole, events included, or discarded.
type Runtime struct {
	mu    sync.RWMutex
	db    kv.Store
	cache *cache.LRU
	logDB EventStore
	deps  *builtin.StakerDeps
	clock func() uint64
	seq   uint64

	// events of committed calls the store failed to write, retried on the next commit
	unwritten []*logdb.Event

	onCommit func(*Receipt)
}

// New creates a runtime over db. logDB may be nil, events are then only returned in receipts.
func New(db kv.Store, logDB EventStore, deps *builtin.StakerDeps, cacheSize int) (*Runtime, error) {
	if deps.Receivers == nil {
		deps.Receivers = transfer.NewRegistry()
	}
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create state cache")
	}
	rt := &Runtime{
		db:    db,
		cache: c,
		logDB: logDB,
		deps:  deps,
		clock: func() uint64 { return uint64(time.Now().Unix()) },
	}
	seq, err := loadSeq(state.New(db, c))
	if err != nil {
		return nil, err
	}
	rt.seq = seq
	if logDB != nil {
		// ledgers written before the sequence was kept in state
		last, err := logDB.LastSeq(context.Background())
		if err != nil {
			return nil, err
		}
		rt.seq = max(rt.seq, last)
	}
	return rt, nil
}

func loadSeq(st *state.State) (uint64, error) {
	v, err := st.GetStorage(metaAddress, seqKey)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(v[24:]), nil
}

func storeSeq(st *state.State, seq uint64) {
	var v stakelock.Bytes32
	binary.BigEndian.PutUint64(v[24:], seq)
	st.SetStorage(metaAddress, seqKey, v)
}

// SetClock replaces the wall clock used for calls without an explicit time.
func (rt *Runtime) SetClock(clock func() uint64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.clock = clock
}

// Now returns the current runtime time.
func (rt *Runtime) Now() uint64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.clock()
}

// OnCommit registers fn to be called, under the runtime lock, after every committed call.
func (rt *Runtime) OnCommit(fn func(*Receipt)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.onCommit = fn
}

// Seq returns the sequence number of the last committed call.
func (rt *Runtime) Seq() uint64 {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.seq
}

func (rt *Runtime) Deps() *builtin.StakerDeps {
	return rt.deps
}

// Execute runs fn as a single atomic call. The call value is moved from the caller into the
// ledger's custody before fn runs. On error nothing is persisted.
func (rt *Runtime) Execute(ctx context.Context, method string, call *Call, fn func(ctx context.Context, c *Contracts) error) (receipt *Receipt, err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	startTime := time.Now()
	defer func() {
		metricCallDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"method": method})
		if err != nil {
			reportRevert(method, err)
		}
	}()

	now := call.Time
	if now == 0 {
		now = rt.clock()
	}
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, errors.New("negative call value")
	}

	st := state.New(rt.db, rt.cache)
	env := xenv.New(st, &xenv.CallContext{
		Seq:    rt.seq + 1,
		Caller: call.Caller,
		Value:  value,
		Time:   now,
	})
	contracts := &Contracts{
		Staker: builtin.Staker.Native(st, env, rt.deps),
		Token:  builtin.Token.Native(st, env),
		Env:    env,
	}

	checkpoint := st.NewCheckpoint()
	revision := env.Revision()
	if err := rt.run(ctx, st, call.Caller, value, contracts, fn); err != nil {
		st.RevertTo(checkpoint)
		env.RevertTo(revision)
		logger.Debug("call reverted", "method", method, "caller", call.Caller, "err", err)
		return nil, err
	}

	storeSeq(st, rt.seq+1)
	stage, err := st.Stage()
	if err != nil {
		return nil, err
	}
	if err := stage.Commit(); err != nil {
		return nil, err
	}
	rt.seq++

	receipt = &Receipt{Seq: rt.seq, Time: now, Events: env.Events()}
	if rt.logDB != nil {
		receipt.UnwrittenEvents = rt.writeEvents(toLogEvents(receipt, call.Caller))
	}

	metricCalls().AddWithLabel(1, map[string]string{"method": method})
	if total, err := contracts.Staker.TotalStaked(); err == nil {
		reportTotalStaked(total)
	}
	if rt.onCommit != nil {
		rt.onCommit(receipt)
	}
	logger.Debug("call committed", "method", method, "caller", call.Caller, "seq", rt.seq, "changes", stage.Len())
	return receipt, nil
}

func (rt *Runtime) run(ctx context.Context, st *state.State, caller stakelock.Address, value *big.Int, c *Contracts, fn func(context.Context, *Contracts) error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("call panicked: %v", e)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	if value.Sign() > 0 {
		pusher := transfer.New(st, rt.deps.Receivers)
		if err := pusher.Pull(caller, builtin.Staker.Address, value); err != nil {
			return err
		}
	}
	return fn(ctx, c)
}

// writeEvents stores events after any backlog of earlier calls. State is already committed
// at this point, so on failure the events are kept for the next commit instead of being dropped.
// It returns the size of the backlog.
func (rt *Runtime) writeEvents(events []*logdb.Event) int {
	pending := append(rt.unwritten, events...)
	if len(pending) == 0 {
		return 0
	}
	if err := rt.logDB.Write(pending); err != nil {
		rt.unwritten = pending
		metricUnwrittenEvents().Set(int64(len(pending)))
		metricEventWriteFailures().Add(1)
		logger.Error("failed to write events, kept for retry", "seq", rt.seq, "unwritten", len(pending), "err", err)
		return len(pending)
	}
	if len(rt.unwritten) > 0 {
		logger.Info("unwritten events stored", "count", len(rt.unwritten))
		metricUnwrittenEvents().Set(0)
	}
	rt.unwritten = nil
	return 0
}

// UnwrittenEvents returns the number of committed events the event store has not accepted yet.
func (rt *Runtime) UnwrittenEvents() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.unwritten)
}

func toLogEvents(receipt *Receipt, caller stakelock.Address) []*logdb.Event {
	events := make([]*logdb.Event, 0, len(receipt.Events))
	for i, ev := range receipt.Events {
		events = append(events, logdb.NewEvent(receipt.Seq, uint32(i), receipt.Time, caller, ev.Address, ev.Topics, ev.Data))
	}
	return events
}

// View runs fn against the committed state. Changes made by fn are discarded.
func (rt *Runtime) View(fn func(c *Contracts) error) error {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	st := state.New(rt.db, rt.cache)
	env := xenv.New(st, &xenv.CallContext{Seq: rt.seq, Time: rt.clock()})
	return fn(&Contracts{
		Staker: builtin.Staker.Native(st, nil, rt.deps),
		Token:  builtin.Token.Native(st, nil),
		Env:    env,
	})
}

// Stake stakes value of caller for lockDuration seconds.
func (rt *Runtime) Stake(ctx context.Context, call *Call, lockDuration uint64) (uint64, *Receipt, error) {
	var index uint64
	receipt, err := rt.Execute(ctx, "stake", call, func(ctx context.Context, c *Contracts) (err error) {
		index, err = c.Staker.Stake(ctx, c.Env, lockDuration)
		return
	})
	if err != nil {
		return 0, nil, err
	}
	return index, receipt, nil
}

// Unstake closes the position at index of the caller.
func (rt *Runtime) Unstake(ctx context.Context, call *Call, index uint64) (*Receipt, error) {
	return rt.Execute(ctx, "unstake", call, func(ctx context.Context, c *Contracts) error {
		return c.Staker.Unstake(ctx, c.Env, index)
	})
}

// Approve lets the ledger burn up to amount of the caller's tokens.
func (rt *Runtime) Approve(ctx context.Context, call *Call, amount *big.Int) (*Receipt, error) {
	return rt.Execute(ctx, "approve", call, func(_ context.Context, c *Contracts) error {
		if call.Value != nil && call.Value.Sign() != 0 {
			return errors.New("approve is not payable")
		}
		return c.Token.Approve(call.Caller, builtin.Staker.Address, amount)
	})
}

// Balance returns the native balance of addr.
func (rt *Runtime) Balance(addr stakelock.Address) (bal *big.Int, err error) {
	err = rt.View(func(c *Contracts) error {
		bal, err = c.Env.State().GetBalance(addr)
		return err
	})
	return
}

// IsRevert reports whether err is a ledger revert rather than an infrastructure failure.
func IsRevert(err error) bool {
	_, ok := reverts.As(err)
	return ok
}
