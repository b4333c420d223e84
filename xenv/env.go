// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/abi"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
)

// CallContext call context.
type CallContext struct {
	// Seq is the sequence number of the call, increasing across committed calls.
	Seq    uint64
	Caller stakelock.Address
	Value  *big.Int
	Time   uint64
}

// Event is a log emitted by a built-in contract during a call.
type Event struct {
	Address stakelock.Address
	Topics  []stakelock.Bytes32
	Data    []byte
}

// Environment an env to execute a ledger call.
// Events are buffered and only published when the call is committed.
type Environment struct {
	state   *state.State
	callCtx *CallContext
	events  []*Event
}

// New create a new env.
func New(state *state.State, callCtx *CallContext) *Environment {
	if callCtx.Value == nil {
		callCtx.Value = new(big.Int)
	}
	return &Environment{
		state:   state,
		callCtx: callCtx,
	}
}

func (env *Environment) State() *state.State       { return env.state }
func (env *Environment) CallContext() *CallContext { return env.callCtx }
func (env *Environment) Caller() stakelock.Address { return env.callCtx.Caller }
func (env *Environment) Time() uint64              { return env.callCtx.Time }

// Value returns a copy of the native value sent with the call.
func (env *Environment) Value() *big.Int {
	return new(big.Int).Set(env.callCtx.Value)
}

// Log buffers an event. The event id is prepended to topics.
func (env *Environment) Log(ev *abi.Event, address stakelock.Address, topics []stakelock.Bytes32, args ...any) {
	data, err := ev.Encode(args...)
	if err != nil {
		panic(errors.WithMessage(err, "encode native event"))
	}

	allTopics := make([]stakelock.Bytes32, 0, len(topics)+1)
	allTopics = append(allTopics, ev.ID())
	allTopics = append(allTopics, topics...)
	env.events = append(env.events, &Event{
		Address: address,
		Topics:  allTopics,
		Data:    data,
	})
}

// Events returns events buffered so far.
func (env *Environment) Events() []*Event {
	return env.events
}

// Revision marks the current length of the event buffer.
func (env *Environment) Revision() int {
	return len(env.events)
}

// RevertTo drops events buffered after the revision.
func (env *Environment) RevertTo(revision int) {
	if revision < len(env.events) {
		env.events = env.events[:revision]
	}
}
