// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package transfer pushes native value out of custody.
package transfer

import (
	"math/big"
	"sync"

	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
)

var logger = log.WithContext("pkg", "transfer")

// Receiver is consulted before value is pushed to its address.
// A non-nil error refuses the transfer.
type Receiver interface {
	Receive(from stakelock.Address, amount *big.Int) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(from stakelock.Address, amount *big.Int) error

func (f ReceiverFunc) Receive(from stakelock.Address, amount *big.Int) error {
	return f(from, amount)
}

// Reject is a receiver that refuses every transfer, like an account without a payable fallback.
var Reject Receiver = ReceiverFunc(func(stakelock.Address, *big.Int) error {
	return reverts.EtherTransferFailed
})

// Registry maps addresses to receivers. Addresses without a receiver accept any transfer.
type Registry struct {
	lock      sync.RWMutex
	receivers map[stakelock.Address]Receiver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{receivers: make(map[stakelock.Address]Receiver)}
}

// Register sets the receiver of addr. A nil receiver removes it.
func (r *Registry) Register(addr stakelock.Address, receiver Receiver) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if receiver == nil {
		delete(r.receivers, addr)
		return
	}
	r.receivers[addr] = receiver
}

func (r *Registry) get(addr stakelock.Address) Receiver {
	if r == nil {
		return nil
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.receivers[addr]
}

// Pusher moves native balance between accounts of a state.
type Pusher struct {
	state     *state.State
	receivers *Registry
}

// New creates a pusher. receivers may be nil.
func New(state *state.State, receivers *Registry) *Pusher {
	return &Pusher{state: state, receivers: receivers}
}

// Push sends amount from the custody account to the recipient.
// Any refusal, or an insufficient custody balance, is reported as EtherTransferFailed.
// Balances are untouched on failure.
func (p *Pusher) Push(from, to stakelock.Address, amount *big.Int) error {
	if receiver := p.receivers.get(to); receiver != nil {
		if err := receiver.Receive(from, amount); err != nil {
			logger.Debug("transfer refused", "to", to, "amount", amount, "err", err)
			return reverts.EtherTransferFailed
		}
	}

	ok, err := p.state.SubBalance(from, amount)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("custody balance insufficient", "from", from, "amount", amount)
		return reverts.EtherTransferFailed
	}
	return p.state.AddBalance(to, amount)
}

// Pull moves value sent with a call into custody. It fails with InsufficientBalance
// if the sender can't cover it.
func (p *Pusher) Pull(from, custody stakelock.Address, amount *big.Int) error {
	ok, err := p.state.SubBalance(from, amount)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.InsufficientBalance
	}
	return p.state.AddBalance(custody, amount)
}
