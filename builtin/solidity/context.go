// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
)

// Context binds typed storage to the account of a built-in contract.
type Context struct {
	address stakelock.Address
	state   *state.State
}

func NewContext(address stakelock.Address, state *state.State) *Context {
	return &Context{address: address, state: state}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() stakelock.Address {
	return c.address
}
