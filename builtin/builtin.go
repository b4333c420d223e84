// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/stakelock/stakelock/builtin/staker"
	"github.com/stakelock/stakelock/builtin/token"
	"github.com/stakelock/stakelock/oracle"
	"github.com/stakelock/stakelock/state"
	"github.com/stakelock/stakelock/transfer"
)

// Builtin contracts binding.
var (
	Staker = &stakerContract{mustLoadContract("Staker")}
	Token  = &tokenContract{mustLoadContract("Token")}
)

type (
	stakerContract struct{ *contract }
	tokenContract  struct{ *contract }
)

// StakerDeps are the collaborators of the ledger that don't live in state.
type StakerDeps struct {
	Params    staker.Params
	Oracle    *oracle.Adapter
	Receivers *transfer.Registry
}

// Native returns the token bound to state. Events go to emitter, which may be nil for reads.
func (t *tokenContract) Native(state *state.State, emitter token.Emitter) *token.Token {
	return token.New(t.Address, state, emitter)
}

// Native returns the ledger bound to state, together with the token it credits.
func (s *stakerContract) Native(state *state.State, emitter token.Emitter, deps *StakerDeps) *staker.Staker {
	return staker.New(
		s.Address,
		state,
		deps.Params,
		deps.Oracle,
		Token.Native(state, emitter),
		transfer.New(state, deps.Receivers),
	)
}
