// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/builtin"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
	"github.com/stakelock/stakelock/transfer"
)

// Genesis is the initial state of a fresh ledger.
type Genesis struct {
	// Balances credits native value to accounts.
	Balances map[stakelock.Address]*big.Int
	// Rejecting accounts refuse incoming native transfers.
	Rejecting []stakelock.Address
}

// Initialize sets up the ledger on first start. The token is owned by the staker contract.
// It is a no-op for balances if the ledger is already initialized, and reports whether it was.
func (rt *Runtime) Initialize(gen *Genesis) (bool, error) {
	for _, addr := range gen.Rejecting {
		rt.deps.Receivers.Register(addr, transfer.Reject)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	st := state.New(rt.db, rt.cache)
	tok := builtin.Token.Native(st, nil)
	owner, err := tok.Owner()
	if err != nil {
		return false, err
	}
	if !owner.IsZero() {
		if owner != builtin.Staker.Address {
			return false, errors.Errorf("token owned by %v, not the staker", owner)
		}
		return false, nil
	}

	if err := tok.Initialize(builtin.Staker.Address); err != nil {
		return false, err
	}
	for addr, bal := range gen.Balances {
		if err := st.SetBalance(addr, bal); err != nil {
			return false, errors.Wrapf(err, "genesis balance of %v", addr)
		}
	}
	stage, err := st.Stage()
	if err != nil {
		return false, err
	}
	if err := stage.Commit(); err != nil {
		return false, err
	}
	logger.Info("ledger initialized", "staker", builtin.Staker.Address, "token", builtin.Token.Address, "accounts", len(gen.Balances))
	return true, nil
}
