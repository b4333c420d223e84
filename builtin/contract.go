// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"fmt"

	"github.com/stakelock/stakelock/abi"
	"github.com/stakelock/stakelock/builtin/gen"
	"github.com/stakelock/stakelock/stakelock"
)

type contract struct {
	name    string
	Address stakelock.Address
	ABI     *abi.ABI
}

func mustLoadContract(name string) *contract {
	abi, err := abi.New(gen.MustABI(name))
	if err != nil {
		panic(fmt.Errorf("load ABI for '%s': %w", name, err))
	}

	return &contract{
		name,
		stakelock.BytesToAddress([]byte(name)),
		abi,
	}
}

// Name returns the contract name the address is derived from.
func (c *contract) Name() string {
	return c.name
}
