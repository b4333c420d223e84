// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/oracle"
)

// Scaling converts a staked ETH amount into accounting token units.
type Scaling uint8

const (
	// ScaleRaw credits value * price, ignoring the feed decimals.
	ScaleRaw Scaling = iota
	// ScaleDecimals credits value * price / 10^decimals.
	ScaleDecimals
)

var scalingNames = map[Scaling]string{
	ScaleRaw:      "raw",
	ScaleDecimals: "decimals",
}

func (s Scaling) String() string {
	if name, ok := scalingNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseScaling parses the name of a scaling mode.
func ParseScaling(name string) (Scaling, error) {
	for s, n := range scalingNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Errorf("unknown scaling %q", name)
}

// Apply returns the token amount credited for value at the snapshot price.
// The result is not range checked.
func (s Scaling) Apply(value *big.Int, snapshot *oracle.Snapshot) *big.Int {
	amount := new(big.Int).Mul(value, snapshot.Price)
	if s == ScaleDecimals {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(snapshot.Decimals)), nil)
		amount.Quo(amount, divisor)
	}
	return amount
}
