// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakelock

import "math/big"

// Ledger parameters.
const (
	// MinimumStakingPeriod is the shortest lock duration accepted by stake, in seconds.
	MinimumStakingPeriod uint64 = 3600
	// PriceFreshness is the maximum age of an oracle answer, in seconds.
	PriceFreshness uint64 = 3600

	// AmountBits is the storage width of staked and credited amounts.
	AmountBits = 104
	// TimeBits is the storage width of position timestamps.
	TimeBits = 48
)

// OracleAddress identifies the mock price feed of a dev ledger.
var OracleAddress = BytesToAddress([]byte("price-feed"))

// Ether is 1e18 wei.
var Ether = big.NewInt(1e18)
