// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math/big"

	"github.com/stakelock/stakelock/builtin/solidity"
	"github.com/stakelock/stakelock/stakelock"
)

var slotTotalStaked = stakelock.BytesToBytes32([]byte("total-staked"))

// Service manages contract-wide staking totals.
// The total is the sum of ETH amounts of all open positions.
type Service struct {
	totalStaked *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		totalStaked: solidity.NewUint256(sctx, slotTotalStaked),
	}
}

// TotalStaked returns the ETH held by open positions.
func (s *Service) TotalStaked() (*big.Int, error) {
	return s.totalStaked.Get()
}

// AddStaked accounts a newly opened position.
func (s *Service) AddStaked(amount *big.Int) error {
	return s.totalStaked.Add(amount)
}

// RemoveStaked accounts a closed position. It fails rather than go below zero.
func (s *Service) RemoveStaked(amount *big.Int) error {
	return s.totalStaked.Sub(amount)
}
