// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stakelock/stakelock/builtin/staker/position"
	"github.com/stakelock/stakelock/stakelock"
)

type Params struct {
	MinimumStakingPeriod uint64            `json:"minimumStakingPeriod"`
	PriceFreshness       uint64            `json:"priceFreshness"`
	Scaling              string            `json:"scaling"`
	DataFeed             stakelock.Address `json:"dataFeed"`
}

type Amount struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Price struct {
	Price     *math.HexOrDecimal256 `json:"price"`
	Decimals  uint8                 `json:"decimals"`
	UpdatedAt uint64                `json:"updatedAt"`
}

type IDs struct {
	Owner stakelock.Address `json:"owner"`
	IDs   uint64            `json:"ids"`
}

type Position struct {
	Index       uint64                `json:"index"`
	ETHAmount   *math.HexOrDecimal256 `json:"ethAmount"`
	TokenAmount *math.HexOrDecimal256 `json:"tokenAmount"`
	StartTime   uint64                `json:"startTime"`
	EndTime     uint64                `json:"endTime"`
	Open        bool                  `json:"open"`
	Packed      string                `json:"packed"`
}

func convertPosition(index uint64, p *position.Position) *Position {
	return &Position{
		Index:       index,
		ETHAmount:   (*math.HexOrDecimal256)(p.ETHAmount),
		TokenAmount: (*math.HexOrDecimal256)(p.TokenAmount),
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Open:        p.IsOpen(),
		Packed:      p.Packed().String(),
	}
}

// StakeRequest stakes Value for LockDuration seconds. Time overrides the node clock when set.
type StakeRequest struct {
	Caller       *stakelock.Address    `json:"caller"`
	Value        *math.HexOrDecimal256 `json:"value"`
	LockDuration uint64                `json:"lockDuration"`
	Time         uint64                `json:"time,omitempty"`
}

type UnstakeRequest struct {
	Caller *stakelock.Address `json:"caller"`
	Index  uint64             `json:"index"`
	Time   uint64             `json:"time,omitempty"`
}

type CallResult struct {
	Seq   uint64  `json:"seq"`
	Time  uint64  `json:"time"`
	Index *uint64 `json:"index,omitempty"`
}
