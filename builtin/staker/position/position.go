// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/stakelock/stakelock/stakelock"
)

const (
	tokenShift = stakelock.AmountBits
	endShift   = 2 * stakelock.AmountBits
)

// Position is a single time-locked stake of an owner.
// An EndTime of zero marks the position as closed. Amounts are kept after closing.
type Position struct {
	ETHAmount   *big.Int `rlp:"nil"`
	TokenAmount *big.Int `rlp:"nil"`
	StartTime   uint64
	EndTime     uint64
}

// IsOpen reports whether the position still holds custodied value.
func (p *Position) IsOpen() bool {
	return p != nil && p.EndTime != 0
}

// Packed returns the position as a single storage word:
// ETH amount in bits [0,104), token amount in [104,208) and end time in [208,256).
// The start time is not part of the word.
func (p *Position) Packed() stakelock.Bytes32 {
	word := new(uint256.Int)
	if p.ETHAmount != nil {
		word.SetFromBig(p.ETHAmount)
	}
	if p.TokenAmount != nil {
		token, _ := uint256.FromBig(p.TokenAmount)
		word.Or(word, token.Lsh(token, tokenShift))
	}
	end := uint256.NewInt(p.EndTime)
	word.Or(word, end.Lsh(end, endShift))
	return stakelock.Bytes32(word.Bytes32())
}

// Unpack is the inverse of Packed. StartTime is left zero.
func Unpack(word stakelock.Bytes32) *Position {
	v := new(uint256.Int).SetBytes32(word[:])
	mask := func(bits uint) *uint256.Int {
		one := uint256.NewInt(1)
		return new(uint256.Int).Sub(new(uint256.Int).Lsh(one, bits), one)
	}
	eth := new(uint256.Int).And(v, mask(stakelock.AmountBits))
	token := new(uint256.Int).Rsh(v, tokenShift)
	token.And(token, mask(stakelock.AmountBits))
	end := new(uint256.Int).Rsh(v, endShift)
	return &Position{
		ETHAmount:   eth.ToBig(),
		TokenAmount: token.ToBig(),
		EndTime:     end.Uint64(),
	}
}

func (p *Position) clone() *Position {
	cpy := *p
	if p.ETHAmount != nil {
		cpy.ETHAmount = new(big.Int).Set(p.ETHAmount)
	}
	if p.TokenAmount != nil {
		cpy.TokenAmount = new(big.Int).Set(p.TokenAmount)
	}
	return &cpy
}
