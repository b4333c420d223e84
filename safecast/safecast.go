// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package safecast narrows unsigned magnitudes into fixed bit widths before they are stored.
// Values that do not fit are rejected with reverts.CastOverflow, never truncated.
package safecast

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
)

// Max returns the largest value representable in the given number of bits.
func Max(bits uint) *uint256.Int {
	if bits >= 256 {
		return new(uint256.Int).SetAllOne()
	}
	one := uint256.NewInt(1)
	return new(uint256.Int).Sub(new(uint256.Int).Lsh(one, bits), one)
}

// Narrow checks that x is non-negative and fits into bits, and returns it as an uint256.
func Narrow(x *big.Int, bits uint) (*uint256.Int, error) {
	if x == nil || x.Sign() < 0 {
		return nil, reverts.CastOverflow
	}
	if uint(x.BitLen()) > bits {
		return nil, reverts.CastOverflow
	}
	v, overflow := uint256.FromBig(x)
	if overflow {
		return nil, reverts.CastOverflow
	}
	return v, nil
}

// Uint104 is an amount that is guaranteed to fit into 104 bits.
type Uint104 struct {
	v uint256.Int
}

// ToUint104 narrows x into a Uint104.
func ToUint104(x *big.Int) (Uint104, error) {
	v, err := Narrow(x, stakelock.AmountBits)
	if err != nil {
		return Uint104{}, err
	}
	return Uint104{v: *v}, nil
}

// Big returns a copy of the value as *big.Int.
func (u Uint104) Big() *big.Int {
	return u.v.ToBig()
}

// IsZero reports whether the value is zero.
func (u Uint104) IsZero() bool {
	return u.v.IsZero()
}

func (u Uint104) String() string {
	return u.v.Dec()
}

// Uint48 is a timestamp that is guaranteed to fit into 48 bits.
type Uint48 uint64

// ToUint48 narrows x into an Uint48.
func ToUint48(x *big.Int) (Uint48, error) {
	v, err := Narrow(x, stakelock.TimeBits)
	if err != nil {
		return 0, err
	}
	return Uint48(v.Uint64()), nil
}

// AddUint48 returns a+b narrowed into 48 bits. The sum is computed without wraparound.
func AddUint48(a, b uint64) (Uint48, error) {
	sum := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	if sum.BitLen() > stakelock.TimeBits {
		return 0, reverts.CastOverflow
	}
	return Uint48(sum.Uint64()), nil
}
