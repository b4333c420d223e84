// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the revert conditions of the staking ledger and its collaborators.
// A revert aborts the enclosing call and is surfaced to the caller by name.
package reverts

import (
	"errors"

	"github.com/stakelock/stakelock/stakelock"
)

// Error is a custom revert, identified by its name and ABI selector.
type Error struct {
	name     string
	selector [4]byte
}

// New creates a revert for the parameterless custom error name().
func New(name string) *Error {
	e := &Error{name: name}
	copy(e.selector[:], stakelock.Keccak256([]byte(name+"()")).Bytes())
	return e
}

func (e *Error) Error() string {
	return e.name
}

// Name returns the custom error name.
func (e *Error) Name() string {
	return e.name
}

// Selector returns the 4-byte ABI selector.
func (e *Error) Selector() [4]byte {
	return e.selector
}

// Bytes returns the ABI encoded revert data.
func (e *Error) Bytes() []byte {
	if e == nil {
		return nil
	}
	return append([]byte(nil), e.selector[:]...)
}

// Staking ledger reverts.
var (
	ZeroStakingAmount            = New("ZeroStakingAmount")
	MinimumStakingPeriodTooShort = New("MinimumStakingPeriodTooShort")
	CastOverflow                 = New("CastOverflow")
	StaleData                    = New("StaleData")
	ZeroPrice                    = New("ZeroPrice")
	StakingPeriodNotPassed       = New("StakingPeriodNotPassed")
	StakePositionNotActive       = New("StakePositionNotActive")
	EtherTransferFailed          = New("EtherTransferFailed")
)

// Accounting token reverts.
var (
	NotAuthorized         = New("NotAuthorized")
	InsufficientAllowance = New("InsufficientAllowance")
	InsufficientBalance   = New("InsufficientBalance")
)

var all = []*Error{
	ZeroStakingAmount,
	MinimumStakingPeriodTooShort,
	CastOverflow,
	StaleData,
	ZeroPrice,
	StakingPeriodNotPassed,
	StakePositionNotActive,
	EtherTransferFailed,
	NotAuthorized,
	InsufficientAllowance,
	InsufficientBalance,
}

// IsRevertErr reports whether err is, or wraps, a revert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var re *Error
	if errors.As(e, &re) {
		return re != nil
	}
	return false
}

// As extracts the revert from err, if any.
func As(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) && re != nil {
		return re, true
	}
	return nil, false
}

// FromSelector looks up a known revert by its ABI selector.
func FromSelector(data []byte) (*Error, bool) {
	if len(data) < 4 {
		return nil, false
	}
	for _, e := range all {
		if string(e.selector[:]) == string(data[:4]) {
			return e, true
		}
	}
	return nil, false
}
