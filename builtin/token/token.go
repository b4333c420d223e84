// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the accounting token credited to stakers.
// Only the owner, the staking ledger, may mint and burn.
package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/abi"
	"github.com/stakelock/stakelock/builtin/gen"
	"github.com/stakelock/stakelock/builtin/solidity"
	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
)

var (
	logger = log.WithContext("pkg", "token")

	slotOwner       = nameToSlot("owner")
	slotTotalSupply = nameToSlot("total-supply")
	slotBalances    = nameToSlot("balances")
	slotAllowances  = nameToSlot("allowances")

	contractABI   = mustLoadABI()
	transferEvent = contractABI.MustEventByName("Transfer")
	approvalEvent = contractABI.MustEventByName("Approval")
)

func nameToSlot(name string) stakelock.Bytes32 {
	return stakelock.BytesToBytes32([]byte(name))
}

func mustLoadABI() *abi.ABI {
	a, err := abi.New(gen.MustABI("Token"))
	if err != nil {
		panic(errors.Wrap(err, "load token abi"))
	}
	return a
}

func allowanceKey(owner, spender stakelock.Address) stakelock.Bytes32 {
	return stakelock.Keccak256(owner.Bytes(), spender.Bytes())
}

func addressTopic(addr stakelock.Address) stakelock.Bytes32 {
	return stakelock.BytesToBytes32(addr.Bytes())
}

// AccountingToken is the token the ledger credits on stake and debits on unstake.
type AccountingToken interface {
	Address() stakelock.Address
	Mint(minter, to stakelock.Address, amount *big.Int) error
	Burn(burner, from stakelock.Address, amount *big.Int) error
	TotalSupply() (*big.Int, error)
	BalanceOf(addr stakelock.Address) (*big.Int, error)
	Allowance(owner, spender stakelock.Address) (*big.Int, error)
}

// Emitter records events of the current call.
type Emitter interface {
	Log(ev *abi.Event, address stakelock.Address, topics []stakelock.Bytes32, args ...any)
}

// Token is the state backed accounting token.
type Token struct {
	addr    stakelock.Address
	emitter Emitter

	owner       *solidity.Address
	totalSupply *solidity.Uint256
	balances    *solidity.Mapping[stakelock.Address, *big.Int]
	allowances  *solidity.Mapping[stakelock.Bytes32, *big.Int]
}

var _ AccountingToken = (*Token)(nil)

// New creates the token at addr. emitter may be nil for read only access.
func New(addr stakelock.Address, state *state.State, emitter Emitter) *Token {
	sctx := solidity.NewContext(addr, state)
	return &Token{
		addr:        addr,
		emitter:     emitter,
		owner:       solidity.NewAddress(sctx, slotOwner),
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		balances:    solidity.NewMapping[stakelock.Address, *big.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[stakelock.Bytes32, *big.Int](sctx, slotAllowances),
	}
}

func (t *Token) log(ev *abi.Event, topics []stakelock.Bytes32, args ...any) {
	if t.emitter != nil {
		t.emitter.Log(ev, t.addr, topics, args...)
	}
}

// Address returns the token address.
func (t *Token) Address() stakelock.Address {
	return t.addr
}

// Owner returns the only account allowed to mint and burn.
func (t *Token) Owner() (stakelock.Address, error) {
	return t.owner.Get()
}

// Initialize sets the owner once. It's a no-op when the owner is already set to owner.
func (t *Token) Initialize(owner stakelock.Address) error {
	current, err := t.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() && current != owner {
		return errors.Errorf("token owner already set to %v", current)
	}
	t.owner.Set(&owner)
	return nil
}

func (t *Token) onlyOwner(caller stakelock.Address) error {
	owner, err := t.owner.Get()
	if err != nil {
		return err
	}
	if owner.IsZero() || caller != owner {
		return reverts.NotAuthorized
	}
	return nil
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

func (t *Token) BalanceOf(addr stakelock.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

func (t *Token) Allowance(owner, spender stakelock.Address) (*big.Int, error) {
	return t.allowances.Get(allowanceKey(owner, spender))
}

func (t *Token) setBalance(addr stakelock.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	return t.balances.Set(addr, amount)
}

func (t *Token) setAllowance(owner, spender stakelock.Address, amount *big.Int) error {
	key := allowanceKey(owner, spender)
	if amount.Sign() == 0 {
		t.allowances.Delete(key)
		return nil
	}
	return t.allowances.Set(key, amount)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return errors.Errorf("invalid token amount: %v", amount)
	}
	return nil
}

// Approve lets spender burn up to amount of owner's tokens.
func (t *Token) Approve(owner, spender stakelock.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.setAllowance(owner, spender, amount); err != nil {
		return err
	}
	t.log(approvalEvent, []stakelock.Bytes32{addressTopic(owner), addressTopic(spender)}, amount)
	return nil
}

// Mint credits amount to the recipient.
func (t *Token) Mint(minter, to stakelock.Address, amount *big.Int) error {
	if err := t.onlyOwner(minter); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	balance, err := t.balances.Get(to)
	if err != nil {
		return err
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	if err := t.setBalance(to, balance.Add(balance, amount)); err != nil {
		return err
	}

	t.log(transferEvent, []stakelock.Bytes32{addressTopic(stakelock.Address{}), addressTopic(to)}, amount)
	logger.Trace("minted", "to", to, "amount", amount)
	return nil
}

// Burn debits amount from the holder, spending the allowance the holder granted to the burner.
// An allowance of max uint256 is never decreased.
func (t *Token) Burn(burner, from stakelock.Address, amount *big.Int) error {
	if err := t.onlyOwner(burner); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	allowance, err := t.Allowance(from, burner)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return reverts.InsufficientAllowance
	}
	balance, err := t.balances.Get(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return reverts.InsufficientBalance
	}

	if allowance.Cmp(math.MaxBig256) != 0 {
		if err := t.setAllowance(from, burner, allowance.Sub(allowance, amount)); err != nil {
			return err
		}
	}
	if err := t.setBalance(from, balance.Sub(balance, amount)); err != nil {
		return err
	}
	if err := t.totalSupply.Sub(amount); err != nil {
		return err
	}

	t.log(transferEvent, []stakelock.Bytes32{addressTopic(from), addressTopic(stakelock.Address{})}, amount)
	logger.Trace("burned", "from", from, "amount", amount)
	return nil
}
