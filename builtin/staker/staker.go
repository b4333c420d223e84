// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker implements the time-locked staking ledger.
//
// A stake locks the native value sent with the call for at least the minimum staking period
// and credits the caller with accounting tokens valued at the current oracle price.
// An unstake after the lock burns those tokens and pays the exact ETH amount back.
package staker

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/abi"
	"github.com/stakelock/stakelock/builtin/gen"
	"github.com/stakelock/stakelock/builtin/solidity"
	"github.com/stakelock/stakelock/builtin/staker/globalstats"
	"github.com/stakelock/stakelock/builtin/staker/position"
	"github.com/stakelock/stakelock/builtin/token"
	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/oracle"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/safecast"
	"github.com/stakelock/stakelock/stakelock"
	"github.com/stakelock/stakelock/state"
	"github.com/stakelock/stakelock/transfer"
	"github.com/stakelock/stakelock/xenv"
)

var (
	logger = log.WithContext("pkg", "staker")

	contractABI   = mustLoadABI()
	stakedEvent   = contractABI.MustEventByName("Staked")
	unstakedEvent = contractABI.MustEventByName("UnStaked")
)

func mustLoadABI() *abi.ABI {
	a, err := abi.New(gen.MustABI("Staker"))
	if err != nil {
		panic(errors.Wrap(err, "load staker abi"))
	}
	return a
}

// Params are the ledger parameters fixed at construction.
type Params struct {
	MinimumStakingPeriod uint64
	Scaling              Scaling
}

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{
		MinimumStakingPeriod: stakelock.MinimumStakingPeriod,
		Scaling:              ScaleRaw,
	}
}

// Staker implements native methods of the staking ledger.
type Staker struct {
	addr   stakelock.Address
	params Params
	oracle *oracle.Adapter
	token  token.AccountingToken
	pusher *transfer.Pusher

	positionService    *position.Service
	globalStatsService *globalstats.Service
}

// New create a new instance.
func New(
	addr stakelock.Address,
	state *state.State,
	params Params,
	adapter *oracle.Adapter,
	tok token.AccountingToken,
	pusher *transfer.Pusher,
) *Staker {
	sctx := solidity.NewContext(addr, state)
	return &Staker{
		addr:               addr,
		params:             params,
		oracle:             adapter,
		token:              tok,
		pusher:             pusher,
		positionService:    position.New(sctx),
		globalStatsService: globalstats.New(sctx),
	}
}

func (s *Staker) Address() stakelock.Address {
	return s.addr
}

// Stake opens a position of the call value locked for lockDuration seconds and returns its index.
// The value must already be in the ledger's custody.
func (s *Staker) Stake(ctx context.Context, env *xenv.Environment, lockDuration uint64) (uint64, error) {
	caller, value, now := env.Caller(), env.Value(), env.Time()

	if value.Sign() <= 0 {
		return 0, reverts.ZeroStakingAmount
	}
	if lockDuration < s.params.MinimumStakingPeriod {
		return 0, reverts.MinimumStakingPeriodTooShort
	}
	snapshot, err := s.oracle.Fresh(ctx, now)
	if err != nil {
		return 0, err
	}
	ethAmount, err := safecast.ToUint104(value)
	if err != nil {
		return 0, err
	}
	tokenAmount, err := safecast.ToUint104(s.params.Scaling.Apply(value, snapshot))
	if err != nil {
		return 0, err
	}
	startTime, err := safecast.ToUint48(new(big.Int).SetUint64(now))
	if err != nil {
		return 0, err
	}
	endTime, err := safecast.AddUint48(now, lockDuration)
	if err != nil {
		return 0, err
	}

	index, err := s.positionService.Open(caller, &position.Position{
		ETHAmount:   ethAmount.Big(),
		TokenAmount: tokenAmount.Big(),
		StartTime:   uint64(startTime),
		EndTime:     uint64(endTime),
	})
	if err != nil {
		return 0, err
	}
	if err := s.globalStatsService.AddStaked(ethAmount.Big()); err != nil {
		return 0, err
	}
	if err := s.token.Mint(s.addr, caller, tokenAmount.Big()); err != nil {
		return 0, err
	}

	env.Log(stakedEvent, s.addr,
		[]stakelock.Bytes32{stakelock.BytesToBytes32(caller.Bytes())},
		ethAmount.Big(), new(big.Int).SetUint64(index), new(big.Int).SetUint64(lockDuration))

	logger.Debug("staked",
		"owner", caller,
		"index", index,
		"amount", ethAmount,
		"tokens", tokenAmount,
		"price", snapshot.Price,
		"end", endTime,
	)
	return index, nil
}

// Unstake closes an open position whose lock has passed, burns its tokens from the caller and
// pays its ETH amount back to the caller. The caller must have approved the burn.
func (s *Staker) Unstake(_ context.Context, env *xenv.Environment, index uint64) error {
	caller, now := env.Caller(), env.Time()

	p, err := s.positionService.Get(caller, index)
	if err != nil {
		return err
	}
	if !p.IsOpen() {
		return reverts.StakePositionNotActive
	}
	if now < p.EndTime {
		return reverts.StakingPeriodNotPassed
	}

	if err := s.token.Burn(s.addr, caller, p.TokenAmount); err != nil {
		return err
	}
	if err := s.globalStatsService.RemoveStaked(p.ETHAmount); err != nil {
		return err
	}
	if _, err := s.positionService.Close(caller, index); err != nil {
		return err
	}
	if err := s.pusher.Push(s.addr, caller, p.ETHAmount); err != nil {
		return err
	}

	env.Log(unstakedEvent, s.addr,
		[]stakelock.Bytes32{stakelock.BytesToBytes32(caller.Bytes())},
		p.TokenAmount, new(big.Int).SetUint64(index))

	logger.Debug("unstaked", "owner", caller, "index", index, "position", p)
	return nil
}

// GetStakePosition returns the position at index of owner. Unknown positions read as closed and zeroed.
func (s *Staker) GetStakePosition(owner stakelock.Address, index uint64) (*position.Position, error) {
	return s.positionService.Get(owner, index)
}

// GetStakePositions returns all positions ever opened by owner, in index order.
func (s *Staker) GetStakePositions(owner stakelock.Address) ([]*position.Position, error) {
	next, err := s.positionService.NextIndex(owner)
	if err != nil {
		return nil, err
	}
	positions := make([]*position.Position, 0, next)
	for i := range next {
		p, err := s.positionService.Get(owner, i)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (s *Staker) TotalStaked() (*big.Int, error) {
	return s.globalStatsService.TotalStaked()
}

// IDs returns the index the next position of owner will get.
func (s *Staker) IDs(owner stakelock.Address) (uint64, error) {
	return s.positionService.NextIndex(owner)
}

// PriceFeed returns the latest oracle answer without freshness checks.
func (s *Staker) PriceFeed(ctx context.Context) (*big.Int, error) {
	snapshot, err := s.oracle.LatestRound(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Price, nil
}

func (s *Staker) DataFeed() stakelock.Address {
	return s.oracle.Address()
}

func (s *Staker) Token() stakelock.Address {
	return s.token.Address()
}

func (s *Staker) MinimumStakingPeriod() uint64 {
	return s.params.MinimumStakingPeriod
}

func (s *Staker) Params() Params {
	return s.params
}
