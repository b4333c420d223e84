// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/builtin/solidity"
	"github.com/stakelock/stakelock/stakelock"
)

var (
	slotPositions = stakelock.BytesToBytes32([]byte("positions"))
	slotIDs       = stakelock.BytesToBytes32([]byte("ids"))
)

// Service stores positions per owner together with the owner's next position index.
type Service struct {
	positions *solidity.Mapping[stakelock.Bytes32, *Position]
	ids       *solidity.Mapping[stakelock.Address, uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		positions: solidity.NewMapping[stakelock.Bytes32, *Position](sctx, slotPositions),
		ids:       solidity.NewMapping[stakelock.Address, uint64](sctx, slotIDs),
	}
}

// Key is the storage key of the position at index of owner, keccak(owner, uint256(index)).
func Key(owner stakelock.Address, index uint64) stakelock.Bytes32 {
	var word stakelock.Bytes32
	binary.BigEndian.PutUint64(word[24:], index)
	return stakelock.Keccak256(owner.Bytes(), word.Bytes())
}

// NextIndex returns the number of positions ever opened by owner.
func (s *Service) NextIndex(owner stakelock.Address) (uint64, error) {
	return s.ids.Get(owner)
}

// Get returns the position at index. Missing positions are returned zeroed, thus closed.
func (s *Service) Get(owner stakelock.Address, index uint64) (*Position, error) {
	p, err := s.positions.Get(Key(owner, index))
	if err != nil {
		return nil, err
	}
	if p.ETHAmount == nil {
		p.ETHAmount = new(big.Int)
	}
	if p.TokenAmount == nil {
		p.TokenAmount = new(big.Int)
	}
	return p, nil
}

// Open stores p at the owner's next index and advances the index.
func (s *Service) Open(owner stakelock.Address, p *Position) (uint64, error) {
	if !p.IsOpen() {
		return 0, errors.New("position: end time must be set")
	}
	index, err := s.ids.Get(owner)
	if err != nil {
		return 0, err
	}
	if err := s.positions.Set(Key(owner, index), p.clone()); err != nil {
		return 0, err
	}
	if err := s.ids.Set(owner, index+1); err != nil {
		return 0, err
	}
	return index, nil
}

// Close marks the position as closed and returns it as it was before closing.
func (s *Service) Close(owner stakelock.Address, index uint64) (*Position, error) {
	p, err := s.Get(owner, index)
	if err != nil {
		return nil, err
	}
	if !p.IsOpen() {
		return nil, errors.Errorf("position: %v/%d is not open", owner, index)
	}
	closed := p.clone()
	closed.EndTime = 0
	if err := s.positions.Set(Key(owner, index), closed); err != nil {
		return nil, err
	}
	return p, nil
}
