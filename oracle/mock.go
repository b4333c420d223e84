// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"
)

// MockAggregator is an in-memory feed whose answers are set by hand.
type MockAggregator struct {
	lock sync.RWMutex

	decimals        uint8
	latestRound     uint64
	latestAnswer    *big.Int
	latestTimestamp uint64

	answers    map[uint64]*big.Int
	timestamps map[uint64]uint64
	startedAt  map[uint64]uint64
}

var _ Feed = (*MockAggregator)(nil)

// NewMockAggregator creates a feed whose first round holds initialAnswer at now.
func NewMockAggregator(decimals uint8, initialAnswer *big.Int, now uint64) *MockAggregator {
	m := &MockAggregator{
		decimals:   decimals,
		answers:    make(map[uint64]*big.Int),
		timestamps: make(map[uint64]uint64),
		startedAt:  make(map[uint64]uint64),
	}
	m.UpdateAnswer(initialAnswer, now)
	return m
}

// UpdateAnswer starts a new round with answer, updated at now, and returns its id.
func (m *MockAggregator) UpdateAnswer(answer *big.Int, now uint64) uint64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.latestRound++
	m.setRound(m.latestRound, answer, now, now)
	return m.latestRound
}

// UpdateRoundData overwrites a round and makes it the latest one.
func (m *MockAggregator) UpdateRoundData(roundID uint64, answer *big.Int, timestamp, startedAt uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.latestRound = roundID
	m.setRound(roundID, answer, timestamp, startedAt)
}

func (m *MockAggregator) setRound(roundID uint64, answer *big.Int, timestamp, startedAt uint64) {
	m.latestAnswer = new(big.Int).Set(answer)
	m.latestTimestamp = timestamp
	m.answers[roundID] = m.latestAnswer
	m.timestamps[roundID] = timestamp
	m.startedAt[roundID] = startedAt
}

// LatestAnswer returns the answer of the latest round.
func (m *MockAggregator) LatestAnswer() *big.Int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return new(big.Int).Set(m.latestAnswer)
}

// LatestRound returns the id of the latest round.
func (m *MockAggregator) LatestRound() uint64 {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.latestRound
}

func (m *MockAggregator) Decimals(context.Context) (uint8, error) {
	return m.decimals, nil
}

// GetRoundData returns the data of a past round.
func (m *MockAggregator) GetRoundData(_ context.Context, roundID uint64) (*RoundData, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	answer, ok := m.answers[roundID]
	if !ok {
		return nil, errors.Errorf("round %d not found", roundID)
	}
	return m.round(roundID, answer), nil
}

func (m *MockAggregator) LatestRoundData(context.Context) (*RoundData, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.round(m.latestRound, m.answers[m.latestRound]), nil
}

func (m *MockAggregator) round(roundID uint64, answer *big.Int) *RoundData {
	id := new(big.Int).SetUint64(roundID)
	return &RoundData{
		RoundID:         id,
		Answer:          new(big.Int).Set(answer),
		StartedAt:       m.startedAt[roundID],
		UpdatedAt:       m.timestamps[roundID],
		AnsweredInRound: new(big.Int).Set(id),
	}
}
