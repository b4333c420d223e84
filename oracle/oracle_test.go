// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package oracle

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
)

const now = uint64(1_700_000_000)

var initialAnswer = big.NewInt(165000000000)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		price     *big.Int
		updatedAt uint64
		want      error
	}{
		{"fresh", initialAnswer, now, nil},
		{"exactly at threshold", initialAnswer, now - 3600, nil},
		{"one second too old", initialAnswer, now - 3601, reverts.StaleData},
		{"from the future", initialAnswer, now + 1, reverts.StaleData},
		{"zero price", big.NewInt(0), now, reverts.ZeroPrice},
		{"negative price", big.NewInt(-1), now, reverts.ZeroPrice},
		{"nil price", nil, now, reverts.ZeroPrice},
		{"stale wins over zero", big.NewInt(0), now - 7200, reverts.StaleData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Snapshot{Price: tt.price, UpdatedAt: tt.updatedAt}, now, 3600)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestMockAggregator(t *testing.T) {
	ctx := context.Background()
	m := NewMockAggregator(8, initialAnswer, now)

	decimals, err := m.Decimals(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint8(8), decimals)

	round, err := m.LatestRoundData(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), round.RoundID)
	assert.Equal(t, initialAnswer, round.Answer)
	assert.Equal(t, now, round.UpdatedAt)
	assert.Equal(t, now, round.StartedAt)

	m.UpdateAnswer(big.NewInt(2000), now+10)
	assert.Equal(t, uint64(2), m.LatestRound())
	assert.Equal(t, big.NewInt(2000), m.LatestAnswer())

	m.UpdateRoundData(7, big.NewInt(3000), now-3600, now-3600)
	round, err = m.LatestRoundData(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), round.RoundID)
	assert.Equal(t, now-3600, round.UpdatedAt)

	past, err := m.GetRoundData(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, initialAnswer, past.Answer)

	_, err = m.GetRoundData(ctx, 3)
	assert.Error(t, err)

	// returned values are copies
	round.Answer.SetInt64(0)
	assert.Equal(t, big.NewInt(3000), m.LatestAnswer())
}

func TestMockAggregatorConcurrentUpdates(t *testing.T) {
	m := NewMockAggregator(8, initialAnswer, now)

	const writers = 16
	rounds := make([]uint64, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rounds[i] = m.UpdateAnswer(big.NewInt(int64(1000+i)), now+uint64(i))
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, r := range rounds {
		assert.False(t, seen[r], "round %d allocated twice", r)
		seen[r] = true
		assert.GreaterOrEqual(t, r, uint64(2))
	}
	assert.Equal(t, uint64(writers+1), m.LatestRound())
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()
	m := NewMockAggregator(8, initialAnswer, now)
	a := NewAdapter(m, stakelock.OracleAddress, 3600)

	assert.Equal(t, stakelock.OracleAddress, a.Address())
	assert.Equal(t, uint64(3600), a.Threshold())

	s, err := a.Fresh(ctx, now+1)
	require.NoError(t, err)
	assert.Equal(t, initialAnswer, s.Price)
	assert.Equal(t, uint8(8), s.Decimals)

	// stale by one second
	m.UpdateRoundData(2, initialAnswer, now-3600, now-3600)
	_, err = a.Fresh(ctx, now+1)
	assert.ErrorIs(t, err, reverts.StaleData)

	// LatestRound doesn't validate
	s, err = a.LatestRound(ctx)
	assert.NoError(t, err)
	assert.Equal(t, now-3600, s.UpdatedAt)

	m.UpdateAnswer(big.NewInt(0), now)
	_, err = a.Fresh(ctx, now)
	assert.ErrorIs(t, err, reverts.ZeroPrice)
}

type fakeCaller struct {
	t       *testing.T
	abi     abi.ABI
	to      common.Address
	outputs map[string][]byte
	err     error
}

func (c *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	require.NotNil(c.t, call.To)
	assert.Equal(c.t, c.to, *call.To)
	method, err := c.abi.MethodById(call.Data)
	require.NoError(c.t, err)
	return c.outputs[method.Name], nil
}

func newFakeCaller(t *testing.T, to common.Address) *fakeCaller {
	parsed, err := abi.JSON(strings.NewReader(AggregatorV3ABI))
	require.NoError(t, err)

	pack := func(method string, args ...any) []byte {
		out, err := parsed.Methods[method].Outputs.Pack(args...)
		require.NoError(t, err)
		return out
	}
	return &fakeCaller{
		t:   t,
		abi: parsed,
		to:  to,
		outputs: map[string][]byte{
			"decimals":    pack("decimals", uint8(8)),
			"description": pack("description", "ETH / USD"),
			"latestRoundData": pack("latestRoundData",
				big.NewInt(42),
				initialAnswer,
				new(big.Int).SetUint64(now-10),
				new(big.Int).SetUint64(now),
				big.NewInt(42),
			),
		},
	}
}

func TestChainlinkFeed(t *testing.T) {
	ctx := context.Background()
	to := common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419")
	caller := newFakeCaller(t, to)

	feed, err := NewChainlinkFeed(caller, to)
	require.NoError(t, err)
	defer feed.Close()
	assert.Equal(t, to, feed.Address())

	assert.Equal(t, "feaf968c", common.Bytes2Hex(feed.abi.Methods["latestRoundData"].ID))
	assert.Equal(t, "313ce567", common.Bytes2Hex(feed.abi.Methods["decimals"].ID))

	decimals, err := feed.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), decimals)

	desc, err := feed.Description(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ETH / USD", desc)

	round, err := feed.LatestRoundData(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), round.RoundID)
	assert.Equal(t, initialAnswer, round.Answer)
	assert.Equal(t, now-10, round.StartedAt)
	assert.Equal(t, now, round.UpdatedAt)

	a := NewAdapter(feed, stakelock.Address(to), 3600)
	s, err := a.Fresh(ctx, now+60)
	require.NoError(t, err)
	assert.Equal(t, initialAnswer, s.Price)

	caller.err = errors.New("connection refused")
	_, err = a.Fresh(ctx, now)
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, reverts.IsRevertErr(err))
}
