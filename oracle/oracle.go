// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle reads the exchange rate used to credit the accounting token.
package oracle

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/reverts"
	"github.com/stakelock/stakelock/stakelock"
)

var logger = log.WithContext("pkg", "oracle")

// RoundData is the answer of an aggregator round.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       uint64
	UpdatedAt       uint64
	AnsweredInRound *big.Int
}

// Feed is a price aggregator in the shape of AggregatorV3Interface.
type Feed interface {
	LatestRoundData(ctx context.Context) (*RoundData, error)
	Decimals(ctx context.Context) (uint8, error)
}

// Snapshot is the price read for a single stake. It's never cached.
type Snapshot struct {
	Price     *big.Int
	Decimals  uint8
	UpdatedAt uint64
}

// Adapter wraps a feed with the freshness threshold of the ledger.
type Adapter struct {
	feed      Feed
	address   stakelock.Address
	threshold uint64
}

// NewAdapter creates an adapter for the feed identified by address.
func NewAdapter(feed Feed, address stakelock.Address, threshold uint64) *Adapter {
	return &Adapter{feed: feed, address: address, threshold: threshold}
}

// Address returns the identity of the underlying feed.
func (a *Adapter) Address() stakelock.Address {
	return a.address
}

// Threshold returns the maximum accepted age of an answer, in seconds.
func (a *Adapter) Threshold() uint64 {
	return a.threshold
}

// LatestRound reads the latest answer of the feed, without validating it.
func (a *Adapter) LatestRound(ctx context.Context) (*Snapshot, error) {
	round, err := a.feed.LatestRoundData(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "latest round data")
	}
	decimals, err := a.feed.Decimals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "decimals")
	}
	price := round.Answer
	if price == nil {
		price = new(big.Int)
	}
	return &Snapshot{
		Price:     new(big.Int).Set(price),
		Decimals:  decimals,
		UpdatedAt: round.UpdatedAt,
	}, nil
}

// Fresh reads the latest answer and validates it against now.
func (a *Adapter) Fresh(ctx context.Context, now uint64) (*Snapshot, error) {
	snapshot, err := a.LatestRound(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(snapshot, now, a.threshold); err != nil {
		logger.Debug("rejected oracle answer", "price", snapshot.Price, "updatedAt", snapshot.UpdatedAt, "now", now, "err", err)
		return nil, err
	}
	return snapshot, nil
}

// Validate checks staleness first, then positivity.
// An answer updated after now is treated as stale.
func Validate(s *Snapshot, now, threshold uint64) error {
	if s.UpdatedAt > now || now-s.UpdatedAt > threshold {
		return reverts.StaleData
	}
	if s.Price == nil || s.Price.Sign() <= 0 {
		return reverts.ZeroPrice
	}
	return nil
}
