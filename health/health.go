// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/stakelock/stakelock/oracle"
)

type LastCall struct {
	Seq       uint64     `json:"seq"`
	Timestamp *time.Time `json:"timestamp"`
	// UnwrittenEvents is the backlog of committed events missing from the event store.
	UnwrittenEvents int `json:"unwrittenEvents"`
}

type PriceFeed struct {
	Price     *big.Int `json:"price"`
	UpdatedAt uint64   `json:"updatedAt"`
	Age       uint64   `json:"age"`
	Fresh     bool     `json:"fresh"`
	Error     string   `json:"error,omitempty"`
}

type Status struct {
	Healthy   bool       `json:"healthy"`
	LastCall  *LastCall  `json:"lastCall"`
	PriceFeed *PriceFeed `json:"priceFeed"`
}

// Health reports whether the ledger can accept stakes, which requires a fresh price,
// and whether every committed event reached the event store.
type Health struct {
	lock      sync.RWMutex
	lastCall  time.Time
	lastSeq   uint64
	unwritten int

	feed  *oracle.Adapter
	clock func() uint64
}

func New(feed *oracle.Adapter, clock func() uint64) *Health {
	return &Health{feed: feed, clock: clock}
}

// NewCall records a committed call and the event backlog left after it.
func (h *Health) NewCall(seq uint64, unwrittenEvents int) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.lastCall = time.Now()
	h.lastSeq = seq
	h.unwritten = unwrittenEvents
}

func (h *Health) Status(ctx context.Context) *Status {
	h.lock.RLock()
	last := &LastCall{Seq: h.lastSeq, UnwrittenEvents: h.unwritten}
	if !h.lastCall.IsZero() {
		ts := h.lastCall
		last.Timestamp = &ts
	}
	h.lock.RUnlock()

	feed := &PriceFeed{}
	now := h.clock()
	snapshot, err := h.feed.LatestRound(ctx)
	if err != nil {
		feed.Error = err.Error()
	} else {
		feed.Price = snapshot.Price
		feed.UpdatedAt = snapshot.UpdatedAt
		if now > snapshot.UpdatedAt {
			feed.Age = now - snapshot.UpdatedAt
		}
		if err := oracle.Validate(snapshot, now, h.feed.Threshold()); err != nil {
			feed.Error = err.Error()
		} else {
			feed.Fresh = true
		}
	}

	return &Status{
		Healthy:   feed.Fresh && last.UnwrittenEvents == 0,
		LastCall:  last,
		PriceFeed: feed,
	}
}
