// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import "sync/atomic"

// Snapshot is a point-in-time copy of hit/miss counters.
type Snapshot struct {
	Hit, Miss int64
}

// HitRate is the share of lookups served from the cache, zero before any lookup.
func (s Snapshot) HitRate() float64 {
	if total := s.Hit + s.Miss; total > 0 {
		return float64(s.Hit) / float64(total)
	}
	return 0
}

// Stats counts hits and misses. It is safe for concurrent use.
type Stats struct {
	hit      atomic.Int64
	miss     atomic.Int64
	reported atomic.Int32 // hit rate in permille at the last Snapshot
}

func (cs *Stats) Hit() int64  { return cs.hit.Add(1) }
func (cs *Stats) Miss() int64 { return cs.miss.Add(1) }

// Snapshot returns the counters, and whether the hit rate moved by at least
// one permille since the previous call.
func (cs *Stats) Snapshot() (Snapshot, bool) {
	s := Snapshot{Hit: cs.hit.Load(), Miss: cs.miss.Load()}
	permille := int32(s.HitRate() * 1000)
	return s, cs.reported.Swap(permille) != permille
}
