// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/stakelock/stakelock/cache"
	"github.com/stakelock/stakelock/metrics"
)

var metricCacheHitMiss = metrics.LazyLoadGaugeVec("state_cache_hit_miss_count", []string{"type"})

func reportCacheStats(c *cache.LRU) {
	if stats, changed := c.Stats(); changed {
		metricCacheHitMiss().SetWithLabel(stats.Hit, map[string]string{"type": "hit"})
		metricCacheHitMiss().SetWithLabel(stats.Miss, map[string]string{"type": "miss"})
	}
}
