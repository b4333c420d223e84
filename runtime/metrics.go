// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/stakelock/stakelock/metrics"
	"github.com/stakelock/stakelock/reverts"
)

var (
	gwei = big.NewInt(1e9)

	metricCallDuration = metrics.LazyLoadHistogramVec("call_duration_ms", []string{"method"}, metrics.BucketCallMs)
	metricCalls        = metrics.LazyLoadCounterVec("calls_count", []string{"method"})
	metricReverts      = metrics.LazyLoadCounterVec("reverts_count", []string{"method", "revert"})
	metricTotalStaked  = metrics.LazyLoadGauge("total_staked_gwei")

	metricEventWriteFailures = metrics.LazyLoadCounter("event_write_failures_count")
	metricUnwrittenEvents    = metrics.LazyLoadGauge("unwritten_events")
)

func reportRevert(method string, err error) {
	name := "internal"
	if revert, ok := reverts.As(err); ok {
		name = revert.Name()
	}
	metricReverts().AddWithLabel(1, map[string]string{"method": method, "revert": name})
}

func reportTotalStaked(total *big.Int) {
	v := new(big.Int).Quo(total, gwei)
	if v.IsInt64() {
		metricTotalStaked().Set(v.Int64())
	}
}
