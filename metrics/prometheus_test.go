// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// #nosec G404
package metrics

import (
	"io"
	"math/rand/v2"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	stakes := Counter("test_stakes")
	reverts := CounterVec("test_reverts", []string{"revert"})
	duration := Histogram("test_duration_ms", BucketCallMs)
	durationVec := HistogramVec("test_method_duration_ms", []string{"method"}, nil)
	staked := Gauge("test_total_staked")
	price := GaugeVec("test_price", []string{"feed"})

	n := rand.N(50) + 2
	sum := 0
	for i := range n {
		Counter("test_stakes").Add(1)
		duration.Observe(int64(i))
		durationVec.ObserveWithLabels(int64(i), map[string]string{"method": []string{"stake", "unstake"}[i%2]})
		sum += i
	}
	stakes.Add(1)

	reverts.AddWithLabel(2, map[string]string{"revert": "StaleData"})
	reverts.AddWithLabel(3, map[string]string{"revert": "ZeroPrice"})

	staked.Set(10)
	staked.Add(-4)
	price.SetWithLabel(165, map[string]string{"feed": "mock"})
	price.AddWithLabel(1, map[string]string{"feed": "mock"})

	m := gather(t)
	require.Equal(t, float64(n+1), m["stakelock_test_stakes"].Metric[0].GetCounter().GetValue())
	require.Equal(t, float64(sum), m["stakelock_test_duration_ms"].Metric[0].GetHistogram().GetSampleSum())
	require.Len(t, m["stakelock_test_method_duration_ms"].Metric, 2)
	require.Len(t, m["stakelock_test_reverts"].Metric, 2)
	require.Equal(t, float64(6), m["stakelock_test_total_staked"].Metric[0].GetGauge().GetValue())
	require.Equal(t, float64(166), m["stakelock_test_price"].Metric[0].GetGauge().GetValue())

	// same name returns the same meter
	assert.Same(t, stakes, Counter("test_stakes"))
}

func TestPromHandler(t *testing.T) {
	InitializePrometheusMetrics()
	Counter("test_handler_hits").Add(1)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	resp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "stakelock_test_handler_hits 1")
}

func TestLazyLoading(t *testing.T) {
	metrics = noop{}

	for _, a := range []any{
		Gauge("noopGauge"),
		GaugeVec("noopGauge", nil),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, noop{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", nil)
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	// after initialization, newly created metrics become of the prometheus type
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}
