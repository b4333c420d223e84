// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noop is both the disabled metrics service and every meter it hands out.
// The ledger runs with it until InitializePrometheusMetrics is called.
type noop struct{}

var _ interface {
	Metrics
	HistogramMeter
	HistogramVecMeter
	CountMeter
	CountVecMeter
	GaugeMeter
	GaugeVecMeter
} = noop{}

func (noop) GetOrCreateCountMeter(string) CountMeter                 { return noop{} }
func (noop) GetOrCreateCountVecMeter(string, []string) CountVecMeter { return noop{} }
func (noop) GetOrCreateGaugeMeter(string) GaugeMeter                 { return noop{} }
func (noop) GetOrCreateGaugeVecMeter(string, []string) GaugeVecMeter { return noop{} }

func (noop) GetOrCreateHistogramMeter(string, []int64) HistogramMeter { return noop{} }

func (noop) GetOrCreateHistogramVecMeter(string, []string, []int64) HistogramVecMeter {
	return noop{}
}

// GetOrCreateHandler answers 404, there is nothing to scrape.
func (noop) GetOrCreateHandler() http.Handler { return http.NotFoundHandler() }

func (noop) Add(int64)                                  {}
func (noop) Set(int64)                                  {}
func (noop) Observe(int64)                              {}
func (noop) AddWithLabel(int64, map[string]string)      {}
func (noop) SetWithLabel(int64, map[string]string)      {}
func (noop) ObserveWithLabels(int64, map[string]string) {}
