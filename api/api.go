// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/stakelock/stakelock/api/events"
	"github.com/stakelock/stakelock/api/middleware"
	"github.com/stakelock/stakelock/api/oracle"
	"github.com/stakelock/stakelock/api/staker"
	"github.com/stakelock/stakelock/api/token"
	"github.com/stakelock/stakelock/log"
	"github.com/stakelock/stakelock/logdb"
	"github.com/stakelock/stakelock/runtime"

	oracleFeed "github.com/stakelock/stakelock/oracle"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	LogsLimit            uint64
	// DevMode mounts the write endpoints of the ledger.
	DevMode bool
}

// New returns the api router. logDB may be nil, the events endpoint is then not served.
// mock is only mounted in dev mode.
func New(
	rt *runtime.Runtime,
	logDB *logdb.LogDB,
	mock *oracleFeed.MockAggregator,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	staker.New(rt, opts.DevMode).
		Mount(router, "/staker")
	token.New(rt, opts.DevMode).
		Mount(router, "/token")
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/events")
	}
	if opts.DevMode && mock != nil {
		oracle.New(mock, rt.Now).
			Mount(router, "/oracle")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)
	}

	return handler.ServeHTTP
}
