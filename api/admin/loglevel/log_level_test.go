// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/stakelock/log"
)

func TestLogLevelHandler(t *testing.T) {
	tests := []struct {
		name             string
		method           string
		body             any
		expectedStatus   int
		expectedLevel    string
		expectedErrorMsg string
	}{
		{"set debug", http.MethodPost, Request{Level: "debug"}, http.StatusOK, "debug", ""},
		{"set trace", http.MethodPost, Request{Level: "trace"}, http.StatusOK, "trace", ""},
		{"set crit", http.MethodPost, Request{Level: "crit"}, http.StatusOK, "crit", ""},
		{"invalid level", http.MethodPost, Request{Level: "loud"}, http.StatusBadRequest, "", "Invalid verbosity level"},
		{"unknown field", http.MethodPost, map[string]string{"verbosity": "info"}, http.StatusBadRequest, "", ""},
		{"get current", http.MethodGet, nil, http.StatusOK, "info", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logLevel slog.LevelVar
			logLevel.Set(log.LevelInfo)

			var body []byte
			if tt.body != nil {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}
			req := httptest.NewRequest(tt.method, "/admin/loglevel", bytes.NewReader(body))
			rr := httptest.NewRecorder()

			router := mux.NewRouter()
			New(&logLevel).Mount(router, "/admin/loglevel")
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedLevel != "" {
				var res Response
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
				assert.Equal(t, tt.expectedLevel, res.CurrentLevel)
				assert.Equal(t, tt.expectedLevel, log.LevelString(logLevel.Level()))
			} else if tt.expectedErrorMsg != "" {
				assert.Equal(t, tt.expectedErrorMsg, strings.TrimSpace(rr.Body.String()))
				assert.Equal(t, log.LevelInfo, logLevel.Level())
			}
		})
	}
}
