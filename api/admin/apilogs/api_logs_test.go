// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPILogsHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		status     int
		startValue bool
		endValue   bool
	}{
		{"enable", http.MethodPost, `{"enabled":true}`, http.StatusOK, false, true},
		{"disable", http.MethodPost, `{"enabled":false}`, http.StatusOK, true, false},
		{"malformed", http.MethodPost, `{"enabled":"yes"}`, http.StatusBadRequest, true, true},
		{"get", http.MethodGet, "", http.StatusOK, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enabled atomic.Bool
			enabled.Store(tt.startValue)

			router := mux.NewRouter()
			New(&enabled).Mount(router, "/admin/apilogs")

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, "/admin/apilogs", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.endValue, enabled.Load())
			if rr.Code == http.StatusOK {
				var res LogStatus
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
				assert.Equal(t, tt.endValue, res.Enabled)
			}
		})
	}
}
