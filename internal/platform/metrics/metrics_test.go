// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/metrics"
)

/*
TestAuth_Counters verifies that outcomes land on their own label.
*/
func TestAuth_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	auth, err := metrics.NewAuth(registry)
	require.NoError(t, err)

	auth.Login(metrics.OutcomeSuccess)
	auth.Login(metrics.OutcomeInvalidCredentials)
	auth.Login(metrics.OutcomeInvalidCredentials)
	auth.Refresh(metrics.OutcomeReuseDetected)

	count, err := testutil.GatherAndCount(registry, "vidtube_auth_logins_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per observed outcome")

	count, err = testutil.GatherAndCount(registry, "vidtube_auth_refreshes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

/*
TestNewAuth_DuplicateRegistration must surface the registry error.
*/
func TestNewAuth_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	_, err := metrics.NewAuth(registry)
	require.NoError(t, err)

	_, err = metrics.NewAuth(registry)
	assert.Error(t, err)
}

/*
TestHandler serves the text exposition format.
*/
func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	auth, err := metrics.NewAuth(registry)
	require.NoError(t, err)
	auth.Login(metrics.OutcomeThrottled)

	recorder := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vidtube_auth_logins_total{outcome="throttled"} 1`)
}
