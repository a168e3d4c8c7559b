// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vidtube/internal/platform/apperr"
	"github.com/taibuivan/vidtube/internal/platform/respond"
)

/*
TestError_Envelope verifies status codes and error envelopes for each error shape.
*/
func TestError_Envelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid_token", apperr.InvalidToken("Invalid or expired token"), http.StatusUnauthorized, apperr.CodeInvalidToken},
		{"unavailable", apperr.ServiceUnavailable(errors.New("db down")), http.StatusServiceUnavailable, apperr.CodeUnavailable},
		{"wrapped_app_error", errors.Join(errors.New("ctx"), apperr.Conflict("taken")), http.StatusConflict, apperr.CodeConflict},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "/", nil)

			respond.Error(recorder, request, tt.err)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var body respond.ErrorEnvelope
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotContains(t, body.Error, "db down")
			assert.NotContains(t, body.Error, "boom")
		})
	}
}

/*
TestOK_Envelope verifies the success envelope shape.
*/
func TestOK_Envelope(t *testing.T) {
	recorder := httptest.NewRecorder()

	respond.OK(recorder, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":{"hello":"world"}}`, recorder.Body.String())
}
