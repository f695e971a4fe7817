// internal/server/decision_test.go
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Samtoosoon/bankgpt/internal/models"
	"github.com/Samtoosoon/bankgpt/internal/underwriting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postDecision(t *testing.T, handler http.Handler, req DecisionRequest) DecisionResponse {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/decision", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp DecisionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDecision_Approved(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	resp := postDecision(t, handler, DecisionRequest{Phone: "9998887776", RequestedAmount: 800000})

	assert.Equal(t, underwriting.DecisionApproved, resp.Decision)
	assert.Equal(t, underwriting.FraudClear, resp.Fraud)
	assert.Equal(t, underwriting.RateApproved, resp.RatingStatus)
	assert.Equal(t, 10.5, resp.AnnualRate)
	assert.Equal(t, models.PathFastTrack, resp.EligibilityPath)
	assert.Greater(t, resp.MonthlyEMI, 0.0)
	assert.Contains(t, resp.Explanation, "Approved")
	assert.Equal(t, 1200000.0, resp.PreApprovedLimit)
}

func TestDecision_ConditionalAboveLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	resp := postDecision(t, handler, DecisionRequest{Phone: "9998887776", RequestedAmount: 2000000})

	assert.Equal(t, underwriting.DecisionConditional, resp.Decision)
	assert.Equal(t, underwriting.DocumentsSalarySlip, resp.DocumentStatus)
	assert.Equal(t, models.PathConditionalReview, resp.EligibilityPath)
}

func TestDecision_UnknownPhoneManualReview(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	resp := postDecision(t, handler, DecisionRequest{Phone: "1112223334", RequestedAmount: 500000})

	assert.Equal(t, underwriting.DecisionManualReview, resp.Decision)
	assert.Equal(t, underwriting.FraudNoRecord, resp.Fraud)
	assert.Zero(t, resp.MonthlyEMI)
}

func TestDecision_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decision", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/decision", bytes.NewReader([]byte(`{"phone":""}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
