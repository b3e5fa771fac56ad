package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/haloscope/amp-service/internal/adapter/http"
	"github.com/haloscope/amp-service/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	predictor := domain.NewPredictor(domain.DefaultParams())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, predictor, slog.Default())
}

func doRequest(srv *httpadapter.Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := doRequest(newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := doRequest(newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := doRequest(newTestServer(fmt.Errorf("not ready yet")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestPredictReturnsRate(t *testing.T) {
	rec := doRequest(newTestServer(nil), "/v1/predict?date=2026-06-04")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Date        string   `json:"date"`
		Outcome     string   `json:"outcome"`
		SignalRate  *float64 `json:"signal_rate"`
		Density     *float64 `json:"density"`
		Probability *float64 `json:"probability"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-06-04", body.Date)
	assert.Equal(t, "rate", body.Outcome)
	require.NotNil(t, body.SignalRate)
	assert.InDelta(t, 95.14, *body.SignalRate, 0.01)
	require.NotNil(t, body.Density)
	assert.InDelta(t, 8.5, *body.Density, 1e-9)
}

func TestPredictReturns400ForMalformedDate(t *testing.T) {
	rec := doRequest(newTestServer(nil), "/v1/predict?date=not-a-date")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["outcome"])
	assert.Equal(t, "Invalid date format. Use 'YYYY-MM-DD'.", body["message"])
	assert.NotContains(t, body, "signal_rate")
}

func TestPredictReturns400ForMissingDate(t *testing.T) {
	rec := doRequest(newTestServer(nil), "/v1/predict")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictReturnsWarningForWrongYear(t *testing.T) {
	params := domain.DefaultParams()
	params.TargetYear = 2026
	predictor := domain.NewPredictor(params)
	srv := httpadapter.NewServer(":0", &mockReadiness{}, predictor, slog.Default())

	rec := doRequest(srv, "/v1/predict?date=2025-06-04")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "warning", body["outcome"])
	assert.Equal(t, "This predictor is calibrated for 2026.", body["message"])
	assert.NotContains(t, body, "signal_rate")
}
