package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc testServices) http.Handler {
	h := NewHTTPHandler(svc.serials, svc.stats, nil)
	return NewRouter(h, RouterConfig{AllowOrigins: []string{"http://localhost:3000"}})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func generate(t *testing.T, router http.Handler, req GenerateBatchRequest) BatchResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/batches", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHTTP_GenerateAndVerify(t *testing.T) {
	router := newTestRouter(newTestServices(t))

	batch := generate(t, router, GenerateBatchRequest{
		ProductName: "Widget",
		Format:      "alphanumeric",
		Prefix:      "SN-",
		Length:      8,
		Quantity:    3,
	})
	require.Equal(t, 3, batch.Count)
	require.Len(t, batch.Records, 3)

	first := batch.Records[0]
	assert.True(t, strings.HasPrefix(first.SerialNumber, "SN-"))
	assert.Len(t, first.SerialNumber, 11)
	assert.Equal(t, "https://example.test/verify/"+first.SerialNumber, first.CodePayload)

	rec := doJSON(t, router, http.MethodGet, "/api/verify/"+first.SerialNumber, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var v VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Valid)
	assert.Equal(t, "valid", v.Status)
	require.NotNil(t, v.Record)
	assert.Equal(t, "Widget", v.Record.ProductName)
	assert.Equal(t, batch.BatchID, v.Record.BatchID)

	rec = doJSON(t, router, http.MethodPost, "/api/verify", VerifyRequest{SerialNumber: strings.ToLower(first.SerialNumber)})
	require.Equal(t, http.StatusOK, rec.Code)
	var inv VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.False(t, inv.Valid)
	assert.Equal(t, "invalid", inv.Status)
	assert.Nil(t, inv.Record)
}

func TestHTTP_VerifyEscapedSerial(t *testing.T) {
	router := newTestRouter(newTestServices(t))
	batch := generate(t, router, GenerateBatchRequest{ProductName: "Widget", Format: "numeric", Prefix: "A B/", Length: 4, Quantity: 1})
	serial := batch.Records[0].SerialNumber

	rec := doJSON(t, router, http.MethodGet, "/api/verify/A%20B%2F"+serial[4:], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var v VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Valid)
}

func TestHTTP_GenerateRejectsBadInput(t *testing.T) {
	router := newTestRouter(newTestServices(t))

	tests := []struct {
		name string
		req  GenerateBatchRequest
	}{
		{"unknown format", GenerateBatchRequest{ProductName: "W", Format: "hex", Quantity: 1}},
		{"zero quantity", GenerateBatchRequest{ProductName: "W", Quantity: 0}},
		{"over max quantity", GenerateBatchRequest{ProductName: "W", Quantity: 101}},
		{"length too long", GenerateBatchRequest{ProductName: "W", Format: "numeric", Length: 33, Quantity: 1}},
		{"missing product", GenerateBatchRequest{ProductName: "  ", Quantity: 1}},
		{"affixes exceed stored length", GenerateBatchRequest{ProductName: "W", Format: "numeric", Prefix: strings.Repeat("P", 300), Length: 6, Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/batches", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var env ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, "invalid_config", env.Error.Code)
		})
	}
}

func TestHTTP_GenerateMalformedBody(t *testing.T) {
	router := newTestRouter(newTestServices(t))
	req := httptest.NewRequest(http.MethodPost, "/api/batches", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_VerifyEmptySerial(t *testing.T) {
	router := newTestRouter(newTestServices(t))
	rec := doJSON(t, router, http.MethodPost, "/api/verify", VerifyRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_BatchAndExport(t *testing.T) {
	router := newTestRouter(newTestServices(t))
	batch := generate(t, router, GenerateBatchRequest{ProductName: "Gadget", Format: "numeric", Length: 6, Quantity: 4})

	rec := doJSON(t, router, http.MethodGet, "/api/batches/"+batch.BatchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.Count)

	rec = doJSON(t, router, http.MethodGet, "/api/batches/"+batch.BatchID+"/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), batch.BatchID)

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Product", "Batch ID", "Serial Number", "Created At"}, rows[0])
	assert.Equal(t, "Gadget", rows[1][0])
	assert.Equal(t, batch.BatchID, rows[1][1])

	rec = doJSON(t, router, http.MethodGet, "/api/batches/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/api/batches/nope/export.csv", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_Code(t *testing.T) {
	router := newTestRouter(newTestServices(t))
	batch := generate(t, router, GenerateBatchRequest{ProductName: "Widget", Quantity: 1})

	rec := doJSON(t, router, http.MethodGet, "/api/codes/"+batch.Records[0].SerialNumber, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	require.NoError(t, err)

	rec = doJSON(t, router, http.MethodGet, "/api/codes/UNKNOWN", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_Statistics(t *testing.T) {
	router := newTestRouter(newTestServices(t))
	generate(t, router, GenerateBatchRequest{ProductName: "Widget", Quantity: 3})
	generate(t, router, GenerateBatchRequest{ProductName: "Gadget", Quantity: 2})

	rec := doJSON(t, router, http.MethodGet, "/api/statistics?range=month", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatisticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "month", stats.Range)
	assert.Equal(t, 5, stats.TotalSerials)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 2, stats.TotalBatches)
	assert.Len(t, stats.TimeSeries, 30)
	require.Len(t, stats.TopProducts, 2)
	assert.Equal(t, ProductCount{ProductName: "Widget", Count: 3}, stats.TopProducts[0])

	total := 0
	for _, b := range stats.TimeSeries {
		total += b.Count
	}
	assert.Equal(t, 5, total)

	rec = doJSON(t, router, http.MethodGet, "/api/statistics?range=decade", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_StoreUnavailable(t *testing.T) {
	router := newTestRouter(newBrokenServices())

	rec := doJSON(t, router, http.MethodGet, "/api/verify/ABC", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/statistics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/batches", GenerateBatchRequest{ProductName: "W", Quantity: 2})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "generation_failed", env.Error.Code)
	assert.NotEmpty(t, env.Error.BatchID)
	require.NotNil(t, env.Error.Committed)
	assert.Equal(t, 0, *env.Error.Committed)
}

func TestHTTP_HealthAndCORS(t *testing.T) {
	router := newTestRouter(newTestServices(t))

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/api/verify", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
