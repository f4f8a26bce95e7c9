package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/lynx-wire/pkg/configpkg"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	config := configpkg.Config{
		Environment:        "test",
		OpeningBalance:     "10000.00",
		CancellationPolicy: configpkg.CancellationManual,
	}

	server, err := New(nil, zerolog.Nop(), config)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		require.NoError(t, server.Shutdown(ctx))
	})

	return server
}

func do(t *testing.T, server *Server, method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	var res map[string]any
	if strings.HasPrefix(recorder.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
	}

	return recorder, res
}

func scenario() map[string]any {
	return map[string]any{
		"debtor_name":        "John Doe",
		"institution_number": "003",
		"transit_number":     "12345",
		"account_number":     "1234567890",
		"creditor_name":      "Jane Smith",
		"creditor_iban":      "DE89370400440532013000",
		"creditor_bic":       "COBADEFFXXX",
		"amount":             "1000.00",
		"currency":           "CAD",
		"purpose":            "Invoice 42",
	}
}

func TestTransferLifecycle(t *testing.T) {
	server := newTestServer(t)

	recorder, res := do(t, server, http.MethodPost, "/create_transfer", scenario())
	require.Equal(t, http.StatusCreated, recorder.Code)
	require.Equal(t, "Transfer initiated successfully", res["message"])
	require.NotEmpty(t, recorder.Header().Get("X-Request-ID"))

	id, ok := res["transfer_id"].(string)
	require.True(t, ok)

	server.Transfers.Wait()

	recorder, res = do(t, server, http.MethodGet, "/transfer/"+id, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "COMPLETED", res["status"])
	require.Contains(t, res["pacs_008_xml"], "<MsgId>")
	require.Contains(t, res["pacs_002_xml"], "ACSC")
	require.NotContains(t, res, "pacs_004_xml")

	debtor, ok := res["debtor_account"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "9000.00", debtor["balance"])

	creditor, ok := res["creditor_account"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "11000.00", creditor["balance"])

	recorder, res = do(t, server, http.MethodGet, "/transfers", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.EqualValues(t, 1, res["count"])

	recorder, res = do(t, server, http.MethodGet, "/bank_accounts", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.EqualValues(t, 2, res["count"])

	recorder, _ = do(t, server, http.MethodPost, "/transfer/"+id+"/cancel", nil)
	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCreateTransferBadRequest(t *testing.T) {
	server := newTestServer(t)

	body := scenario()
	delete(body, "creditor_bic")

	recorder, res := do(t, server, http.MethodPost, "/create_transfer", body)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, res["error"], "creditor_bic")

	recorder, res = do(t, server, http.MethodPost, "/create_transfer", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "request body is empty", res["error"])
}

func TestUnknownTransfer(t *testing.T) {
	server := newTestServer(t)

	recorder, _ := do(t, server, http.MethodGet, "/transfer/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder, _ = do(t, server, http.MethodPost, "/transfer/does-not-exist/cancel", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	recorder, res := do(t, server, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "healthy", res["status"])

	recorder, _ = do(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "lynx_http_requests_total")
}

func TestNewInvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		config configpkg.Config
	}{
		{
			name:   "OpeningBalance",
			config: configpkg.Config{OpeningBalance: "lots"},
		},
		{
			name:   "CancellationPolicy",
			config: configpkg.Config{OpeningBalance: "1.00", CancellationPolicy: "sometimes"},
		},
		{
			name:   "CancellationRate",
			config: configpkg.Config{OpeningBalance: "1.00", CancellationPolicy: configpkg.CancellationRandom, CancellationRate: 2},
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			_, err := New(nil, zerolog.Nop(), tc.config)
			require.Error(t, err)
		})
	}
}
