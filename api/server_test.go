package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundleBody = `{
	"customer": {"id": "c-1", "name": "Al Noor Trading"},
	"from": "",
	"to": "",
	"records": {
		"contracts": [{"Contract_Number": 7, "Ad Type": "Billboard", "Contract Date": "2024-01-01", "Total": 5000}],
		"payments": [{"id": "p-1", "contract_number": 7, "entry_type": "receipt", "amount": "2,000", "paid_at": "2024-02-01"}]
	}
}`

func postStatement(t *testing.T, server *Server, query, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/statement"+query, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&response))
	return response
}

func TestNew(t *testing.T) {
	cfg := DefaultConfig()
	server := New(cfg, nil, nil)

	if server == nil {
		t.Fatal("Expected server to be created")
	}
	if server.router == nil {
		t.Fatal("Expected router to be initialized")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected port ':8080', got '%s'", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected all origins allowed, got %v", cfg.AllowedOrigins)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

func TestBundleStatement_MethodNotAllowed(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/statement", nil)
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestBundleStatement_JSON(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	w := postStatement(t, server, "", bundleBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	response := decodeBody(t, w.Body)
	summary, ok := response["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "3000", summary["balance"])

	lines, ok := response["lines"].([]interface{})
	require.True(t, ok)
	assert.Len(t, lines, 2)

	customer := response["customer"].(map[string]interface{})
	assert.Equal(t, "Al Noor Trading", customer["name"])
}

func TestBundleStatement_LinesOnly(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	w := postStatement(t, server, "?lines_only=true", bundleBody)
	require.Equal(t, http.StatusOK, w.Code)

	var lines []map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&lines))
	require.Len(t, lines, 2)
	assert.Equal(t, "contract", lines[0]["kind"])
	assert.Equal(t, "payment", lines[1]["kind"])
}

func TestBundleStatement_BadRequests(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	tests := []struct {
		name  string
		query string
		body  string
	}{
		{"malformed body", "", "{"},
		{"no customer", "", `{"records": {}}`},
		{"bad date", "", `{"customer": {"id": "c-1"}, "from": "soon"}`},
		{"reversed range", "", `{"customer": {"id": "c-1"}, "from": "2024-02-01", "to": "2024-01-01"}`},
		{"unknown format", "?format=xml", bundleBody},
		{"conflicting views", "?lines_only=true&summary_only=true", bundleBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postStatement(t, server, tt.query, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeBody(t, w.Body)["error"])
		})
	}
}

func TestBundleStatement_CSV(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	w := postStatement(t, server, "?format=csv", bundleBody)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "statement-al-noor-trading-")
	assert.Contains(t, w.Body.String(), "Running Balance")
	assert.Contains(t, w.Body.String(), "3000.00")
}

func TestBundleStatement_PDF(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	w := postStatement(t, server, "?format=pdf", bundleBody)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestCustomerStatement_NoService(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/customers/c-1/statement", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCustomerStatement_SummaryOnly(t *testing.T) {
	src := statement.BundleSource{Bundle: common.Bundle{
		Customer: common.Customer{ID: "c-1", Name: "Acme"},
		SourceRecords: common.SourceRecords{
			Contracts: []common.Contract{{ContractNumber: 3, Total: common.AmountFromInt(1200)}},
		},
	}}
	svc := statement.NewService(src, nil, ledger.DefaultPatterns())
	server := New(DefaultConfig(), svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/customers/c-1/statement?summary_only=true&from=2024-01-01", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	response := decodeBody(t, w.Body)
	assert.NotContains(t, response, "lines")
	assert.Contains(t, response, "range")
	assert.Equal(t, "1200", response["summary"].(map[string]interface{})["balance"])
}

func TestMetricsEndpoint(t *testing.T) {
	server := New(DefaultConfig(), nil, nil)
	postStatement(t, server, "", bundleBody)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `adhub_statement_builds_total{source="bundle",status="ok"} 1`)
	assert.Contains(t, body, "adhub_statement_build_duration_seconds")
	assert.Contains(t, body, "adhub_statement_lines_count 1")
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	server := New(cfg, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/statement", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
