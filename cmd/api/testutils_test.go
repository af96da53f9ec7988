package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"techform/internal/jsonlog"
)

// newTestApplication creates an application with a discarding logger and rate limiting off.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	cfg := config{
		port:   4000,
		env:    "test",
		locale: "en",
	}

	app, err := newApplication(cfg, jsonlog.Discard())
	require.NoError(t, err)
	return app
}

// send issues a request against handler and returns the recorded response.
func send(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a JSON response body into a generic map.
func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "body: %s", rr.Body.String())
	return body
}
