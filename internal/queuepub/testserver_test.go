// Copyright 2025 James Ross
package queuepub

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer spins up an HTTP server whose single handler reads the
// request body and returns the status handle(body) decides.
func newTestServer(t *testing.T, handle func(body []byte) int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(handle(body))
	}))
}
