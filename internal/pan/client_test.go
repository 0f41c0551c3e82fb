package pan

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient starts an httptest server with the given mux and returns a
// client pointed at it. The server is torn down with the test.
func newTestClient(t *testing.T, mux *http.ServeMux, user, password, token string) *Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(srv.URL, srv.Client(), user, password, token, nil)
}

// writeEnvelope encodes a body-level envelope response.
func writeEnvelope(t *testing.T, w http.ResponseWriter, code int, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshaling envelope data: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(envelope{Code: code, Data: raw}); err != nil {
		t.Fatalf("encoding envelope: %v", err)
	}
}
