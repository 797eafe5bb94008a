package http

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func fuzzResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func FuzzDecodeAPIError(f *testing.F) {
	f.Add(404, `{"error":"flag not found"}`)
	f.Add(400, `{"error":"invalid flag","fields":{"key":"is required"}}`)
	f.Add(500, "plain text")
	f.Add(409, "")
	f.Add(400, `{"error":123}`)

	f.Fuzz(func(t *testing.T, status int, body string) {
		apiErr := decodeAPIError(fuzzResponse(status, body))
		if apiErr.StatusCode != status {
			t.Fatalf("status: got %d, want %d", apiErr.StatusCode, status)
		}
		_ = apiErr.Error()
	})
}

func FuzzDecodeStatus(f *testing.F) {
	f.Add(`{"status":"healthy","database":"healthy","object_storage":"healthy"}`)
	f.Add(`{"status":"unhealthy"}`)
	f.Add(`{}`)
	f.Add(`[]`)
	f.Add(`{"status":1}`)

	f.Fuzz(func(t *testing.T, body string) {
		st, err := decodeStatus(fuzzResponse(http.StatusOK, body))
		if err != nil {
			return
		}
		if _, ok := st.Dependencies["status"]; ok {
			t.Fatal("overall status must not appear as a dependency")
		}
	})
}
