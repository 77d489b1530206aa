package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"campus.org/internal/obs"
)

func TestRequestIDPropagation(t *testing.T) {
	f := newAPIFixture(t, Options{})

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "trace-1234")
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-Id"); got != "trace-1234" {
		t.Fatalf("X-Request-Id: %q", got)
	}

	// Without an inbound id one is generated.
	resp, err = f.client.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestSecurityHeaders(t *testing.T) {
	f := newAPIFixture(t, Options{})

	resp, err := f.client.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for name, value := range want {
		if got := resp.Header.Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t, Options{})

	req, _ := http.NewRequest(http.MethodOptions, f.srv.URL+"/v1/courses", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight: status %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Allow-Origin: %q", got)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("Allow-Methods: %q", resp.Header.Get("Access-Control-Allow-Methods"))
	}

	// Foreign origins get no allowance.
	req, _ = http.NewRequest(http.MethodOptions, f.srv.URL+"/v1/courses", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = f.client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("foreign origin must not be allowed")
	}
}

func TestRateLimitExhaustion(t *testing.T) {
	f := newAPIFixture(t, Options{RateBurst: 2, RatePerSec: 1})

	var last *http.Response
	for i := 0; i < 5; i++ {
		resp, err := f.client.Get(f.srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			last = resp
			break
		}
		resp.Body.Close()
	}
	if last == nil {
		t.Fatal("burst of 2 never hit the limit in 5 requests")
	}
	defer last.Body.Close()
	if got := last.Header.Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After: %q", got)
	}
	var body map[string]any
	if err := json.NewDecoder(last.Body).Decode(&body); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if body["error"] != "rate limit exceeded" {
		t.Fatalf("error: %v", body["error"])
	}
	if rid, _ := body["request_id"].(string); rid == "" {
		t.Fatal("429 body carries the request id")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newAPIFixture(t, Options{RateBurst: 2, RatePerSec: 1})

	// Closing stops background maintenance but must not tear down serving,
	// and a second Close must not panic.
	f.api.Close()
	f.api.Close()

	resp, err := f.client.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get after close: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after close: %d", resp.StatusCode)
	}
}

func TestRequestLogLine(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.Logger()
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	f := newAPIFixture(t, Options{})

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-Id", "log-test-1")
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	var entry map[string]any
	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e map[string]any
		if json.Unmarshal([]byte(line), &e) != nil {
			continue
		}
		if e["request_id"] == "log-test-1" {
			entry = e
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("no log line for the request in %q", buf.String())
	}
	if entry["msg"] != "request_complete" {
		t.Fatalf("msg: %v", entry["msg"])
	}
	if entry["method"] != "GET" || entry["path"] != "/healthz" {
		t.Fatalf("method/path: %v/%v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Fatalf("status: %v", entry["status"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Fatal("missing duration_ms")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	f := newAPIFixture(t, Options{MaxBodyBytes: 256})
	access, _ := f.login("admin@campus.org", seedPassword)

	big := strings.Repeat("x", 1024)
	code, _, _ := f.do(http.MethodPost, "/v1/courses", access, map[string]any{
		"name": big, "duration": 1, "desc": big,
	})
	if code != http.StatusBadRequest {
		t.Fatalf("oversized body: status %d", code)
	}
}
