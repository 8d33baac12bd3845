package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// END-TO-END TEST SUITE
//
// These tests exercise a running service:
//
//   Client → HTTP API → Postgres → HTML response
//
// They are skipped unless BASE_URL points at a live instance, for example
// BASE_URL=http://localhost:8000 after `docker compose up`.
////////////////////////////////////////////////////////////////////////////////

func baseURL(t *testing.T) string {
	t.Helper()
	v := os.Getenv("BASE_URL")
	if v == "" {
		t.Skip("BASE_URL not set")
	}
	return strings.TrimRight(v, "/")
}

// unique generates a unique string so tests never collide with previous runs.
func unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// waitReady polls /ready until DB + server are ready.
func waitReady(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(30 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL(t) + "/ready")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(300 * time.Millisecond)
	}

	t.Fatalf("service not ready after 30s")
}

// httpGet performs a GET request with optional headers.
func httpGet(t *testing.T, path string, headers map[string]string) (int, string) {
	t.Helper()

	req, _ := http.NewRequest(http.MethodGet, baseURL(t)+path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestHealth_ReturnsOK(t *testing.T) {
	s, body := httpGet(t, "/health", nil)
	if s != http.StatusOK {
		t.Fatalf("health expected 200 got %d", s)
	}

	var r struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(body), &r); err != nil || r.Status != "ok" {
		t.Fatalf("unexpected health body %q", body)
	}
}

func TestTrack_RecordsCampaign(t *testing.T) {
	waitReady(t)

	campaign := unique("spring")
	s, body := httpGet(t, "/track?utm_source=newsletter&utm_campaign="+campaign+"&ref=ignored",
		map[string]string{"User-Agent": "TestAgent/1.0"})

	if s != http.StatusOK {
		t.Fatalf("track expected 200 got %d", s)
	}
	if !strings.Contains(body, "<li>• utm_campaign: "+campaign+"</li>") {
		t.Fatalf("campaign bullet missing:\n%s", body)
	}
	if strings.Contains(body, "ignored") {
		t.Fatal("non-utm parameter rendered")
	}
}

func TestTrack_NoParamsPlaceholder(t *testing.T) {
	waitReady(t)

	s, body := httpGet(t, "/track", nil)
	if s != http.StatusOK {
		t.Fatalf("track expected 200 got %d", s)
	}
	if strings.Count(body, "<li>") != 1 || !strings.Contains(body, "No UTM parameters detected") {
		t.Fatalf("expected single placeholder bullet:\n%s", body)
	}
}
