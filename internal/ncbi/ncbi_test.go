package ncbi

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func resetCache(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	cacheFilePath = filepath.Join(tmp, "ncbi_cache.json")
	cache = nil
	cacheLoaded = false
	cacheTTLSecs = 0
}

func TestFetchSequences_SingleAndCache(t *testing.T) {
	payload := ">FAKE_ACC Homo sapiens test\nATGC\nGGTT\n"
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(payload)),
			Header:     make(http.Header),
		}, nil
	})}
	resetCache(t)

	got, err := FetchSequences(context.Background(), []string{"FAKE_ACC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["FAKE_ACC"] != "ATGCGGTT" {
		t.Fatalf("expected ATGCGGTT, got %q", got["FAKE_ACC"])
	}

	// second call should hit cache and not invoke HTTP transport
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		t.Fatalf("HTTP should not be called on cached fetch")
		return nil, nil
	})}

	got2, err := FetchSequences(context.Background(), []string{"FAKE_ACC"})
	if err != nil {
		t.Fatalf("unexpected error on cached fetch: %v", err)
	}
	if got2["FAKE_ACC"] != "ATGCGGTT" {
		t.Fatalf("expected cached sequence, got %q", got2["FAKE_ACC"])
	}
}

func TestFetchSequences_BatchMapping(t *testing.T) {
	payload := ">ACC1 first\nAAAA\n>ACC2 second\nGGGG\n"
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(strings.NewReader(payload)),
			Header:     make(http.Header),
		}, nil
	})}
	resetCache(t)

	got, err := FetchSequences(context.Background(), []string{"ACC1", "ACC2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["ACC1"] != "AAAA" || got["ACC2"] != "GGGG" {
		t.Fatalf("unexpected mapping: %v", got)
	}
}

func TestFetchSequences_RetryAndRetryAfter(t *testing.T) {
	calls := 0
	payload := ">RACC retried\nTTTT\n"
	httpClient = &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			h := make(http.Header)
			h.Set("Retry-After", "1")
			return &http.Response{StatusCode: 429, Body: io.NopCloser(strings.NewReader("")), Header: h}, nil
		}
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(payload)), Header: make(http.Header)}, nil
	})}
	resetCache(t)

	start := time.Now()
	got, err := FetchSequences(context.Background(), []string{"RACC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["RACC"] != "TTTT" {
		t.Fatalf("expected TTTT, got %v", got)
	}
	if time.Since(start) < time.Second {
		t.Fatalf("expected at least 1s wait due to Retry-After, elapsed %v", time.Since(start))
	}
}

func TestCacheTTL_Expiry(t *testing.T) {
	tmp := t.TempDir()
	cacheFilePath = filepath.Join(tmp, "ncbi_cache.json")
	cache = map[string]cachedEntry{
		"OLDACC": {Sequence: "ATAT", RetrievedAt: time.Now().Unix() - 100000},
	}
	cacheLoaded = true
	SetCacheTTLSeconds(1)
	defer SetCacheTTLSeconds(0)

	if v, ok := getCached("OLDACC"); ok || v != "" {
		t.Fatalf("expected OLDACC to be expired and not returned, got %v (ok=%v)", v, ok)
	}
}
