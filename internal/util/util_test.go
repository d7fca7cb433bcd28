package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"Credence/0.1 (+https://github.com/ppiankov/credence)": "Credence",
		"curl/8.0":  "curl",
		"plainname": "plainname",
		"":          "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var robotsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: Credence\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Credence/0.1", server.Client())
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/news/story")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected /news/story to be allowed for Credence")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected 2s crawl delay, got %v", delay)
	}

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/page")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if allowed {
		t.Error("Expected /private/page to be disallowed")
	}

	if robotsHits.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", robotsHits.Load())
	}

	checker.Forget(server.URL + "/news/other")
	_, _, _ = checker.CanFetch(ctx, server.URL+"/")
	if robotsHits.Load() != 2 {
		t.Errorf("Expected refetch after Forget, got %d fetches", robotsHits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker("Credence/0.1", server.Client())
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected missing robots.txt to allow fetching")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker("Credence/0.1", nil)
	if _, _, err := checker.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "internal.example.com")

	req := &http.Request{URL: mustParse(t, "https://news.example.org/a")}
	got, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got == nil || got.Host != "proxy.local:3128" {
		t.Errorf("Expected https traffic through http proxy, got %v", got)
	}

	req = &http.Request{URL: mustParse(t, "http://internal.example.com/b")}
	got, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected NO_PROXY host to bypass proxy, got %v", got)
	}
}

func TestNewTransport(t *testing.T) {
	transport := NewTransport(model.HTTPConfig{HTTPProxy: "http://proxy.local:3128"})
	if transport.TLSClientConfig != nil {
		t.Error("Expected default TLS verification")
	}
	got, err := transport.Proxy(&http.Request{URL: mustParse(t, "https://news.example.org/a")})
	if err != nil || got == nil || got.Host != "proxy.local:3128" {
		t.Errorf("Expected configured proxy, got %v (%v)", got, err)
	}

	transport = NewTransport(model.HTTPConfig{InsecureTLS: true})
	if transport.TLSClientConfig == nil || !transport.TLSClientConfig.InsecureSkipVerify {
		t.Error("Expected insecure TLS to be opt-in")
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
