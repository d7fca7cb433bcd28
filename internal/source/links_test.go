package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/credence/internal/model"
)

func init() {
	linkSleepFunc = func(time.Duration) {}
}

func newTestChecker(workers int) *LinkChecker {
	return NewLinkChecker(
		model.CitationConfig{Workers: workers, Timeout: 5 * time.Second},
		model.HTTPConfig{UserAgent: "test-agent"},
	)
}

func TestLinkChecker_CheckOne_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("Expected User-Agent test-agent, got %q", ua)
		}
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2023 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestChecker(4).checkOne(context.Background(), server.URL)

	if !result.Accessible {
		t.Error("Expected link to be accessible")
	}
	if result.Dead {
		t.Error("Expected link not to be dead")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", result.StatusCode)
	}
	if result.LastModified == nil {
		t.Fatal("Expected Last-Modified to be parsed")
	}
	if result.LastModified.Year() != 2023 {
		t.Errorf("Expected Last-Modified year 2023, got %d", result.LastModified.Year())
	}
}

func TestLinkChecker_CheckOne_Dead(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		result := newTestChecker(4).checkOne(context.Background(), server.URL)
		server.Close()

		if result.Accessible {
			t.Errorf("%d: expected link not to be accessible", status)
		}
		if !result.Dead {
			t.Errorf("%d: expected link to be marked dead", status)
		}
		if result.StatusCode != status {
			t.Errorf("Expected status code %d, got %d", status, result.StatusCode)
		}
	}
}

func TestLinkChecker_CheckOne_Redirect(t *testing.T) {
	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusMovedPermanently)
	}))
	defer redirectServer.Close()

	result := newTestChecker(4).checkOne(context.Background(), redirectServer.URL)

	if !result.Accessible {
		t.Error("Expected redirected link to be accessible")
	}
	if result.RedirectURL != finalServer.URL {
		t.Errorf("Expected redirect to %s, got %q", finalServer.URL, result.RedirectURL)
	}
}

func TestLinkChecker_CheckOne_Staleness(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		age         time.Duration
		expectStale bool
		desc        string
	}{
		{400 * 24 * time.Hour, true, "13-month-old source is stale"},
		{4 * 365 * 24 * time.Hour, true, "4-year-old source is stale"},
		{30 * 24 * time.Hour, false, "30-day-old source is fresh"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			lastModified := now.Add(-tt.age).Format(http.TimeFormat)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Last-Modified", lastModified)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			checker := newTestChecker(4)
			checker.now = func() time.Time { return now }

			result := checker.checkOne(context.Background(), server.URL)

			if result.Stale != tt.expectStale {
				t.Errorf("Expected Stale=%v, got %v", tt.expectStale, result.Stale)
			}
		})
	}
}

func TestLinkChecker_Check_PreservesOrder(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer missing.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	citations := []model.Citation{
		{URL: ok.URL, Text: "ok"},
		{URL: missing.URL, Text: "missing"},
		{URL: broken.URL, Text: "broken"},
	}

	results := newTestChecker(2).Check(context.Background(), citations)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, c := range results {
		if c.Text != citations[i].Text {
			t.Errorf("Result %d: expected %q, got %q", i, citations[i].Text, c.Text)
		}
		if c.Check == nil {
			t.Fatalf("Result %d: expected check to be set", i)
		}
	}
	if !results[0].Check.Accessible {
		t.Error("Expected first link to be accessible")
	}
	if !results[1].Check.Dead {
		t.Error("Expected second link to be dead")
	}
	if results[2].Check.Accessible || results[2].Check.Dead {
		t.Error("Expected 500 to be neither accessible nor dead")
	}
	if citations[0].Check != nil {
		t.Error("Expected input citations to be left untouched")
	}
}

func TestLinkChecker_Check_Concurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	citations := make([]model.Citation, 10)
	for i := range citations {
		citations[i] = model.Citation{URL: server.URL + "/" + string(rune('a'+i))}
	}

	start := time.Now()
	results := newTestChecker(10).Check(context.Background(), citations)
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("Checking took too long (%v), concurrent execution may not be working", elapsed)
	}
	for i, c := range results {
		if c.Check == nil || !c.Check.Accessible {
			t.Errorf("Result %d: expected accessible", i)
		}
	}
}

func TestLinkChecker_Check_Empty(t *testing.T) {
	results := newTestChecker(4).Check(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestLinkChecker_Check_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results := newTestChecker(4).Check(ctx, []model.Citation{{URL: server.URL}})

	if len(results) != 1 || results[0].Check == nil {
		t.Fatalf("Expected one checked result, got %+v", results)
	}
	if results[0].Check.Accessible {
		t.Error("Expected link not to be accessible after cancellation")
	}
	if results[0].Check.Error == "" {
		t.Error("Expected an error message")
	}
}

func TestLinkChecker_Retry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestChecker(4).checkWithRetry(context.Background(), server.URL)

	if !result.Accessible {
		t.Error("Expected accessible after retry")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestLinkChecker_NoRetryOnNotFound(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := newTestChecker(4).checkWithRetry(context.Background(), server.URL)

	if !result.Dead {
		t.Error("Expected dead for 404")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestNewLinkChecker_Defaults(t *testing.T) {
	checker := NewLinkChecker(model.CitationConfig{}, model.HTTPConfig{})
	if checker.maxWorkers != 8 {
		t.Errorf("Expected default workers 8, got %d", checker.maxWorkers)
	}
	if checker.httpClient.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout 10s, got %v", checker.httpClient.Timeout)
	}
}

func TestAuthority_Annotate(t *testing.T) {
	a := NewAuthority(&model.AuthorityConfig{
		PrimaryDomains:   []string{"who.int"},
		SecondaryDomains: []string{"bbc.co.uk"},
	})

	citations := a.Annotate([]model.Citation{
		{URL: "https://www.who.int/news/item/1"},
		{URL: "https://www.bbc.co.uk/news/world"},
		{URL: "https://blog.example.net/post"},
	})

	expected := []model.AuthorityTier{model.TierPrimary, model.TierSecondary, model.TierTertiary}
	for i, c := range citations {
		if c.Authority != expected[i] {
			t.Errorf("%s: expected %v, got %v", c.URL, expected[i], c.Authority)
		}
	}
}
