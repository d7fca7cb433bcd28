package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a keyed token-bucket rate limiter. The fetcher keys it by
// news domain; the HTTP server keys it by client address. Buckets idle for
// longer than the sweep window are dropped so long-running servers do not
// accumulate one bucket per client forever.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	overrides    map[string]domainRate // matched on host suffix
	defaultRate  rate.Limit
	defaultBurst int
	now          func() time.Time
}

type domainRate struct {
	limit rate.Limit
	burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		buckets:      make(map[string]*bucket),
		overrides:    make(map[string]domainRate),
		defaultRate:  limit,
		defaultBurst: burst,
		now:          time.Now,
	}
}

// Wait blocks until the URL's domain has a token
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return err
	}
	return l.get(domain).Wait(ctx)
}

// WaitWithDelay waits for a token, then for an extra delay such as a
// robots.txt crawl delay
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, extra time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}
	if extra <= 0 {
		return nil
	}

	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow reports whether the URL's domain has a token, without waiting
func (l *Limiter) Allow(rawURL string) bool {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return false
	}
	return l.get(domain).Allow()
}

// AllowKey reports whether an arbitrary key has a token, without waiting
func (l *Limiter) AllowKey(key string) bool {
	return l.get(key).Allow()
}

// SetDomainRate overrides the rate for a domain and its subdomains.
// Existing buckets for matching hosts are replaced.
func (l *Limiter) SetDomainRate(domain string, requestsPerSecond float64, burst int) {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))

	l.mu.Lock()
	defer l.mu.Unlock()

	override := domainRate{limit: rate.Limit(requestsPerSecond), burst: burst}
	if requestsPerSecond <= 0 {
		override.limit = rate.Inf
	}
	if burst <= 0 {
		override.burst = l.defaultBurst
	}
	l.overrides[domain] = override

	for key, b := range l.buckets {
		if matchesDomain(key, domain) {
			b.limiter = rate.NewLimiter(override.limit, override.burst)
		}
	}
}

// Sweep drops buckets unused for longer than idle and returns how many were dropped
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of live buckets
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		r := l.rateFor(key)
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = l.now()
	return b.limiter
}

// rateFor returns the most specific override for key, or the default rate
func (l *Limiter) rateFor(key string) domainRate {
	best, chosen := "", domainRate{limit: l.defaultRate, burst: l.defaultBurst}
	for domain, r := range l.overrides {
		if matchesDomain(key, domain) && len(domain) > len(best) {
			best, chosen = domain, r
		}
	}
	return chosen
}

func matchesDomain(host, domain string) bool {
	host = strings.TrimPrefix(host, "www.")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// extractDomain returns the lower-case host of a URL, without port
func extractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("no host in URL %q", rawURL)
	}
	return strings.ToLower(parsed.Hostname()), nil
}
