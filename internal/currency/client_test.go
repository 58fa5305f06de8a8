package currency

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseRatesShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		usd  float64
	}{
		{"rates", `{"base":"PHP","rates":{"PHP":1,"USD":0.017}}`, 0.017},
		{"data.rates", `{"data":{"rates":{"USD":0.02}}}`, 0.02},
		{"conversion_rates", `{"conversion_rates":{"USD":0.019}}`, 0.019},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := parseRates([]byte(tc.body))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !approx(raw["USD"], tc.usd) {
				t.Fatalf("USD = %v, want %v", raw["USD"], tc.usd)
			}
		})
	}
	if _, err := parseRates([]byte(`{"result":"error"}`)); err == nil {
		t.Fatalf("expected error for response without rates")
	}
}

func TestRebaseFromUSD(t *testing.T) {
	// USD-based provider: 1 USD = 56 PHP, 0.9 EUR.
	r := rebase(map[string]float64{"USD": 1, "PHP": 56, "EUR": 0.9})
	if r["PHP"] != 1 {
		t.Fatalf("PHP = %v", r["PHP"])
	}
	if !approx(r["USD"], 1.0/56) || !approx(r["EUR"], 0.9/56) {
		t.Fatalf("rebased USD=%v EUR=%v", r["USD"], r["EUR"])
	}
	if r["VND"] != 430 {
		t.Fatalf("missing currency should keep fallback, got %v", r["VND"])
	}
	if len(r) != len(Supported()) {
		t.Fatalf("rebased table has %d entries", len(r))
	}
}

func TestClientCachesLiveRates(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rates":{"PHP":1,"USD":0.0175}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL, CacheTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	r := c.Rates(context.Background())
	if r.Source != SourceLive || !approx(r.Rates["USD"], 0.0175) {
		t.Fatalf("first lookup: %+v", r)
	}
	r = c.Rates(context.Background())
	if r.Source != SourceCached || hits.Load() != 1 {
		t.Fatalf("second lookup source=%s hits=%d", r.Source, hits.Load())
	}

	now = now.Add(2 * time.Minute)
	r = c.Rates(context.Background())
	if r.Source != SourceLive || hits.Load() != 2 {
		t.Fatalf("after ttl source=%s hits=%d", r.Source, hits.Load())
	}
}

func TestClientFallsBackAndBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL})
	for i := 0; i < 5; i++ {
		r := c.Rates(context.Background())
		if r.Source != SourceFallback || r.Rates["JPY"] != 2.5 {
			t.Fatalf("lookup %d: %+v", i, r)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("provider hit %d times, breaker should open after 3", got)
	}
}

func TestRatesCopyIsolated(t *testing.T) {
	c := NewClient(Config{})
	r := c.Rates(context.Background())
	r.Rates["USD"] = 99
	if again := c.Rates(context.Background()); again.Rates["USD"] != 0.018 {
		t.Fatalf("fallback table mutated: %v", again.Rates["USD"])
	}
}

func TestRateUnsupported(t *testing.T) {
	r := Fallback(time.Now())
	if _, err := r.Rate("XYZ"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("err = %v", err)
	}
	if v, err := r.Rate("usd"); err != nil || v != 0.018 {
		t.Fatalf("usd = %v, %v", v, err)
	}
}
