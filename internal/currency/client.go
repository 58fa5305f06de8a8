// Package currency provides PHP-based exchange rates for the budget
// calculator. Lookups never fail: when the provider is unreachable or its
// breaker is open, the built-in table is served instead.
package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/metrics"
)

const Base = "PHP"

const (
	SourceLive     = "live"
	SourceCached   = "cached"
	SourceFallback = "fallback"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Fallback rates: 1 PHP in each currency.
var fallback = map[string]float64{
	"PHP": 1,
	"USD": 0.018,
	"EUR": 0.016,
	"JPY": 2.5,
	"GBP": 0.014,
	"AUD": 0.026,
	"CAD": 0.024,
	"SGD": 0.024,
	"HKD": 0.14,
	"KRW": 23.5,
	"CNY": 0.13,
	"THB": 0.64,
	"MYR": 0.083,
	"IDR": 270,
	"VND": 430,
}

// Supported lists the currency codes the calculator accepts, sorted.
func Supported() []string {
	out := make([]string, 0, len(fallback))
	for c := range fallback {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func IsSupported(code string) bool {
	_, ok := fallback[strings.ToUpper(code)]
	return ok
}

type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Rate returns 1 PHP expressed in code.
func (r Rates) Rate(code string) (float64, error) {
	v, ok := r.Rates[strings.ToUpper(code)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}
	return v, nil
}

type Config struct {
	URL      string
	CacheTTL time.Duration
	Timeout  time.Duration
}

type Client struct {
	url  string
	ttl  time.Duration
	http *http.Client
	cb   *gobreaker.CircuitBreaker[map[string]float64]
	now  func() time.Time

	mu     sync.Mutex
	cached *Rates
}

func NewClient(cfg Config) *Client {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := &Client{
		url:  cfg.URL,
		ttl:  cfg.CacheTTL,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
	c.cb = gobreaker.NewCircuitBreaker[map[string]float64](gobreaker.Settings{
		Name:        "currency",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return c
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Rates returns fresh cached rates, live rates, or the fallback table,
// in that order of preference.
func (c *Client) Rates(ctx context.Context) Rates {
	c.mu.Lock()
	if c.cached != nil && c.now().Sub(c.cached.FetchedAt) < c.ttl {
		r := c.cached.copy()
		c.mu.Unlock()
		r.Source = SourceCached
		metrics.CurrencyFetches.WithLabelValues(SourceCached).Inc()
		return r
	}
	c.mu.Unlock()

	if err := c.Refresh(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("exchange rates unavailable, using fallback")
		return Fallback(c.now())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cached.copy()
}

// Refresh fetches live rates through the breaker and replaces the cache.
func (c *Client) Refresh(ctx context.Context) error {
	if c.url == "" {
		metrics.CurrencyFetches.WithLabelValues(SourceFallback).Inc()
		return errors.New("no rate provider configured")
	}
	raw, err := c.cb.Execute(func() (map[string]float64, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		outcome := SourceFallback
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.CurrencyFetches.WithLabelValues(outcome).Inc()
		return err
	}
	r := Rates{Base: Base, Rates: rebase(raw), Source: SourceLive, FetchedAt: c.now()}
	c.mu.Lock()
	c.cached = &r
	c.mu.Unlock()
	metrics.CurrencyFetches.WithLabelValues(SourceLive).Inc()
	return nil
}

func (c *Client) fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return parseRates(body)
}

// providerResponse covers the shapes seen across rate APIs.
type providerResponse struct {
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	Data            *struct {
		Rates map[string]float64 `json:"rates"`
	} `json:"data"`
}

func parseRates(body []byte) (map[string]float64, error) {
	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	switch {
	case len(pr.Rates) > 0:
		return pr.Rates, nil
	case pr.Data != nil && len(pr.Data.Rates) > 0:
		return pr.Data.Rates, nil
	case len(pr.ConversionRates) > 0:
		return pr.ConversionRates, nil
	}
	return nil, errors.New("no rates data found in response")
}

// rebase converts provider rates to 1 PHP = r units. A currency missing
// from the provider keeps its fallback value.
func rebase(raw map[string]float64) map[string]float64 {
	scale := 1.0
	if php, ok := raw[Base]; ok && php > 0 {
		scale = 1 / php
	}
	out := make(map[string]float64, len(fallback))
	for code, fb := range fallback {
		if v, ok := raw[code]; ok && v > 0 {
			out[code] = v * scale
		} else {
			out[code] = fb
		}
	}
	out[Base] = 1
	return out
}

// Fallback returns the built-in table stamped with at.
func Fallback(at time.Time) Rates {
	m := make(map[string]float64, len(fallback))
	for k, v := range fallback {
		m[k] = v
	}
	return Rates{Base: Base, Rates: m, Source: SourceFallback, FetchedAt: at}
}

func (r Rates) copy() Rates {
	m := make(map[string]float64, len(r.Rates))
	for k, v := range r.Rates {
		m[k] = v
	}
	r.Rates = m
	return r
}
