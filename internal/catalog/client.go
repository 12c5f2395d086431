package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"vibe-commerce/internal/domain"
)

// Options configures a Client. Cache is optional.
type Options struct {
	BaseURL  string
	Limit    int
	Timeout  time.Duration
	Cache    Cache
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// Client reads product listings from the external catalog. It never retries;
// repeated upstream failures trip a breaker that fails fast until it resets.
type Client struct {
	http     *http.Client
	baseURL  string
	limit    int
	cache    Cache
	cacheTTL time.Duration
	breaker  *gobreaker.CircuitBreaker[[]domain.Product]
	flight   singleflight.Group
	logger   zerolog.Logger
}

type upstreamProduct struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

func NewClient(opts Options) *Client {
	logger := opts.Logger.With().Str("component", "catalog").Logger()
	c := &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		limit:    opts.Limit,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]domain.Product](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("catalog breaker state changed")
		},
	})
	return c
}

// ListProducts returns up to the configured number of products, reshaped for
// the storefront. Every failure is reported as domain.ErrUpstream.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	key := c.cacheKey()
	if c.cache != nil {
		products, err := c.cache.Get(ctx, key)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn().Err(err).Msg("catalog cache read failed")
		}
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Shared by every caller in the flight, so one caller cancelling must
		// not abort the others.
		return c.breaker.Execute(func() ([]domain.Product, error) {
			return c.fetch(context.WithoutCancel(ctx))
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
	products := v.([]domain.Product)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, products, c.cacheTTL); err != nil {
			c.logger.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return products, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Product, error) {
	endpoint := c.baseURL + "/products?" + url.Values{"limit": {strconv.Itoa(c.limit)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("get products: unexpected status %d", resp.StatusCode)
	}

	var raw []upstreamProduct
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, domain.Product{
			ID:          p.ID,
			Name:        p.Title,
			Price:       p.Price,
			Image:       p.Image,
			Description: p.Description,
		})
	}
	if c.limit > 0 && len(products) > c.limit {
		products = products[:c.limit]
	}
	return products, nil
}

func (c *Client) cacheKey() string {
	return "catalog:products:" + strconv.Itoa(c.limit)
}
