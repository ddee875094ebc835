package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

// Client fetches USD token prices from the CoinGecko API. Requests are
// serialized and spaced by minInterval to stay inside the public rate
// limit; resolved prices are cached per address for priceTTL.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration

	minInterval time.Duration
	reqMu       sync.Mutex
	lastRequest time.Time

	cache *priceCache
}

// NewClient creates a new CoinGecko API client. apiKey is optional (demo
// tier header).
func NewClient(baseURL, apiKey string, minInterval time.Duration, maxRetries int, retryDelay time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
		minInterval: minInterval,
		cache:       newPriceCache(),
	}
}

// GetBatchPricesUsd resolves current USD unit prices for the given asset
// addresses in one upstream round-trip per asset class. Keys in the result
// are lowercased; assets CoinGecko does not know are simply absent, the
// caller decides the default. The native-asset sentinel is priced via the
// ethereum coin endpoint, contract addresses via the token-price endpoint.
func (c *Client) GetBatchPricesUsd(ctx context.Context, addresses []string) (map[string]float64, error) {
	result := make(map[string]float64)

	uncached := lo.Uniq(lo.FilterMap(addresses, func(addr string, _ int) (string, bool) {
		key := strings.ToLower(addr)
		if price, ok := c.cache.get(key); ok {
			result[key] = price
			return "", false
		}
		return key, true
	}))
	if len(uncached) == 0 {
		return result, nil
	}

	hasNative := lo.SomeBy(uncached, domain.IsNativeAsset)
	tokens := lo.Reject(uncached, func(addr string, _ int) bool {
		return domain.IsNativeAsset(addr)
	})

	if hasNative {
		price, err := c.fetchNativePrice(ctx)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(domain.NativeAssetAddress)
		result[key] = price
		c.cache.set(key, price)
	}

	if len(tokens) > 0 {
		prices, err := c.fetchTokenPrices(ctx, tokens)
		if err != nil {
			return nil, err
		}
		for addr, price := range prices {
			result[addr] = price
			c.cache.set(addr, price)
		}
	}

	return result, nil
}

func (c *Client) fetchNativePrice(ctx context.Context) (float64, error) {
	body, err := c.get(ctx, "/simple/price?ids=ethereum&vs_currencies=usd")
	if err != nil {
		return 0, err
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parsing CoinGecko response: %w", err)
	}
	return raw["ethereum"]["usd"], nil
}

func (c *Client) fetchTokenPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	path := "/simple/token_price/ethereum?contract_addresses=" + strings.Join(addresses, ",") + "&vs_currencies=usd"
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	prices := make(map[string]float64, len(raw))
	for addr, quote := range raw {
		prices[strings.ToLower(addr)] = quote["usd"]
	}
	return prices, nil
}

// get performs a throttled GET request with retry on 429. The request mutex
// is held across the round-trip so at most one upstream call is in flight.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	if wait := c.minInterval - time.Since(c.lastRequest); wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	url := c.baseURL + path

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("x-cg-demo-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CoinGecko request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.lastRequest = time.Now()
		if err != nil {
			return nil, fmt.Errorf("reading CoinGecko response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("CoinGecko rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
