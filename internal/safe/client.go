package safe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

// Client is an HTTP client for the Safe Transaction Service with retry on 429.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a new Safe Transaction Service client.
func NewClient(baseURL string, maxRetries int, baseDelay time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Info describes the Safe contract itself.
type Info struct {
	Address   string   `json:"address"`
	Nonce     int      `json:"nonce"`
	Threshold int      `json:"threshold"`
	Owners    []string `json:"owners"`
	ChainID   int      `json:"chainId"`
}

// Wire shapes. tokenAddress is null for the native ETH row; token metadata
// is null alongside it.
type safeBalance struct {
	TokenAddress *string `json:"tokenAddress"`
	Token        *struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals int32  `json:"decimals"`
		LogoURI  string `json:"logoUri"`
	} `json:"token"`
	Balance string `json:"balance"`
}

type safeCollectible struct {
	Address     string `json:"address"`
	TokenName   string `json:"tokenName"`
	TokenSymbol string `json:"tokenSymbol"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURI    string `json:"imageUri"`
}

// GetInfo fetches the Safe's owners, threshold, and nonce.
func (c *Client) GetInfo(ctx context.Context, address string) (Info, error) {
	var info Info
	if err := c.getJSON(ctx, fmt.Sprintf("/safes/%s/", url.PathEscape(address)), &info); err != nil {
		return Info{}, err
	}
	info.ChainID = 1
	return info, nil
}

// GetBalances fetches all fungible balances held by the Safe, the native ETH
// row included. The wire shape is decoded once here: the ETH row gets the
// native-asset sentinel address and standard metadata, token rows with
// missing decimals default to 18.
func (c *Client) GetBalances(ctx context.Context, address string) ([]domain.AssetBalance, error) {
	path := fmt.Sprintf("/safes/%s/balances/?trusted=true&exclude_spam=true", url.PathEscape(address))

	var raw []safeBalance
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	return lo.Map(raw, func(b safeBalance, _ int) domain.AssetBalance {
		if b.TokenAddress == nil || b.Token == nil {
			return domain.AssetBalance{
				Address:    domain.NativeAssetAddress,
				Name:       "Ethereum",
				Symbol:     "ETH",
				Decimals:   18,
				RawBalance: b.Balance,
			}
		}
		decimals := b.Token.Decimals
		if decimals == 0 {
			decimals = 18
		}
		return domain.AssetBalance{
			Address:    *b.TokenAddress,
			Name:       b.Token.Name,
			Symbol:     b.Token.Symbol,
			Decimals:   decimals,
			LogoURL:    b.Token.LogoURI,
			RawBalance: b.Balance,
		}
	}), nil
}

// GetCollectibles fetches the Safe's NFT holdings.
func (c *Client) GetCollectibles(ctx context.Context, address string) ([]domain.NftItem, error) {
	path := fmt.Sprintf("/safes/%s/collectibles/?trusted=true&exclude_spam=true", url.PathEscape(address))

	var raw []safeCollectible
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	return lo.Map(raw, func(item safeCollectible, _ int) domain.NftItem {
		name := item.Name
		if name == "" {
			name = "#" + item.ID
		}
		return domain.NftItem{
			ContractAddress: item.Address,
			TokenID:         item.ID,
			Name:            name,
			Description:     item.Description,
			ImageURL:        item.ImageURI,
			Collection: domain.NftCollection{
				Name: item.TokenName,
				Slug: strings.ToLower(item.TokenSymbol),
			},
		}
	}), nil
}

// get performs a GET request with retry on 429.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := range c.maxRetries + 1 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("HTTP 429 at %s (attempt %d/%d)", url, attempt+1, c.maxRetries+1)
			if attempt < c.maxRetries {
				delay := c.baseDelay * time.Duration(1<<uint(attempt))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, lastErr
		}

		return nil, fmt.Errorf("safe API HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}

	return nil, lastErr
}

// getJSON performs a GET request and unmarshals the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing JSON from %s: %w", path, err)
	}
	return nil
}
