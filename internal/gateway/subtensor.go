package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SubtensorClient implements Client against a subtensor HTTP gateway.
type SubtensorClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var _ Client = (*SubtensorClient)(nil)

// NewSubtensorClient creates a client with optional proxy support.
func NewSubtensorClient(baseURL, apiKey, proxyURL string) *SubtensorClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SubtensorClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (c *SubtensorClient) Name() string { return "subtensor" }

// GetStake queries the current stake for (coldkey, hotkey, netuid).
func (c *SubtensorClient) GetStake(ctx context.Context, coldkey, hotkey string, netuid int) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/stake?coldkey=%s&hotkey=%s&netuid=%d",
		c.BaseURL, url.QueryEscape(coldkey), url.QueryEscape(hotkey), netuid)
	var out struct {
		Stake float64 `json:"stake"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return 0, fmt.Errorf("get stake net %d: %w", netuid, err)
	}
	return out.Stake, nil
}

// GetBalance queries the free balance of an address.
func (c *SubtensorClient) GetBalance(ctx context.Context, address string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v1/balance?address=%s", c.BaseURL, url.QueryEscape(address))
	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Balance, nil
}

// IncreaseStake submits an add-stake extrinsic via the gateway.
func (c *SubtensorClient) IncreaseStake(ctx context.Context, netuid int, hotkey string, amount float64) error {
	if err := c.postJSON(ctx, c.BaseURL+"/api/v1/stake/increase", mutationPayload{
		NetUID: netuid, Hotkey: hotkey, Amount: amount,
	}); err != nil {
		return fmt.Errorf("increase stake net %d: %w", netuid, err)
	}
	return nil
}

// DecreaseStake submits a remove-stake extrinsic via the gateway.
func (c *SubtensorClient) DecreaseStake(ctx context.Context, netuid int, hotkey string, amount float64) error {
	if err := c.postJSON(ctx, c.BaseURL+"/api/v1/stake/decrease", mutationPayload{
		NetUID: netuid, Hotkey: hotkey, Amount: amount,
	}); err != nil {
		return fmt.Errorf("decrease stake net %d: %w", netuid, err)
	}
	return nil
}

type mutationPayload struct {
	NetUID int     `json:"netuid"`
	Hotkey string  `json:"hotkey"`
	Amount float64 `json:"amount"`
}

func (c *SubtensorClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *SubtensorClient) postJSON(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *SubtensorClient) do(req *http.Request, out interface{}) error {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
