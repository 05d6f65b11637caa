// Package gateway implements the HTTP client for the payment gateway's REST
// API: payment creation and fetch, merchant-order fetch, and the OAuth token
// endpoint used for merchant account linking.
//
// Every response is decoded into a typed struct at the boundary; callers
// never see raw JSON. Non-2xx responses surface as *APIError carrying the
// gateway's error payload for diagnostics; transport failures surface as
// wrapped errors that callers classify as transient.
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

// APIError is a non-2xx response from the gateway. Body holds the gateway's
// error payload verbatim for diagnostics. It never contains credentials.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.StatusCode, e.Body)
}

// Client is the payment-gateway HTTP client. It holds no tenant state:
// every per-merchant call takes the tenant's access token explicitly, so a
// single client serves all tenants.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client against the given API root.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreatePayment submits a payment on the merchant's behalf. The access token
// is the merchant's bearer credential from the credential store.
func (c *Client) CreatePayment(ctx context.Context, accessToken string, req CreatePaymentRequest) (*Payment, error) {
	var p Payment
	if err := c.do(ctx, http.MethodPost, "/v1/payments", accessToken, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPayment fetches the authoritative current state of a payment.
func (c *Client) GetPayment(ctx context.Context, accessToken, paymentID string) (*Payment, error) {
	var p Payment
	path := "/v1/payments/" + url.PathEscape(paymentID)
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOrder fetches a merchant order and its attached payments.
func (c *Client) GetOrder(ctx context.Context, accessToken, orderID string) (*Order, error) {
	var o Order
	path := "/merchant_orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ExchangeOAuthCode performs the server-to-server authorization-code
// exchange. This is the only call authenticated by platform credentials
// (inside the body) rather than a tenant bearer token.
func (c *Client) ExchangeOAuthCode(ctx context.Context, req OAuthTokenRequest) (*OAuthTokenResponse, error) {
	var tok OAuthTokenResponse
	if err := c.do(ctx, http.MethodPost, "/oauth/token", "", req, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// do executes one request/response cycle: encode body, set auth, classify
// the status code, decode into out.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
