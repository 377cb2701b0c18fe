// Package phonepe is a minimal client for the PhonePe standard checkout
// REST API: OAuth token, hosted checkout creation, and order status.
package phonepe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// GatewayError is a rejection from the gateway itself, as opposed to a
// transport failure. Routes answer it as gateway-rejected / gateway-error.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("phonepe: gateway rejected (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("phonepe: gateway rejected (status %d)", e.Status)
}

type cachedToken struct {
	value     string
	expiresAt time.Time
}

type Client struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	ClientVersion string
	HTTP          *http.Client

	mu  sync.Mutex
	tok cachedToken
}

func NewClient(baseURL, clientID, clientSecret, clientVersion string) *Client {
	return &Client{
		BaseURL:       baseURL,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		ClientVersion: clientVersion,
		HTTP:          &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRequest describes one hosted checkout session.
type CreateRequest struct {
	MerchantOrderID string
	AmountPaise     int64
	RedirectURL     string
	MetaInfo        map[string]string
}

// CreateResponse is the best-effort mapping of the gateway's create
// response; RedirectURL is resolved from either of the two field shapes the
// gateway has used across versions.
type CreateResponse struct {
	OrderID     string
	State       string
	RedirectURL string
}

// token returns a cached OAuth token, fetching under the lock so concurrent
// callers issue a single token request.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.value != "" && time.Now().Before(c.tok.expiresAt) {
		return c.tok.value, nil
	}

	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("client_version", c.ClientVersion)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "phonepe: build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "phonepe: token request")
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "phonepe: decode token response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.AccessToken == "" {
		return "", &GatewayError{Status: resp.StatusCode, Message: out.Message}
	}

	exp := time.Now().Add(10 * time.Minute)
	if out.ExpiresAt > 0 {
		// refresh a minute before the gateway's expiry
		exp = time.Unix(out.ExpiresAt, 0).Add(-time.Minute)
	}
	c.tok = cachedToken{value: out.AccessToken, expiresAt: exp}
	return c.tok.value, nil
}

// CreatePayment creates a hosted checkout session and returns the
// gateway-provided redirect URL.
func (c *Client) CreatePayment(ctx context.Context, in CreateRequest) (*CreateResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"merchantOrderId": in.MerchantOrderID,
		"amount":          in.AmountPaise,
		"metaInfo":        in.MetaInfo,
		"paymentFlow": map[string]any{
			"type": "PG_CHECKOUT",
			"merchantUrls": map[string]any{
				"redirectUrl": in.RedirectURL,
			},
		},
	}
	raw, err := c.post(ctx, "/checkout/v2/pay", token, payload)
	if err != nil {
		return nil, err
	}

	out := &CreateResponse{}
	if v, ok := raw["orderId"].(string); ok {
		out.OrderID = v
	}
	if v, ok := raw["state"].(string); ok {
		out.State = v
	}
	out.RedirectURL = redirectFrom(raw)
	if out.RedirectURL == "" {
		return nil, &GatewayError{Status: http.StatusOK, Message: messageFrom(raw)}
	}
	return out, nil
}

// OrderStatus fetches the gateway's view of a checkout session. The decoded
// payload is passed through to the caller untouched.
func (c *Client) OrderStatus(ctx context.Context, merchantOrderID string) (map[string]any, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/checkout/v2/order/"+url.PathEscape(merchantOrderID)+"/status", nil)
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: build status request")
	}
	req.Header.Set("Authorization", "O-Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: status request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := decodeBody(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: decode status response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{Status: resp.StatusCode, Message: messageFrom(raw)}
	}
	return raw, nil
}

func (c *Client) post(ctx context.Context, path, token string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "O-Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := decodeBody(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "phonepe: decode response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{Status: resp.StatusCode, Message: messageFrom(raw)}
	}
	return raw, nil
}

func decodeBody(r io.Reader) (map[string]any, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// redirectFrom tolerates both response shapes the gateway has shipped:
// a top-level redirectUrl and the older instrumentResponse.redirectInfo.url.
func redirectFrom(raw map[string]any) string {
	if v, ok := raw["redirectUrl"].(string); ok && v != "" {
		return v
	}
	if ir, ok := raw["instrumentResponse"].(map[string]any); ok {
		if ri, ok := ir["redirectInfo"].(map[string]any); ok {
			if v, ok := ri["url"].(string); ok {
				return v
			}
		}
	}
	return ""
}

func messageFrom(raw map[string]any) string {
	for _, k := range []string{"message", "error", "code"} {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
