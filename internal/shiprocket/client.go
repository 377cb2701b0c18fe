// Package shiprocket is the client for the Shiprocket fulfillment API and
// its signed status webhooks.
package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrAuth is returned when token acquisition fails. The cache is left empty
// so the next call retries.
var ErrAuth = errors.New("shiprocket: authentication failed")

// Shiprocket tokens are valid for 10 days; refresh a day early.
const defaultTokenTTL = 9 * 24 * time.Hour

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// Client authenticates lazily and pushes fulfillment orders.
type Client struct {
	BaseURL  string
	Email    string
	Password string
	HTTP     *http.Client
	TokenTTL time.Duration

	mu  sync.Mutex
	tok cachedToken
}

func NewClient(baseURL, email, password string) *Client {
	return &Client{
		BaseURL:  baseURL,
		Email:    email,
		Password: password,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		TokenTTL: defaultTokenTTL,
	}
}

// Token returns the cached bearer token, authenticating when the cache is
// empty or past its expiry. The mutex is held across the refresh so
// concurrent first calls produce a single authentication request; late
// arrivals read the freshly cached value.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok.value != "" && time.Now().Before(c.tok.expiresAt) {
		return c.tok.value, nil
	}

	body, _ := json.Marshal(map[string]string{"email": c.Email, "password": c.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/external/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "shiprocket: build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", errors.Wrap(ErrAuth, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(ErrAuth, "decode login response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Token == "" {
		logrus.WithFields(logrus.Fields{"status": resp.StatusCode, "message": out.Message}).Warn("shiprocket authentication failed")
		return "", errors.Wrapf(ErrAuth, "status %d", resp.StatusCode)
	}

	c.tok = cachedToken{value: out.Token, expiresAt: time.Now().Add(c.TokenTTL)}
	logrus.Info("authenticated with Shiprocket")
	return c.tok.value, nil
}

// CreateOrder pushes an adhoc order for fulfillment. The collaborator's
// status code and decoded body are returned as-is so the route can pass
// rejections through.
func (c *Client) CreateOrder(ctx context.Context, order map[string]any) (int, map[string]any, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return 0, nil, err
	}

	fillDefaults(order)

	body, err := json.Marshal(order)
	if err != nil {
		return 0, nil, errors.Wrap(err, "shiprocket: encode order")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/external/orders/create/adhoc", bytes.NewReader(body))
	if err != nil {
		return 0, nil, errors.Wrap(err, "shiprocket: build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "shiprocket: create order")
	}
	defer func() { _ = resp.Body.Close() }()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "shiprocket: decode order response")
	}
	return resp.StatusCode, data, nil
}

// fillDefaults sets order_id and order_date when the storefront omits them.
func fillDefaults(order map[string]any) {
	if v, ok := order["order_id"].(string); !ok || v == "" {
		order["order_id"] = fmt.Sprintf("ORD-%d", time.Now().UnixMilli())
	}
	if v, ok := order["order_date"].(string); !ok || v == "" {
		order["order_date"] = time.Now().Format("2006-01-02")
	}
}
