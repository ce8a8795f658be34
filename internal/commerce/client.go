package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/omnishop/checkout-service/config"
	"github.com/omnishop/checkout-service/internal/model"
)

// Client implements CartService, OrderService and AddressService over the
// commerce backend's JSON API. It does not retry; retry policy belongs to the
// callers.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg config.CommerceConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  log,
	}
}

func (c *Client) CheckProductsInCart(ctx context.Context, items []model.CheckoutItem) (*model.CartReconciliation, error) {
	body := struct {
		Items []model.CheckoutItem `json:"items"`
	}{Items: items}

	var rec model.CartReconciliation
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/check-products", body, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) CreateOrder(ctx context.Context, req *model.CreateOrderRequest, idempotencyKey string) (*model.CreateOrderResponse, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	var resp model.CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", req, headers, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	var out struct {
		Addresses []model.Address `json:"addresses"`
	}
	path := "/api/v1/users/" + url.PathEscape(userID) + "/addresses"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, userID string, input *model.AddressInput) (*model.Address, error) {
	var out model.Address
	path := "/api/v1/users/" + url.PathEscape(userID) + "/addresses"
	if err := c.do(ctx, http.MethodPost, path, input, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAddress(ctx context.Context, addressID string, input *model.AddressInput) (*model.Address, error) {
	var out model.Address
	path := "/api/v1/addresses/" + url.PathEscape(addressID)
	if err := c.do(ctx, http.MethodPut, path, input, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAddress(ctx context.Context, addressID string) error {
	path := "/api/v1/addresses/" + url.PathEscape(addressID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// errorBody is the backend's error envelope. validationData is only present
// for CART_VALIDATION_FAILED.
type errorBody struct {
	Code           ErrorCode                 `json:"code"`
	Message        string                    `json:"message"`
	ValidationData *model.CartReconciliation `json:"validationData,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers map[string]string, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("commerce api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		apiErr.ValidationData = eb.ValidationData
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	c.logger.Warn("commerce api error",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("code", string(apiErr.Code)),
	)
	return apiErr
}
