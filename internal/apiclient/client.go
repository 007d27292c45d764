// Package apiclient talks to the UnlimitedData GH backend over HTTP.
//
// The client is thin: one method per endpoint, no retries and no
// caching. Callers decide what to do with failures.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/config"
	"github.com/unlimiteddatagh/bulkorder/internal/logging"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "X-Idempotency-Key"

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 8 << 20
)

// ErrDecode marks a response that could not be decoded or failed schema checks.
var ErrDecode = errors.New("malformed response")

// HTTPError is a non-2xx reply.
type HTTPError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is a backend API client. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	cfg      config.APIConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// New creates a client for the API described by cfg.
func New(cfg config.APIConfig, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		cfg:      cfg,
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// GetCatalog fetches the price list for every network. Rows naming an unknown
// network are skipped.
func (c *Client) GetCatalog(ctx context.Context) ([]types.PriceCatalogEntry, error) {
	body, _, err := c.do(ctx, http.MethodGet, c.cfg.CatalogPath, nil, "", nil)
	if err != nil {
		return nil, err
	}

	rows, err := decodeCatalog(body)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if err := c.validate.Struct(&rows[i]); err != nil {
			return nil, fmt.Errorf("%w: catalog row %d: %v", ErrDecode, i, err)
		}
	}

	entries := make([]types.PriceCatalogEntry, 0, len(rows))
	for _, row := range rows {
		network, err := types.ParseNetwork(row.Network)
		if err != nil {
			c.logger.Debug("skipping catalog row", zap.String("network", row.Network), zap.Int("capacity_gb", row.CapacityGB))
			continue
		}
		entries = append(entries, types.PriceCatalogEntry{
			CapacityGB: row.CapacityGB,
			Network:    network,
			UnitPrice:  *row.UnitPrice,
		})
	}

	c.logger.Debug("fetched catalog", zap.Int("entries", len(entries)))
	return entries, nil
}

// decodeCatalog accepts a bare array or a {"data": [...]} envelope.
func decodeCatalog(body []byte) ([]CatalogEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []CatalogEntry
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return rows, nil
	}

	var env catalogResponse
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: catalog response has no data", ErrDecode)
	}
	return env.Data, nil
}

// SubmitBulkOrder posts one bulk order. It never retries.
func (c *Client) SubmitBulkOrder(ctx context.Context, token string, req BulkOrderRequest) (*BulkOrderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bulk order: %w", err)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	body, requestID, err := c.do(ctx, http.MethodPost, c.cfg.BulkOrderPath, nil, token, payload,
		header{HeaderIdempotencyKey, key})
	if err != nil {
		return nil, err
	}

	var resp BulkOrderResponse
	if err := c.decode(body, &resp); err != nil {
		return nil, err
	}
	resp.RequestID = requestID

	return &resp, nil
}

// ListOrders returns the order history of userID, newest first as sent by the server.
func (c *Client) ListOrders(ctx context.Context, token, userID string) ([]types.OrderRecord, error) {
	query := url.Values{}
	query.Set("userId", userID)

	body, _, err := c.do(ctx, http.MethodGet, c.cfg.OrderHistoryPath, query, token, nil)
	if err != nil {
		return nil, err
	}

	var resp historyResponse
	if err := c.decode(body, &resp); err != nil {
		return nil, err
	}

	records := make([]types.OrderRecord, 0, len(resp.Orders))
	for i, o := range resp.Orders {
		network, err := types.ParseNetwork(o.Network)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d: %v", ErrDecode, i, err)
		}
		records = append(records, types.OrderRecord{
			Date:        o.CreatedAt,
			Reference:   o.Reference,
			Network:     network,
			CapacityGB:  o.CapacityGB,
			PhoneNumber: o.PhoneNumber,
			Price:       *o.Price,
			Status:      o.Status,
		})
	}

	return records, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

type header struct{ key, value string }

// do sends one request and returns the body of a 2xx reply along with the
// request id it was sent with.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, payload []byte, extra ...header) ([]byte, string, error) {
	target, err := c.endpoint(path, query)
	if err != nil {
		return nil, "", err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(c.cfg.AuthHeader, c.authValue(token))
	}
	for _, h := range extra {
		req.Header.Set(h.key, h.value)
	}

	log := c.logger.With(zap.String("request_id", requestID), zap.String("method", method), zap.String("path", path))
	log.Debug("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, requestID, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, requestID, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug("received response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, requestID, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			RequestID:  requestID,
		}
	}

	return body, requestID, nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.cfg.BaseURL, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u := base.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) authValue(token string) string {
	if c.cfg.AuthScheme == "" {
		return token
	}
	return c.cfg.AuthScheme + " " + token
}

func (c *Client) decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
