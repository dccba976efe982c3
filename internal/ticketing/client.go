package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/ticket-assistant/pkg/util/errorutil"
)

const (
	apiPrefix = "/api/v1"

	// FallbackGroupID is used when no active group exists.
	FallbackGroupID = 1
	// FallbackCustomerRoleID is the stock customer role of a fresh instance.
	FallbackCustomerRoleID = 3
	// MaxExpandedTickets caps article expansion per batch.
	MaxExpandedTickets = 10

	defaultSearchLimit = 10
	maxResponseBytes   = 16 << 20
)

// Client issues authenticated calls against the ticketing REST API.
type Client struct {
	conn           Connection
	http           *http.Client
	supportAddress string
	logger         *zap.Logger
}

// Connection returns the instance this client talks to.
func (c *Client) Connection() Connection {
	return c.conn
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out any) error {
	return c.do(ctx, operation, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, operation, path string, body, out any) error {
	return c.do(ctx, operation, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewRemoteAPIError(operation, 0, "", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.conn.BaseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.NewRemoteAPIError(operation, 0, "", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.conn.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("ticketing request failed", zap.String("operation", operation), zap.Error(err))
		return apperrors.NewRemoteAPIError(operation, 0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.NewRemoteAPIError(operation, resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		c.logger.Warn("ticketing request rejected",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return apperrors.NewRemoteAPIError(operation, resp.StatusCode, detail, nil)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewRemoteAPIError(operation, resp.StatusCode, "", err)
	}
	return nil
}
