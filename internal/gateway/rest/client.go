package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/formpay/formpay/internal/gateway/domain"
)

const (
	maxAttempts = 3
	baseBackoff = 500 * time.Millisecond
)

// Client is a thin JSON client for provider APIs. Requests are retried with
// bounded exponential backoff on network errors and 5xx responses. Only
// idempotent provider calls (status queries, link creation with a caller
// supplied id) go through here.
type Client struct {
	http *http.Client
	log  *zap.Logger
}

func NewClient(log *zap.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: 15 * time.Second},
		log:  log.Named("gateway.rest"),
	}
}

// DoJSON issues the request and decodes a 2xx response body into out.
// A 4xx response is surfaced as a status error without retrying; anything
// else is retried up to maxAttempts.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		status, respBody, err := c.do(ctx, method, url, headers, encoded)
		if err != nil {
			lastErr = err
			c.log.Warn("provider request failed",
				zap.String("method", method),
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		if status >= 200 && status < 300 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			return json.Unmarshal(respBody, out)
		}
		if status >= 400 && status < 500 {
			return fmt.Errorf("%w: status %d", domain.ErrRequestRejected, status)
		}

		lastErr = fmt.Errorf("status %d", status)
		c.log.Warn("provider returned server error",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", status),
			zap.Int("attempt", attempt+1),
		)
	}

	return fmt.Errorf("%w: %v", domain.ErrUnavailable, lastErr)
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
