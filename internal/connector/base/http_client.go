// Package base provides the HTTP client shared by bank connectors and
// the mapper resolution client: a timeout-bound POST helper wrapped in
// a bounded exponential backoff retry for transient failures.
package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// HTTPClient wraps net/http with retry and structured logging, the
// way every outbound domain client in this codebase talks HTTP.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	name    string
	maxRetries uint64
	apiKey  string
}

func NewHTTPClient(name, baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		name:       name,
		maxRetries: 3,
	}
}

// SetAPIKey attaches the decrypted sponsor-bank credential sent with
// every outbound call. A blank key leaves requests unauthenticated,
// which the sandbox example bank tolerates.
func (c *HTTPClient) SetAPIKey(key string) { c.apiKey = key }

// PostJSON marshals payload, POSTs it with up to maxRetries
// exponential-backoff retries on transport failure, and unmarshals the
// response body into out.
func (c *HTTPClient) PostJSON(ctx context.Context, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + endpoint
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	var respBody []byte
	var statusCode int
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "g2pbridge/"+c.name)
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		log.Debug().Str("client", c.name).Str("url", url).Msg("posting request")

		resp, err := c.client.Do(req)
		if err != nil {
			log.Warn().Str("client", c.name).Str("url", url).Err(err).Msg("request failed, retrying")
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		statusCode = resp.StatusCode
		respBody = b

		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
		}
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	log.Debug().Str("client", c.name).Int("status", statusCode).Msg("received response")

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", c.name, err)
	}
	return nil
}
