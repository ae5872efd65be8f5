// Package api is the single gateway to the finance backend. It attaches the
// session token to protected calls and classifies failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finance-client/internal/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// TokenSource provides the current session token, empty when logged out.
type TokenSource interface {
	Token() string
}

// Client talks to one backend base address. Calls are never retried or cached.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *logrus.Entry
}

// NewClient creates a gateway for baseURL. A zero timeout means none.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     logging.For(logger, logging.ComponentGateway),
	}
}

// BaseURL returns the backend address the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request. When protected is set the bearer token is attached,
// and a missing token fails before anything is sent. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, protected bool, in, out any) error {
	var token string
	if protected {
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return ErrUnauthenticated
		}
	}

	body, err := c.send(ctx, method, path, token, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := decodeData(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, token string, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("Backend unreachable")
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.WithError(err).Warn("Failed to read response")
		return nil, fmt.Errorf("%w: read response: %w", ErrUnreachable, err)
	}

	log = log.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode >= http.StatusBadRequest {
		se := &StatusError{Code: resp.StatusCode, Message: serverMessage(body)}
		log.WithError(se).Warn("Backend rejected request")
		return nil, se
	}

	log.Debug("Backend request completed")
	return body, nil
}

// decodeData unmarshals body into out, unwrapping a {"data": ...} envelope
// when the backend uses one.
func decodeData(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty response body")
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
				return json.Unmarshal(data, out)
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}
