// Package subgraph queries the stable swap subgraph over GraphQL.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// ErrQuery is returned when the endpoint answers with errors and no data.
var ErrQuery = errors.New("graphql query failed")

// Options tune the HTTP transport. Retries default to zero: a failed query
// fails the metric.
type Options struct {
	Timeout time.Duration
	Retries int
}

// Client posts GraphQL documents to a single endpoint.
type Client struct {
	endpoint string
	http     *retryablehttp.Client
	logger   *zap.Logger
}

// NewClient builds a Client for endpoint.
func NewClient(endpoint string, opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.Retries
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 3 * time.Second
	hc.HTTPClient.Timeout = opts.Timeout
	hc.Logger = nil
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{endpoint: endpoint, http: hc, logger: logger}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLError is one entry of a response's errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Query runs document with variables and decodes the data member into out.
// Errors alongside data are logged and the data is used.
func (c *Client) Query(ctx context.Context, document string, variables map[string]any, out any) error {
	body, err := json.Marshal(request{Query: document, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("subgraph request failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	hasData := len(decoded.Data) > 0 && string(decoded.Data) != "null"
	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			messages = append(messages, e.Message)
		}
		if !hasData {
			return fmt.Errorf("%w: %s", ErrQuery, strings.Join(messages, "; "))
		}
		c.logger.Warn("subgraph partial errors", zap.Strings("errors", messages))
	}
	if !hasData {
		return fmt.Errorf("%w: empty data", ErrQuery)
	}

	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
