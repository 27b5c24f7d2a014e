// Package firestore provides a REST client for Google Cloud Firestore.
// Used as the production data backend for bills and share links.
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pwasut/harnkan/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("firestore")

// Client wraps HTTP calls to the Firestore REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	projectID  string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a Firestore client.
func NewClient(httpClient *http.Client, baseURL, projectID, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		projectID:  projectID,
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConc),
		logger:     logger,
	}
}

// docURL builds a full URL for a path under the database's documents root
// and appends the API key plus any extra query parameters.
func (c *Client) docURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	u := fmt.Sprintf("%s/projects/%s/databases/(default)/documents%s", c.baseURL, c.projectID, path)
	if encoded := query.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// doRequest executes a request against the Firestore REST API and returns
// the raw body. A 404 returns (nil, nil) so callers can map it to their
// own not-found error.
func (c *Client) doRequest(ctx context.Context, method, url string, payload any) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		c.logger.Error("firestore: failed to create request",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("firestore: request failed",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("firestore: failed to read response body",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("firestore: non-2xx response",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("firestore returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("firestore: request OK",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// runQuery executes a structured query against a collection and returns the
// matching documents.
func (c *Client) runQuery(ctx context.Context, query map[string]any) ([]fsDocument, error) {
	u := c.docURL(":runQuery", nil)
	body, err := c.doRequest(ctx, http.MethodPost, u, map[string]any{"structuredQuery": query})
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var rows []struct {
		Document *fsDocument `json:"document"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}

	docs := make([]fsDocument, 0, len(rows))
	for _, r := range rows {
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}
