// Package client holds plain HTTP clients for external services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// AgentClient calls the external chat agent service backing the in-app
// widget.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAgentClient creates a new AgentClient.
func NewAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AgentClient {
	return &AgentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Call forwards the user's message plus bill context to the agent and
// returns its reply.
func (c *AgentClient) Call(ctx context.Context, req *domain.AgentRequest) (*domain.AgentResponse, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.Call")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID))

	var agentResp domain.AgentResponse

	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/v1/chat", c.baseURL)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("agent API returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&agentResp)
	})
	if err != nil {
		if _, open := err.(*domain.ErrCircuitOpen); open {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "agent", Err: err}
	}

	return &agentResp, nil
}
