package client

import (
	"context"
	"fmt"
	"time"

	"wallet_info/pkg/metrics"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// SubgraphClient posts GraphQL queries to hosted protocol subgraphs.
type SubgraphClient struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewSubgraphClient creates a new GraphQL client.
func NewSubgraphClient(timeout time.Duration, logger *zap.Logger) *SubgraphClient {
	return &SubgraphClient{
		client:  &fasthttp.Client{},
		timeout: timeout,
		logger:  logger.Named("SubgraphClient"),
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Query posts the query to the subgraph URL and unmarshals the "data" member
// of the response into out.
func (c *SubgraphClient) Query(ctx context.Context, url, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal subgraph query: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.UpstreamDuration.WithLabelValues("subgraph").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("subgraph", "error").Inc()
		return fmt.Errorf("subgraph request to %s failed: %w", url, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("subgraph", "error").Inc()
		return fmt.Errorf("subgraph request to %s failed with status %d", url, resp.StatusCode())
	}
	metrics.UpstreamRequests.WithLabelValues("subgraph", "ok").Inc()

	var envelope struct {
		Data   jsoniterRaw `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal subgraph response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("subgraph query error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("subgraph returned no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal subgraph data: %w", err)
	}
	return nil
}

// jsoniterRaw defers decoding of the data member until the adapter's
// concrete type is known.
type jsoniterRaw []byte

func (r *jsoniterRaw) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r jsoniterRaw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}
