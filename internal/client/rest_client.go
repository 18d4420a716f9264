package client

import (
	"context"
	"fmt"
	"time"

	"wallet_info/pkg/metrics"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// RESTClient is a generic JSON GET client for protocol REST APIs
// (Aave, Compound).
type RESTClient struct {
	client   *fasthttp.Client
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRESTClient creates a new JSON GET client. provider labels metrics.
func NewRESTClient(provider string, timeout time.Duration, logger *zap.Logger) *RESTClient {
	return &RESTClient{
		client:   &fasthttp.Client{},
		provider: provider,
		timeout:  timeout,
		logger:   logger.Named("RESTClient").With(zap.String("provider", provider)),
	}
}

// GetJSON performs a GET and unmarshals the body into out.
func (c *RESTClient) GetJSON(ctx context.Context, url string, out interface{}) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	metrics.UpstreamDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.provider, "error").Inc()
		return fmt.Errorf("%s request to %s failed: %w", c.provider, url, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.UpstreamRequests.WithLabelValues(c.provider, "error").Inc()
		return fmt.Errorf("%s request to %s failed with status %d", c.provider, url, resp.StatusCode())
	}
	metrics.UpstreamRequests.WithLabelValues(c.provider, "ok").Inc()

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", c.provider, err)
	}
	return nil
}
