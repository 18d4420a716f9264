package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet_info/internal/app/port"
	"wallet_info/pkg/metrics"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// coinGeckoClientImpl implements port.PriceSource against the CoinGecko
// simple/price endpoint.
type coinGeckoClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCoinGeckoClient creates a new price API client.
func NewCoinGeckoClient(baseURL string, timeout time.Duration, logger *zap.Logger) port.PriceSource {
	return &coinGeckoClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("CoinGeckoClient"),
	}
}

// SimplePrices fetches USD prices for a set of CoinGecko coin ids in one
// call. Ids missing from the response are simply absent from the map.
func (c *coinGeckoClientImpl) SimplePrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	requestURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, strings.Join(ids, ","))
	c.logger.Debug("Requesting prices from CoinGecko", zap.Int("idCount", len(ids)))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
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
	metrics.UpstreamDuration.WithLabelValues("coingecko").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("coingecko", "error").Inc()
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("coingecko", "error").Inc()
		return nil, fmt.Errorf("CoinGecko API error: %d", resp.StatusCode())
	}
	metrics.UpstreamRequests.WithLabelValues("coingecko", "ok").Inc()

	var parsed map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CoinGecko response: %w", err)
	}

	prices := make(map[string]float64, len(parsed))
	for id, entry := range parsed {
		prices[id] = entry.USD
	}
	return prices, nil
}
