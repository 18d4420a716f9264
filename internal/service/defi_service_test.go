package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet_info/internal/client"
	"wallet_info/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDeFiService(t *testing.T) *defiServiceImpl {
	t.Helper()
	subgraph := client.NewSubgraphClient(2*time.Second, zap.NewNop())
	rest := client.NewRESTClient("defi-test", 2*time.Second, zap.NewNop())
	svc := NewDeFiService(subgraph, rest, zap.NewNop())
	return svc.(*defiServiceImpl)
}

func TestGetAllPositionsMergesProtocols(t *testing.T) {
	uniswap := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{"positions":[
			{"id":"pos1","liquidity":"12345","pool":{"feeTier":"3000",
			 "token0":{"symbol":"WETH"},"token1":{"symbol":"USDC"}}}]}}`))
	}))
	t.Cleanup(uniswap.Close)

	aave := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/data/users/"))
		w.Write([]byte(`{"reserves":[
			{"reserve":{"symbol":"DAI","liquidityRate":"0.031"},"currentATokenBalance":"500"},
			{"reserve":{"symbol":"USDC","liquidityRate":"0.02"},"currentATokenBalance":"0"}]}`))
	}))
	t.Cleanup(aave.Close)

	compound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"accounts":[{"tokens":[
			{"symbol":"cETH","supply_balance_underlying":{"value":"2.5"}}]}]}`))
	}))
	t.Cleanup(compound.Close)

	svc := newTestDeFiService(t)
	svc.uniswapURL = uniswap.URL
	svc.aaveURL = aave.URL
	svc.compoundURL = compound.URL

	positions := svc.GetAllPositions(context.Background(), deadAddress, []int64{1})

	require.Len(t, positions, 3)
	byProtocol := make(map[string]entity.DeFiPosition)
	for _, p := range positions {
		byProtocol[p.Protocol] = p
	}

	uni := byProtocol["Uniswap V3"]
	assert.Equal(t, entity.PositionLiquidity, uni.Type)
	assert.Equal(t, "12345", uni.Value)
	assert.Equal(t, "WETH/USDC", uni.Details["pair"])

	lending := byProtocol["Aave V2"]
	assert.Equal(t, entity.PositionLending, lending.Type)
	assert.Equal(t, "500", lending.Value)
	assert.Equal(t, "0.031", lending.APR)
	assert.Equal(t, "DAI", lending.Details["asset"])

	comp := byProtocol["Compound"]
	assert.Equal(t, "2.5", comp.Value)
}

func TestGetAllPositionsFailSoft(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)

	aave := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"reserves":[
			{"reserve":{"symbol":"DAI","liquidityRate":"0.03"},"currentATokenBalance":"10"}]}`))
	}))
	t.Cleanup(aave.Close)

	svc := newTestDeFiService(t)
	svc.uniswapURL = down.URL
	svc.compoundURL = down.URL
	svc.aaveURL = aave.URL

	positions := svc.GetAllPositions(context.Background(), deadAddress, []int64{1})

	require.Len(t, positions, 1)
	assert.Equal(t, "Aave V2", positions[0].Protocol)
}

func TestGetAllPositionsUnknownNetwork(t *testing.T) {
	svc := newTestDeFiService(t)

	positions := svc.GetAllPositions(context.Background(), deadAddress, []int64{424242, 534352})
	assert.Empty(t, positions)
	assert.NotNil(t, positions)
}
