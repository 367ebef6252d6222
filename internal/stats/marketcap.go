package stats

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"libraStats/internal/dex"
	"libraStats/internal/fixed"
	"libraStats/internal/model"
	"libraStats/internal/multicall"
	"libraStats/internal/telemetry"
)

const labelTotalSupply = "totalSupply"

func lockedLabel(addr common.Address) string { return "locked:" + addr.Hex() }

func (e *Engine) computeMarketCap(ctx context.Context) (model.MarketCap, error) {
	calls, governance, err := e.governancePriceCalls(prefixGovernance)
	if err != nil {
		return model.MarketCap{}, err
	}
	erc20ABI, err := dex.ERC20ABI()
	if err != nil {
		return model.MarketCap{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	calls = append(calls, multicall.Call{Label: labelTotalSupply, Target: governance, ABI: erc20ABI, Method: "totalSupply"})
	lockers := e.reg.LockedAddresses()
	for _, addr := range lockers {
		calls = append(calls, multicall.Call{
			Label:  lockedLabel(addr),
			Target: governance,
			ABI:    erc20ABI,
			Method: "balanceOf",
			Args:   []interface{}{addr},
		})
	}

	results, err := e.read(ctx, string(model.KindMarketCap), calls)
	if err != nil {
		return model.MarketCap{}, err
	}
	price, err := pairPriceFrom(results, prefixGovernance, governance)
	if err != nil {
		return model.MarketCap{}, err
	}
	supply, err := results.BigInt(labelTotalSupply, 0)
	if err != nil {
		return model.MarketCap{}, err
	}
	balances := make([]decimal.Decimal, 0, len(lockers))
	for _, addr := range lockers {
		balance, err := results.BigInt(lockedLabel(addr), 0)
		if err != nil {
			return model.MarketCap{}, err
		}
		balances = append(balances, fixed.FromBig(balance))
	}
	locked := lo.Reduce(balances, func(sum, b decimal.Decimal, _ int) decimal.Decimal {
		return sum.Add(b)
	}, decimal.Zero)

	totalSupply := fixed.FromBig(supply)
	circulating := totalSupply.Sub(locked)
	mc := model.MarketCap{
		TotalSupply: totalSupply,
		Locked:      locked,
		Price:       fixed.Present(price.Price),
		MarketCap:   fixed.Present(fixed.Div(circulating.Mul(price.Price), fixed.Pow10(18))),
	}
	telemetry.PublishedUSD.WithLabelValues("market_cap").Set(mc.MarketCap.InexactFloat64())
	telemetry.PublishedUSD.WithLabelValues("price").Set(mc.Price.InexactFloat64())
	e.logger.Debug("market cap computed",
		zap.String("chain", e.reg.ChainID()),
		zap.Int("lockers", len(lockers)),
		zap.String("marketCap", mc.MarketCap.String()),
	)
	return mc, nil
}
